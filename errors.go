package qsim

import "errors"

/*
Error classes raised by the simulator. Errors from building and running
circuits wrap one of these, so callers can branch with errors.Is.

Addressing and pairing errors are caller mistakes and are reported as soon as
the offending gate is built or resolved. Rule and probability errors mean the
kind registry or the engine itself is broken.
*/
var (
	// ErrSpecType is returned when a qubit specifier element is neither an
	// integer nor a range.
	ErrSpecType = errors.New("indices must be integers or ranges")

	// ErrIndexOutOfRange is returned when a resolved index falls outside [0, n).
	ErrIndexOutOfRange = errors.New("qubit index out of range")

	// ErrZeroStep is returned for a range whose step is zero.
	ErrZeroStep = errors.New("range step cannot be zero")

	// ErrPairing covers malformed control/target specifiers.
	ErrPairing = errors.New("invalid control and target qubit pairing")

	// ErrTooManyQubits is returned when a gate list addresses more qubits
	// than a dense state vector can hold.
	ErrTooManyQubits = errors.New("too many qubits for a state vector")

	// ErrMalformedKind is returned for a kind registered without a name.
	ErrMalformedKind = errors.New("gate kind has no canonical name")

	// ErrAmbiguousRule is returned for a kind with both a native rule and a
	// decomposition.
	ErrAmbiguousRule = errors.New("gate kind defines both a native rule and a decomposition")

	// ErrDuplicateKind is returned when a kind name is registered twice.
	ErrDuplicateKind = errors.New("gate kind already registered")

	// ErrUnknownKind is returned for a Kind tag missing from the registry.
	ErrUnknownKind = errors.New("unknown gate kind")

	// ErrParams is returned when a gate's parameter count does not fit its shape.
	ErrParams = errors.New("wrong number of gate parameters")

	// ErrNoRule is returned when a run reaches a kind it cannot execute.
	ErrNoRule = errors.New("gate kind has neither a native rule nor a decomposition")

	// ErrZeroProbability is returned when a sampled outcome has no mass left.
	ErrZeroProbability = errors.New("measured outcome has zero probability mass")

	// ErrSchedulingTimeout is returned when no worker takes a job in time.
	ErrSchedulingTimeout = errors.New("no available workers")

	// ErrPoolClosed is returned for jobs scheduled on, or left in, a closed pool.
	ErrPoolClosed = errors.New("pool is closed")
)
