package qsim

import (
	"fmt"
	"math/rand/v2"
)

const (
	// maxDecomposeDepth bounds recursive decomposition of a single gate.
	maxDecomposeDepth = 64

	// MaxQubits is the largest qubit count Run simulates; a state vector of
	// that size holds 2^30 amplitudes (16 GiB).
	MaxQubits = 30
)

/*
Execution is the state of one simulation run. It is handed to native kind
rules, which resolve their gate's qubits against N and transform State.
An Execution is owned by the goroutine running it.
*/
type Execution struct {
	n        int
	state    *StateVector
	sampler  *Sampler
	register []int
	measured bool
}

func newExecution(n int, sampler *Sampler) *Execution {
	return &Execution{
		n:        n,
		state:    NewStateVector(n),
		sampler:  sampler,
		register: make([]int, n),
	}
}

// N is the qubit count of the run.
func (ex *Execution) N() int { return ex.n }

// State is the live state vector of the run.
func (ex *Execution) State() *StateVector { return ex.state }

// Targets resolves a one-qubit gate's specifier.
func (ex *Execution) Targets(g Gate) ([]int, error) {
	return Resolve(g.Targets, ex.n)
}

// Pairs resolves a two-qubit gate's (controls, targets) specifier.
func (ex *Execution) Pairs(g Gate) ([][2]int, error) {
	return ResolvePairs(g.Targets, ex.n)
}

// Measure samples qubit q, collapses the state and records the outcome.
func (ex *Execution) Measure(q int) (int, error) {
	if q < 0 || q >= ex.n {
		return 0, fmt.Errorf("%w: %d for %d qubits", ErrIndexOutOfRange, q, ex.n)
	}

	bit, err := ex.sampler.Measure(ex.state, q)
	if err != nil {
		return 0, err
	}

	ex.register[q] = bit
	ex.measured = true

	return bit, nil
}

func (ex *Execution) apply(g Gate, depth int) error {
	def, ok := g.Kind.Def()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(g.Kind))
	}

	switch {
	case def.Apply != nil:
		return def.Apply(ex, g)
	case def.Decompose != nil:
		if depth >= maxDecomposeDepth {
			return fmt.Errorf("%w: decomposition of %s does not terminate", ErrNoRule, def.Name)
		}

		expanded, err := def.Decompose(g)
		if err != nil {
			return err
		}

		for _, sub := range expanded {
			if err := ex.apply(sub, depth+1); err != nil {
				return err
			}
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrNoRule, def.Name)
	}
}

func (ex *Execution) record() MeasurementRecord {
	if !ex.measured {
		return nil
	}

	return append(MeasurementRecord(nil), ex.register...)
}

// Result is the outcome of one run.
type Result struct {
	State  *StateVector
	Record MeasurementRecord
}

/*
Run simulates gates from |0...0⟩ and returns the final state together with
the measurement record. The qubit count is derived from the gates and may
not exceed MaxQubits. rng feeds every measurement of the run; nil selects a
source seeded from ambient entropy. On error no partial result is returned.

Run never modifies gates, so one gate list may be run from many goroutines,
each with its own rng.
*/
func Run(gates []Gate, rng *rand.Rand) (*Result, error) {
	n := FindNQubits(gates)
	if n > MaxQubits {
		return nil, fmt.Errorf("%w: %d, at most %d", ErrTooManyQubits, n, MaxQubits)
	}

	ex := newExecution(n, NewSampler(rng))

	for i, g := range gates {
		if err := ex.apply(g, 0); err != nil {
			return nil, fmt.Errorf("gate %d %s: %w", i, g, err)
		}
	}

	return &Result{State: ex.state, Record: ex.record()}, nil
}

func oneQubitRule(kernel func(*StateVector, int)) ApplyFunc {
	return func(ex *Execution, g Gate) error {
		targets, err := ex.Targets(g)
		if err != nil {
			return err
		}

		for _, q := range targets {
			kernel(ex.state, q)
		}
		return nil
	}
}

func rotationRule(kernel func(*StateVector, int, float64)) ApplyFunc {
	return func(ex *Execution, g Gate) error {
		targets, err := ex.Targets(g)
		if err != nil {
			return err
		}

		theta := g.Theta()
		for _, q := range targets {
			kernel(ex.state, q, theta)
		}
		return nil
	}
}

// twoQubitRule applies kernel pair by pair, in resolution order.
func twoQubitRule(kernel func(*StateVector, int, int)) ApplyFunc {
	return func(ex *Execution, g Gate) error {
		pairs, err := ex.Pairs(g)
		if err != nil {
			return err
		}

		for _, p := range pairs {
			kernel(ex.state, p[0], p[1])
		}
		return nil
	}
}

func measureRule(ex *Execution, g Gate) error {
	targets, err := ex.Targets(g)
	if err != nil {
		return err
	}

	for _, q := range targets {
		if _, err := ex.Measure(q); err != nil {
			return err
		}
	}
	return nil
}
