package qsim

import (
	"fmt"
	"strconv"
)

// Shape groups gate kinds by how they are addressed and parametrised.
type Shape int

const (
	// OneQubit kinds act on each resolved target independently.
	OneQubit Shape = iota
	// Rotation kinds are one-qubit kinds carrying an angle in radians.
	Rotation
	// TwoQubit kinds act on (control, target) pairs.
	TwoQubit
	// Measurement kinds collapse each resolved target.
	Measurement
)

func (s Shape) String() string {
	switch s {
	case OneQubit:
		return "one-qubit"
	case Rotation:
		return "rotation"
	case TwoQubit:
		return "two-qubit"
	case Measurement:
		return "measurement"
	default:
		return "Shape(" + strconv.Itoa(int(s)) + ")"
	}
}

// params is the number of numeric parameters a shape carries.
func (s Shape) params() int {
	if s == Rotation {
		return 1
	}

	return 0
}

/*
Gate is one immutable gate instance of a circuit. Targets holds the qubit
specifier; for two-qubit kinds it is a Tuple of (controls, targets).
*/
type Gate struct {
	Kind    Kind
	Targets QubitSpec

	params []float64
}

/*
NewGate builds a gate of a registered kind. The parameter count must match
the kind's shape.
*/
func NewGate(kind Kind, targets QubitSpec, params ...float64) (Gate, error) {
	def, ok := kind.Def()
	if !ok {
		return Gate{}, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}

	if def.Name == "" {
		return Gate{}, fmt.Errorf("%w: kind %d", ErrMalformedKind, int(kind))
	}

	if want := def.Shape.params(); len(params) != want {
		return Gate{}, fmt.Errorf(
			"%w: %s takes %d, got %d", ErrParams, def.Name, want, len(params),
		)
	}

	if targets == nil {
		return Gate{}, fmt.Errorf("%w, not nil", ErrSpecType)
	}

	if def.Shape == TwoQubit {
		if tuple, ok := targets.(Tuple); !ok || len(tuple) != 2 {
			return Gate{}, fmt.Errorf(
				"%w: %s needs control and target qubits", ErrPairing, def.Name,
			)
		}
	}

	g := Gate{Kind: kind, Targets: targets}
	if len(params) > 0 {
		g.params = append([]float64(nil), params...)
	}

	return g, nil
}

// Name is the canonical lower-case name of the gate's kind.
func (g Gate) Name() string {
	return g.Kind.String()
}

// Params returns a copy of the gate's numeric parameters.
func (g Gate) Params() []float64 {
	return append([]float64(nil), g.params...)
}

// Theta is the rotation angle, or 0 for kinds without one.
func (g Gate) Theta() float64 {
	if len(g.params) == 0 {
		return 0
	}

	return g.params[0]
}

// String renders the gate the way it is written with the builder.
func (g Gate) String() string {
	s := g.Name()
	if len(g.params) > 0 {
		s += "("
		for i, p := range g.params {
			if i > 0 {
				s += ", "
			}
			s += strconv.FormatFloat(p, 'g', 6, 64)
		}
		s += ")"
	}

	targets := "nil"
	if g.Targets != nil {
		targets = g.Targets.String()
	}

	return s + "[" + targets + "]"
}
