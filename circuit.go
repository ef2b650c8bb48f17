package qsim

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
)

/*
Circuit is an ordered gate list built through a fluent interface, plus the
history of measurement records of its runs.

Builder methods take qubit specifiers as loose arguments: ints, Index, Range
and Tuple values, or []int. Several arguments form a Tuple. Two-qubit kinds
take exactly two, the controls and the targets:

	c := NewCircuit().H(0).CX(0, 1).RZ(math.Pi / 2).On(Span(0, 2)).M(All())

The first builder error sticks: later builder calls are ignored, Err reports
it and Run fails with it.
*/
type Circuit struct {
	mu    sync.RWMutex
	gates []Gate
	err   error

	runMu   sync.Mutex
	rng     *rand.Rand
	history *History
}

// CircuitOption configures a Circuit at construction.
type CircuitOption func(*Circuit)

// WithSeed makes the circuit's runs reproducible.
func WithSeed(seed uint64) CircuitOption {
	return func(c *Circuit) {
		c.rng = NewRand(&seed)
	}
}

// WithSource draws the circuit's measurements from src.
func WithSource(src rand.Source) CircuitOption {
	return func(c *Circuit) {
		c.rng = rand.New(src)
	}
}

// WithConfig applies the seed and history limit of config.
func WithConfig(config *Config) CircuitOption {
	return func(c *Circuit) {
		if config == nil {
			return
		}
		c.rng = NewRand(config.Seed)
		c.history = NewHistory(config.HistoryLimit)
	}
}

func NewCircuit(opts ...CircuitOption) *Circuit {
	c := &Circuit{history: NewHistory(0)}

	for _, opt := range opts {
		opt(c)
	}

	if c.rng == nil {
		c.rng = NewRand(nil)
	}

	return c
}

/*
Apply appends one gate of kind addressed by targets. It is the generic entry
point behind the named builder methods and the way to use registered kinds.
*/
func (c *Circuit) Apply(kind Kind, params []float64, targets ...any) *Circuit {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c
	}

	spec, err := Spec(targets...)
	if err == nil {
		var g Gate
		if g, err = NewGate(kind, spec, params...); err == nil {
			c.gates = append(c.gates, g)
			return c
		}
	}

	c.err = fmt.Errorf("%s gate %d: %w", kind, len(c.gates), err)
	return c
}

func (c *Circuit) I(targets ...any) *Circuit { return c.Apply(KindI, nil, targets...) }
func (c *Circuit) X(targets ...any) *Circuit { return c.Apply(KindX, nil, targets...) }
func (c *Circuit) Y(targets ...any) *Circuit { return c.Apply(KindY, nil, targets...) }
func (c *Circuit) Z(targets ...any) *Circuit { return c.Apply(KindZ, nil, targets...) }
func (c *Circuit) H(targets ...any) *Circuit { return c.Apply(KindH, nil, targets...) }
func (c *Circuit) S(targets ...any) *Circuit { return c.Apply(KindS, nil, targets...) }
func (c *Circuit) T(targets ...any) *Circuit { return c.Apply(KindT, nil, targets...) }

// CX appends controlled-X gates between controls and targets.
func (c *Circuit) CX(controls, targets any) *Circuit {
	return c.Apply(KindCX, nil, controls, targets)
}

// CZ appends controlled-Z gates between controls and targets.
func (c *Circuit) CZ(controls, targets any) *Circuit {
	return c.Apply(KindCZ, nil, controls, targets)
}

// Swap exchanges the states of a and b, pair by pair.
func (c *Circuit) Swap(a, b any) *Circuit {
	return c.Apply(KindSwap, nil, a, b)
}

// M measures the addressed qubits.
func (c *Circuit) M(targets ...any) *Circuit { return c.Apply(KindMeasure, nil, targets...) }

// Measure is an alias of M.
func (c *Circuit) Measure(targets ...any) *Circuit { return c.M(targets...) }

// RotationBuilder is a rotation kind with its angle bound, waiting for its qubits.
type RotationBuilder struct {
	circuit *Circuit
	kind    Kind
	theta   float64
}

func (c *Circuit) RX(theta float64) *RotationBuilder { return &RotationBuilder{c, KindRX, theta} }
func (c *Circuit) RY(theta float64) *RotationBuilder { return &RotationBuilder{c, KindRY, theta} }
func (c *Circuit) RZ(theta float64) *RotationBuilder { return &RotationBuilder{c, KindRZ, theta} }

// On appends the rotation on targets and returns the circuit.
func (r *RotationBuilder) On(targets ...any) *Circuit {
	return r.circuit.Apply(r.kind, []float64{r.theta}, targets...)
}

// Err returns the first builder error, if any.
func (c *Circuit) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.err
}

// Gates returns a copy of the gate list.
func (c *Circuit) Gates() []Gate {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]Gate(nil), c.gates...)
}

// Len is the number of gates.
func (c *Circuit) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.gates)
}

// NQubits derives the qubit count from the current gate list.
func (c *Circuit) NQubits() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return FindNQubits(c.gates)
}

// History is the log of the circuit's measurement records.
func (c *Circuit) History() *History {
	return c.history
}

// Copy returns a circuit with the same gates, builder error and history
// limit, an empty history and a fresh entropy-seeded source.
func (c *Circuit) Copy() *Circuit {
	gates, err := c.snapshot()

	clone := NewCircuit()
	clone.gates = gates
	clone.err = err
	clone.history = NewHistory(c.history.limit)

	return clone
}

// Extend appends the gates of other, adopting its builder error if it has one.
func (c *Circuit) Extend(other *Circuit) *Circuit {
	gates, err := other.snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c
	}

	if err != nil {
		c.err = err
		return c
	}

	c.gates = append(c.gates, gates...)
	return c
}

func (c *Circuit) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var b strings.Builder
	b.WriteString("Circuit(" + strconv.Itoa(FindNQubits(c.gates)) + ")")
	for _, g := range c.gates {
		b.WriteString(".")
		b.WriteString(g.String())
	}
	return b.String()
}

func (c *Circuit) snapshot() ([]Gate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]Gate(nil), c.gates...), c.err
}

/*
Execute runs the circuit once from |0...0⟩ with the circuit's own random
source and appends the run's record to the history. Concurrent calls are
serialised on the source; use a Pool for parallel sampling.
*/
func (c *Circuit) Execute() (*Result, error) {
	gates, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	c.runMu.Lock()
	result, err := Run(gates, c.rng)
	c.runMu.Unlock()

	if err != nil {
		return nil, err
	}

	c.history.Append(result.Record)
	return result, nil
}

// Run executes the circuit once and returns the final state vector.
func (c *Circuit) Run() (*StateVector, error) {
	result, err := c.Execute()
	if err != nil {
		return nil, err
	}

	return result.State, nil
}
