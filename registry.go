package qsim

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/theapemachine/errnie"
)

// Kind tags a gate with an entry of the kind registry.
type Kind int

// Built-in kinds, in registration order.
const (
	KindI Kind = iota
	KindX
	KindY
	KindZ
	KindH
	KindS
	KindT
	KindRX
	KindRY
	KindRZ
	KindCX
	KindCZ
	KindMeasure
	KindSwap
)

// ApplyFunc is a native state-vector rule for a kind.
type ApplyFunc func(ex *Execution, g Gate) error

// DecomposeFunc expresses a gate as an ordered sequence of simpler gates.
type DecomposeFunc func(g Gate) ([]Gate, error)

/*
KindDef describes a gate kind. A usable kind has exactly one of Apply or
Decompose; a kind with neither can be registered and built into circuits but
fails when a run reaches it.
*/
type KindDef struct {
	Name      string
	Shape     Shape
	Apply     ApplyFunc
	Decompose DecomposeFunc
}

type registry struct {
	mu     sync.RWMutex
	defs   []KindDef
	byName map[string]Kind
}

var kinds = &registry{byName: make(map[string]Kind)}

func (r *registry) register(def KindDef) (Kind, error) {
	if def.Name == "" {
		return 0, ErrMalformedKind
	}

	if def.Apply != nil && def.Decompose != nil {
		return 0, fmt.Errorf("%w: %s", ErrAmbiguousRule, def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[def.Name]; ok {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateKind, def.Name)
	}

	kind := Kind(len(r.defs))
	r.defs = append(r.defs, def)
	r.byName[def.Name] = kind

	return kind, nil
}

func (r *registry) def(kind Kind) (KindDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if kind < 0 || int(kind) >= len(r.defs) {
		return KindDef{}, false
	}

	return r.defs[kind], true
}

func (r *registry) lookup(name string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, ok := r.byName[name]
	return kind, ok
}

/*
RegisterKind adds a gate kind to the process-wide registry and returns its tag.
The registry is append-only, so tags stay valid for the life of the process.
*/
func RegisterKind(def KindDef) (Kind, error) {
	kind, err := kinds.register(def)
	if err != nil {
		return 0, err
	}

	errnie.Info("registered gate kind %s (%s) as %d", def.Name, def.Shape, int(kind))
	return kind, nil
}

// LookupKind finds a kind by its canonical name.
func LookupKind(name string) (Kind, bool) {
	return kinds.lookup(name)
}

// Def returns the registry entry of the kind.
func (k Kind) Def() (KindDef, bool) {
	return kinds.def(k)
}

func (k Kind) String() string {
	if def, ok := k.Def(); ok && def.Name != "" {
		return def.Name
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

func init() {
	builtins := []KindDef{
		KindI:       {Name: "i", Shape: OneQubit, Decompose: decomposeIdentity},
		KindX:       {Name: "x", Shape: OneQubit, Apply: oneQubitRule((*StateVector).applyX)},
		KindY:       {Name: "y", Shape: OneQubit, Apply: oneQubitRule((*StateVector).applyY)},
		KindZ:       {Name: "z", Shape: OneQubit, Apply: oneQubitRule((*StateVector).applyZ)},
		KindH:       {Name: "h", Shape: OneQubit, Apply: oneQubitRule((*StateVector).applyH)},
		KindS:       {Name: "s", Shape: OneQubit, Apply: oneQubitRule((*StateVector).applyS)},
		KindT:       {Name: "t", Shape: OneQubit, Apply: oneQubitRule((*StateVector).applyT)},
		KindRX:      {Name: "rx", Shape: Rotation, Apply: rotationRule((*StateVector).applyRX)},
		KindRY:      {Name: "ry", Shape: Rotation, Apply: rotationRule((*StateVector).applyRY)},
		KindRZ:      {Name: "rz", Shape: Rotation, Apply: rotationRule((*StateVector).applyRZ)},
		KindCX:      {Name: "cx", Shape: TwoQubit, Apply: twoQubitRule((*StateVector).applyCX)},
		KindCZ:      {Name: "cz", Shape: TwoQubit, Apply: twoQubitRule((*StateVector).applyCZ)},
		KindMeasure: {Name: "measure", Shape: Measurement, Apply: measureRule},
		KindSwap:    {Name: "swap", Shape: TwoQubit, Decompose: decomposeSwap},
	}

	for want, def := range builtins {
		kind, err := kinds.register(def)
		if err != nil || int(kind) != want {
			panic(fmt.Sprintf("qsim: broken built-in gate kind %q: %v", def.Name, err))
		}
	}
}

func decomposeIdentity(Gate) ([]Gate, error) {
	return nil, nil
}

// decomposeSwap rewrites swap[a, b] as cx[a, b].cx[b, a].cx[a, b].
func decomposeSwap(g Gate) ([]Gate, error) {
	pair, ok := g.Targets.(Tuple)
	if !ok || len(pair) != 2 {
		return nil, fmt.Errorf("%w: swap needs two qubit specifiers", ErrPairing)
	}

	forward := Tuple{pair[0], pair[1]}
	backward := Tuple{pair[1], pair[0]}

	return []Gate{
		{Kind: KindCX, Targets: forward},
		{Kind: KindCX, Targets: backward},
		{Kind: KindCX, Targets: forward},
	}, nil
}
