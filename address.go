package qsim

import (
	"fmt"
	"strconv"
	"strings"
)

/*
QubitSpec identifies one or more qubit positions. It is an Index, a Range, or
a Tuple of either, and is only turned into concrete indices once the qubit
count of the circuit is known.
*/
type QubitSpec interface {
	fmt.Stringer

	resolve(n int, out []int) ([]int, error)
	maxIndex() int
}

// Index addresses a single qubit. Negative values count from the end.
type Index int

// Range addresses an arithmetic progression of qubits with slice semantics.
// Nil bounds are open-ended; a nil step means 1.
type Range struct {
	Start *int
	Stop  *int
	Step  *int
}

// Tuple concatenates the qubits of its elements, in order.
type Tuple []QubitSpec

func intp(v int) *int { return &v }

// Span is the range [start, stop).
func Span(start, stop int) Range {
	return Range{Start: intp(start), Stop: intp(stop)}
}

// Stride is the range [start, stop) walked with step.
func Stride(start, stop, step int) Range {
	return Range{Start: intp(start), Stop: intp(stop), Step: intp(step)}
}

// From is the open range starting at start.
func From(start int) Range {
	return Range{Start: intp(start)}
}

// Upto is the range [0, stop).
func Upto(stop int) Range {
	return Range{Stop: intp(stop)}
}

// All addresses every qubit of the circuit.
func All() Range {
	return Range{}
}

// Slice builds a range from optional bounds, like a[start:stop:step].
func Slice(start, stop, step *int) Range {
	return Range{Start: start, Stop: stop, Step: step}
}

/*
Spec converts loosely typed builder arguments into a QubitSpec. A single
argument is converted on its own, several arguments form a Tuple.
*/
func Spec(vals ...any) (QubitSpec, error) {
	if len(vals) == 1 {
		return ToSpec(vals[0])
	}

	tuple := make(Tuple, 0, len(vals))
	for _, v := range vals {
		spec, err := ToSpec(v)
		if err != nil {
			return nil, err
		}
		tuple = append(tuple, spec)
	}

	return tuple, nil
}

// ToSpec converts a single value into a QubitSpec.
func ToSpec(v any) (QubitSpec, error) {
	switch x := v.(type) {
	case QubitSpec:
		return x, nil
	case int:
		return Index(x), nil
	case int8:
		return Index(x), nil
	case int16:
		return Index(x), nil
	case int32:
		return Index(x), nil
	case int64:
		return Index(x), nil
	case uint8:
		return Index(x), nil
	case uint16:
		return Index(x), nil
	case uint32:
		return Index(x), nil
	case []int:
		tuple := make(Tuple, len(x))
		for i, idx := range x {
			tuple[i] = Index(idx)
		}
		return tuple, nil
	case []any:
		return Spec(x...)
	default:
		return nil, fmt.Errorf("%w, not %T", ErrSpecType, v)
	}
}

/*
Resolve turns a specifier into the ordered qubit indices it addresses for a
circuit of n qubits. It is a pure function of its arguments.
*/
func Resolve(spec QubitSpec, n int) ([]int, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w, not nil", ErrSpecType)
	}

	return spec.resolve(n, nil)
}

/*
ResolvePairs resolves a two-element Tuple of (controls, targets) into
position-wise (control, target) pairs.
*/
func ResolvePairs(spec QubitSpec, n int) ([][2]int, error) {
	tuple, ok := spec.(Tuple)
	if !ok || len(tuple) != 2 {
		return nil, fmt.Errorf("%w: control and target qubits pair(s) are required", ErrPairing)
	}

	controls, err := Resolve(tuple[0], n)
	if err != nil {
		return nil, err
	}

	targets, err := Resolve(tuple[1], n)
	if err != nil {
		return nil, err
	}

	if len(controls) != len(targets) {
		return nil, fmt.Errorf(
			"%w: %d control qubits but %d target qubits",
			ErrPairing, len(controls), len(targets),
		)
	}

	pairs := make([][2]int, len(controls))
	for i := range controls {
		if controls[i] == targets[i] {
			return nil, fmt.Errorf(
				"%w: control and target are both qubit %d", ErrPairing, controls[i],
			)
		}
		pairs[i] = [2]int{controls[i], targets[i]}
	}

	return pairs, nil
}

// MaxIndex is the largest index spec references without knowing n, or -1.
func MaxIndex(spec QubitSpec) int {
	if spec == nil {
		return -1
	}

	return spec.maxIndex()
}

// FindNQubits derives the qubit count a gate list needs.
func FindNQubits(gates []Gate) int {
	highest := -1
	for _, g := range gates {
		if m := MaxIndex(g.Targets); m > highest {
			highest = m
		}
	}

	return highest + 1
}

func (i Index) resolve(n int, out []int) ([]int, error) {
	idx := int(i)
	if idx < 0 {
		idx += n
	}

	if idx < 0 || idx >= n {
		return out, fmt.Errorf("%w: %d for %d qubits", ErrIndexOutOfRange, int(i), n)
	}

	return append(out, idx), nil
}

func (i Index) maxIndex() int {
	if i < 0 {
		return -1
	}

	return int(i)
}

func (i Index) String() string {
	return strconv.Itoa(int(i))
}

// Indices clamps the range against n, following Python's slice.indices.
func (r Range) Indices(n int) (start, stop, step int, err error) {
	step = 1
	if r.Step != nil {
		step = *r.Step
	}

	if step == 0 {
		return 0, 0, 0, ErrZeroStep
	}

	lower, upper := 0, n
	if step < 0 {
		lower, upper = -1, n-1
	}

	clamp := func(bound *int, open int) int {
		if bound == nil {
			return open
		}

		v := *bound
		if v < 0 {
			v += n
			if v < lower {
				v = lower
			}
		} else if v > upper {
			v = upper
		}

		return v
	}

	if step > 0 {
		return clamp(r.Start, lower), clamp(r.Stop, upper), step, nil
	}

	return clamp(r.Start, upper), clamp(r.Stop, lower), step, nil
}

func (r Range) resolve(n int, out []int) ([]int, error) {
	start, stop, step, err := r.Indices(n)
	if err != nil {
		return out, err
	}

	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, i)
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, i)
		}
	}

	return out, nil
}

func (r Range) maxIndex() int {
	start, stop := -1, 0
	if r.Start != nil {
		start = *r.Start
	}
	if r.Stop != nil {
		stop = *r.Stop
	}

	if stop-1 > start {
		return stop - 1
	}

	return start
}

func (r Range) String() string {
	bound := func(v *int) string {
		if v == nil {
			return ""
		}
		return strconv.Itoa(*v)
	}

	s := bound(r.Start) + ":" + bound(r.Stop)
	if r.Step != nil {
		s += ":" + bound(r.Step)
	}

	return s
}

func (t Tuple) resolve(n int, out []int) ([]int, error) {
	var err error
	for _, spec := range t {
		if spec == nil {
			return out, fmt.Errorf("%w, not nil", ErrSpecType)
		}
		if out, err = spec.resolve(n, out); err != nil {
			return out, err
		}
	}

	return out, nil
}

func (t Tuple) maxIndex() int {
	highest := -1
	for _, spec := range t {
		if m := MaxIndex(spec); m > highest {
			highest = m
		}
	}

	return highest
}

func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, spec := range t {
		switch x := spec.(type) {
		case nil:
			parts[i] = "nil"
		case Tuple:
			parts[i] = "(" + x.String() + ")"
		default:
			parts[i] = x.String()
		}
	}

	return strings.Join(parts, ", ")
}
