package qsim

import (
	"math"
	"math/cmplx"

	"github.com/davecgh/go-spew/spew"
)

/*
StateVector is the dense amplitude vector of an n-qubit pure state. Basis
index i holds qubit q in bit q, so qubit 0 is the least significant bit.
*/
type StateVector struct {
	amplitudes []complex128
	numQubits  int
}

// NewStateVector allocates |0...0⟩ on numQubits qubits.
func NewStateVector(numQubits int) *StateVector {
	amps := make([]complex128, 1<<numQubits)
	amps[0] = 1

	return &StateVector{amplitudes: amps, numQubits: numQubits}
}

// NumQubits is the number of qubits the vector spans.
func (s *StateVector) NumQubits() int { return s.numQubits }

// Len is 2^NumQubits.
func (s *StateVector) Len() int { return len(s.amplitudes) }

// Amplitude returns the amplitude of basis state i.
func (s *StateVector) Amplitude(i int) complex128 { return s.amplitudes[i] }

// Amplitudes returns a copy of the amplitude vector.
func (s *StateVector) Amplitudes() []complex128 {
	amps := make([]complex128, len(s.amplitudes))
	copy(amps, s.amplitudes)
	return amps
}

// Clone returns an independent copy of the vector.
func (s *StateVector) Clone() *StateVector {
	return &StateVector{amplitudes: s.Amplitudes(), numQubits: s.numQubits}
}

// Probabilities returns |a_i|^2 for every basis state.
func (s *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(s.amplitudes))
	for i, a := range s.amplitudes {
		probs[i] = norm(a)
	}
	return probs
}

// Marginal returns the probability mass of qubit q being 0 and being 1.
func (s *StateVector) Marginal(q int) (p0, p1 float64) {
	bit := 1 << q
	for i, a := range s.amplitudes {
		if i&bit == 0 {
			p0 += norm(a)
		} else {
			p1 += norm(a)
		}
	}
	return p0, p1
}

// Norm is the total probability mass, 1 for a valid state.
func (s *StateVector) Norm() float64 {
	var total float64
	for _, a := range s.amplitudes {
		total += norm(a)
	}
	return total
}

// Equal reports whether both vectors match component-wise within eps.
func (s *StateVector) Equal(other *StateVector, eps float64) bool {
	if other == nil || len(s.amplitudes) != len(other.amplitudes) {
		return false
	}

	var distsq float64
	for i, a := range s.amplitudes {
		distsq += norm(a - other.amplitudes[i])
	}
	return distsq < eps
}

/*
EqualUpToPhase reports whether the vectors describe the same physical state,
ignoring a global phase factor.
*/
func (s *StateVector) EqualUpToPhase(other *StateVector, eps float64) bool {
	if other == nil || len(s.amplitudes) != len(other.amplitudes) {
		return false
	}

	// <other|s> carries the relative phase; |<other|s>| = 1 for equal states.
	var inner complex128
	for i, a := range s.amplitudes {
		inner += cmplx.Conj(other.amplitudes[i]) * a
	}

	if cmplx.Abs(inner) == 0 {
		return false
	}

	phase := inner / complex(cmplx.Abs(inner), 0)

	var distsq float64
	for i, a := range s.amplitudes {
		distsq += norm(a - phase*other.amplitudes[i])
	}
	return distsq < eps
}

// Dump renders the amplitudes for debugging.
func (s *StateVector) Dump() string {
	return spew.Sdump(s.amplitudes)
}

func norm(a complex128) float64 {
	return real(a)*real(a) + imag(a)*imag(a)
}

// pairs calls fn for every index pair (i, i|bit) with bit q clear in i.
func (s *StateVector) pairs(q int, fn func(i, j int)) {
	bit := 1 << q
	for i := range s.amplitudes {
		if i&bit == 0 {
			fn(i, i|bit)
		}
	}
}

// unitary applies the 2x2 matrix [[a, b], [c, d]] to qubit q.
func (s *StateVector) unitary(q int, a, b, c, d complex128) {
	amps := s.amplitudes
	s.pairs(q, func(i, j int) {
		x, y := amps[i], amps[j]
		amps[i] = a*x + b*y
		amps[j] = c*x + d*y
	})
}

// phase multiplies the bit-1 half of qubit q by factor.
func (s *StateVector) phase(q int, factor complex128) {
	bit := 1 << q
	for i := range s.amplitudes {
		if i&bit != 0 {
			s.amplitudes[i] *= factor
		}
	}
}

func (s *StateVector) applyX(q int) {
	amps := s.amplitudes
	s.pairs(q, func(i, j int) {
		amps[i], amps[j] = amps[j], amps[i]
	})
}

func (s *StateVector) applyY(q int) {
	amps := s.amplitudes
	s.pairs(q, func(i, j int) {
		amps[i], amps[j] = -1i*amps[j], 1i*amps[i]
	})
}

func (s *StateVector) applyZ(q int) {
	s.phase(q, -1)
}

func (s *StateVector) applyH(q int) {
	h := complex(1/math.Sqrt2, 0)
	s.unitary(q, h, h, h, -h)
}

func (s *StateVector) applyS(q int) {
	s.phase(q, 1i)
}

func (s *StateVector) applyT(q int) {
	s.phase(q, cmplx.Exp(complex(0, math.Pi/4)))
}

// applyRX applies exp(-iθX/2).
func (s *StateVector) applyRX(q int, theta float64) {
	c := complex(math.Cos(theta/2), 0)
	js := complex(0, -math.Sin(theta/2))
	s.unitary(q, c, js, js, c)
}

// applyRY applies exp(-iθY/2).
func (s *StateVector) applyRY(q int, theta float64) {
	c := complex(math.Cos(theta/2), 0)
	sn := complex(math.Sin(theta/2), 0)
	s.unitary(q, c, -sn, sn, c)
}

// applyRZ applies exp(-iθZ/2): the bit-1 half gains e^{iθ} relative to bit 0.
func (s *StateVector) applyRZ(q int, theta float64) {
	half := cmplx.Exp(complex(0, theta/2))
	s.unitary(q, cmplx.Conj(half), 0, 0, half)
}

func (s *StateVector) applyCX(control, target int) {
	cBit := 1 << control
	tBit := 1 << target
	for i := range s.amplitudes {
		if i&cBit != 0 && i&tBit == 0 {
			j := i | tBit
			s.amplitudes[i], s.amplitudes[j] = s.amplitudes[j], s.amplitudes[i]
		}
	}
}

func (s *StateVector) applyCZ(control, target int) {
	cBit := 1 << control
	tBit := 1 << target
	for i := range s.amplitudes {
		if i&cBit != 0 && i&tBit != 0 {
			s.amplitudes[i] = -s.amplitudes[i]
		}
	}
}

/*
collapse projects qubit q onto outcome and rescales the surviving amplitudes
by 1/sqrt(mass), where mass is the probability of that outcome.
*/
func (s *StateVector) collapse(q, outcome int, mass float64) {
	bit := 1 << q
	scale := complex(1/math.Sqrt(mass), 0)
	for i := range s.amplitudes {
		if (i&bit != 0) == (outcome == 1) {
			s.amplitudes[i] *= scale
		} else {
			s.amplitudes[i] = 0
		}
	}
}
