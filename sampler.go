package qsim

import (
	"fmt"
	"math/rand/v2"
)

// zeroMass is the probability below which a sampled branch counts as empty.
const zeroMass = 1e-15

/*
Sampler draws measurement outcomes from an explicit random source. A Sampler
is not safe for concurrent use; give every concurrent run its own.
*/
type Sampler struct {
	rng *rand.Rand
}

// NewSampler wraps rng, or a freshly seeded source when rng is nil.
func NewSampler(rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = NewRand(nil)
	}

	return &Sampler{rng: rng}
}

/*
NewRand builds the PCG source used throughout the package. A nil seed draws
the seed from ambient entropy.
*/
func NewRand(seed *uint64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return rand.New(rand.NewPCG(*seed, *seed))
}

/*
Measure observes qubit q of state. Outcome 1 is chosen when a uniform draw in
[0, 1) falls below the probability of the qubit being 1. The state is then
collapsed onto the outcome and renormalised in place.
*/
func (s *Sampler) Measure(state *StateVector, q int) (int, error) {
	p0, p1 := state.Marginal(q)

	outcome, mass := 0, p0
	if s.rng.Float64() < p1 {
		outcome, mass = 1, p1
	}

	if mass < zeroMass {
		return 0, fmt.Errorf(
			"%w: qubit %d outcome %d (p0=%g, p1=%g)", ErrZeroProbability, q, outcome, p0, p1,
		)
	}

	state.collapse(q, outcome, mass)
	return outcome, nil
}
