package qsim

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const eps = 1e-16

func mustRun(c *Circuit) *StateVector {
	state, err := c.Run()
	So(err, ShouldBeNil)
	return state
}

func vector(amps ...complex128) *StateVector {
	n := 0
	for 1<<n < len(amps) {
		n++
	}
	return &StateVector{amplitudes: amps, numQubits: n}
}

func TestStateVectorEngine(t *testing.T) {
	Convey("Given the state-vector engine", t, func() {
		Convey("An empty circuit leaves the single amplitude of |⟩", func() {
			state := mustRun(NewCircuit())
			So(state.NumQubits(), ShouldEqual, 0)
			So(state.Amplitudes(), ShouldResemble, []complex128{1})
		})

		Convey("Identity gates leave |0...0⟩ untouched", func() {
			for n := 1; n <= 4; n++ {
				state := mustRun(NewCircuit().I(n - 1).I(All()))
				So(state.Len(), ShouldEqual, 1<<n)
				So(state.Equal(NewStateVector(n), eps), ShouldBeTrue)
				So(state.Amplitude(0), ShouldEqual, complex(1, 0))
			}
		})

		Convey("H twice is the identity on every qubit", func() {
			for q := 0; q < 3; q++ {
				state := mustRun(NewCircuit().I(2).H(q).H(q))
				So(state.Equal(NewStateVector(3), 1e-12), ShouldBeTrue)
			}
		})

		Convey("H[1].H[0] is the uniform superposition", func() {
			state := mustRun(NewCircuit().H(1).H(0))
			So(state.Equal(vector(0.5, 0.5, 0.5, 0.5), eps), ShouldBeTrue)
		})

		Convey("X[0].H[0] is |−⟩", func() {
			state := mustRun(NewCircuit().X(0).H(0))
			So(state.Equal(vector(complex(1/math.Sqrt2, 0), complex(-1/math.Sqrt2, 0)), eps), ShouldBeTrue)
		})

		Convey("Qubit 0 is the least significant bit", func() {
			state := mustRun(NewCircuit().X(0).I(1))
			So(state.Equal(vector(0, 1, 0, 0), eps), ShouldBeTrue)

			state = mustRun(NewCircuit().X(1))
			So(state.Equal(vector(0, 0, 1, 0), eps), ShouldBeTrue)
		})

		Convey("CX conjugated by Hadamards reverses control and target", func() {
			conjugated := mustRun(NewCircuit().H(0).H(1).CX(1, 0).H(0).H(1))
			direct := mustRun(NewCircuit().CX(0, 1))
			So(conjugated.Equal(direct, eps), ShouldBeTrue)
		})

		Convey("CX flips the target only when the control is 1", func() {
			state := mustRun(NewCircuit().X(0).CX(0, 1))
			So(state.Equal(vector(0, 0, 0, 1), eps), ShouldBeTrue)

			state = mustRun(NewCircuit().X(1).CX(0, 1))
			So(state.Equal(vector(0, 0, 1, 0), eps), ShouldBeTrue)
		})

		Convey("CZ negates only the |11⟩ amplitude", func() {
			state := mustRun(NewCircuit().H(0).H(1).CZ(0, 1))
			So(state.Equal(vector(0.5, 0.5, 0.5, -0.5), eps), ShouldBeTrue)
		})

		Convey("Gates spanning several pairs apply them in order", func() {
			// cx[(0, 1), (1, 2)]: the second pair sees the first pair's flip.
			state := mustRun(NewCircuit().X(0).CX(Tuple{Index(0), Index(1)}, Tuple{Index(1), Index(2)}))
			So(state.Equal(vector(0, 0, 0, 0, 0, 0, 0, 1), eps), ShouldBeTrue)
		})

		Convey("H[0].RZ(π)[0] equals X[0].H[0] up to global phase", func() {
			rotated := mustRun(NewCircuit().H(0).RZ(math.Pi).On(0))
			flipped := mustRun(NewCircuit().X(0).H(0))
			So(rotated.EqualUpToPhase(flipped, 1e-12), ShouldBeTrue)
			So(rotated.Equal(flipped, 1e-12), ShouldBeFalse)
		})

		Convey("RX(π) and RY(π) flip |0⟩ up to phase", func() {
			for _, c := range []*Circuit{
				NewCircuit().RX(math.Pi).On(0),
				NewCircuit().RY(math.Pi).On(0),
			} {
				So(mustRun(c).EqualUpToPhase(vector(0, 1), 1e-12), ShouldBeTrue)
			}
		})

		Convey("Y maps |0⟩ to i|1⟩", func() {
			So(mustRun(NewCircuit().Y(0)).Equal(vector(0, 1i), eps), ShouldBeTrue)
		})

		Convey("S twice is Z and T twice is S", func() {
			ss := mustRun(NewCircuit().H(0).S(0).S(0))
			z := mustRun(NewCircuit().H(0).Z(0))
			So(ss.Equal(z, 1e-12), ShouldBeTrue)

			tt := mustRun(NewCircuit().H(0).T(0).T(0))
			s := mustRun(NewCircuit().H(0).S(0))
			So(tt.Equal(s, 1e-12), ShouldBeTrue)
		})

		Convey("Unitary gates preserve the norm", func() {
			state := mustRun(NewCircuit().
				H(All(), 3).RX(0.3).On(0).RY(1.1).On(1).RZ(2.2).On(2).
				CX(0, 3).CZ(1, 2).T(Span(0, 4)).S(3).Y(1))
			So(state.Norm(), ShouldAlmostEqual, 1.0, 1e-12)
		})

		Convey("Swap decomposes into three CX gates", func() {
			state := mustRun(NewCircuit().X(0).Swap(0, 2))
			So(state.Equal(vector(0, 0, 0, 0, 1, 0, 0, 0), eps), ShouldBeTrue)
		})

		Convey("Decomposition never alters the stored circuit", func() {
			c := NewCircuit().Swap(0, 1).I(0)
			before := c.String()
			mustRun(c)
			So(c.String(), ShouldEqual, before)
			So(c.Len(), ShouldEqual, 2)
		})
	})
}

func TestEngineErrors(t *testing.T) {
	Convey("Given circuits that cannot run", t, func() {
		Convey("An index that wraps below zero fails at run time", func() {
			c := NewCircuit().H(0).X(-3)
			So(c.Err(), ShouldBeNil)

			state, err := c.Run()
			So(state, ShouldBeNil)
			So(errors.Is(err, ErrIndexOutOfRange), ShouldBeTrue)
			So(c.History().Len(), ShouldEqual, 0)
		})

		Convey("A qubit count past MaxQubits fails before allocating", func() {
			for _, q := range []int{MaxQubits, 63, 64, 1 << 20} {
				c := NewCircuit().H(q)
				state, err := c.Run()
				So(state, ShouldBeNil)
				So(errors.Is(err, ErrTooManyQubits), ShouldBeTrue)
				So(c.History().Len(), ShouldEqual, 0)
			}

			_, err := Run(NewCircuit().X(MaxQubits+1).Gates(), nil)
			So(errors.Is(err, ErrTooManyQubits), ShouldBeTrue)
		})

		Convey("A kind with neither rule fails", func() {
			kind := registerOnce(KindDef{Name: "test-norule", Shape: OneQubit})

			_, err := NewCircuit().Apply(kind, nil, 0).M(0).Run()
			So(errors.Is(err, ErrNoRule), ShouldBeTrue)
		})

		Convey("A decomposition that never bottoms out fails", func() {
			var loop Kind
			loop = registerOnce(KindDef{
				Name:  "test-loop",
				Shape: OneQubit,
				Decompose: func(g Gate) ([]Gate, error) {
					return []Gate{{Kind: loop, Targets: g.Targets}}, nil
				},
			})

			_, err := NewCircuit().Apply(loop, nil, 0).Run()
			So(errors.Is(err, ErrNoRule), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a gate list run without a circuit", t, func() {
		gates := NewCircuit().X(1).M(Span(0, 2)).Gates()

		Convey("Run returns the state and the record", func() {
			result, err := Run(gates, NewRand(nil))
			So(err, ShouldBeNil)
			So(result.State.Equal(vector(0, 0, 1, 0), eps), ShouldBeTrue)
			So(result.Record, ShouldResemble, MeasurementRecord{0, 1})
		})

		Convey("A nil source is replaced by an entropy-seeded one", func() {
			result, err := Run(gates, nil)
			So(err, ShouldBeNil)
			So(result.Record, ShouldResemble, MeasurementRecord{0, 1})
		})

		Convey("Without measurements the record is empty", func() {
			result, err := Run(NewCircuit().H(0).Gates(), nil)
			So(err, ShouldBeNil)
			So(result.Record, ShouldBeEmpty)
		})
	})
}
