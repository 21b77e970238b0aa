package qbloch

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

var allKinds = []GateKind{GateI, GateX, GateY, GateZ, GateH, GateS, GateT, GateRX, GateRY, GateRZ}

func randomSequence(r *rand.Rand, n int) []Gate {
	gates := make([]Gate, n)
	for i := range gates {
		kind := allKinds[r.IntN(len(allKinds))]
		if kind.Rotation() && r.IntN(2) == 0 {
			gates[i] = Rotation(kind, (r.Float64()*2-1)*4*math.Pi)
			continue
		}
		gates[i] = NewGate(kind)
	}
	return gates
}

func TestApplySequence(t *testing.T) {
	Convey("Given an engine with the default configuration", t, func() {
		engine := NewEngine(nil)

		Convey("An empty sequence yields |0⟩ at the north pole", func() {
			q, err := engine.ApplySequence(nil)
			So(err, ShouldBeNil)
			So(q.Alpha(), ShouldEqual, complex(1, 0))
			So(q.Beta(), ShouldEqual, complex(0, 0))
			So(engine.ToBloch(q), ShouldResemble, BlochVector{X: 0, Y: 0, Z: 1})
		})

		Convey("H yields |+⟩ on the +x axis", func() {
			q, err := engine.ApplySequence([]Gate{NewGate(GateH)})
			So(err, ShouldBeNil)
			So(real(q.Alpha()), ShouldAlmostEqual, 1/math.Sqrt2, tolerance)
			So(real(q.Beta()), ShouldAlmostEqual, 1/math.Sqrt2, tolerance)

			b := engine.ToBloch(q)
			So(b.X, ShouldAlmostEqual, 1, tolerance)
			So(b.Y, ShouldAlmostEqual, 0, tolerance)
			So(b.Z, ShouldAlmostEqual, 0, tolerance)
		})

		Convey("X yields |1⟩ at the south pole", func() {
			q, err := engine.ApplySequence([]Gate{NewGate(GateX)})
			So(err, ShouldBeNil)
			So(q.Alpha(), ShouldEqual, complex(0, 0))
			So(q.Beta(), ShouldEqual, complex(1, 0))
			So(engine.ToBloch(q).Z, ShouldEqual, -1)
		})

		Convey("H then Z lands on the -x axis", func() {
			q, err := engine.ApplySequence([]Gate{NewGate(GateH), NewGate(GateZ)})
			So(err, ShouldBeNil)

			b := engine.ToBloch(q)
			So(b.X, ShouldAlmostEqual, -1, tolerance)
			So(b.Y, ShouldAlmostEqual, 0, tolerance)
			So(b.Z, ShouldAlmostEqual, 0, tolerance)
		})

		Convey("Phase gates rotate |+⟩ around the z axis", func() {
			q, err := engine.ApplySequence([]Gate{NewGate(GateH), NewGate(GateS)})
			So(err, ShouldBeNil)
			b := engine.ToBloch(q)
			So(b.X, ShouldAlmostEqual, 0, tolerance)
			So(b.Y, ShouldAlmostEqual, 1, tolerance)

			q, err = engine.ApplySequence([]Gate{NewGate(GateH), NewGate(GateT)})
			So(err, ShouldBeNil)
			b = engine.ToBloch(q)
			So(b.X, ShouldAlmostEqual, math.Sqrt2/2, tolerance)
			So(b.Y, ShouldAlmostEqual, math.Sqrt2/2, tolerance)

			q, err = engine.ApplySequence([]Gate{NewGate(GateH), RZ(math.Pi / 2)})
			So(err, ShouldBeNil)
			b = engine.ToBloch(q)
			So(b.X, ShouldAlmostEqual, 0, tolerance)
			So(b.Y, ShouldAlmostEqual, 1, tolerance)
		})

		Convey("Rotations about x and y move |0⟩ onto the equator", func() {
			q, err := engine.ApplySequence([]Gate{RX(math.Pi / 2)})
			So(err, ShouldBeNil)
			b := engine.ToBloch(q)
			So(b.Y, ShouldAlmostEqual, -1, tolerance)
			So(b.Z, ShouldAlmostEqual, 0, tolerance)

			q, err = engine.ApplySequence([]Gate{RY(math.Pi / 2)})
			So(err, ShouldBeNil)
			b = engine.ToBloch(q)
			So(b.X, ShouldAlmostEqual, 1, tolerance)
			So(b.Z, ShouldAlmostEqual, 0, tolerance)
		})

		Convey("Rotation gates without an angle use the default angle", func() {
			So(engine.DefaultAngle(), ShouldEqual, DefaultRotationAngle)

			implicit, err := engine.ApplySequence([]Gate{NewGate(GateRX)})
			So(err, ShouldBeNil)
			explicit, err := engine.ApplySequence([]Gate{RX(math.Pi / 2)})
			So(err, ShouldBeNil)
			So(implicit.ApproxEqual(explicit, 0), ShouldBeTrue)
		})

		Convey("A configured default angle overrides π/2", func() {
			config := NewConfig()
			config.DefaultAngle = math.Pi
			q, err := NewEngine(config).ApplySequence([]Gate{NewGate(GateRX)})
			So(err, ShouldBeNil)
			So(q.ApproxEqual(NewQubit(0, -1i), tolerance), ShouldBeTrue)
		})

		Convey("Pauli gates applied twice restore the state exactly", func() {
			base := []Gate{NewGate(GateH), RY(0.3), NewGate(GateT)}
			want, err := engine.ApplySequence(base)
			So(err, ShouldBeNil)

			for _, kind := range []GateKind{GateX, GateY, GateZ} {
				seq := append(append([]Gate{}, base...), NewGate(kind), NewGate(kind))
				got, err := engine.ApplySequence(seq)
				So(err, ShouldBeNil)
				So(got.ApproxEqual(want, tolerance), ShouldBeTrue)
			}
		})

		Convey("An unknown gate aborts without a partial state", func() {
			q, err := engine.ApplySequence([]Gate{NewGate(GateH), {Kind: GateKind(42)}})
			So(errors.Is(err, ErrUnknownGateToken), ShouldBeTrue)
			So(q, ShouldResemble, Qubit{})

			q, err = engine.ApplyTokens([]string{"Q"})
			So(errors.Is(err, ErrUnknownGateToken), ShouldBeTrue)
			So(q, ShouldResemble, Qubit{})
		})

		Convey("A non-finite angle is rejected before any multiplication", func() {
			_, err := engine.ApplySequence([]Gate{RZ(math.NaN())})
			So(errors.Is(err, ErrInvalidAngle), ShouldBeTrue)

			_, err = engine.ApplySequence([]Gate{RX(math.Inf(1))})
			So(errors.Is(err, ErrInvalidAngle), ShouldBeTrue)
		})

		Convey("Tokens replay the same state as gates", func() {
			fromTokens, err := engine.ApplyTokens([]string{"h", "rz(pi/4)", "X"})
			So(err, ShouldBeNil)
			fromGates, err := engine.ApplySequence([]Gate{NewGate(GateH), RZ(math.Pi / 4), NewGate(GateX)})
			So(err, ShouldBeNil)
			So(fromTokens.ApproxEqual(fromGates, 0), ShouldBeTrue)
		})
	})
}

func TestSequenceProperties(t *testing.T) {
	Convey("Given random valid sequences", t, func() {
		engine := NewEngine(nil)
		r := rand.New(rand.NewPCG(7, 11))

		Convey("The norm and the Bloch radius stay at one", func() {
			for i := 0; i < 200; i++ {
				q, err := engine.ApplySequence(randomSequence(r, r.IntN(40)))
				So(err, ShouldBeNil)
				So(q.Norm(), ShouldAlmostEqual, 1, tolerance)
				So(engine.ToBloch(q).Norm(), ShouldAlmostEqual, 1, tolerance)
			}
		})

		Convey("Inserting the identity anywhere changes nothing", func() {
			for i := 0; i < 50; i++ {
				seq := randomSequence(r, 1+r.IntN(20))
				want, err := engine.ApplySequence(seq)
				So(err, ShouldBeNil)

				at := r.IntN(len(seq) + 1)
				withI := append(append(append([]Gate{}, seq[:at]...), NewGate(GateI)), seq[at:]...)
				got, err := engine.ApplySequence(withI)
				So(err, ShouldBeNil)
				So(got.ApproxEqual(want, 1e-15), ShouldBeTrue)
			}
		})

		Convey("The sequence unitary reproduces the replayed state", func() {
			seq := randomSequence(r, 25)
			u, err := engine.Unitary(seq)
			So(err, ShouldBeNil)

			want, err := engine.ApplySequence(seq)
			So(err, ShouldBeNil)
			So(Zero().Apply(u).ApproxEqual(want, tolerance), ShouldBeTrue)
		})
	})
}

func TestMeasure(t *testing.T) {
	Convey("Given an engine", t, func() {
		engine := NewEngine(nil)

		Convey("|0⟩ never yields a 1", func() {
			counts, err := engine.Measure(Zero(), 10000, WithSeed(42))
			So(err, ShouldBeNil)
			So(counts.One, ShouldEqual, 0)
			So(counts.Zero, ShouldEqual, 10000)
		})

		Convey("|1⟩ never yields a 0", func() {
			counts, err := engine.Measure(NewQubit(0, 1), 10000, WithSeed(42))
			So(err, ShouldBeNil)
			So(counts.Zero, ShouldEqual, 0)
			So(counts.One, ShouldEqual, 10000)
		})

		Convey("Counts always sum to the trial count", func() {
			plus, err := engine.ApplySequence([]Gate{NewGate(GateH)})
			So(err, ShouldBeNil)

			for _, trials := range []int{0, 1, 2, 17, 1024, 5000} {
				counts, err := engine.Measure(plus, trials)
				So(err, ShouldBeNil)
				So(counts.Total(), ShouldEqual, trials)
			}
		})

		Convey("|+⟩ splits roughly evenly", func() {
			plus, _ := engine.ApplySequence([]Gate{NewGate(GateH)})
			counts, err := engine.Measure(plus, 10000, WithSeed(3))
			So(err, ShouldBeNil)
			So(counts.One, ShouldBeBetween, 4700, 5300)
		})

		Convey("The same seed gives the same counts", func() {
			q, _ := engine.ApplySequence([]Gate{RY(1.1)})
			a, err := engine.Measure(q, 1024, WithSeed(99))
			So(err, ShouldBeNil)
			b, err := engine.Measure(q, 1024, WithSeed(99))
			So(err, ShouldBeNil)
			So(a, ShouldResemble, b)

			c, err := engine.Measure(q, 1024, WithSource(rand.NewPCG(1, 2)))
			So(err, ShouldBeNil)
			d, err := engine.Measure(q, 1024, WithSource(rand.NewPCG(1, 2)))
			So(err, ShouldBeNil)
			So(c, ShouldResemble, d)
		})

		Convey("Zero trials give zero counts and negative trials fail", func() {
			counts, err := engine.Measure(Zero(), 0)
			So(err, ShouldBeNil)
			So(counts, ShouldResemble, Counts{})

			_, err = engine.Measure(Zero(), -1)
			So(errors.Is(err, ErrInvalidTrialCount), ShouldBeTrue)
		})

		Convey("Counts encode as an outcome-labelled object", func() {
			data, err := Counts{Zero: 3, One: 5}.MarshalJSON()
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, `{"0":3,"1":5}`)
		})

		Convey("Collapse returns a basis state matching the outcome", func() {
			q, outcome := engine.Collapse(Zero(), WithSeed(1))
			So(outcome, ShouldEqual, 0)
			So(q, ShouldResemble, Zero())

			one, _ := engine.ApplySequence([]Gate{NewGate(GateX)})
			q, outcome = engine.Collapse(one, WithSeed(1))
			So(outcome, ShouldEqual, 1)
			So(q, ShouldResemble, NewQubit(0, 1))
		})
	})
}
