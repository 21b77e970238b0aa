package qbloch

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseAngle(t *testing.T) {
	Convey("Given angle literals", t, func() {
		Convey("Plain and symbolic forms evaluate to radians", func() {
			cases := map[string]float64{
				"0":        0,
				"0.5":      0.5,
				"-1":       -1,
				"+.25":     0.25,
				"1e-3":     1e-3,
				"2E2":      200,
				"pi":       math.Pi,
				"PI":       math.Pi,
				"-pi":      -math.Pi,
				"pi/2":     math.Pi / 2,
				" pi / 4 ": math.Pi / 4,
				"2pi":      2 * math.Pi,
				"3*pi/4":   3 * math.Pi / 4,
				"-0.5*pi":  -0.5 * math.Pi,
				"π/8":      math.Pi / 8,
			}
			for text, want := range cases {
				got, err := ParseAngle(text)
				So(err, ShouldBeNil)
				So(got, ShouldAlmostEqual, want, tolerance)
			}
		})

		Convey("Everything else is an invalid angle", func() {
			for _, text := range []string{
				"", "abc", "pi/0", "1/2", "pi+1", "__import__('os')", "inf", "NaN",
				"1e400", "0x10", "2**3", "pi*pi", "--1", "1.2.3",
			} {
				_, err := ParseAngle(text)
				So(errors.Is(err, ErrInvalidAngle), ShouldBeTrue)
			}
		})
	})
}

func TestParseGate(t *testing.T) {
	Convey("Given gate tokens", t, func() {
		Convey("Names are case-insensitive", func() {
			for token, kind := range map[string]GateKind{
				"i": GateI, "id": GateI, "x": GateX, "Y": GateY, "z": GateZ,
				"h": GateH, "S": GateS, "t": GateT, "rx": GateRX, "Ry": GateRY, "RZ": GateRZ,
			} {
				g, err := ParseGate(token)
				So(err, ShouldBeNil)
				So(g, ShouldResemble, NewGate(kind))
			}
		})

		Convey("Rotation gates take an angle in parentheses", func() {
			g, err := ParseGate("rz(pi/4)")
			So(err, ShouldBeNil)
			So(g.Kind, ShouldEqual, GateRZ)
			So(g.HasAngle, ShouldBeTrue)
			So(g.Angle, ShouldAlmostEqual, math.Pi/4, tolerance)

			g, err = ParseGate(" RX ( -0.5 ) ")
			So(err, ShouldBeNil)
			So(g, ShouldResemble, RX(-0.5))
		})

		Convey("Unknown names are rejected, never skipped", func() {
			for _, token := range []string{"Q", "", "cx", "measure", "h h", "rz(pi/4"} {
				_, err := ParseGate(token)
				So(errors.Is(err, ErrUnknownGateToken), ShouldBeTrue)
			}
		})

		Convey("Bad or misplaced angles are invalid", func() {
			for _, token := range []string{"rz()", "rx(eval)", "h(pi)", "ry(1/0)", "rz(os.system('ls'))"} {
				_, err := ParseGate(token)
				So(errors.Is(err, ErrInvalidAngle), ShouldBeTrue)
			}
		})

		Convey("ParseGates stops at the first bad token", func() {
			gates, err := ParseGates([]string{"h", "x", "nope", "z"})
			So(gates, ShouldBeNil)
			So(errors.Is(err, ErrUnknownGateToken), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "token 2")
		})
	})
}
