package qbloch

import (
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
)

// GateKind identifies one of the fixed single-qubit gates.
type GateKind int

const (
	GateI GateKind = iota
	GateX
	GateY
	GateZ
	GateH
	GateS
	GateT
	GateRX
	GateRY
	GateRZ
)

var gateNames = [...]string{
	GateI:  "I",
	GateX:  "X",
	GateY:  "Y",
	GateZ:  "Z",
	GateH:  "H",
	GateS:  "S",
	GateT:  "T",
	GateRX: "RX",
	GateRY: "RY",
	GateRZ: "RZ",
}

// Valid reports whether k is inside the fixed gate set.
func (k GateKind) Valid() bool {
	return k >= GateI && k <= GateRZ
}

// Rotation reports whether k takes an angle.
func (k GateKind) Rotation() bool {
	return k == GateRX || k == GateRY || k == GateRZ
}

func (k GateKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("GateKind(%d)", int(k))
	}
	return gateNames[k]
}

/*
Gate is a single entry of a gate sequence. Only rotation gates carry an
angle; a rotation gate without one is resolved against the engine's default
angle at application time, so the stored sequence keeps the caller's intent.
*/
type Gate struct {
	Kind     GateKind
	Angle    float64
	HasAngle bool
}

// NewGate returns a gate without an angle.
func NewGate(kind GateKind) Gate {
	return Gate{Kind: kind}
}

// Rotation returns a rotation gate with an explicit angle in radians.
func Rotation(kind GateKind, angle float64) Gate {
	return Gate{Kind: kind, Angle: angle, HasAngle: true}
}

// Convenience constructors for the rotation gates.
func RX(theta float64) Gate { return Rotation(GateRX, theta) }
func RY(theta float64) Gate { return Rotation(GateRY, theta) }
func RZ(theta float64) Gate { return Rotation(GateRZ, theta) }

// Validate checks the gate kind and angle without building a matrix.
func (g Gate) Validate() error {
	if !g.Kind.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownGateToken, g.Kind)
	}
	if !g.HasAngle {
		return nil
	}
	if !g.Kind.Rotation() {
		return fmt.Errorf("%w: gate %s takes no angle", ErrInvalidAngle, g.Kind)
	}
	if math.IsNaN(g.Angle) || math.IsInf(g.Angle, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidAngle, g.Angle)
	}
	return nil
}

// String renders the gate in the token form accepted by ParseGate.
func (g Gate) String() string {
	if g.HasAngle {
		return fmt.Sprintf("%s(%s)", g.Kind, strconv.FormatFloat(g.Angle, 'g', -1, 64))
	}
	return g.Kind.String()
}

// Label renders the gate for sequence listings, e.g. "RX (θ = 1.57rad)".
func (g Gate) Label(defaultAngle float64) string {
	if !g.Kind.Rotation() {
		return g.Kind.String()
	}
	angle := defaultAngle
	if g.HasAngle {
		angle = g.Angle
	}
	return fmt.Sprintf("%s (θ = %.2frad)", g.Kind, angle)
}

// Matrix is a 2x2 complex matrix in row-major order.
type Matrix [2][2]complex128

var identity = Matrix{{1, 0}, {0, 1}}

// Mul returns m·o.
func (m Matrix) Mul(o Matrix) Matrix {
	var r Matrix
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j]
		}
	}
	return r
}

// Dagger returns the conjugate transpose of m.
func (m Matrix) Dagger() Matrix {
	return Matrix{
		{cmplx.Conj(m[0][0]), cmplx.Conj(m[1][0])},
		{cmplx.Conj(m[0][1]), cmplx.Conj(m[1][1])},
	}
}

/*
Matrix builds the unitary for g. Rotation gates without an explicit angle use
defaultAngle. The gate is validated first, so an error never comes with a
usable matrix.
*/
func (g Gate) Matrix(defaultAngle float64) (Matrix, error) {
	if err := g.Validate(); err != nil {
		return Matrix{}, err
	}

	theta := defaultAngle
	if g.HasAngle {
		theta = g.Angle
	}
	if g.Kind.Rotation() && (math.IsNaN(theta) || math.IsInf(theta, 0)) {
		return Matrix{}, fmt.Errorf("%w: default angle %v", ErrInvalidAngle, theta)
	}

	switch g.Kind {
	case GateI:
		return identity, nil
	case GateX:
		return Matrix{{0, 1}, {1, 0}}, nil
	case GateY:
		return Matrix{{0, -1i}, {1i, 0}}, nil
	case GateZ:
		return Matrix{{1, 0}, {0, -1}}, nil
	case GateH:
		h := complex(1/math.Sqrt(2), 0)
		return Matrix{{h, h}, {h, -h}}, nil
	case GateS:
		return Matrix{{1, 0}, {0, 1i}}, nil
	case GateT:
		return Matrix{{1, 0}, {0, cmplx.Exp(complex(0, math.Pi/4))}}, nil
	case GateRX:
		c := complex(math.Cos(theta/2), 0)
		s := complex(0, -math.Sin(theta/2))
		return Matrix{{c, s}, {s, c}}, nil
	case GateRY:
		c := complex(math.Cos(theta/2), 0)
		s := complex(math.Sin(theta/2), 0)
		return Matrix{{c, -s}, {s, c}}, nil
	case GateRZ:
		return Matrix{
			{cmplx.Exp(complex(0, -theta/2)), 0},
			{0, cmplx.Exp(complex(0, theta/2))},
		}, nil
	}

	return Matrix{}, fmt.Errorf("%w: %s", ErrUnknownGateToken, g.Kind)
}
