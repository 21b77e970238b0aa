package qbloch

import (
	"math"
	"math/cmplx"
)

// BlochVector is the point of a pure state on the unit Bloch sphere.
type BlochVector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the Euclidean length of the vector.
func (b BlochVector) Norm() float64 {
	return math.Sqrt(b.X*b.X + b.Y*b.Y + b.Z*b.Z)
}

// toBloch projects the density matrix of q onto the Pauli basis.
func toBloch(q Qubit) BlochVector {
	c := cmplx.Conj(q.alpha) * q.beta
	return BlochVector{
		X: 2 * real(c),
		Y: 2 * imag(c),
		Z: sqAbs(q.alpha) - sqAbs(q.beta),
	}
}
