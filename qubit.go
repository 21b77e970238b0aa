package qbloch

import (
	"math"
	"math/cmplx"
)

/*
Qubit is a single-qubit pure state α|0⟩ + β|1⟩. It is a value type: applying
a gate returns a new Qubit and never mutates the receiver, so states can be
shared between goroutines freely.
*/
type Qubit struct {
	alpha complex128 // |0⟩ amplitude
	beta  complex128 // |1⟩ amplitude
}

// Zero returns the initial state |0⟩.
func Zero() Qubit {
	return Qubit{alpha: 1, beta: 0}
}

func NewQubit(alpha, beta complex128) Qubit {
	return Qubit{alpha: alpha, beta: beta}
}

func (q Qubit) Alpha() complex128 { return q.alpha }
func (q Qubit) Beta() complex128  { return q.beta }

// Amplitudes returns [α, β].
func (q Qubit) Amplitudes() []complex128 {
	return []complex128{q.alpha, q.beta}
}

// Apply left-multiplies the column vector (α, β) by m.
func (q Qubit) Apply(m Matrix) Qubit {
	return Qubit{
		alpha: m[0][0]*q.alpha + m[0][1]*q.beta,
		beta:  m[1][0]*q.alpha + m[1][1]*q.beta,
	}
}

// Norm returns |α|² + |β|².
func (q Qubit) Norm() float64 {
	return sqAbs(q.alpha) + sqAbs(q.beta)
}

/*
Probabilities returns the Born-rule probabilities (p0, p1). Floating noise
can push either value a hair outside [0, 1]; both are clamped, and p1 is
derived as 1 - p0 so the pair always sums to exactly one.
*/
func (q Qubit) Probabilities() (float64, float64) {
	p0 := sqAbs(q.alpha)
	if n := q.Norm(); n > 0 {
		p0 /= n
	}
	p0 = clamp01(p0)
	p1 := clamp01(1 - p0)
	if q.beta == 0 {
		p0, p1 = 1, 0
	}
	if q.alpha == 0 {
		p0, p1 = 0, 1
	}
	return p0, p1
}

// ApproxEqual compares both amplitudes component-wise within tol.
func (q Qubit) ApproxEqual(o Qubit, tol float64) bool {
	return cmplx.Abs(q.alpha-o.alpha) <= tol && cmplx.Abs(q.beta-o.beta) <= tol
}

func sqAbs(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
