package qbloch

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/theapemachine/errnie"
)

/*
Engine replays gate sequences against the fixed initial state |0⟩ and derives
Bloch coordinates and measurement statistics from the result.

Engine holds only read-only configuration, so a single instance can serve any
number of concurrent callers. Every method is a pure function of its inputs,
except Measure and Collapse which draw from the random source they are given.
*/
type Engine struct {
	defaultAngle float64
}

// NewEngine builds an engine from config, falling back to NewConfig defaults.
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = NewConfig()
	}
	return &Engine{defaultAngle: config.DefaultAngle}
}

// DefaultAngle returns the angle used by rotation gates that carry none.
func (e *Engine) DefaultAngle() float64 {
	return e.defaultAngle
}

/*
ApplySequence starts from |0⟩ and left-multiplies the state by each gate's
matrix in order. All gates are resolved to matrices before the first
multiplication, so an invalid gate anywhere in the sequence yields an error and
no state at all.
*/
func (e *Engine) ApplySequence(gates []Gate) (Qubit, error) {
	matrices := make([]Matrix, len(gates))
	for i, g := range gates {
		m, err := g.Matrix(e.defaultAngle)
		if err != nil {
			errnie.Debug("rejected gate at position %d: %s", i, spew.Sdump(g))
			return Qubit{}, fmt.Errorf("gate %d: %w", i, err)
		}
		matrices[i] = m
	}

	q := Zero()
	for _, m := range matrices {
		q = q.Apply(m)
	}
	return q, nil
}

// ApplyTokens parses each token with ParseGate and replays the result.
func (e *Engine) ApplyTokens(tokens []string) (Qubit, error) {
	gates, err := ParseGates(tokens)
	if err != nil {
		return Qubit{}, err
	}
	return e.ApplySequence(gates)
}

// Unitary returns the product of the sequence's matrices, last gate leftmost.
func (e *Engine) Unitary(gates []Gate) (Matrix, error) {
	u := identity
	for i, g := range gates {
		m, err := g.Matrix(e.defaultAngle)
		if err != nil {
			return Matrix{}, fmt.Errorf("gate %d: %w", i, err)
		}
		u = m.Mul(u)
	}
	return u, nil
}

// ToBloch converts a state to its Bloch-sphere coordinates.
func (e *Engine) ToBloch(q Qubit) BlochVector {
	return toBloch(q)
}

/*
Measure samples trials independent computational-basis measurements of q.
The returned counts always sum to trials. Without options the random source is
seeded from system entropy; pass WithSeed or WithSource for reproducible runs.
*/
func (e *Engine) Measure(q Qubit, trials int, opts ...MeasureOption) (Counts, error) {
	if trials < 0 {
		return Counts{}, fmt.Errorf("%w: %d", ErrInvalidTrialCount, trials)
	}

	_, p1 := q.Probabilities()
	return sample(newSampler(opts), p1, trials), nil
}

// Collapse performs a single measurement and returns the post-measurement
// basis state along with the observed outcome (0 or 1).
func (e *Engine) Collapse(q Qubit, opts ...MeasureOption) (Qubit, int) {
	_, p1 := q.Probabilities()
	if sample(newSampler(opts), p1, 1).One == 1 {
		return NewQubit(0, 1), 1
	}
	return Zero(), 0
}
