package qbloch

import (
	"encoding/json"
	"math/rand/v2"
)

// Counts is the outcome distribution of repeated measurements.
type Counts struct {
	Zero int
	One  int
}

// Total returns the number of trials the counts were built from.
func (c Counts) Total() int {
	return c.Zero + c.One
}

// Map returns the counts keyed by outcome label.
func (c Counts) Map() map[string]int {
	return map[string]int{"0": c.Zero, "1": c.One}
}

func (c Counts) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

func (c *Counts) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	c.Zero, c.One = m["0"], m["1"]
	return nil
}

type measureOptions struct {
	source rand.Source
}

// MeasureOption configures the random source used by Measure and Collapse.
type MeasureOption func(*measureOptions)

// WithSeed makes sampling reproducible.
func WithSeed(seed uint64) MeasureOption {
	return func(o *measureOptions) {
		o.source = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
}

// WithSource injects a caller-owned random source.
func WithSource(src rand.Source) MeasureOption {
	return func(o *measureOptions) {
		o.source = src
	}
}

func newSampler(opts []MeasureOption) *rand.Rand {
	o := measureOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == nil {
		// The top-level functions of math/rand/v2 are seeded from system entropy.
		o.source = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return rand.New(o.source)
}

/*
sample draws trials independent outcomes with P(1) = p1. A draw is "1" when
r < p1 for r uniform in [0, 1), so p1 == 0 can never produce a "1" and
p1 == 1 can never produce a "0".
*/
func sample(r *rand.Rand, p1 float64, trials int) Counts {
	var c Counts
	for i := 0; i < trials; i++ {
		if r.Float64() < p1 {
			c.One++
		} else {
			c.Zero++
		}
	}
	return c
}
