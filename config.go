package qbloch

import "math"

// DefaultRotationAngle is used by RX, RY and RZ when a gate carries no angle.
const DefaultRotationAngle = math.Pi / 2

/*
Config holds the engine defaults. DefaultAngle applies to rotation gates
appended without an explicit angle. MaxTrials and DefaultTrials are policy
values for callers; the engine itself only rejects negative trial counts.
*/
type Config struct {
	DefaultAngle  float64
	MaxTrials     int
	DefaultTrials int
}

func NewConfig() *Config {
	return &Config{
		DefaultAngle:  DefaultRotationAngle,
		MaxTrials:     1_000_000,
		DefaultTrials: 1024,
	}
}
