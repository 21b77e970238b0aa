package qbloch

import "errors"

var (
	// ErrUnknownGateToken is returned for a gate outside the fixed gate set.
	ErrUnknownGateToken = errors.New("unknown gate token")

	// ErrInvalidAngle is returned for a rotation angle that is not finite or
	// does not parse as a plain numeric literal.
	ErrInvalidAngle = errors.New("invalid angle")

	// ErrIndexOutOfRange is returned by sequence mutations given a bad index.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidTrialCount is returned for a negative measurement trial count.
	ErrInvalidTrialCount = errors.New("invalid trial count")

	// ErrVersionMismatch is returned by a guarded mutation made against a
	// sequence version that is no longer current.
	ErrVersionMismatch = errors.New("sequence version mismatch")
)
