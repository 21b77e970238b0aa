package qbloch

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	decimalLiteral = `(?:\d+(?:\.\d*)?|\.\d+)`
	decimalPattern = regexp.MustCompile(`^[+-]?` + decimalLiteral + `(?:e[+-]?\d+)?$`)
	piPattern      = regexp.MustCompile(
		`^([+-])?(?:(` + decimalLiteral + `)\s*\*?\s*)?(?:pi|π)(?:\s*/\s*(` + decimalLiteral + `))?$`,
	)
)

/*
ParseAngle converts an angle literal to radians. Two forms are accepted and
nothing else is ever evaluated:

  - signed decimals with an optional exponent: "0.5", "-1", "+.25", "1e-3"
  - multiples and fractions of pi: "pi", "-pi/2", "2pi", "3*pi/4", "π/8"

Anything else, a zero denominator, or a value that overflows to infinity is
ErrInvalidAngle.
*/
func ParseAngle(s string) (float64, error) {
	text := strings.ToLower(strings.TrimSpace(s))
	if text == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAngle)
	}

	if decimalPattern.MatchString(text) {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAngle, s)
		}
		return v, nil
	}

	m := piPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAngle, s)
	}

	v := math.Pi
	if m[2] != "" {
		coef, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAngle, s)
		}
		v *= coef
	}
	if m[3] != "" {
		denom, err := strconv.ParseFloat(m[3], 64)
		if err != nil || denom == 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAngle, s)
		}
		v /= denom
	}
	if m[1] == "-" {
		v = -v
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAngle, s)
	}
	return v, nil
}
