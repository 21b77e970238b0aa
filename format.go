package qbloch

import (
	"math"
	"strconv"
	"strings"
)

/*
FormatAmplitude renders a complex amplitude in the repr form the /simulate
endpoint reports: "(0.7071067811865475+0j)", "(1+0j)", "1j", "-0.5j".
A value with a positive-zero real part drops the real part and parentheses.
*/
func FormatAmplitude(c complex128) string {
	re, im := real(c), imag(c)
	if re == 0 && !math.Signbit(re) {
		return reprFloat(im) + "j"
	}

	sign := "+"
	if math.Signbit(im) {
		sign = "-"
	}
	return "(" + reprFloat(re) + sign + reprFloat(math.Abs(im)) + "j)"
}

// FormatAmplitudes applies FormatAmplitude to both amplitudes of q.
func FormatAmplitudes(q Qubit) []string {
	return []string{FormatAmplitude(q.alpha), FormatAmplitude(q.beta)}
}

func reprFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

/*
Dirac renders q as a ket expression rounded to four decimals, e.g.
"0.7071|0⟩ - 0.7071|1⟩" or "i|1⟩". Amplitudes that round to zero are omitted.
*/
func Dirac(q Qubit) string {
	var b strings.Builder
	for i, amp := range q.Amplitudes() {
		coef, neg, ok := formatCoefficient(amp)
		if !ok {
			continue
		}

		switch {
		case b.Len() == 0 && neg:
			b.WriteString("-")
		case b.Len() > 0 && neg:
			b.WriteString(" - ")
		case b.Len() > 0:
			b.WriteString(" + ")
		}
		b.WriteString(coef)
		b.WriteString("|")
		b.WriteString(strconv.Itoa(i))
		b.WriteString("⟩")
	}

	if b.Len() == 0 {
		return "0"
	}
	return b.String()
}

func formatCoefficient(c complex128) (string, bool, bool) {
	re, im := round4(real(c)), round4(imag(c))

	switch {
	case re == 0 && im == 0:
		return "", false, false
	case im == 0:
		s := trimFloat(math.Abs(re))
		if s == "1" {
			s = ""
		}
		return s, re < 0, true
	case re == 0:
		s := trimFloat(math.Abs(im))
		if s == "1" {
			s = ""
		}
		return s + "i", im < 0, true
	}

	sign := "+"
	if im < 0 {
		sign = "-"
	}
	return "(" + trimFloat(re) + sign + trimFloat(math.Abs(im)) + "i)", false, true
}

func round4(v float64) float64 {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		return 0
	}
	return r
}

func trimFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
