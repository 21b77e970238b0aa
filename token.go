package qbloch

import (
	"fmt"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`^([A-Za-z]+)\s*(?:\((.*)\))?$`)

var gateKinds = map[string]GateKind{
	"I":  GateI,
	"ID": GateI,
	"X":  GateX,
	"Y":  GateY,
	"Z":  GateZ,
	"H":  GateH,
	"S":  GateS,
	"T":  GateT,
	"RX": GateRX,
	"RY": GateRY,
	"RZ": GateRZ,
}

// ParseKind resolves a case-insensitive gate name.
func ParseKind(name string) (GateKind, error) {
	kind, ok := gateKinds[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownGateToken, name)
	}
	return kind, nil
}

/*
ParseGate turns a textual token into a Gate. Names are case-insensitive and
rotation gates may carry an angle in parentheses, e.g. "h", "RX", "rz(pi/4)",
"ry(-0.5)". The angle goes through ParseAngle, never through an expression
evaluator.
*/
func ParseGate(token string) (Gate, error) {
	m := tokenPattern.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return Gate{}, fmt.Errorf("%w: %q", ErrUnknownGateToken, token)
	}

	kind, err := ParseKind(m[1])
	if err != nil {
		return Gate{}, err
	}

	// m[0] includes the parentheses whenever an argument list was present.
	if !strings.HasSuffix(m[0], ")") {
		return NewGate(kind), nil
	}
	if !kind.Rotation() {
		return Gate{}, fmt.Errorf("%w: gate %s takes no angle", ErrInvalidAngle, kind)
	}

	angle, err := ParseAngle(m[2])
	if err != nil {
		return Gate{}, err
	}
	return Rotation(kind, angle), nil
}

// ParseGates parses every token, failing on the first bad one.
func ParseGates(tokens []string) ([]Gate, error) {
	gates := make([]Gate, 0, len(tokens))
	for i, tok := range tokens {
		g, err := ParseGate(tok)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		gates = append(gates, g)
	}
	return gates, nil
}

// MarshalText encodes the gate in its token form.
func (g Gate) MarshalText() ([]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return []byte(g.String()), nil
}

// UnmarshalText decodes a token with ParseGate.
func (g *Gate) UnmarshalText(text []byte) error {
	parsed, err := ParseGate(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
