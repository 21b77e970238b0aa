package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/theapemachine/qbloch"
)

const (
	colorMauve    lipgloss.Color = "#cba6f7"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorPeach    lipgloss.Color = "#fab387"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorOverlay1 lipgloss.Color = "#7f849c"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorMauve)
	labelStyle = lipgloss.NewStyle().Foreground(colorOverlay1).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(colorTeal)
	gateStyle  = lipgloss.NewStyle().Foreground(colorPeach).Padding(0, 1)
	zeroStyle  = lipgloss.NewStyle().Foreground(colorBlue)
	oneStyle   = lipgloss.NewStyle().Foreground(colorPeach)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

const barWidth = 40

// Report is everything the terminal view shows for one run.
type Report struct {
	Gates        []qbloch.Gate
	DefaultAngle float64
	State        qbloch.Qubit
	Bloch        qbloch.BlochVector
	Counts       *qbloch.Counts
}

// Render draws r as a boxed terminal panel.
func Render(r Report) string {
	rows := []string{titleStyle.Render("single-qubit state"), ""}

	rows = append(rows, row("sequence", sequence(r.Gates, r.DefaultAngle)))
	rows = append(rows, row("state", qbloch.Dirac(r.State)))

	amps := qbloch.FormatAmplitudes(r.State)
	rows = append(rows, row("amplitudes", amps[0]+", "+amps[1]))

	p0, p1 := r.State.Probabilities()
	rows = append(rows, row("P(0), P(1)", fmt.Sprintf("%.4f, %.4f", p0, p1)))
	rows = append(rows, row("bloch", fmt.Sprintf("(%.4f, %.4f, %.4f)", r.Bloch.X, r.Bloch.Y, r.Bloch.Z)))

	if r.Counts != nil {
		rows = append(rows, "", titleStyle.Render(fmt.Sprintf("counts (%d shots)", r.Counts.Total())))
		rows = append(rows, histogram(*r.Counts)...)
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
}

func sequence(gates []qbloch.Gate, defaultAngle float64) string {
	if len(gates) == 0 {
		return "(empty)"
	}

	labels := make([]string, len(gates))
	for i, g := range gates {
		labels[i] = gateStyle.Render(g.Label(defaultAngle))
	}
	return strings.Join(labels, "→")
}

func histogram(c qbloch.Counts) []string {
	total := c.Total()
	lines := make([]string, 0, 2)

	for _, outcome := range []struct {
		label string
		count int
		style lipgloss.Style
	}{
		{"0", c.Zero, zeroStyle},
		{"1", c.One, oneStyle},
	} {
		width := 0
		if total > 0 {
			width = outcome.count * barWidth / total
		}
		bar := outcome.style.Render(strings.Repeat("█", width))
		lines = append(lines, fmt.Sprintf("%s %s %d", outcome.label, bar, outcome.count))
	}
	return lines
}
