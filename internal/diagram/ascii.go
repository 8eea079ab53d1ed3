package diagram

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/interp"

	"github.com/alexiusacademia/gorotor/internal/airfoil"
)

// Bar is one row of a spanwise chart.
type Bar struct {
	Label string
	Value float64
	Note  string
}

// DrawSpanChart renders signed values as horizontal bars around a centre
// axis, negative values to the left.
func DrawSpanChart(title, unit string, bars []Bar) string {
	var sb strings.Builder
	half := 24

	peak := 0.0
	labelWidth := len("Section")
	for _, b := range bars {
		peak = math.Max(peak, math.Abs(b.Value))
		labelWidth = max(labelWidth, len(b.Label))
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  %s (%s)\n", strings.ToUpper(title), unit))
	sb.WriteString(fmt.Sprintf("  %s\n\n", strings.Repeat("─", len(title)+len(unit)+3)))

	for _, b := range bars {
		n := 0
		if peak > 0 {
			n = int(math.Round(math.Abs(b.Value) / peak * float64(half)))
		}
		left := strings.Repeat(" ", half)
		right := ""
		if b.Value < 0 {
			left = strings.Repeat(" ", half-n) + strings.Repeat("█", n)
		} else {
			right = strings.Repeat("█", n)
		}
		line := fmt.Sprintf("  %-*s %s│%-*s %12.4g", labelWidth, b.Label, left, half, right, b.Value)
		if b.Note != "" {
			line += "  " + b.Note
		}
		sb.WriteString(strings.TrimRight(line, " ") + "\n")
	}
	return sb.String()
}

// DrawPressureChart plots -Cp of both surfaces against x/c, resampled onto
// width evenly spaced chord stations. The suction side is the upper curve.
func DrawPressureChart(d *airfoil.Distribution, width, height int) string {
	if d == nil || len(d.X) == 0 {
		return ""
	}
	width = max(width, 20)
	height = max(height, 8)

	suction := resample(d.X, d.Suction, width)
	pressure := resample(d.X, d.Pressure, width)
	lo, hi := 0.0, 0.0
	for i := range suction {
		suction[i], pressure[i] = -suction[i], -pressure[i]
		lo = math.Min(lo, math.Min(suction[i], pressure[i]))
		hi = math.Max(hi, math.Max(suction[i], pressure[i]))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n  -Cp   Re = %.3g  alpha = %.2f deg\n", d.Reynolds, d.Alpha))
	sb.WriteString(asciigraph.PlotMany([][]float64{suction, pressure},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(lo),
		asciigraph.UpperBound(hi),
		asciigraph.Offset(4),
		asciigraph.Caption(fmt.Sprintf("x/c %.2f to %.2f, suction above pressure", d.X[0], d.X[len(d.X)-1])),
	))
	sb.WriteString("\n")
	if d.Extrapolated {
		sb.WriteString("  (extrapolated beyond the sampled polar)\n")
	}
	return sb.String()
}

// resample interpolates ys linearly onto n stations spread evenly over xs.
func resample(xs, ys []float64, n int) []float64 {
	out := make([]float64, n)
	if len(xs) < 2 {
		for i := range out {
			out[i] = ys[0]
		}
		return out
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		for i := range out {
			out[i] = ys[min(i*len(ys)/n, len(ys)-1)]
		}
		return out
	}
	lo, hi := xs[0], xs[len(xs)-1]
	for i := range out {
		out[i] = pl.Predict(lo + (hi-lo)*float64(i)/float64(n-1))
	}
	return out
}

// DrawSummaryBox frames title and lines in a double-line box.
func DrawSummaryBox(title string, lines []string) string {
	var sb strings.Builder

	inner := len([]rune(title))
	for _, line := range lines {
		inner = max(inner, len([]rune(line)))
	}
	inner += 4

	pad := func(s string) string {
		return s + strings.Repeat(" ", inner-2-len([]rune(s)))
	}
	border := strings.Repeat("═", inner)
	sb.WriteString(fmt.Sprintf("  ╔%s╗\n", border))
	sb.WriteString(fmt.Sprintf("  ║  %s║\n", pad(title)))
	sb.WriteString(fmt.Sprintf("  ╠%s╣\n", border))
	for _, line := range lines {
		sb.WriteString(fmt.Sprintf("  ║  %s║\n", pad(line)))
	}
	sb.WriteString(fmt.Sprintf("  ╚%s╝\n", border))
	return sb.String()
}
