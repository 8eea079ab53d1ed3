package diagram

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/alexiusacademia/gorotor/internal/airfoil"
)

// PressureSeries is one labelled chordwise distribution.
type PressureSeries struct {
	Label        string
	Distribution *airfoil.Distribution
}

// ExportPressurePlot draws -Cp against x/c for every series, suction side as
// a solid line and pressure side with markers.
func ExportPressurePlot(title string, series []PressureSeries, filename string) error {
	if len(series) == 0 {
		return fmt.Errorf("no pressure distribution to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x/c"
	p.Y.Label.Text = "-Cp"
	p.Legend.Top = true

	var lines []any
	for _, s := range series {
		d := s.Distribution
		if d == nil || len(d.X) == 0 {
			return fmt.Errorf("series %q has no distribution", s.Label)
		}
		upper := make(plotter.XYs, len(d.X))
		lower := make(plotter.XYs, len(d.X))
		for i, x := range d.X {
			upper[i] = plotter.XY{X: x, Y: -d.Suction[i]}
			lower[i] = plotter.XY{X: x, Y: -d.Pressure[i]}
		}
		label := s.Label
		if d.Extrapolated {
			label += " (extrapolated)"
		}
		lines = append(lines, label+" suction", upper, label+" pressure", lower)
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return err
	}

	zero, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 0}})
	if err != nil {
		return err
	}
	zero.LineStyle.Color = color.Gray{Y: 128}
	zero.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	p.Add(zero)

	return save(p, 8*vg.Inch, 6*vg.Inch, filename)
}

// SpanPoint is one section of a spanwise envelope curve.
type SpanPoint struct {
	Radius float64
	Value  float64
	Case   string
}

// SpanSeries is a labelled spanwise curve, typically one bound of a channel.
type SpanSeries struct {
	Label  string
	Points []SpanPoint
}

// ExportEnvelopePlot draws channel bounds along the span and labels every
// point with its governing load case.
func ExportEnvelopePlot(title, unit string, series []SpanSeries, filename string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Radius (m)"
	p.Y.Label.Text = unit
	p.Legend.Top = true

	plotted := 0
	for i, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(s.Points))
		labels := make([]string, len(s.Points))
		for j, pt := range s.Points {
			xys[j] = plotter.XY{X: pt.Radius, Y: pt.Value}
			labels[j] = pt.Case
		}

		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		points.GlyphStyle.Color = plotutil.Color(i)
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		points.GlyphStyle.Radius = vg.Points(3)
		p.Add(line, points)
		p.Legend.Add(s.Label, line, points)

		names, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return err
		}
		names.Offset = vg.Point{X: vg.Points(4), Y: vg.Points(4)}
		p.Add(names)
		plotted++
	}
	if plotted == 0 {
		return fmt.Errorf("no envelope values to plot")
	}
	p.Add(plotter.NewGrid())

	return save(p, 8*vg.Inch, 5*vg.Inch, filename)
}

// save writes p to filename. The format follows the extension; files without
// a known extension are written as PNG.
func save(p *plot.Plot, width, height vg.Length, filename string) error {
	if dir := filepath.Dir(filename); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	switch filepath.Ext(filename) {
	case ".png", ".svg", ".pdf", ".jpg", ".jpeg", ".eps", ".tif", ".tiff":
		return p.Save(width, height, filename)
	default:
		return p.Save(width, height, filename+".png")
	}
}
