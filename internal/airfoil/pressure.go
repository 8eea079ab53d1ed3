package airfoil

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/interp"
)

// DefaultStationCount is the number of chordwise stations of the default grid
// (x/c = 0.01 ... 0.99).
const DefaultStationCount = 99

// DefaultStations returns the default chordwise grid used to normalize
// pressure curves.
func DefaultStations() []float64 {
	return floats.Span(make([]float64, DefaultStationCount), 0.01, 0.99)
}

// Distribution is a chordwise pressure distribution on a fixed grid, split at
// the leading edge into the suction (upper) and pressure (lower) side.
type Distribution struct {
	Reynolds     float64
	Alpha        float64
	X            []float64
	Suction      []float64
	Pressure     []float64
	Extrapolated bool
}

// Points returns the distribution as one ordered (x, cp) sequence in surface
// order: suction side from trailing to leading edge, then the pressure side
// back to the trailing edge.
func (d *Distribution) Points() []CpPoint {
	n := len(d.X)
	pts := make([]CpPoint, 0, 2*n)
	for i := n - 1; i >= 0; i-- {
		pts = append(pts, CpPoint{X: d.X[i], Cp: d.Suction[i]})
	}
	for i := 0; i < n; i++ {
		pts = append(pts, CpPoint{X: d.X[i], Cp: d.Pressure[i]})
	}
	return pts
}

// NormalForce integrates the pressure difference over the chord and returns
// the section normal-force coefficient, positive towards the suction side.
func (d *Distribution) NormalForce() float64 {
	if len(d.X) < 2 {
		return 0
	}
	diff := make([]float64, len(d.X))
	floats.SubTo(diff, d.Pressure, d.Suction)
	return integrate.Trapezoidal(d.X, diff)
}

// MinCp returns the suction peak of the distribution.
func (d *Distribution) MinCp() float64 {
	return min(floats.Min(d.Suction), floats.Min(d.Pressure))
}

// BlendDistributions returns (1-f)*a + f*b. Both distributions must share the
// same chordwise grid.
func BlendDistributions(a, b *Distribution, f float64) (*Distribution, error) {
	if !floats.Equal(a.X, b.X) {
		return nil, fmt.Errorf("%w: blended distributions use different chordwise grids", ErrMalformedTable)
	}
	out := &Distribution{
		Reynolds:     a.Reynolds,
		Alpha:        a.Alpha,
		X:            append([]float64(nil), a.X...),
		Suction:      make([]float64, len(a.X)),
		Pressure:     make([]float64, len(a.X)),
		Extrapolated: a.Extrapolated || b.Extrapolated,
	}
	lerp(out.Suction, a.Suction, b.Suction, f)
	lerp(out.Pressure, a.Pressure, b.Pressure, f)
	return out, nil
}

// normalize splits a raw surface-ordered curve at the leading edge and
// resamples both sides onto stations. The result is the concatenation
// suction||pressure.
//
// Resampling is linear in x, so for curves that already share one
// discretization it commutes with the interpolation across conditions.
func normalize(c PressureCurve, stations []float64) ([]float64, error) {
	if len(c.Points) < 4 {
		return nil, fmt.Errorf("%w: pressure curve at Re=%g alpha=%g has %d points",
			ErrMalformedTable, c.Reynolds, c.Alpha, len(c.Points))
	}

	le := 0
	for i, p := range c.Points {
		if !finite(p.X) || !finite(p.Cp) {
			return nil, fmt.Errorf("%w: non-finite pressure sample at Re=%g alpha=%g", ErrMalformedTable, c.Reynolds, c.Alpha)
		}
		if p.X < c.Points[le].X {
			le = i
		}
	}

	upper := make([]CpPoint, 0, le+1)
	for i := le; i >= 0; i-- {
		upper = append(upper, c.Points[i])
	}
	lower := c.Points[le:]

	out := make([]float64, 0, 2*len(stations))
	for _, side := range [][]CpPoint{upper, lower} {
		v, err := resample(side, stations)
		if err != nil {
			return nil, fmt.Errorf("%w: pressure curve at Re=%g alpha=%g: %v", ErrMalformedTable, c.Reynolds, c.Alpha, err)
		}
		out = append(out, v...)
	}
	return out, nil
}

// resample fits a piecewise-linear curve through one surface side, which must
// run from leading to trailing edge, and evaluates it at stations. Points
// repeating the previous x are dropped.
func resample(side []CpPoint, stations []float64) ([]float64, error) {
	xs := make([]float64, 0, len(side))
	ys := make([]float64, 0, len(side))
	for _, p := range side {
		if n := len(xs); n > 0 && p.X <= xs[n-1] {
			if p.X == xs[n-1] {
				continue
			}
			return nil, errors.New("chordwise positions are not monotonic")
		}
		xs = append(xs, p.X)
		ys = append(ys, p.Cp)
	}
	if len(xs) < 2 {
		return nil, errors.New("surface side has fewer than two distinct stations")
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, err
	}
	out := make([]float64, len(stations))
	for i, x := range stations {
		out[i] = pl.Predict(x)
	}
	return out, nil
}
