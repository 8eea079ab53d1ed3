package airfoil

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/alexiusacademia/gorotor/internal/metrics"
)

// Default XFOIL settings used when an airfoil does not set its own.
const (
	DefaultNcrit     = 9.0
	DefaultIterLimit = 200
)

// Airfoil holds a 2D profile together with its polar and pressure tables.
//
// Tables are replaced as a whole by SetPolar and SetPressure and are read
// through an atomic snapshot, so any number of goroutines may query an
// Airfoil concurrently without locking. Setting a table while queries are in
// flight is safe but bumps Revision, which invalidates envelopes computed
// from the previous tables.
type Airfoil struct {
	Name           string
	Coordinates    []Point
	DesignReynolds float64
	Ncrit          float64
	IterLimit      int

	// Stations is the chordwise grid for pressure distributions. Nil means
	// DefaultStations.
	Stations []float64

	Logger logrus.FieldLogger

	polar    atomic.Pointer[polarTable]
	pressure atomic.Pointer[pressureTable]

	revision       atomic.Uint64
	extrapolations atomic.Uint64
}

type polarTable struct {
	points []PolarPoint
	srf    *surface
}

type pressureTable struct {
	curves   []PressureCurve
	stations []float64
	srf      *surface
}

// New creates an airfoil with default analysis settings.
func New(name string, coords []Point, designReynolds float64) *Airfoil {
	return &Airfoil{
		Name:           name,
		Coordinates:    coords,
		DesignReynolds: designReynolds,
		Ncrit:          DefaultNcrit,
		IterLimit:      DefaultIterLimit,
	}
}

// Revision increases every time a table is replaced.
func (a *Airfoil) Revision() uint64 {
	return a.revision.Load()
}

// Extrapolations returns how many queries fell outside the sampled grid.
func (a *Airfoil) Extrapolations() uint64 {
	return a.extrapolations.Load()
}

// HasPolar reports whether polar data has been set.
func (a *Airfoil) HasPolar() bool {
	return a.polar.Load() != nil
}

// HasPressure reports whether pressure data has been set.
func (a *Airfoil) HasPressure() bool {
	return a.pressure.Load() != nil
}

// SetPolar replaces the polar table. Keys (Reynolds, Alpha) must be unique.
func (a *Airfoil) SetPolar(points []PolarPoint) error {
	samples := make([]sample, len(points))
	for i, p := range points {
		samples[i] = sample{re: p.Reynolds, alpha: p.Alpha, v: p.vector()}
	}
	srf, err := newSurface(int(numQuantities), samples)
	if err != nil {
		return fmt.Errorf("airfoil %s: polar: %w", a.Name, err)
	}
	a.polar.Store(&polarTable{points: append([]PolarPoint(nil), points...), srf: srf})
	a.revision.Add(1)
	return nil
}

// SetPressure replaces the pressure table. Every curve is split at the leading
// edge and resampled onto the airfoil's chordwise stations.
func (a *Airfoil) SetPressure(curves []PressureCurve) error {
	stations := a.Stations
	if stations == nil {
		stations = DefaultStations()
	}
	samples := make([]sample, len(curves))
	for i, c := range curves {
		v, err := normalize(c, stations)
		if err != nil {
			return fmt.Errorf("airfoil %s: pressure: %w", a.Name, err)
		}
		samples[i] = sample{re: c.Reynolds, alpha: c.Alpha, v: v}
	}
	srf, err := newSurface(2*len(stations), samples)
	if err != nil {
		return fmt.Errorf("airfoil %s: pressure: %w", a.Name, err)
	}
	a.pressure.Store(&pressureTable{
		curves:   append([]PressureCurve(nil), curves...),
		stations: append([]float64(nil), stations...),
		srf:      srf,
	})
	a.revision.Add(1)
	return nil
}

// Polar returns a copy of the stored polar rows.
func (a *Airfoil) Polar() []PolarPoint {
	t := a.polar.Load()
	if t == nil {
		return nil
	}
	return append([]PolarPoint(nil), t.points...)
}

// PressureCurves returns a copy of the raw stored pressure curves.
func (a *Airfoil) PressureCurves() []PressureCurve {
	t := a.pressure.Load()
	if t == nil {
		return nil
	}
	return append([]PressureCurve(nil), t.curves...)
}

// Interpolate returns quantity q at (re, alpha).
func (a *Airfoil) Interpolate(re, alpha float64, q Quantity) (Sample, error) {
	if q < 0 || q >= numQuantities {
		return Sample{}, fmt.Errorf("airfoil %s: unknown quantity %v", a.Name, q)
	}
	c, err := a.Coefficients(re, alpha)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Value: c.Value(q), Extrapolated: c.Extrapolated}, nil
}

// Coefficients returns all polar quantities at (re, alpha).
func (a *Airfoil) Coefficients(re, alpha float64) (Coefficients, error) {
	t := a.polar.Load()
	if t == nil {
		return Coefficients{}, fmt.Errorf("airfoil %s: polar: %w", a.Name, ErrDataUnavailable)
	}
	v, extrapolated := t.srf.at(re, alpha)
	if extrapolated {
		a.flagExtrapolation("polar", re, alpha)
	}
	return coefficientsFrom(re, alpha, v, extrapolated), nil
}

// CpVsX returns the chordwise pressure distribution at (re, alpha), obtained
// by interpolating every chordwise station across the sampled conditions.
func (a *Airfoil) CpVsX(re, alpha float64) (*Distribution, error) {
	t := a.pressure.Load()
	if t == nil {
		return nil, fmt.Errorf("airfoil %s: pressure: %w", a.Name, ErrDataUnavailable)
	}
	v, extrapolated := t.srf.at(re, alpha)
	if extrapolated {
		a.flagExtrapolation("pressure", re, alpha)
	}
	n := len(t.stations)
	return &Distribution{
		Reynolds:     re,
		Alpha:        alpha,
		X:            append([]float64(nil), t.stations...),
		Suction:      v[:n],
		Pressure:     v[n:],
		Extrapolated: extrapolated,
	}, nil
}

// AlphaGrid returns the sampled angles of attack around re.
func (a *Airfoil) AlphaGrid(re float64) ([]float64, error) {
	t := a.polar.Load()
	if t == nil {
		return nil, fmt.Errorf("airfoil %s: polar: %w", a.Name, ErrDataUnavailable)
	}
	return t.srf.alphas(re), nil
}

func (a *Airfoil) flagExtrapolation(table string, re, alpha float64) {
	a.extrapolations.Add(1)
	metrics.IncExtrapolation()
	if a.Logger != nil {
		a.Logger.WithFields(logrus.Fields{
			"airfoil":  a.Name,
			"table":    table,
			"reynolds": re,
			"alpha":    alpha,
		}).Warn("query outside sampled range, extrapolating")
	}
}
