package airfoil

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/alexiusacademia/gorotor/internal/parse"
	"github.com/alexiusacademia/gorotor/internal/solver"
)

const (
	coordinatesFile = "airfoil.dat"
	polarFile       = "polar.txt"
)

// AnalysisRequest selects the conditions of an airfoil solver sweep.
type AnalysisRequest struct {
	Reynolds   []float64
	AlphaStart float64 // deg, <= 0
	AlphaStop  float64 // deg, >= 0
	AlphaInc   float64 // deg, > 0
	Workers    int
}

// DefaultAnalysisRequest sweeps -20..20 deg in 0.25 deg steps.
func DefaultAnalysisRequest(reynolds ...float64) AnalysisRequest {
	return AnalysisRequest{
		Reynolds:   reynolds,
		AlphaStart: -20,
		AlphaStop:  20,
		AlphaInc:   0.25,
	}
}

// Validate checks the request.
func (r AnalysisRequest) Validate() error {
	if len(r.Reynolds) == 0 {
		return errors.New("analysis needs at least one Reynolds number")
	}
	for _, re := range r.Reynolds {
		if re <= 0 || !finite(re) {
			return fmt.Errorf("invalid Reynolds number %g", re)
		}
	}
	if r.AlphaInc <= 0 {
		return fmt.Errorf("alpha increment must be positive, got %g", r.AlphaInc)
	}
	if r.AlphaStart > 0 || r.AlphaStop < 0 {
		return fmt.Errorf("alpha range [%g, %g] must contain 0", r.AlphaStart, r.AlphaStop)
	}
	return nil
}

// Alphas returns the angles in the order they are run: from 0 down to the
// start, then from the first positive step up to the stop. Marching away
// from zero keeps the boundary-layer solution warm between points.
func (r AnalysisRequest) Alphas() []float64 {
	var out []float64
	for i := 0; ; i++ {
		a := 0 - float64(i)*r.AlphaInc
		if a < r.AlphaStart-1e-9 {
			break
		}
		out = append(out, a)
	}
	for i := 1; ; i++ {
		a := float64(i) * r.AlphaInc
		if a > r.AlphaStop+1e-9 {
			break
		}
		out = append(out, a)
	}
	return out
}

// Analyze runs the airfoil solver once per requested Reynolds number and
// replaces the polar and pressure tables with the results. Reynolds numbers
// whose run or output fails are skipped with a warning; Analyze fails only
// when no Reynolds number produced a polar.
func (a *Airfoil) Analyze(ctx context.Context, runner solver.Runner, req AnalysisRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("airfoil %s: %w", a.Name, err)
	}
	if len(a.Coordinates) < 3 {
		return fmt.Errorf("airfoil %s: %w: no profile coordinates", a.Name, ErrDataUnavailable)
	}

	alphas := req.Alphas()
	cfgs := make([]solver.Config, len(req.Reynolds))
	for i, re := range req.Reynolds {
		cfgs[i] = a.xfoilConfig(re, alphas)
	}

	log := a.logger().WithField("airfoil", a.Name)
	var (
		points   []PolarPoint
		curves   []PressureCurve
		firstErr error
	)
	for i, res := range solver.RunArray(ctx, runner, cfgs, req.Workers) {
		re := req.Reynolds[i]
		pts, cps, err := a.collect(re, alphas, res)
		if err != nil {
			log.WithFields(logrus.Fields{"reynolds": re, "error": err}).Warn("skipping Reynolds number")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		points = append(points, pts...)
		curves = append(curves, cps...)
	}
	if len(points) == 0 {
		if firstErr == nil {
			firstErr = ErrDataUnavailable
		}
		return fmt.Errorf("airfoil %s: no converged polar: %w", a.Name, firstErr)
	}

	if err := a.SetPolar(points); err != nil {
		return err
	}
	if len(curves) == 0 {
		log.Warn("no pressure distributions converged")
		return nil
	}
	return a.SetPressure(curves)
}

func (a *Airfoil) xfoilConfig(re float64, alphas []float64) solver.Config {
	ncrit := a.Ncrit
	if ncrit <= 0 {
		ncrit = DefaultNcrit
	}
	iter := a.IterLimit
	if iter <= 0 {
		iter = DefaultIterLimit
	}

	s := solver.NewScript()
	s.Run("load " + coordinatesFile)
	s.Run("pane")
	s.Run("oper")
	s.Run("vpar")
	s.Runf("n %g", ncrit)
	s.Run("")
	s.Runf("visc %g", re)
	s.Runf("iter %d", iter)
	s.Run("pacc")
	s.Run(polarFile)
	s.Run("")

	var cpFiles []string
	for i, alpha := range alphas {
		// The positive branch restarts from the converged zero-incidence state.
		if i > 0 && alpha > 0 && alphas[i-1] <= 0 {
			s.Run("init")
		}
		name := cpFileName(i)
		s.Runf("alfa %g", alpha)
		s.Run("cpwr " + name)
		cpFiles = append(cpFiles, name)
	}
	s.Run("pacc")
	s.Run("")
	s.Run("quit")

	return solver.Config{
		Name:     fmt.Sprintf("%s Re=%g", a.Name, re),
		Family:   solver.Xfoil,
		Script:   s,
		Inputs:   map[string][]byte{coordinatesFile: FormatCoordinates(a.Name, a.Coordinates)},
		Outputs:  append([]string{polarFile}, cpFiles...),
		Optional: cpFiles,
	}
}

// collect turns one solver result into table rows. Pressure dumps are kept
// only for angles that converged into the polar.
func (a *Airfoil) collect(re float64, alphas []float64, res solver.Result) ([]PolarPoint, []PressureCurve, error) {
	if res.Err != nil {
		return nil, nil, res.Err
	}
	polar, err := parse.ParseXfoilPolar(res.Output.Files[polarFile])
	if err != nil {
		return nil, nil, err
	}
	if len(polar.Rows) == 0 {
		return nil, nil, fmt.Errorf("Re=%g: %w: no converged points", re, ErrDataUnavailable)
	}

	points := make([]PolarPoint, len(polar.Rows))
	for i, r := range polar.Rows {
		points[i] = PolarPoint{
			Reynolds:  re,
			Alpha:     r.Alpha,
			Cl:        r.Cl,
			Cd:        r.Cd,
			Cdp:       r.Cdp,
			Cm:        r.Cm,
			XtrTop:    r.XtrTop,
			XtrBottom: r.XtrBottom,
		}
	}

	var curves []PressureCurve
	for i, alpha := range alphas {
		if !converged(polar.Rows, alpha) {
			continue
		}
		data, ok := res.Output.Files[cpFileName(i)]
		if !ok {
			continue
		}
		rows, err := parse.ParseXfoilCp(data)
		if err != nil {
			a.logger().WithFields(logrus.Fields{"airfoil": a.Name, "reynolds": re, "alpha": alpha, "error": err}).
				Warn("skipping pressure dump")
			continue
		}
		c := PressureCurve{Reynolds: re, Alpha: alpha, Points: make([]CpPoint, len(rows))}
		for k, r := range rows {
			c.Points[k] = CpPoint{X: r.X, Cp: r.Cp}
		}
		curves = append(curves, c)
	}
	return points, curves, nil
}

// converged reports whether the polar holds alpha. Polar files print angles
// with three decimals.
func converged(rows []parse.PolarRow, alpha float64) bool {
	for _, r := range rows {
		if math.Abs(r.Alpha-alpha) < 5e-4 {
			return true
		}
	}
	return false
}

func cpFileName(i int) string {
	return fmt.Sprintf("cp_%04d.txt", i)
}

func (a *Airfoil) logger() logrus.FieldLogger {
	if a.Logger == nil {
		return logrus.StandardLogger()
	}
	return a.Logger
}
