package blade

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/interp"

	"github.com/alexiusacademia/gorotor/internal/airfoil"
	"github.com/alexiusacademia/gorotor/internal/envelope"
	"github.com/alexiusacademia/gorotor/internal/loadcase"
	"github.com/alexiusacademia/gorotor/internal/metrics"
	"github.com/alexiusacademia/gorotor/internal/parse"
	"github.com/alexiusacademia/gorotor/internal/solver"
)

// CaseFailure records a load case that produced no result.
type CaseFailure struct {
	Case string
	Kind string // solver failure kind, "parse", or "error"
	Err  error
}

// SectionFailure records a section that could not be fully resolved in an
// otherwise successful load case.
type SectionFailure struct {
	Case    string
	Section int
	Radius  float64 // m
	Err     error
}

// Report summarizes a CalcLoads pass.
type Report struct {
	Revision        uint64
	Resolved        []string
	Failures        []CaseFailure
	SectionFailures []SectionFailure
	Envelope        *envelope.Envelope
	Elapsed         time.Duration
}

// Complete reports whether every case and section resolved.
func (r *Report) Complete() bool {
	return len(r.Failures) == 0 && len(r.SectionFailures) == 0
}

// CalcLoads runs the rotor solver for every load case, resolves every
// section, and computes the load envelope from the cases that succeeded.
//
// Solver and parse failures fail their load case only, and so does solver
// output carrying one of the format's NonConvergence markers. Lookup failures
// fail their section only. Both are listed in the report. An error is returned
// for an invalid propeller, or together with the partial report when ctx is
// done before all cases ran.
func (p *Propeller) CalcLoads(ctx context.Context) (*Report, error) {
	if err := p.checkRunnable(); err != nil {
		return nil, err
	}
	start := time.Now()
	rev := p.Revision()
	aero, unavailable := p.aeroInputs()

	index := make(map[string]int, len(p.cases))
	cfgs := make([]solver.Config, len(p.cases))
	for i, c := range p.cases {
		c.Reset()
		index[c.Name] = i
		cfgs[i] = p.xrotorConfig(c, aero)
	}

	// Each case is resolved by the worker that ran it; results[i] is written
	// by that worker only and read after RunArray returns.
	results := make([]*loadcase.Result, len(p.cases))
	run := solver.RunnerFunc(func(ctx context.Context, cfg solver.Config) (*solver.Output, error) {
		out, err := p.Runner.Run(ctx, cfg)
		if err != nil {
			return out, err
		}
		if err := solver.CheckConvergence(cfg, out.Stdout, p.Format.NonConvergence); err != nil {
			return out, err
		}
		i := index[cfg.Name]
		r, err := p.resolve(p.cases[i], out, unavailable)
		if err != nil {
			return out, err
		}
		r.Revision = rev
		results[i] = r
		return out, nil
	})
	runs := solver.RunArray(ctx, run, cfgs, p.Workers)

	report := &Report{Revision: rev}
	for i, c := range p.cases {
		if err := runs[i].Err; err != nil {
			c.Fail(err)
			kind := failureKind(err)
			report.Failures = append(report.Failures, CaseFailure{Case: c.Name, Kind: kind, Err: err})
			metrics.ObserveLoadCase(loadcase.Failed.String())
			p.logger().WithFields(logrus.Fields{
				"case":  c.Name,
				"kind":  kind,
				"error": err,
			}).Warn("load case failed")
			continue
		}
		c.Resolve(results[i])
		report.Resolved = append(report.Resolved, c.Name)
		metrics.ObserveLoadCase(loadcase.Resolved.String())
		for _, sr := range results[i].Failures() {
			report.SectionFailures = append(report.SectionFailures, SectionFailure{
				Case: c.Name, Section: sr.Section, Radius: sr.Radius, Err: sr.Err,
			})
			p.logger().WithFields(logrus.Fields{
				"case":    c.Name,
				"section": sr.Section,
				"error":   sr.Err,
			}).Warn("section not resolved")
		}
	}

	p.envelope = p.computeEnvelope(rev)
	report.Envelope = p.envelope
	report.Elapsed = time.Since(start)

	p.logger().WithFields(logrus.Fields{
		"resolved": len(report.Resolved),
		"failed":   len(report.Failures),
		"ties":     p.envelope.Ties(),
		"elapsed":  report.Elapsed,
	}).Info("loads calculated")

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (p *Propeller) checkRunnable() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if len(p.sections) == 0 {
		return &ValidationError{fmt.Sprintf("propeller %s has no sections", p.Name)}
	}
	if len(p.cases) == 0 {
		return &ValidationError{fmt.Sprintf("propeller %s has no load cases", p.Name)}
	}
	if p.Runner == nil {
		return errors.New("no rotor solver configured")
	}
	return p.Format.Validate()
}

func failureKind(err error) string {
	var rf *solver.RunFailure
	if errors.As(err, &rf) {
		return rf.Kind.String()
	}
	if errors.Is(err, parse.ErrParse) {
		return "parse"
	}
	return "error"
}

// resolve parses the solver output of one case and resolves every section.
func (p *Propeller) resolve(c *loadcase.LoadCase, out *solver.Output, unavailable map[int]error) (*loadcase.Result, error) {
	oper, err := parse.ParseOper(out.Files[operFile], p.Format.Oper)
	if err != nil {
		return nil, err
	}
	bend, err := parse.ParseBend(out.Files[bendFile], p.Format.Bend)
	if err != nil {
		return nil, err
	}
	if len(oper.Stations) == 0 || len(bend.Stations) == 0 {
		return nil, &parse.Error{Kind: parse.Truncated, Output: "oper", Msg: "no stations"}
	}

	ops := newSpan(len(oper.Stations))
	hasAlpha := true
	for _, st := range oper.Stations {
		ops.add(st.RadiusRatio, st.Cl, st.Cd, st.Reynolds, st.Mach, st.Alpha)
		hasAlpha = hasAlpha && st.HasAlpha
	}
	bs := newSpan(len(bend.Stations))
	for _, st := range bend.Stations {
		bs.add(st.RadiusRatio, st.Flapwise, st.Edgewise, st.Thrust, st.Torque)
	}
	if err := ops.fit(); err != nil {
		return nil, &parse.Error{Kind: parse.UnexpectedFormat, Output: "oper", Msg: err.Error()}
	}
	if err := bs.fit(); err != nil {
		return nil, &parse.Error{Kind: parse.UnexpectedFormat, Output: "bend", Msg: err.Error()}
	}

	r := &loadcase.Result{Values: oper.Values, Sections: make([]loadcase.SectionResult, len(p.sections))}
	for i, s := range p.sections {
		x := s.Radius / p.TipRadius
		sr := &r.Sections[i]
		sr.Section = i
		sr.Radius = s.Radius

		ov, outside := ops.at(x)
		sr.Cl, sr.Cd, sr.Reynolds, sr.Mach = ov[0], ov[1], ov[2], ov[3]
		sr.Stalled = oper.Stations[ops.nearest(x)].Stalled
		bv, _ := bs.at(x)
		sr.Flapwise, sr.Edgewise, sr.Thrust, sr.Torque = bv[0], bv[1], bv[2], bv[3]
		sr.Extrapolated = outside

		if err := unavailable[i]; err != nil {
			sr.Err = err
			continue
		}
		sr.Err = p.resolveSection(c, s, sr, hasAlpha, ov[4])
	}
	return r, nil
}

// resolveSection fills the polar and pressure data of one section.
func (p *Propeller) resolveSection(c *loadcase.LoadCase, s Section, sr *loadcase.SectionResult, hasAlpha bool, alpha float64) error {
	src, err := p.source(s)
	if err != nil {
		return err
	}
	if !hasAlpha {
		var extrapolated bool
		alpha, extrapolated, err = src.alphaForCl(sr.Reynolds, sr.Cl)
		if errors.Is(err, airfoil.ErrLiftOutOfRange) {
			p.logger().WithFields(logrus.Fields{
				"case":    c.Name,
				"section": sr.Section,
				"cl":      sr.Cl,
				"alpha":   alpha,
			}).Warn("lift beyond the pre-stall polar, using the stall angle")
			extrapolated, err = true, nil
		}
		if err != nil {
			return err
		}
		sr.Extrapolated = sr.Extrapolated || extrapolated
	}
	sr.Alpha = alpha

	coef, err := src.coefficients(sr.Reynolds, alpha)
	if err != nil {
		return err
	}
	sr.Cm = coef.Cm
	sr.Extrapolated = sr.Extrapolated || coef.Extrapolated

	dist, err := src.distribution(sr.Reynolds, alpha)
	if err != nil {
		return err
	}
	sr.Pressure = dist
	sr.Extrapolated = sr.Extrapolated || dist.Extrapolated
	return nil
}

// span holds solver quantities tabulated over r/R.
type span struct {
	x    []float64
	cols [][]float64
	fits []interp.PiecewiseLinear
}

func newSpan(n int) *span {
	return &span{x: make([]float64, 0, n)}
}

func (s *span) add(x float64, vals ...float64) {
	if s.cols == nil {
		s.cols = make([][]float64, len(vals))
	}
	s.x = append(s.x, x)
	for i, v := range vals {
		s.cols[i] = append(s.cols[i], v)
	}
}

func (s *span) fit() error {
	if len(s.x) < 2 {
		return nil
	}
	s.fits = make([]interp.PiecewiseLinear, len(s.cols))
	for i, c := range s.cols {
		if err := s.fits[i].Fit(s.x, c); err != nil {
			return err
		}
	}
	return nil
}

// at interpolates every column linearly at x. Outside the stations the end
// values are held and outside is set.
func (s *span) at(x float64) (vals []float64, outside bool) {
	vals = make([]float64, len(s.cols))
	outside = x < s.x[0] || x > s.x[len(s.x)-1]
	for i, c := range s.cols {
		if s.fits == nil {
			vals[i] = c[0]
			continue
		}
		vals[i] = s.fits[i].Predict(x)
	}
	return vals, outside
}

// nearest returns the index of the station closest to x.
func (s *span) nearest(x float64) int {
	best := 0
	for i, xi := range s.x {
		if math.Abs(xi-x) < math.Abs(s.x[best]-x) {
			best = i
		}
	}
	return best
}

// computeEnvelope reduces the currently resolved cases.
func (p *Propeller) computeEnvelope(rev uint64) *envelope.Envelope {
	var cases []envelope.Case
	for i, c := range p.cases {
		if r := c.Result(); r != nil {
			cases = append(cases, envelope.Case{Index: i, Name: c.Name, Result: r})
		}
	}
	env := envelope.Compute(p.Radii(), cases, p.Tolerance)
	env.Revision = rev
	return env
}
