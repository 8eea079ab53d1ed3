package blade

import (
	"errors"
	"fmt"

	"github.com/alexiusacademia/gorotor/internal/airfoil"
	"github.com/alexiusacademia/gorotor/internal/envelope"
)

var (
	// ErrStaleEnvelope is returned when the envelope is queried after the
	// propeller changed, or before it was computed.
	ErrStaleEnvelope = errors.New("load envelope is stale")
	// ErrStaleResult is returned when a load case result predates the
	// current propeller definition.
	ErrStaleResult = errors.New("load case result is stale")
)

// LoadEnvelope returns the envelope of the last CalcLoads or SetLoadEnvelope
// call. It fails with ErrStaleEnvelope if anything changed since, including
// Tolerance.
func (p *Propeller) LoadEnvelope() (*envelope.Envelope, error) {
	if p.envelope == nil {
		return nil, fmt.Errorf("%w: not computed", ErrStaleEnvelope)
	}
	if rev := p.Revision(); p.envelope.Revision != rev {
		return nil, fmt.Errorf("%w: computed at revision %x, propeller at %x", ErrStaleEnvelope, p.envelope.Revision, rev)
	}
	if tol := envelope.EffectiveTolerance(p.Tolerance); p.envelope.Tolerance != tol {
		return nil, fmt.Errorf("%w: computed with tolerance %g, propeller uses %g", ErrStaleEnvelope, p.envelope.Tolerance, tol)
	}
	return p.envelope, nil
}

// SetLoadEnvelope recomputes the envelope from the resolved load cases
// without running the solver, for instance after changing Tolerance. Every
// resolved case must be current.
func (p *Propeller) SetLoadEnvelope() (*envelope.Envelope, error) {
	rev := p.Revision()
	for _, c := range p.cases {
		if r := c.Result(); r != nil && r.Revision != rev {
			return nil, fmt.Errorf("load case %s: %w", c.Name, ErrStaleResult)
		}
	}
	p.envelope = p.computeEnvelope(rev)
	return p.envelope, nil
}

// Source selects where a pressure distribution comes from: a FromCase or a
// FromEnvelope.
type Source interface {
	String() string
	isSource()
}

// FromCase selects a load case by name.
type FromCase struct {
	Name string
}

func (s FromCase) String() string { return "case " + s.Name }
func (FromCase) isSource()        {}

// FromEnvelope selects the case governing one channel bound of the envelope.
type FromEnvelope struct {
	Channel envelope.Channel
	Bound   envelope.Bound
}

func (s FromEnvelope) String() string { return fmt.Sprintf("envelope %s %s", s.Channel, s.Bound) }
func (FromEnvelope) isSource()        {}

// Distribution returns the complete chordwise distribution of section under
// src together with the name of the load case it belongs to.
func (p *Propeller) Distribution(section int, src Source) (*airfoil.Distribution, string, error) {
	if section < 0 || section >= len(p.sections) {
		return nil, "", fmt.Errorf("section %d out of range [0, %d)", section, len(p.sections))
	}
	switch s := src.(type) {
	case FromCase:
		c, ok := p.LoadCase(s.Name)
		if !ok {
			return nil, "", fmt.Errorf("load case %s not found", s.Name)
		}
		r := c.Result()
		if r == nil {
			return nil, "", fmt.Errorf("load case %s is %s: %w", c.Name, c.Status(), airfoil.ErrDataUnavailable)
		}
		if r.Revision != p.Revision() {
			return nil, "", fmt.Errorf("load case %s: %w", c.Name, ErrStaleResult)
		}
		sr := r.Sections[section]
		if sr.Pressure == nil {
			err := sr.Err
			if err == nil {
				err = airfoil.ErrDataUnavailable
			}
			return nil, "", fmt.Errorf("load case %s section %d: %w", c.Name, section, err)
		}
		return sr.Pressure, c.Name, nil
	case FromEnvelope:
		env, err := p.LoadEnvelope()
		if err != nil {
			return nil, "", err
		}
		x, err := env.Extreme(section, s.Channel, s.Bound)
		if err != nil {
			return nil, "", err
		}
		if x.Pressure == nil {
			return nil, "", fmt.Errorf("section %d %s: case %s has no distribution: %w", section, s, x.Case, airfoil.ErrDataUnavailable)
		}
		return x.Pressure, x.Case, nil
	}
	return nil, "", fmt.Errorf("unknown pressure source %v", src)
}

// PressureDistribution returns the ordered chordwise (x, Cp) sequence of
// section under src in surface order: suction side from trailing to leading
// edge, then the pressure side back to the trailing edge.
func (p *Propeller) PressureDistribution(section int, src Source) ([]airfoil.CpPoint, error) {
	d, _, err := p.Distribution(section, src)
	if err != nil {
		return nil, err
	}
	return d.Points(), nil
}
