package blade

import (
	"fmt"

	"github.com/alexiusacademia/gorotor/internal/airfoil"
)

// Profile is the aerodynamic profile of a section: either a Single airfoil or
// a Blend of two neighbouring ones.
type Profile interface {
	// Airfoils lists the referenced airfoil names.
	Airfoils() []string
	String() string
	isProfile()
}

// Single references one modeled airfoil.
type Single struct {
	Airfoil string
}

func (s Single) Airfoils() []string { return []string{s.Airfoil} }
func (s Single) String() string     { return s.Airfoil }
func (Single) isProfile()           {}

// Blend is a section between two modeled airfoils. Its quantities are
// (1-Fraction) times those of A plus Fraction times those of B, both taken at
// the same Reynolds number and angle of attack.
type Blend struct {
	A        string
	B        string
	Fraction float64 // 0 = A, 1 = B
}

func (b Blend) Airfoils() []string { return []string{b.A, b.B} }
func (b Blend) String() string     { return fmt.Sprintf("%s/%s@%.2f", b.A, b.B, b.Fraction) }
func (Blend) isProfile()           {}

// Section is one spanwise blade station.
type Section struct {
	Radius  float64 // m
	Chord   float64 // m
	Twist   float64 // deg
	Profile Profile
}

// Validate checks the section definition.
func (s Section) Validate() error {
	if s.Radius <= 0 {
		return &ValidationError{fmt.Sprintf("section radius must be positive, got %g", s.Radius)}
	}
	if s.Chord <= 0 {
		return &ValidationError{fmt.Sprintf("section at r=%g: chord must be positive", s.Radius)}
	}
	switch p := s.Profile.(type) {
	case Single:
		if p.Airfoil == "" {
			return &ValidationError{fmt.Sprintf("section at r=%g: no airfoil", s.Radius)}
		}
	case Blend:
		if p.A == "" || p.B == "" {
			return &ValidationError{fmt.Sprintf("section at r=%g: blend needs two airfoils", s.Radius)}
		}
		if p.Fraction < 0 || p.Fraction > 1 {
			return &ValidationError{fmt.Sprintf("section at r=%g: blend fraction %g outside [0, 1]", s.Radius, p.Fraction)}
		}
	default:
		return &ValidationError{fmt.Sprintf("section at r=%g: no profile", s.Radius)}
	}
	return nil
}

// profileSource resolves a section profile into airfoil queries. For a
// blend every query is answered by both airfoils at the same conditions.
type profileSource struct {
	a, b *airfoil.Airfoil // b is nil for a single airfoil
	f    float64
}

func (p *Propeller) source(s Section) (*profileSource, error) {
	lookup := func(name string) (*airfoil.Airfoil, error) {
		af, ok := p.airfoils[name]
		if !ok {
			return nil, fmt.Errorf("airfoil %q: %w", name, airfoil.ErrDataUnavailable)
		}
		return af, nil
	}
	switch pr := s.Profile.(type) {
	case Single:
		a, err := lookup(pr.Airfoil)
		if err != nil {
			return nil, err
		}
		return &profileSource{a: a}, nil
	case Blend:
		a, err := lookup(pr.A)
		if err != nil {
			return nil, err
		}
		b, err := lookup(pr.B)
		if err != nil {
			return nil, err
		}
		return &profileSource{a: a, b: b, f: pr.Fraction}, nil
	}
	return nil, &ValidationError{"section has no profile"}
}

func (ps *profileSource) characteristics() (airfoil.RotorCharacteristics, error) {
	ca, err := ps.a.RotorCharacteristics(0)
	if err != nil || ps.b == nil {
		return ca, err
	}
	cb, err := ps.b.RotorCharacteristics(0)
	if err != nil {
		return ca, err
	}
	return airfoil.BlendCharacteristics(ca, cb, ps.f), nil
}

func (ps *profileSource) coefficients(re, alpha float64) (airfoil.Coefficients, error) {
	ca, err := ps.a.Coefficients(re, alpha)
	if err != nil || ps.b == nil {
		return ca, err
	}
	cb, err := ps.b.Coefficients(re, alpha)
	if err != nil {
		return ca, err
	}
	mix := func(x, y float64) float64 { return (1-ps.f)*x + ps.f*y }
	return airfoil.Coefficients{
		Reynolds:     re,
		Alpha:        alpha,
		Cl:           mix(ca.Cl, cb.Cl),
		Cd:           mix(ca.Cd, cb.Cd),
		Cdp:          mix(ca.Cdp, cb.Cdp),
		Cm:           mix(ca.Cm, cb.Cm),
		XtrTop:       mix(ca.XtrTop, cb.XtrTop),
		XtrBottom:    mix(ca.XtrBottom, cb.XtrBottom),
		Extrapolated: ca.Extrapolated || cb.Extrapolated,
	}, nil
}

func (ps *profileSource) distribution(re, alpha float64) (*airfoil.Distribution, error) {
	da, err := ps.a.CpVsX(re, alpha)
	if err != nil || ps.b == nil {
		return da, err
	}
	db, err := ps.b.CpVsX(re, alpha)
	if err != nil {
		return nil, err
	}
	return airfoil.BlendDistributions(da, db, ps.f)
}

// alphaForCl inverts the (blended) lift curve at re.
func (ps *profileSource) alphaForCl(re, cl float64) (float64, bool, error) {
	if ps.b == nil {
		return ps.a.AlphaForCl(re, cl)
	}
	ga, err := ps.a.AlphaGrid(re)
	if err != nil {
		return 0, false, err
	}
	gb, err := ps.b.AlphaGrid(re)
	if err != nil {
		return 0, false, err
	}
	alphas := mergeSorted(ga, gb)
	cls := make([]float64, len(alphas))
	for i, alpha := range alphas {
		c, err := ps.coefficients(re, alpha)
		if err != nil {
			return 0, false, err
		}
		cls[i] = c.Cl
	}
	return airfoil.InvertLift(alphas, cls, cl)
}

// mergeSorted merges two ascending slices, dropping repeats.
func mergeSorted(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var v float64
		switch {
		case j >= len(b) || (i < len(a) && a[i] < b[j]):
			v = a[i]
			i++
		case i >= len(a) || b[j] < a[i]:
			v = b[j]
			j++
		default:
			v = a[i]
			i++
			j++
		}
		if n := len(out); n == 0 || out[n-1] != v {
			out = append(out, v)
		}
	}
	return out
}

// ValidationError represents an invalid blade or project definition.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}
