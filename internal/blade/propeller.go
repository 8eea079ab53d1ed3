package blade

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/alexiusacademia/gorotor/internal/airfoil"
	"github.com/alexiusacademia/gorotor/internal/envelope"
	"github.com/alexiusacademia/gorotor/internal/loadcase"
	"github.com/alexiusacademia/gorotor/internal/parse"
	"github.com/alexiusacademia/gorotor/internal/solver"
)

// Propeller is the rotor under analysis: its geometry, the airfoils its
// sections reference, and the load cases to resolve.
//
// A Propeller is not safe for concurrent mutation. CalcLoads runs load cases
// concurrently but only reads the propeller while doing so.
type Propeller struct {
	Name      string
	Blades    int
	TipRadius float64 // m
	HubRadius float64 // m

	// Runner runs the rotor solver for every load case.
	Runner solver.Runner
	// Format is the rotor solver's output contract.
	Format parse.Format
	// Workers bounds the number of concurrent solver runs; 0 means one per CPU.
	Workers int
	// Tolerance is the envelope tie tolerance.
	Tolerance float64

	Logger logrus.FieldLogger

	airfoils map[string]*airfoil.Airfoil
	sections []Section
	cases    []*loadcase.LoadCase

	revision uint64
	envelope *envelope.Envelope
}

// NewPropeller creates a propeller without sections or load cases.
func NewPropeller(name string, blades int, tipRadius, hubRadius float64) *Propeller {
	return &Propeller{
		Name:      name,
		Blades:    blades,
		TipRadius: tipRadius,
		HubRadius: hubRadius,
		Format:    parse.Default(),
		Tolerance: envelope.DefaultTolerance,
		airfoils:  make(map[string]*airfoil.Airfoil),
	}
}

// Validate checks the rotor geometry.
func (p *Propeller) Validate() error {
	if p.Blades < 1 {
		return &ValidationError{fmt.Sprintf("propeller %s: number of blades must be at least 1", p.Name)}
	}
	if p.TipRadius <= 0 {
		return &ValidationError{fmt.Sprintf("propeller %s: tip radius must be positive", p.Name)}
	}
	if p.HubRadius < 0 || p.HubRadius >= p.TipRadius {
		return &ValidationError{fmt.Sprintf("propeller %s: hub radius must be in [0, tip radius)", p.Name)}
	}
	return nil
}

// Revision identifies the current definition. It changes on every mutation
// through the propeller's methods, when a referenced airfoil replaces a table,
// and when any exported input is edited in place: rotor geometry, the output
// format, a load case reached through LoadCase, or an airfoil's analysis
// settings. Tolerance is not part of it; the envelope records its own.
func (p *Propeller) Revision() uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%d|%g|%g|%+v|", p.revision, p.Blades, p.TipRadius, p.HubRadius, p.Format)
	for _, c := range p.cases {
		fmt.Fprintf(h, "case %q %g %g %g %+v|", c.Name, c.Speed, c.RPM, c.Pitch, c.Atmosphere)
		if c.Prescription != nil {
			fmt.Fprintf(h, "%+v|", *c.Prescription)
		}
	}
	for _, af := range p.Airfoils() {
		fmt.Fprintf(h, "airfoil %q %d %g %g %d %v %v|",
			af.Name, af.Revision(), af.DesignReynolds, af.Ncrit, af.IterLimit, af.Stations, af.Coordinates)
	}
	return h.Sum64()
}

func (p *Propeller) touch() {
	p.revision++
}

// AddAirfoil registers a in the propeller's airfoil library.
func (p *Propeller) AddAirfoil(a *airfoil.Airfoil) error {
	if a == nil || a.Name == "" {
		return &ValidationError{"airfoil must have a name"}
	}
	if _, ok := p.airfoils[a.Name]; ok {
		return &ValidationError{fmt.Sprintf("airfoil %s already defined", a.Name)}
	}
	p.airfoils[a.Name] = a
	p.touch()
	return nil
}

// Airfoil returns the airfoil registered under name.
func (p *Propeller) Airfoil(name string) (*airfoil.Airfoil, bool) {
	a, ok := p.airfoils[name]
	return a, ok
}

// Airfoils returns the registered airfoils sorted by name.
func (p *Propeller) Airfoils() []*airfoil.Airfoil {
	out := make([]*airfoil.Airfoil, 0, len(p.airfoils))
	for _, a := range p.airfoils {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AddSection appends a section outboard of the existing ones.
func (p *Propeller) AddSection(s Section) error {
	if err := p.checkSection(s); err != nil {
		return err
	}
	if n := len(p.sections); n > 0 && s.Radius <= p.sections[n-1].Radius {
		return &ValidationError{fmt.Sprintf("section radius %g must be greater than %g", s.Radius, p.sections[n-1].Radius)}
	}
	p.sections = append(p.sections, s)
	p.touch()
	return nil
}

// SetSections replaces all sections. Radii must be strictly increasing.
func (p *Propeller) SetSections(sections []Section) error {
	for i, s := range sections {
		if err := p.checkSection(s); err != nil {
			return err
		}
		if i > 0 && s.Radius <= sections[i-1].Radius {
			return &ValidationError{fmt.Sprintf("section radii must increase: %g after %g", s.Radius, sections[i-1].Radius)}
		}
	}
	p.sections = append([]Section(nil), sections...)
	p.touch()
	return nil
}

func (p *Propeller) checkSection(s Section) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Radius < p.HubRadius || s.Radius > p.TipRadius {
		return &ValidationError{fmt.Sprintf("section radius %g outside hub %g and tip %g", s.Radius, p.HubRadius, p.TipRadius)}
	}
	return nil
}

// Sections returns a copy of the sections, hub to tip.
func (p *Propeller) Sections() []Section {
	return append([]Section(nil), p.sections...)
}

// Radii returns the section radii, hub to tip.
func (p *Propeller) Radii() []float64 {
	out := make([]float64, len(p.sections))
	for i, s := range p.sections {
		out[i] = s.Radius
	}
	return out
}

// AddLoadCase appends c. Names must be unique.
func (p *Propeller) AddLoadCase(c *loadcase.LoadCase) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, ok := p.LoadCase(c.Name); ok {
		return &ValidationError{fmt.Sprintf("load case %s already defined", c.Name)}
	}
	p.cases = append(p.cases, c)
	p.touch()
	return nil
}

// UpdateLoadCase applies fn to the named case and revalidates it. Changing a
// case through this method invalidates the envelope.
func (p *Propeller) UpdateLoadCase(name string, fn func(*loadcase.LoadCase)) error {
	c, ok := p.LoadCase(name)
	if !ok {
		return fmt.Errorf("load case %s not found", name)
	}
	fn(c)
	c.Reset()
	p.touch()
	return c.Validate()
}

// RemoveLoadCase drops the named case.
func (p *Propeller) RemoveLoadCase(name string) error {
	for i, c := range p.cases {
		if c.Name == name {
			p.cases = append(p.cases[:i], p.cases[i+1:]...)
			p.touch()
			return nil
		}
	}
	return fmt.Errorf("load case %s not found", name)
}

// LoadCase returns the named case.
func (p *Propeller) LoadCase(name string) (*loadcase.LoadCase, bool) {
	for _, c := range p.cases {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// LoadCases returns the load cases in insertion order.
func (p *Propeller) LoadCases() []*loadcase.LoadCase {
	return append([]*loadcase.LoadCase(nil), p.cases...)
}

func (p *Propeller) logger() logrus.FieldLogger {
	if p.Logger != nil {
		return p.Logger
	}
	return logrus.StandardLogger()
}
