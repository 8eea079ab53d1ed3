package blade

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alexiusacademia/gorotor/internal/airfoil"
	"github.com/alexiusacademia/gorotor/internal/loadcase"
)

// ProjectFile is the JSON layout of a rotor project.
type ProjectFile struct {
	Name      string               `json:"name"`
	Blades    int                  `json:"blades"`
	TipRadius float64              `json:"tip_radius"` // m
	HubRadius float64              `json:"hub_radius"` // m
	Airfoils  []AirfoilSpec        `json:"airfoils"`
	Sections  []SectionSpec        `json:"sections"`
	LoadCases []*loadcase.LoadCase `json:"load_cases"`
}

// AirfoilSpec names a coordinate file and the sweep its polar is built from.
type AirfoilSpec struct {
	Name           string    `json:"name"`
	Coordinates    string    `json:"coordinates"` // relative to the project file
	DesignReynolds float64   `json:"design_reynolds"`
	Ncrit          float64   `json:"ncrit,omitempty"`
	IterLimit      int       `json:"iter_limit,omitempty"`
	Reynolds       []float64 `json:"reynolds"`
	AlphaStart     *float64  `json:"alpha_start,omitempty"` // deg
	AlphaStop      *float64  `json:"alpha_stop,omitempty"`  // deg
	AlphaInc       *float64  `json:"alpha_inc,omitempty"`   // deg
}

// SectionSpec is one section; exactly one of Airfoil and Blend is set.
type SectionSpec struct {
	Radius  float64    `json:"radius"` // m
	Chord   float64    `json:"chord"`  // m
	Twist   float64    `json:"twist"`  // deg
	Airfoil string     `json:"airfoil,omitempty"`
	Blend   *BlendSpec `json:"blend,omitempty"`
}

// BlendSpec is the JSON form of a Blend profile.
type BlendSpec struct {
	A        string  `json:"a"`
	B        string  `json:"b"`
	Fraction float64 `json:"fraction"`
}

// Project is a loaded rotor project: the propeller, with airfoils that still
// need their tables, and the sweep that builds each airfoil's tables.
type Project struct {
	Propeller *Propeller
	Analyses  map[string]airfoil.AnalysisRequest
}

// LoadFromFile loads a project definition from a JSON file
func LoadFromFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pf ProjectFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return pf.Build(filepath.Dir(path))
}

// Build validates the project and creates its propeller. Coordinate files are
// resolved relative to dir.
func (pf *ProjectFile) Build(dir string) (*Project, error) {
	prop := NewPropeller(pf.Name, pf.Blades, pf.TipRadius, pf.HubRadius)
	if err := prop.Validate(); err != nil {
		return nil, err
	}

	proj := &Project{Propeller: prop, Analyses: make(map[string]airfoil.AnalysisRequest)}
	for _, spec := range pf.Airfoils {
		af, req, err := spec.build(dir)
		if err != nil {
			return nil, err
		}
		if err := prop.AddAirfoil(af); err != nil {
			return nil, err
		}
		proj.Analyses[af.Name] = req
	}

	sections := make([]Section, len(pf.Sections))
	for i, spec := range pf.Sections {
		s, err := spec.section()
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		for _, name := range s.Profile.Airfoils() {
			if _, ok := prop.Airfoil(name); !ok {
				return nil, &ValidationError{fmt.Sprintf("section %d references unknown airfoil %q", i, name)}
			}
		}
		sections[i] = s
	}
	if err := prop.SetSections(sections); err != nil {
		return nil, err
	}

	for _, c := range pf.LoadCases {
		if c == nil {
			continue
		}
		if err := prop.AddLoadCase(c); err != nil {
			return nil, err
		}
	}
	return proj, nil
}

func (spec AirfoilSpec) build(dir string) (*airfoil.Airfoil, airfoil.AnalysisRequest, error) {
	var req airfoil.AnalysisRequest
	if spec.Coordinates == "" {
		return nil, req, &ValidationError{fmt.Sprintf("airfoil %q: no coordinate file", spec.Name)}
	}
	path := spec.Coordinates
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	name, coords, err := airfoil.LoadCoordinates(path)
	if err != nil {
		return nil, req, err
	}
	if spec.Name != "" {
		name = spec.Name
	}
	if spec.DesignReynolds <= 0 {
		return nil, req, &ValidationError{fmt.Sprintf("airfoil %s: design Reynolds number must be positive", name)}
	}

	af := airfoil.New(name, coords, spec.DesignReynolds)
	if spec.Ncrit > 0 {
		af.Ncrit = spec.Ncrit
	}
	if spec.IterLimit > 0 {
		af.IterLimit = spec.IterLimit
	}

	reynolds := spec.Reynolds
	if len(reynolds) == 0 {
		reynolds = []float64{spec.DesignReynolds}
	}
	req = airfoil.DefaultAnalysisRequest(reynolds...)
	if spec.AlphaStart != nil {
		req.AlphaStart = *spec.AlphaStart
	}
	if spec.AlphaStop != nil {
		req.AlphaStop = *spec.AlphaStop
	}
	if spec.AlphaInc != nil {
		req.AlphaInc = *spec.AlphaInc
	}
	if err := req.Validate(); err != nil {
		return nil, req, &ValidationError{fmt.Sprintf("airfoil %s: %v", name, err)}
	}
	return af, req, nil
}

func (spec SectionSpec) section() (Section, error) {
	s := Section{Radius: spec.Radius, Chord: spec.Chord, Twist: spec.Twist}
	switch {
	case spec.Airfoil != "" && spec.Blend != nil:
		return s, &ValidationError{"section sets both airfoil and blend"}
	case spec.Blend != nil:
		s.Profile = Blend{A: spec.Blend.A, B: spec.Blend.B, Fraction: spec.Blend.Fraction}
	default:
		s.Profile = Single{Airfoil: spec.Airfoil}
	}
	return s, nil
}
