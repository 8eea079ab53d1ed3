package loadcase

import (
	"github.com/alexiusacademia/gorotor/internal/airfoil"
)

// SectionResult is the resolved aerodynamic state and loads of one blade
// section under one load case.
type SectionResult struct {
	Section int     // index into the propeller's sections
	Radius  float64 // m

	Alpha    float64 // local angle of attack, deg
	Reynolds float64
	Mach     float64
	Cl       float64 // from the rotor solver
	Cd       float64
	Cm       float64 // from the section polar
	Stalled  bool

	Thrust   float64
	Torque   float64
	Flapwise float64
	Edgewise float64

	Pressure *airfoil.Distribution

	// Extrapolated is set when a polar or pressure lookup left the sampled grid.
	Extrapolated bool

	// Err is set when the section could not be resolved; the loads above are
	// still valid when they came from the rotor solver.
	Err error
}

// OK reports whether the section resolved completely.
func (s *SectionResult) OK() bool {
	return s.Err == nil
}

// Result is the resolved data of a load case.
type Result struct {
	// Values holds the operating-point summary reported by the rotor solver.
	Values   map[string]float64
	Sections []SectionResult

	// Revision is the propeller revision the result was computed at.
	Revision uint64
}

// Failures returns the sections that could not be resolved.
func (r *Result) Failures() []SectionResult {
	var out []SectionResult
	for _, s := range r.Sections {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}
