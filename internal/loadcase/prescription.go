package loadcase

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode selects which operating quantity is prescribed to the rotor solver.
type Mode string

const (
	Advance Mode = "adva" // advance ratio
	RPM     Mode = "rpm"  // rotational speed, 1/min
	Thrust  Mode = "thru" // N
	Torque  Mode = "torq" // N-m
	Power   Mode = "powe" // W
)

// Fix selects what the solver holds constant while matching a prescribed
// thrust, torque or power.
type Fix string

const (
	FixedPitch Fix = "p"
	FixedRPM   Fix = "r"
)

// Prescription is the operating point handed to the rotor solver.
type Prescription struct {
	Mode  Mode    `json:"mode"`
	Value float64 `json:"value"`
	Fix   Fix     `json:"fix,omitempty"` // thrust, torque and power only
	RPM   float64 `json:"rpm,omitempty"` // required with FixedRPM
}

// ParseMode maps a solver keyword (case-insensitive) to a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case Advance, RPM, Thrust, Torque, Power:
		return m, nil
	}
	return "", fmt.Errorf("unknown prescription %q (want adva, rpm, thru, torq or powe)", s)
}

func (m Mode) needsFix() bool {
	return m == Thrust || m == Torque || m == Power
}

// Validate checks that the prescription is complete.
func (p Prescription) Validate() error {
	if _, err := ParseMode(string(p.Mode)); err != nil {
		return &ValidationError{err.Error()}
	}
	switch p.Mode {
	case Advance:
		if p.Value <= 0 {
			return &ValidationError{fmt.Sprintf("advance ratio must be positive, got %g", p.Value)}
		}
	case RPM:
		if p.Value <= 0 {
			return &ValidationError{fmt.Sprintf("rpm must be positive, got %g", p.Value)}
		}
	}
	if !p.Mode.needsFix() {
		if p.Fix != "" {
			return &ValidationError{fmt.Sprintf("prescription %s takes no fix", p.Mode)}
		}
		return nil
	}
	switch Fix(strings.ToLower(string(p.Fix))) {
	case FixedPitch:
	case FixedRPM:
		if p.RPM <= 0 {
			return &ValidationError{fmt.Sprintf("prescription %s with fixed rpm needs a positive rpm", p.Mode)}
		}
	default:
		return &ValidationError{fmt.Sprintf("prescription %s needs fix p (pitch) or r (rpm), got %q", p.Mode, p.Fix)}
	}
	return nil
}

// Lines returns the solver input for the prescription, one answer per line.
func (p Prescription) Lines() []string {
	lines := []string{string(p.Mode), num(p.Value)}
	if p.Mode.needsFix() {
		fix := Fix(strings.ToLower(string(p.Fix)))
		lines = append(lines, string(fix))
		if fix == FixedRPM {
			lines = append(lines, num(p.RPM))
		}
	}
	return lines
}

func (p Prescription) String() string {
	return strings.Join(p.Lines(), " ")
}

// Atmosphere sets the fluid properties. With Density unset the standard
// atmosphere at Altitude is used.
type Atmosphere struct {
	Altitude     float64 `json:"altitude,omitempty"`       // km
	Density      float64 `json:"density,omitempty"`        // kg/m^3
	Viscosity    float64 `json:"viscosity,omitempty"`      // dynamic, kg/m-s
	SpeedOfSound float64 `json:"speed_of_sound,omitempty"` // m/s
}

// Custom reports whether explicit fluid properties are given.
func (a Atmosphere) Custom() bool {
	return a.Density != 0 || a.Viscosity != 0 || a.SpeedOfSound != 0
}

// Validate checks the atmosphere.
func (a Atmosphere) Validate() error {
	if !a.Custom() {
		if a.Altitude < 0 || a.Altitude > 80 {
			return &ValidationError{fmt.Sprintf("altitude %g km outside the standard atmosphere", a.Altitude)}
		}
		return nil
	}
	if a.Density <= 0 || a.Viscosity <= 0 || a.SpeedOfSound <= 0 {
		return &ValidationError{"explicit atmosphere needs positive density, viscosity and speed of sound"}
	}
	return nil
}

// Lines returns the solver commands that set the atmosphere.
func (a Atmosphere) Lines() []string {
	if !a.Custom() {
		return []string{"atmo " + num(a.Altitude)}
	}
	return []string{
		"dens " + num(a.Density),
		"visc " + num(a.Viscosity),
		"vsou " + num(a.SpeedOfSound),
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
