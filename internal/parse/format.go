package parse

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultVersion is the output format assumed when none is configured.
const DefaultVersion = "xrotor-7.55"

// OperLayout names the columns of the rotor solver's operating-point table.
type OperLayout struct {
	Station  string
	Chord    string
	Twist    string
	Cl       string
	Cd       string
	Reynolds string
	Mach     string
	// Alpha is optional; when empty or absent from the output the local
	// angle of attack is recovered from Cl.
	Alpha string

	// ReynoldsScale converts the Reynolds column to an absolute number.
	ReynoldsScale float64
}

// BendLayout names the columns of the structural table and maps them onto the
// load channels.
type BendLayout struct {
	Station  string
	Flapwise string
	Edgewise string
	Thrust   string
	Torque   string
}

// Format is one versioned output contract of the rotor solver.
type Format struct {
	Version string
	Oper    OperLayout
	Bend    BendLayout

	// NonConvergence lists console messages that mark a failed operating point.
	NonConvergence []string
}

var formats = map[string]Format{
	"xrotor-7.55": {
		Version: "xrotor-7.55",
		Oper: OperLayout{
			Station:       "r/R",
			Chord:         "c/R",
			Twist:         "beta(deg)",
			Cl:            "CL",
			Cd:            "Cd",
			Reynolds:      "REx10^3",
			Mach:          "Mach",
			ReynoldsScale: 1e3,
		},
		Bend: BendLayout{
			Station:  "r/R",
			Flapwise: "Mx",
			Edgewise: "Mz",
			Thrust:   "T",
			Torque:   "Q",
		},
		NonConvergence: []string{"Iteration limit exceeded", "Convergence failed"},
	},
	"xrotor-7.69": {
		Version: "xrotor-7.69",
		Oper: OperLayout{
			Station:       "r/R",
			Chord:         "c/R",
			Twist:         "beta(deg)",
			Cl:            "CL",
			Cd:            "Cd",
			Reynolds:      "RExE6",
			Mach:          "Mach",
			ReynoldsScale: 1e6,
		},
		Bend: BendLayout{
			Station:  "r/R",
			Flapwise: "Mx",
			Edgewise: "Mz",
			Thrust:   "T",
			Torque:   "Q",
		},
		NonConvergence: []string{"Iteration limit exceeded", "Convergence failed"},
	},
}

// Lookup returns the registered format for version.
func Lookup(version string) (Format, error) {
	f, ok := formats[version]
	if !ok {
		return Format{}, fmt.Errorf("unknown output format %q (known: %s)", version, strings.Join(Versions(), ", "))
	}
	f.NonConvergence = append([]string(nil), f.NonConvergence...)
	return f, nil
}

// Default returns the default format.
func Default() Format {
	f, _ := Lookup(DefaultVersion)
	return f
}

// Versions lists the registered format versions.
func Versions() []string {
	out := make([]string, 0, len(formats))
	for v := range formats {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Validate checks that every required column is named.
func (f Format) Validate() error {
	required := map[string]string{
		"oper station":  f.Oper.Station,
		"oper CL":       f.Oper.Cl,
		"oper Reynolds": f.Oper.Reynolds,
		"bend station":  f.Bend.Station,
		"bend flapwise": f.Bend.Flapwise,
		"bend edgewise": f.Bend.Edgewise,
		"bend thrust":   f.Bend.Thrust,
		"bend torque":   f.Bend.Torque,
	}
	var missing []string
	for what, col := range required {
		if strings.TrimSpace(col) == "" {
			missing = append(missing, what)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("format %s: no column configured for %s", f.Version, strings.Join(missing, ", "))
	}
	if f.Oper.ReynoldsScale <= 0 {
		return fmt.Errorf("format %s: Reynolds scale must be positive", f.Version)
	}
	return nil
}
