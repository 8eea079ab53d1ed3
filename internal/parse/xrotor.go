package parse

import (
	"strings"
)

// OperStation is one spanwise station of the operating-point table.
type OperStation struct {
	Index       int
	RadiusRatio float64 // r/R
	ChordRatio  float64 // c/R
	Twist       float64 // deg
	Cl          float64
	Cd          float64
	Reynolds    float64 // absolute
	Mach        float64
	Alpha       float64 // deg, valid when HasAlpha
	HasAlpha    bool
	Stalled     bool

	// Columns holds every numeric column by its header name.
	Columns map[string]float64
}

// OperPoint is the parsed operating-point output of the rotor solver.
type OperPoint struct {
	// Values holds the "label : value" summary (thrust, power, efficiency, ...).
	Values   map[string]float64
	Stations []OperStation
}

// Value returns the summary value whose label starts with prefix, ignoring
// case and units, e.g. Value("thrust") for "thrust(N)".
func (p *OperPoint) Value(prefix string) (float64, bool) {
	if v, ok := p.Values[prefix]; ok {
		return v, true
	}
	for label, v := range p.Values {
		if strings.EqualFold(stripUnit(label), prefix) {
			return v, true
		}
	}
	return 0, false
}

// ParseOper parses the rotor solver's operating-point file.
func ParseOper(data []byte, layout OperLayout) (*OperPoint, error) {
	lines := splitLines(data)
	t, err := readTable("oper", lines, layout.Station)
	if err != nil {
		return nil, err
	}

	idx := map[string]int{}
	for _, name := range []string{layout.Station, layout.Cl, layout.Reynolds} {
		i, err := t.column(name)
		if err != nil {
			return nil, err
		}
		idx[name] = i
	}
	optional := func(name string) int { return columnIndex(t.header, name) }
	chord, twist, cd, mach, alpha := optional(layout.Chord), optional(layout.Twist),
		optional(layout.Cd), optional(layout.Mach), optional(layout.Alpha)

	scale := layout.ReynoldsScale
	if scale == 0 {
		scale = 1
	}

	p := &OperPoint{Values: singleValues(lines[:t.headerLine])}
	for k := range t.rows {
		r := &t.rows[k]
		st := OperStation{Columns: make(map[string]float64, len(t.header))}
		for i, h := range t.header {
			v, err := t.value(r, i)
			if err != nil {
				return nil, err
			}
			st.Columns[h] = v
			switch i {
			case 0:
				st.Index = int(v)
			case idx[layout.Station]:
				st.RadiusRatio = v
			case idx[layout.Cl]:
				st.Cl = v
			case idx[layout.Reynolds]:
				st.Reynolds = v * scale
			case chord:
				st.ChordRatio = v
			case twist:
				st.Twist = v
			case cd:
				st.Cd = v
			case mach:
				st.Mach = v
			case alpha:
				st.Alpha = v
				st.HasAlpha = true
			}
		}
		st.Stalled = r.stalled
		if n := len(p.Stations); n > 0 && st.RadiusRatio <= p.Stations[n-1].RadiusRatio {
			return nil, errorf(UnexpectedFormat, "oper", r.line, "station r/R=%g does not increase", st.RadiusRatio)
		}
		p.Stations = append(p.Stations, st)
	}
	return p, nil
}

// BendStation is one spanwise station of the structural output, with the
// load channels already picked out of the table.
type BendStation struct {
	Index       int
	RadiusRatio float64
	Flapwise    float64
	Edgewise    float64
	Thrust      float64
	Torque      float64

	Columns map[string]float64
}

// BendResult is the parsed structural output of the rotor solver.
type BendResult struct {
	Stations []BendStation
}

// ParseBend parses the rotor solver's structural (bending) file.
func ParseBend(data []byte, layout BendLayout) (*BendResult, error) {
	lines := splitLines(data)
	t, err := readTable("bend", lines, layout.Station)
	if err != nil {
		return nil, err
	}

	cols := make([]int, 5)
	for k, name := range []string{layout.Station, layout.Flapwise, layout.Edgewise, layout.Thrust, layout.Torque} {
		if cols[k], err = t.column(name); err != nil {
			return nil, err
		}
	}

	res := &BendResult{}
	for k := range t.rows {
		r := &t.rows[k]
		st := BendStation{Columns: make(map[string]float64, len(t.header))}
		vals := make([]float64, len(t.header))
		for i, h := range t.header {
			v, err := t.value(r, i)
			if err != nil {
				return nil, err
			}
			vals[i] = v
			st.Columns[h] = v
		}
		st.Index = int(vals[0])
		st.RadiusRatio = vals[cols[0]]
		st.Flapwise = vals[cols[1]]
		st.Edgewise = vals[cols[2]]
		st.Thrust = vals[cols[3]]
		st.Torque = vals[cols[4]]
		if n := len(res.Stations); n > 0 && st.RadiusRatio <= res.Stations[n-1].RadiusRatio {
			return nil, errorf(UnexpectedFormat, "bend", r.line, "station r/R=%g does not increase", st.RadiusRatio)
		}
		res.Stations = append(res.Stations, st)
	}
	return res, nil
}

func splitLines(data []byte) []string {
	return strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
}
