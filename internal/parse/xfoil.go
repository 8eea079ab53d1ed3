package parse

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PolarRow is one converged point of an airfoil polar.
type PolarRow struct {
	Alpha     float64
	Cl        float64
	Cd        float64
	Cdp       float64
	Cm        float64
	XtrTop    float64
	XtrBottom float64
}

// Polar is a parsed airfoil polar accumulation file.
type Polar struct {
	Name     string
	Reynolds float64
	Mach     float64
	Ncrit    float64
	Rows     []PolarRow // sorted by alpha, duplicates removed
}

var (
	reReynolds = regexp.MustCompile(`Re\s*=\s*([0-9.]+)\s*e\s*([+-]?[0-9]+)`)
	reMach     = regexp.MustCompile(`Mach\s*=\s*([0-9.]+)`)
	reNcrit    = regexp.MustCompile(`Ncrit\s*=\s*([0-9.]+)`)
	reName     = regexp.MustCompile(`Calculated polar for:\s*(.*)$`)
)

var polarColumns = []string{"alpha", "CL", "CD", "CDp", "CM", "Top_Xtr", "Bot_Xtr"}

// ParseXfoilPolar parses an airfoil solver polar file. Repeated angles keep
// the first converged row.
func ParseXfoilPolar(data []byte) (*Polar, error) {
	lines := splitLines(data)
	p := &Polar{}

	header := -1
	for n, l := range lines {
		if m := reName.FindStringSubmatch(l); m != nil {
			p.Name = strings.TrimSpace(m[1])
		}
		if m := reReynolds.FindStringSubmatch(l); m != nil {
			mant, _ := strconv.ParseFloat(m[1], 64)
			exp, _ := strconv.Atoi(m[2])
			p.Reynolds = mant * math.Pow10(exp)
		}
		if m := reMach.FindStringSubmatch(l); m != nil {
			p.Mach, _ = strconv.ParseFloat(m[1], 64)
		}
		if m := reNcrit.FindStringSubmatch(l); m != nil {
			p.Ncrit, _ = strconv.ParseFloat(m[1], 64)
		}
		fields := strings.Fields(l)
		if len(fields) > 0 && strings.EqualFold(fields[0], "alpha") {
			header = n
			break
		}
	}
	if header < 0 {
		return nil, errorf(UnexpectedFormat, "polar", 0, "no alpha column header")
	}
	if p.Reynolds <= 0 {
		return nil, errorf(UnexpectedFormat, "polar", 0, "no Reynolds number in polar header")
	}

	hdr := strings.Fields(lines[header])
	cols := make([]int, len(polarColumns))
	for k, name := range polarColumns {
		if cols[k] = columnIndex(hdr, name); cols[k] < 0 {
			return nil, errorf(MissingColumn, "polar", header+1, "column %q not in header %v", name, hdr)
		}
	}

	seen := make(map[float64]bool)
	for n := header + 1; n < len(lines); n++ {
		fields := strings.Fields(lines[n])
		if len(fields) == 0 || strings.Trim(fields[0], "-") == "" {
			continue
		}
		if len(fields) < len(hdr) {
			return nil, errorf(Truncated, "polar", n+1, "row has %d fields, header has %d", len(fields), len(hdr))
		}
		vals := make([]float64, len(polarColumns))
		for k, c := range cols {
			v, err := parseNumber(fields[c])
			if err != nil {
				return nil, errorf(BadValue, "polar", n+1, "column %s: %q is not a number", hdr[c], fields[c])
			}
			vals[k] = v
		}
		if seen[vals[0]] {
			continue
		}
		seen[vals[0]] = true
		p.Rows = append(p.Rows, PolarRow{
			Alpha: vals[0], Cl: vals[1], Cd: vals[2], Cdp: vals[3],
			Cm: vals[4], XtrTop: vals[5], XtrBottom: vals[6],
		})
	}
	sort.Slice(p.Rows, func(i, j int) bool { return p.Rows[i].Alpha < p.Rows[j].Alpha })
	return p, nil
}

// CpRow is one chordwise pressure sample in surface order.
type CpRow struct {
	X  float64
	Cp float64
}

// ParseXfoilCp parses a pressure dump. The optional "#" header names the
// columns; without it the first two columns are x and Cp.
func ParseXfoilCp(data []byte) ([]CpRow, error) {
	lines := splitLines(data)
	ix, icp := 0, 1
	var rows []CpRow
	for n, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			hdr := strings.Fields(strings.TrimPrefix(trimmed, "#"))
			if x, cp := columnIndex(hdr, "x"), columnIndex(hdr, "Cp"); x >= 0 && cp >= 0 {
				ix, icp = x, cp
			}
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) <= max(ix, icp) {
			return nil, errorf(Truncated, "cp", n+1, "row has %d fields", len(fields))
		}
		x, errX := parseNumber(fields[ix])
		cp, errCp := parseNumber(fields[icp])
		if errX != nil || errCp != nil {
			return nil, errorf(BadValue, "cp", n+1, "%q is not an (x, Cp) pair", trimmed)
		}
		rows = append(rows, CpRow{X: x, Cp: cp})
	}
	if len(rows) == 0 {
		return nil, errorf(Truncated, "cp", 0, "no pressure samples")
	}
	return rows, nil
}
