package parse

import (
	"strconv"
	"strings"
)

// table is a whitespace-separated numeric table found inside solver output.
type table struct {
	output     string
	header     []string
	headerLine int
	rows       []row
}

type row struct {
	line    int
	fields  []string
	stalled bool
}

// readTable locates the first header line that starts with an index column
// "i" and contains key, then collects the rows that follow it. Rows begin with
// an integer index; the table ends at the first line that does not.
func readTable(output string, lines []string, key string) (*table, error) {
	t := &table{output: output, headerLine: -1}
	for n, l := range lines {
		fields := strings.Fields(l)
		if len(fields) < 2 || !strings.EqualFold(fields[0], "i") {
			continue
		}
		if columnIndex(fields, key) >= 0 {
			t.header = fields
			t.headerLine = n
			break
		}
	}
	if t.headerLine < 0 {
		return nil, errorf(UnexpectedFormat, output, 0, "no table with column %q", key)
	}

	for n := t.headerLine + 1; n < len(lines); n++ {
		fields := strings.Fields(lines[n])
		if len(fields) == 0 || strings.Trim(fields[0], "-=") == "" {
			if len(t.rows) == 0 {
				continue
			}
			break
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			break
		}
		r := row{line: n + 1}
		for _, f := range fields {
			// A detached stall marker belongs to the previous field.
			if f == "s" && len(r.fields) > 0 {
				r.stalled = true
				continue
			}
			r.fields = append(r.fields, f)
		}
		if len(r.fields) < len(t.header) {
			return nil, errorf(Truncated, output, r.line, "row has %d fields, header has %d", len(r.fields), len(t.header))
		}
		t.rows = append(t.rows, r)
	}
	if len(t.rows) == 0 {
		return nil, errorf(Truncated, output, t.headerLine+1, "table has a header but no rows")
	}
	return t, nil
}

// column returns the index of name in the header or a MissingColumn error.
func (t *table) column(name string) (int, error) {
	i := columnIndex(t.header, name)
	if i < 0 {
		return -1, errorf(MissingColumn, t.output, t.headerLine+1, "column %q not in header %v", name, t.header)
	}
	return i, nil
}

// value reads field i of r as a number. A trailing stall marker is accepted
// and recorded on the row.
func (t *table) value(r *row, i int) (float64, error) {
	s := r.fields[i]
	if strings.HasSuffix(s, "s") && len(s) > 1 {
		s = strings.TrimSuffix(s, "s")
		r.stalled = true
	}
	v, err := parseNumber(s)
	if err != nil {
		return 0, errorf(BadValue, t.output, r.line, "column %s: %q is not a number", t.header[i], r.fields[i])
	}
	return v, nil
}

// columnIndex matches name against header tokens: first the full token
// ignoring case, then the token without its unit suffix, e.g. "Mx(N-m)".
func columnIndex(header []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	for i, h := range header {
		if stripUnit(h) == stripUnit(name) {
			return i
		}
	}
	return -1
}

func stripUnit(s string) string {
	if i := strings.IndexByte(s, '('); i > 0 {
		return s[:i]
	}
	return s
}

// parseNumber also accepts Fortran double-precision exponents (1.0D-03).
func parseNumber(s string) (float64, error) {
	s = strings.Replace(strings.Replace(s, "D", "E", 1), "d", "e", 1)
	return strconv.ParseFloat(s, 64)
}

// singleValues collects "label : value" pairs, several of which may share a
// line. Labels are normalized to single spaces. Non-numeric values are skipped.
func singleValues(lines []string) map[string]float64 {
	out := make(map[string]float64)
	for _, l := range lines {
		parts := strings.Split(l, ":")
		if len(parts) < 2 {
			continue
		}
		label := normalizeLabel(parts[0])
		for _, p := range parts[1:] {
			fields := strings.Fields(p)
			if len(fields) == 0 {
				label = ""
				continue
			}
			if v, err := parseNumber(fields[0]); err == nil && label != "" {
				out[label] = v
			}
			label = normalizeLabel(strings.Join(fields[1:], " "))
		}
	}
	return out
}

func normalizeLabel(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
