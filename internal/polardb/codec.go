package polardb

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alexiusacademia/gorotor/internal/airfoil"
)

var (
	polarColumns = []string{"re", "alpha", "cl", "cd", "cdp", "cm", "xtr_top", "xtr_bot"}
	cpColumns    = []string{"re", "alpha", "side", "x", "cp"}
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeHeader(w *bufio.Writer, sig, name string, columns []string) {
	fmt.Fprintf(w, "# signature: %s\n", sig)
	if name != "" {
		fmt.Fprintf(w, "# airfoil: %s\n", name)
	}
	fmt.Fprintf(w, "# format: %d\n", FormatVersion)
	fmt.Fprintf(w, "# columns: %s\n", strings.Join(columns, " "))
}

func writePolar(out io.Writer, e *Entry) error {
	w := bufio.NewWriter(out)
	writeHeader(w, e.Signature, e.Airfoil, polarColumns)
	for _, p := range e.Points {
		fmt.Fprintln(w, num(p.Reynolds), num(p.Alpha), num(p.Cl), num(p.Cd), num(p.Cdp), num(p.Cm), num(p.XtrTop), num(p.XtrBottom))
	}
	return w.Flush()
}

func writeCurves(out io.Writer, e *Entry) error {
	w := bufio.NewWriter(out)
	writeHeader(w, e.Signature, e.Airfoil, cpColumns)
	for _, c := range e.Curves {
		le := 0
		for i, p := range c.Points {
			if p.X < c.Points[le].X {
				le = i
			}
		}
		for i, p := range c.Points {
			side := "u"
			if i > le {
				side = "l"
			}
			fmt.Fprintln(w, num(c.Reynolds), num(c.Alpha), side, num(p.X), num(p.Cp))
		}
	}
	return w.Flush()
}

// scanRows reads "# key: value" header lines and whitespace-separated rows
// of width columns.
func scanRows(r io.Reader, width int, row func(line int, fields []string) error) (map[string]string, error) {
	header := make(map[string]string)
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if k, v, ok := strings.Cut(strings.TrimPrefix(line, "#"), ":"); ok {
				header[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != width {
			return nil, fmt.Errorf("%w: line %d has %d fields, want %d", airfoil.ErrMalformedTable, n, len(fields), width)
		}
		if err := row(n, fields); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if v := header["format"]; v != strconv.Itoa(FormatVersion) {
		return nil, fmt.Errorf("%w: format %q, want %d", airfoil.ErrMalformedTable, v, FormatVersion)
	}
	return header, nil
}

func parseFields(line int, fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q is not a number", airfoil.ErrMalformedTable, line, f)
		}
		out[i] = v
	}
	return out, nil
}

func readPolar(r io.Reader) (*Entry, error) {
	e := &Entry{}
	header, err := scanRows(r, len(polarColumns), func(line int, fields []string) error {
		v, err := parseFields(line, fields)
		if err != nil {
			return err
		}
		e.Points = append(e.Points, airfoil.PolarPoint{
			Reynolds: v[0], Alpha: v[1], Cl: v[2], Cd: v[3], Cdp: v[4], Cm: v[5], XtrTop: v[6], XtrBottom: v[7],
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.Signature = header["signature"]
	e.Airfoil = header["airfoil"]
	if len(e.Points) == 0 {
		return nil, fmt.Errorf("%w: no polar rows", airfoil.ErrMalformedTable)
	}
	return e, nil
}

// readCurves groups consecutive rows with the same (re, alpha) into curves.
func readCurves(r io.Reader) (string, []airfoil.PressureCurve, error) {
	var curves []airfoil.PressureCurve
	header, err := scanRows(r, len(cpColumns), func(line int, fields []string) error {
		side := fields[2]
		if side != "u" && side != "l" {
			return fmt.Errorf("%w: line %d: side %q", airfoil.ErrMalformedTable, line, side)
		}
		v, err := parseFields(line, []string{fields[0], fields[1], fields[3], fields[4]})
		if err != nil {
			return err
		}
		n := len(curves)
		if n == 0 || curves[n-1].Reynolds != v[0] || curves[n-1].Alpha != v[1] {
			curves = append(curves, airfoil.PressureCurve{Reynolds: v[0], Alpha: v[1]})
			n++
		}
		curves[n-1].Points = append(curves[n-1].Points, airfoil.CpPoint{X: v[2], Cp: v[3]})
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return header["signature"], curves, nil
}
