package airfoil

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadCoordinates reads a profile coordinate file in Selig/XFOIL layout: an
// optional name line followed by "x y" pairs. When the file has no name line
// the file name without extension is used.
func LoadCoordinates(path string) (string, []Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	name, pts, err := ParseCoordinates(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return name, pts, nil
}

// ParseCoordinates parses profile coordinates from r.
func ParseCoordinates(r io.Reader) (string, []Point, error) {
	scanner := bufio.NewScanner(r)
	var name string
	var pts []Point
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			x, errX := strconv.ParseFloat(fields[0], 64)
			y, errY := strconv.ParseFloat(fields[1], 64)
			if errX == nil && errY == nil {
				pts = append(pts, Point{X: x, Y: y})
				continue
			}
		}
		if len(pts) == 0 && name == "" {
			name = line
			continue
		}
		return "", nil, fmt.Errorf("%w: line %d: expected \"x y\", got %q", ErrMalformedTable, lineNo, line)
	}
	if err := scanner.Err(); err != nil {
		return "", nil, fmt.Errorf("reading coordinates: %w", err)
	}
	if len(pts) < 3 {
		return "", nil, fmt.Errorf("%w: profile has %d points, need at least 3", ErrMalformedTable, len(pts))
	}
	if g := ProfileGeometry(pts); g.Area == 0 || g.Chord == 0 {
		return "", nil, fmt.Errorf("%w: profile encloses no area", ErrMalformedTable)
	}
	return name, pts, nil
}

// FormatCoordinates renders the profile in XFOIL's plain coordinate layout.
func FormatCoordinates(name string, pts []Point) []byte {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, name)
	for _, p := range pts {
		fmt.Fprintf(&buf, " %10.6f %10.6f\n", p.X, p.Y)
	}
	return buf.Bytes()
}
