package solver

import (
	"fmt"
	"strconv"
	"strings"
)

// Script collects the command lines fed to an interactive solver on stdin.
type Script struct {
	lines []string
}

// NewScript returns an empty script.
func NewScript() *Script {
	return &Script{}
}

// Run appends one command or answer as its own line. Floats are written in
// the shortest form that round-trips.
func (s *Script) Run(arg any) {
	s.lines = append(s.lines, token(arg))
}

// Runf appends a formatted line.
func (s *Script) Runf(format string, args ...any) {
	s.lines = append(s.lines, fmt.Sprintf(format, args...))
}

// RunArray appends every value of every row on its own line, as the rotor
// solver expects for tabulated geometry input.
func (s *Script) RunArray(rows [][]float64) {
	for _, row := range rows {
		for _, v := range row {
			s.Run(v)
		}
	}
}

// Lines returns a copy of the script lines.
func (s *Script) Lines() []string {
	return append([]string(nil), s.lines...)
}

// String returns the script as stdin content.
func (s *Script) String() string {
	if len(s.lines) == 0 {
		return ""
	}
	return strings.Join(s.lines, "\n") + "\n"
}

func token(arg any) string {
	switch v := arg.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}
