package parse

import (
	"errors"
	"fmt"
)

// ErrParse matches every *Error through errors.Is.
var ErrParse = errors.New("unexpected solver output")

// ErrorKind classifies a parse failure.
type ErrorKind int

const (
	// Truncated output ended before the expected content.
	Truncated ErrorKind = iota
	// MissingColumn means a required column is absent from a table header.
	MissingColumn
	// BadValue means a field could not be read as a number.
	BadValue
	// UnexpectedFormat means the output does not look like the declared format.
	UnexpectedFormat
)

func (k ErrorKind) String() string {
	switch k {
	case Truncated:
		return "truncated"
	case MissingColumn:
		return "missing column"
	case BadValue:
		return "bad value"
	case UnexpectedFormat:
		return "unexpected format"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error describes where and why solver output could not be parsed.
type Error struct {
	Kind   ErrorKind
	Output string // which output: "oper", "bend", "polar", "cp"
	Line   int    // 1-based, 0 when not tied to a line
	Msg    string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s output line %d: %s: %s", e.Output, e.Line, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s output: %s: %s", e.Output, e.Kind, e.Msg)
}

// Is reports whether target is ErrParse.
func (e *Error) Is(target error) bool {
	return target == ErrParse
}

func errorf(kind ErrorKind, output string, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Output: output, Line: line, Msg: fmt.Sprintf(format, args...)}
}
