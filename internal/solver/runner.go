package solver

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Family identifies an external solver family.
type Family string

const (
	Xrotor Family = "xrotor"
	Xfoil  Family = "xfoil"
)

// Config describes one solver invocation: the script fed on stdin, files to
// place into the working directory, and files to collect afterwards.
type Config struct {
	Name    string // identifies the run in logs and reports
	Family  Family
	Script  *Script
	Inputs  map[string][]byte
	Outputs []string

	// Optional lists output files that may be missing without failing the run.
	Optional []string
}

// Output is the raw result of a successful invocation.
type Output struct {
	Stdout   []byte
	Files    map[string][]byte
	Duration time.Duration
}

// Runner runs an external solver. Failures of the solver itself are returned
// as *RunFailure; the caller decides whether they are fatal.
type Runner interface {
	Run(ctx context.Context, cfg Config) (*Output, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cfg Config) (*Output, error)

// Run calls f(ctx, cfg).
func (f RunnerFunc) Run(ctx context.Context, cfg Config) (*Output, error) {
	return f(ctx, cfg)
}

// ErrRunFailure matches every *RunFailure through errors.Is.
var ErrRunFailure = errors.New("solver run failed")

// FailureKind classifies a failed run.
type FailureKind int

const (
	Crash FailureKind = iota
	Timeout
	NonConvergence
	MissingOutput
	Canceled
)

func (k FailureKind) String() string {
	switch k {
	case Crash:
		return "crash"
	case Timeout:
		return "timeout"
	case NonConvergence:
		return "non-convergence"
	case MissingOutput:
		return "missing-output"
	case Canceled:
		return "canceled"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// RunFailure reports a solver crash, timeout, non-convergence, or missing output.
type RunFailure struct {
	Kind   FailureKind
	Name   string
	Family Family
	Err    error
}

func (f *RunFailure) Error() string {
	msg := fmt.Sprintf("%s run %q: %s", f.Family, f.Name, f.Kind)
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *RunFailure) Unwrap() error {
	return f.Err
}

// Is reports whether target is ErrRunFailure.
func (f *RunFailure) Is(target error) bool {
	return target == ErrRunFailure
}

// Fail builds a RunFailure for cfg.
func Fail(cfg Config, kind FailureKind, err error) *RunFailure {
	return &RunFailure{Kind: kind, Name: cfg.Name, Family: cfg.Family, Err: err}
}
