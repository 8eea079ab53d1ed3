package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alexiusacademia/gorotor/internal/metrics"
)

// DefaultTimeout bounds a single solver invocation.
const DefaultTimeout = 120 * time.Second

// ExecRunner runs a solver binary in a private temporary working directory,
// feeding the script on stdin. Every run gets its own directory, so runs are
// independent and may execute concurrently.
type ExecRunner struct {
	Family  Family
	Binary  string
	Timeout time.Duration

	// WorkDir is the parent of the per-run directories; empty means os.TempDir.
	WorkDir     string
	KeepWorkDir bool
	Env         []string

	// NonConvergence lists stdout markers (case-insensitive) that turn an
	// otherwise successful run into a non-convergence failure.
	NonConvergence []string

	Logger logrus.FieldLogger
}

// NewXrotor returns a runner for the rotor solver.
func NewXrotor(binary string, timeout time.Duration, logger logrus.FieldLogger) *ExecRunner {
	return &ExecRunner{
		Family:         Xrotor,
		Binary:         binary,
		Timeout:        timeout,
		NonConvergence: []string{"iteration limit exceeded", "not converged"},
		Logger:         logger,
	}
}

// NewXfoil returns a runner for the airfoil solver. Per-point convergence
// failures are expected during an alpha sweep and are not treated as run
// failures; unconverged points are simply missing from the polar.
func NewXfoil(binary string, timeout time.Duration, logger logrus.FieldLogger) *ExecRunner {
	return &ExecRunner{
		Family:  Xfoil,
		Binary:  binary,
		Timeout: timeout,
		Logger:  logger,
	}
}

// Run executes the solver for cfg.
func (r *ExecRunner) Run(ctx context.Context, cfg Config) (*Output, error) {
	if cfg.Family == "" {
		cfg.Family = r.Family
	}
	log := r.logger().WithFields(logrus.Fields{"solver": cfg.Family, "run": cfg.Name})

	dir, err := os.MkdirTemp(r.WorkDir, "gorotor-"+string(cfg.Family)+"-")
	if err != nil {
		return nil, fmt.Errorf("creating working directory: %w", err)
	}
	if r.KeepWorkDir {
		log.WithField("dir", dir).Debug("keeping working directory")
	} else {
		defer os.RemoveAll(dir)
	}

	for name, data := range cfg.Inputs {
		if err := writeInput(dir, name, data); err != nil {
			return nil, err
		}
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdin string
	if cfg.Script != nil {
		stdin = cfg.Script.String()
	}
	var stdout bytes.Buffer
	cmd := exec.CommandContext(runCtx, r.Binary)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stdout
	cmd.WaitDelay = time.Second
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	out, err := r.collect(runCtx, ctx, cfg, dir, runErr, stdout.Bytes())
	outcome := "ok"
	if err != nil {
		var f *RunFailure
		if errors.As(err, &f) {
			outcome = f.Kind.String()
		}
		log.WithFields(logrus.Fields{"elapsed": elapsed, "outcome": outcome}).Debug("solver run failed")
	} else {
		out.Duration = elapsed
		log.WithField("elapsed", elapsed).Debug("solver run finished")
	}
	metrics.ObserveSolverRun(string(cfg.Family), outcome, elapsed)
	return out, err
}

func (r *ExecRunner) collect(runCtx, parent context.Context, cfg Config, dir string, runErr error, stdout []byte) (*Output, error) {
	switch {
	case parent.Err() != nil:
		return nil, Fail(cfg, Canceled, parent.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return nil, Fail(cfg, Timeout, fmt.Errorf("no result within %s", r.timeout()))
	case runErr != nil:
		return nil, Fail(cfg, Crash, fmt.Errorf("%w: %s", runErr, tail(stdout, 5)))
	}

	if err := CheckConvergence(cfg, stdout, r.NonConvergence); err != nil {
		return nil, err
	}

	out := &Output{Stdout: stdout, Files: make(map[string][]byte, len(cfg.Outputs))}
	for _, name := range cfg.Outputs {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) && contains(cfg.Optional, name) {
				continue
			}
			return nil, Fail(cfg, MissingOutput, fmt.Errorf("output %s: %w", name, err))
		}
		out.Files[name] = data
	}
	return out, nil
}

func (r *ExecRunner) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

func (r *ExecRunner) logger() logrus.FieldLogger {
	if r.Logger == nil {
		return logrus.StandardLogger()
	}
	return r.Logger
}

func writeInput(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if rel, err := filepath.Rel(dir, path); err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("input file %q escapes the working directory", name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("writing input %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing input %s: %w", name, err)
	}
	return nil
}

// tail returns the last n non-empty lines of b, for error messages.
func tail(b []byte, n int) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// CheckConvergence returns a NonConvergence failure if stdout contains any of
// markers, compared case-insensitively.
func CheckConvergence(cfg Config, stdout []byte, markers []string) error {
	lower := strings.ToLower(string(stdout))
	for _, marker := range markers {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return Fail(cfg, NonConvergence, fmt.Errorf("solver reported %q", marker))
		}
	}
	return nil
}
