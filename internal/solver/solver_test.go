package solver

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func shell(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return path
}

func scriptOf(lines ...string) *Script {
	s := NewScript()
	for _, l := range lines {
		s.Run(l)
	}
	return s
}

func TestScript(t *testing.T) {
	s := NewScript()
	s.Run("arbi")
	s.Run(3)
	s.Run(0.25)
	s.Runf("visc %g", 1e6)
	s.RunArray([][]float64{{0.2, 0.1, 30}, {1, 0.05, 12.5}})
	s.Run("")

	want := []string{"arbi", "3", "0.25", "visc 1e+06", "0.2", "0.1", "30", "1", "0.05", "12.5", ""}
	got := s.Lines()
	if len(got) != len(want) {
		t.Fatalf("Lines() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
	if !strings.HasSuffix(s.String(), "12.5\n\n") {
		t.Errorf("String() = %q, want trailing blank line", s.String())
	}
	if NewScript().String() != "" {
		t.Error("empty script should render as empty stdin")
	}
}

func TestExecRunnerCollectsOutputs(t *testing.T) {
	r := &ExecRunner{Family: Xfoil, Binary: shell(t), Timeout: 5 * time.Second}
	cfg := Config{
		Name:    "copy",
		Script:  scriptOf("cat in.txt > out.txt", "echo done"),
		Inputs:  map[string][]byte{"in.txt": []byte("1 2 3\n")},
		Outputs: []string{"out.txt"},
	}
	out, err := r.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := string(out.Files["out.txt"]); got != "1 2 3\n" {
		t.Errorf("out.txt = %q", got)
	}
	if !strings.Contains(string(out.Stdout), "done") {
		t.Errorf("stdout = %q", out.Stdout)
	}
}

func TestExecRunnerFailures(t *testing.T) {
	sh := shell(t)
	tests := []struct {
		name   string
		runner *ExecRunner
		cfg    Config
		kind   FailureKind
	}{
		{
			name:   "crash",
			runner: &ExecRunner{Family: Xrotor, Binary: sh, Timeout: 5 * time.Second},
			cfg:    Config{Name: "crash", Script: scriptOf("exit 3")},
			kind:   Crash,
		},
		{
			name:   "timeout",
			runner: &ExecRunner{Family: Xrotor, Binary: sh, Timeout: 100 * time.Millisecond},
			cfg:    Config{Name: "slow", Script: scriptOf("exec sleep 5")},
			kind:   Timeout,
		},
		{
			name:   "non-convergence",
			runner: NewXrotor(sh, 5*time.Second, nil),
			cfg:    Config{Name: "diverge", Script: scriptOf("echo ' Iteration limit exceeded'")},
			kind:   NonConvergence,
		},
		{
			name:   "missing output",
			runner: &ExecRunner{Family: Xfoil, Binary: sh, Timeout: 5 * time.Second},
			cfg:    Config{Name: "quiet", Script: scriptOf("true"), Outputs: []string{"polar.txt"}},
			kind:   MissingOutput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.runner.Run(context.Background(), tt.cfg)
			if !errors.Is(err, ErrRunFailure) {
				t.Fatalf("Run error = %v, want a run failure", err)
			}
			var f *RunFailure
			if !errors.As(err, &f) || f.Kind != tt.kind {
				t.Fatalf("Run error = %v, want kind %s", err, tt.kind)
			}
			if f.Name != tt.cfg.Name {
				t.Errorf("failure name = %q, want %q", f.Name, tt.cfg.Name)
			}
		})
	}
}

func TestCheckConvergence(t *testing.T) {
	cfg := Config{Name: "cruise", Family: Xrotor}
	markers := []string{"Iteration limit exceeded", "", "Convergence failed"}
	tests := []struct {
		stdout string
		fail   bool
	}{
		{" Converged in 9 iterations\n", false},
		{" CONVERGENCE FAILED at station 7\n", true},
		{" iteration limit exceeded\n", true},
		{"", false},
	}
	for _, tt := range tests {
		err := CheckConvergence(cfg, []byte(tt.stdout), markers)
		if (err != nil) != tt.fail {
			t.Errorf("CheckConvergence(%q) = %v, want failure %t", tt.stdout, err, tt.fail)
			continue
		}
		var f *RunFailure
		if tt.fail && (!errors.As(err, &f) || f.Kind != NonConvergence || f.Name != "cruise") {
			t.Errorf("CheckConvergence(%q) = %v, want a non-convergence failure of cruise", tt.stdout, err)
		}
	}
}

func TestExecRunnerOptionalOutput(t *testing.T) {
	r := &ExecRunner{Family: Xfoil, Binary: shell(t), Timeout: 5 * time.Second}
	cfg := Config{
		Name:     "partial",
		Script:   scriptOf("echo x > a.txt"),
		Outputs:  []string{"a.txt", "b.txt"},
		Optional: []string{"b.txt"},
	}
	out, err := r.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := out.Files["b.txt"]; ok {
		t.Error("missing optional output should not be reported")
	}
}

func TestExecRunnerRejectsEscapingInput(t *testing.T) {
	r := &ExecRunner{Family: Xfoil, Binary: shell(t)}
	cfg := Config{Name: "escape", Inputs: map[string][]byte{"../x": nil}}
	if _, err := r.Run(context.Background(), cfg); err == nil {
		t.Fatal("expected an error for an input outside the working directory")
	}
}

func TestRunArrayIsolatesFailures(t *testing.T) {
	r := RunnerFunc(func(ctx context.Context, cfg Config) (*Output, error) {
		if cfg.Name == "b" {
			return nil, Fail(cfg, Crash, errors.New("boom"))
		}
		return &Output{Stdout: []byte(cfg.Name)}, nil
	})
	cfgs := []Config{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	results := RunArray(context.Background(), r, cfgs, 2)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, name := range []string{"a", "b", "c"} {
		if results[i].Config.Name != name {
			t.Errorf("result %d is for %q, want %q", i, results[i].Config.Name, name)
		}
	}
	if results[0].Err != nil || string(results[0].Output.Stdout) != "a" {
		t.Errorf("result a = %+v", results[0])
	}
	if !errors.Is(results[1].Err, ErrRunFailure) {
		t.Errorf("result b error = %v, want run failure", results[1].Err)
	}
	if results[2].Err != nil || string(results[2].Output.Stdout) != "c" {
		t.Errorf("result c = %+v", results[2])
	}
}

func TestRunArrayBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	r := RunnerFunc(func(ctx context.Context, cfg Config) (*Output, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return &Output{}, nil
	})
	cfgs := make([]Config, 12)
	for i := range cfgs {
		cfgs[i].Name = fmt.Sprint(i)
	}
	for _, res := range RunArray(context.Background(), r, cfgs, 3) {
		if res.Err != nil {
			t.Fatalf("run %s: %v", res.Config.Name, res.Err)
		}
	}
	if p := peak.Load(); p > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", p)
	}
}

func TestRunArrayCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32
	r := RunnerFunc(func(ctx context.Context, cfg Config) (*Output, error) {
		calls.Add(1)
		return &Output{}, nil
	})
	results := RunArray(ctx, r, []Config{{Name: "a"}, {Name: "b"}}, 1)
	for _, res := range results {
		var f *RunFailure
		if !errors.As(res.Err, &f) || f.Kind != Canceled {
			t.Errorf("run %s error = %v, want canceled", res.Config.Name, res.Err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("runner called %d times after cancellation", calls.Load())
	}
}
