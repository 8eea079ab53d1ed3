package airfoil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/alexiusacademia/gorotor/internal/solver"
)

func testProfile() []Point {
	return []Point{{1, 0}, {0.5, 0.06}, {0, 0}, {0.5, -0.06}, {1, 0}}
}

// fakeXfoil answers an airfoil solver script with a polar in which Cl = 0.1
// alpha and one pressure dump per converged angle. Angles in skip do not
// converge; Reynolds numbers in crash fail the whole run.
func fakeXfoil(skip map[float64]bool, crash map[float64]bool) solver.Runner {
	return solver.RunnerFunc(func(ctx context.Context, cfg solver.Config) (*solver.Output, error) {
		var re, alpha float64
		var polar bytes.Buffer
		files := map[string][]byte{}
		for _, l := range cfg.Script.Lines() {
			f := strings.Fields(l)
			switch {
			case len(f) == 2 && f[0] == "visc":
				re, _ = strconv.ParseFloat(f[1], 64)
				if crash[re] {
					return nil, solver.Fail(cfg, solver.Crash, errors.New("segfault"))
				}
				fmt.Fprintf(&polar, " Calculated polar for: test\n\n")
				fmt.Fprintf(&polar, " Mach =   0.000     Re =     %.3f e 5     Ncrit =   9.000\n\n", re/1e5)
				fmt.Fprintf(&polar, "  alpha    CL        CD       CDp       CM     Top_Xtr  Bot_Xtr\n")
				fmt.Fprintf(&polar, " ------ -------- --------- --------- -------- -------- --------\n")
			case len(f) == 2 && f[0] == "alfa":
				alpha, _ = strconv.ParseFloat(f[1], 64)
				if !skip[alpha] {
					fmt.Fprintf(&polar, "%8.3f %8.4f %9.5f %9.5f %8.4f %8.4f %8.4f\n",
						alpha, 0.1*alpha, 0.01, 0.005, -0.02, 0.5, 0.9)
				}
			case len(f) == 2 && f[0] == "cpwr":
				var cp bytes.Buffer
				fmt.Fprintln(&cp, "#    x        Cp")
				for _, x := range []float64{1, 0.5, 0} {
					fmt.Fprintf(&cp, "%9.5f %9.5f\n", x, -0.1*alpha*(1-x))
				}
				for _, x := range []float64{0.5, 1} {
					fmt.Fprintf(&cp, "%9.5f %9.5f\n", x, -0.1*alpha+0.15*alpha*x)
				}
				files[f[1]] = cp.Bytes()
			}
		}
		files[polarFile] = polar.Bytes()
		if _, ok := cfg.Inputs[coordinatesFile]; !ok {
			return nil, solver.Fail(cfg, solver.MissingOutput, errors.New("no coordinates"))
		}
		return &solver.Output{Files: files}, nil
	})
}

func TestAnalysisRequest(t *testing.T) {
	req := AnalysisRequest{Reynolds: []float64{1e5}, AlphaStart: -1, AlphaStop: 1, AlphaInc: 0.5}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	want := []float64{0, -0.5, -1, 0.5, 1}
	got := req.Alphas()
	if len(got) != len(want) {
		t.Fatalf("Alphas() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Alphas()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	bad := []AnalysisRequest{
		{AlphaInc: 1},
		{Reynolds: []float64{-1}, AlphaInc: 1},
		{Reynolds: []float64{1e5}},
		{Reynolds: []float64{1e5}, AlphaStart: 1, AlphaStop: 2, AlphaInc: 1},
	}
	for i, r := range bad {
		if r.Validate() == nil {
			t.Errorf("request %d should be rejected: %+v", i, r)
		}
	}
}

func TestXfoilScript(t *testing.T) {
	a := New("test", testProfile(), 1e5)
	req := AnalysisRequest{Reynolds: []float64{1e5}, AlphaStart: -1, AlphaStop: 1, AlphaInc: 1}
	cfg := a.xfoilConfig(1e5, req.Alphas())

	want := []string{
		"load airfoil.dat", "pane", "oper", "vpar", "n 9", "", "visc 100000", "iter 200",
		"pacc", "polar.txt", "",
		"alfa 0", "cpwr cp_0000.txt",
		"alfa -1", "cpwr cp_0001.txt",
		"init",
		"alfa 1", "cpwr cp_0002.txt",
		"pacc", "", "quit",
	}
	got := cfg.Script.Lines()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("script =\n%q\nwant\n%q", got, want)
	}
	if len(cfg.Outputs) != 4 || len(cfg.Optional) != 3 || cfg.Family != solver.Xfoil {
		t.Errorf("config = %+v", cfg)
	}
}

func TestAnalyze(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	a := New("test", testProfile(), 1e5)
	a.Logger = logger
	a.Stations = []float64{0.25, 0.75}

	req := AnalysisRequest{Reynolds: []float64{1e5, 2e5, 3e5}, AlphaStart: -1, AlphaStop: 1, AlphaInc: 0.5}
	runner := fakeXfoil(map[float64]bool{-1: true}, map[float64]bool{3e5: true})
	if err := a.Analyze(context.Background(), runner, req); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if n := len(a.Polar()); n != 8 {
		t.Errorf("polar has %d rows, want 8 (two Reynolds numbers, one angle unconverged)", n)
	}
	if n := len(a.PressureCurves()); n != 8 {
		t.Errorf("%d pressure curves, want one per converged angle", n)
	}
	got, err := a.Interpolate(1.5e5, 0.75, Cl)
	if err != nil || got.Extrapolated || math.Abs(got.Value-0.075) > 1e-9 {
		t.Errorf("Interpolate(1.5e5, 0.75) = %+v, %v; want 0.075", got, err)
	}
	d, err := a.CpVsX(1e5, 1)
	if err != nil {
		t.Fatalf("CpVsX: %v", err)
	}
	if math.Abs(d.Suction[0]+0.075) > 1e-9 || math.Abs(d.Pressure[1]-0.0125) > 1e-9 {
		t.Errorf("CpVsX(1e5, 1) = %+v", d)
	}

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Message == "skipping Reynolds number" && e.Data["reynolds"] == 3e5 {
			warned = true
		}
	}
	if !warned {
		t.Error("failed Reynolds number was not reported")
	}
}

func TestAnalyzeAllFail(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	a := New("test", testProfile(), 1e5)
	a.Logger = logger
	req := DefaultAnalysisRequest(1e5)
	err := a.Analyze(context.Background(), fakeXfoil(nil, map[float64]bool{1e5: true}), req)
	if !errors.Is(err, solver.ErrRunFailure) {
		t.Fatalf("err = %v, want run failure", err)
	}
	if a.HasPolar() {
		t.Error("failed analysis must not set a polar")
	}

	empty := New("empty", nil, 1e5)
	if err := empty.Analyze(context.Background(), fakeXfoil(nil, nil), req); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("analysis without coordinates: err = %v", err)
	}
}
