package polardb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/alexiusacademia/gorotor/internal/airfoil"
	"github.com/alexiusacademia/gorotor/internal/solver"
)

var profile = []airfoil.Point{{X: 1, Y: 0}, {X: 0.5, Y: 0.06}, {X: 0, Y: 0}, {X: 0.5, Y: -0.06}, {X: 1, Y: 0}}

func testRequest() Request {
	req := airfoil.AnalysisRequest{Reynolds: []float64{1e5, 2e5}, AlphaStart: -2, AlphaStop: 2, AlphaInc: 1}
	return Request{Coordinates: profile, Reynolds: req.Reynolds, Alphas: req.Alphas(), Ncrit: 9, IterLimit: 200}
}

func TestSignature(t *testing.T) {
	base := testRequest()
	sig := base.Signature()
	if len(sig) != 64 || sig != testRequest().Signature() {
		t.Fatalf("signature %q is not a stable SHA-256", sig)
	}

	tests := []struct {
		name   string
		change func(r *Request)
	}{
		{"coordinates", func(r *Request) {
			r.Coordinates = append([]airfoil.Point(nil), profile...)
			r.Coordinates[1].Y = 0.061
		}},
		{"reynolds", func(r *Request) { r.Reynolds = []float64{1e5} }},
		{"reynolds order", func(r *Request) { r.Reynolds = []float64{2e5, 1e5} }},
		{"alphas", func(r *Request) { r.Alphas = r.Alphas[:len(r.Alphas)-1] }},
		{"ncrit", func(r *Request) { r.Ncrit = 7 }},
		{"iterations", func(r *Request) { r.IterLimit = 100 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRequest()
			tt.change(&r)
			if r.Signature() == sig {
				t.Errorf("changing %s kept the signature", tt.name)
			}
		})
	}
}

func testEntry(sig string) *Entry {
	e := &Entry{Signature: sig, Airfoil: "naca 0012"}
	for _, alpha := range []float64{-2, 0, 2.5} {
		e.Points = append(e.Points, airfoil.PolarPoint{
			Reynolds: 1e5, Alpha: alpha, Cl: 0.11 * alpha, Cd: 0.0123, Cdp: 0.004, Cm: -0.0201, XtrTop: 0.61, XtrBottom: 0.9,
		})
	}
	for _, alpha := range []float64{-2, 2.5} {
		c := airfoil.PressureCurve{Reynolds: 1e5, Alpha: alpha}
		for _, x := range []float64{1, 0.3, 0, 0.3, 1} {
			c.Points = append(c.Points, airfoil.CpPoint{X: x, Cp: -0.1 * alpha * (1 - x)})
		}
		e.Curves = append(e.Curves, c)
	}
	return e
}

func openTest(t *testing.T, maxEntries int) *DB {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	db, err := Open(t.TempDir(), maxEntries, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return db
}

func TestSaveLoad(t *testing.T) {
	db := openTest(t, 0)
	sig := testRequest().Signature()
	want := testEntry(sig)
	if err := db.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := db.Load(sig)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v\nwant %+v", got, want)
	}

	data, err := os.ReadFile(db.path(sig, cpExt))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "# columns: re alpha side x cp") || !strings.Contains(string(data), " l ") {
		t.Errorf("pressure file:\n%s", data)
	}
}

func TestLoadErrors(t *testing.T) {
	db := openTest(t, 0)
	if _, err := db.Load("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing entry: err = %v", err)
	}

	e := testEntry("aaaa")
	if err := db.Save(e); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(db.path("aaaa", polarExt), db.path("bbbb", polarExt)); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Load("bbbb"); !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("renamed entry: err = %v", err)
	}

	if err := os.WriteFile(db.path("cccc", polarExt), []byte("# signature: cccc\n# format: 1\n1 2 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Load("cccc"); !errors.Is(err, airfoil.ErrMalformedTable) {
		t.Errorf("short row: err = %v", err)
	}

	if err := os.WriteFile(db.path("dddd", polarExt), []byte("# signature: dddd\n# format: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Load("dddd"); !errors.Is(err, airfoil.ErrMalformedTable) {
		t.Errorf("old format: err = %v", err)
	}
}

func TestPrune(t *testing.T) {
	db := openTest(t, 2)
	now := time.Now()
	for i, sig := range []string{"old", "mid"} {
		if err := db.Save(testEntry(sig)); err != nil {
			t.Fatal(err)
		}
		ts := now.Add(time.Duration(i-2) * time.Hour)
		if err := os.Chtimes(db.path(sig, polarExt), ts, ts); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.Save(testEntry("new")); err != nil {
		t.Fatal(err)
	}

	got, err := db.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"mid", "new"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
	if _, err := os.Stat(db.path("old", cpExt)); !os.IsNotExist(err) {
		t.Error("pruned entry left its pressure file")
	}
}

// fakeXfoil answers with Cl = 0.1 alpha at every requested angle and one
// pressure dump per angle.
func fakeXfoil(calls *atomic.Int32) solver.Runner {
	return solver.RunnerFunc(func(ctx context.Context, cfg solver.Config) (*solver.Output, error) {
		calls.Add(1)
		var polar bytes.Buffer
		var alpha float64
		files := map[string][]byte{}
		for _, l := range cfg.Script.Lines() {
			f := strings.Fields(l)
			if len(f) != 2 {
				continue
			}
			switch f[0] {
			case "visc":
				re, _ := strconv.ParseFloat(f[1], 64)
				fmt.Fprintf(&polar, " Mach =   0.000     Re =     %.3f e 5     Ncrit =   9.000\n\n", re/1e5)
				fmt.Fprintf(&polar, "  alpha    CL        CD       CDp       CM     Top_Xtr  Bot_Xtr\n")
				fmt.Fprintf(&polar, " ------ -------- --------- --------- -------- -------- --------\n")
			case "alfa":
				alpha, _ = strconv.ParseFloat(f[1], 64)
				fmt.Fprintf(&polar, "%8.3f %8.4f %9.5f %9.5f %8.4f %8.4f %8.4f\n", alpha, 0.1*alpha, 0.01, 0.005, -0.02, 0.5, 0.9)
			case "cpwr":
				var cp bytes.Buffer
				for _, x := range []float64{1, 0.5, 0, 0.5, 1} {
					fmt.Fprintf(&cp, "%9.5f %9.5f\n", x, -0.1*alpha*(1-x))
				}
				files[f[1]] = cp.Bytes()
			}
		}
		files["polar.txt"] = polar.Bytes()
		return &solver.Output{Files: files}, nil
	})
}

func TestLoadOrCompute(t *testing.T) {
	db := openTest(t, 0)
	req := airfoil.AnalysisRequest{Reynolds: []float64{1e5, 2e5}, AlphaStart: -2, AlphaStop: 2, AlphaInc: 1}
	var calls atomic.Int32
	runner := fakeXfoil(&calls)

	first := airfoil.New("naca", profile, 1e5)
	hit, err := db.LoadOrCompute(context.Background(), first, req, runner)
	if err != nil || hit {
		t.Fatalf("first LoadOrCompute = %v, %v; want a computed miss", hit, err)
	}
	if calls.Load() != 2 {
		t.Errorf("solver runs = %d, want one per Reynolds number", calls.Load())
	}

	second := airfoil.New("naca", profile, 1e5)
	hit, err = db.LoadOrCompute(context.Background(), second, req, runner)
	if err != nil || !hit {
		t.Fatalf("second LoadOrCompute = %v, %v; want a hit", hit, err)
	}
	if calls.Load() != 2 {
		t.Errorf("solver ran again on a database hit")
	}
	if !reflect.DeepEqual(second.Polar(), first.Polar()) || !second.HasPressure() {
		t.Error("loaded tables differ from the computed ones")
	}

	// Any change to the inputs is a miss.
	second.Ncrit = 5
	if hit, err := db.LoadOrCompute(context.Background(), second, req, runner); err != nil || hit {
		t.Errorf("changed Ncrit: hit = %v, err = %v", hit, err)
	}
	if calls.Load() != 4 {
		t.Errorf("solver runs = %d, want 4", calls.Load())
	}
}
