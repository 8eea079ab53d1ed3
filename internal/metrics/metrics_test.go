package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSolverRun(t *testing.T) {
	before := testutil.ToFloat64(solverRunsTotal.WithLabelValues("xrotor", "ok"))
	ObserveSolverRun("xrotor", "ok", 250*time.Millisecond)
	ObserveSolverRun("xrotor", "ok", 100*time.Millisecond)
	after := testutil.ToFloat64(solverRunsTotal.WithLabelValues("xrotor", "ok"))
	if after-before != 2 {
		t.Errorf("solver runs delta = %v, want 2", after-before)
	}
}

func TestPolarCacheLabels(t *testing.T) {
	hits := testutil.ToFloat64(polarCacheTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(polarCacheTotal.WithLabelValues("miss"))

	IncPolarCache(true)
	IncPolarCache(false)
	IncPolarCache(false)

	if got := testutil.ToFloat64(polarCacheTotal.WithLabelValues("hit")) - hits; got != 1 {
		t.Errorf("hit delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(polarCacheTotal.WithLabelValues("miss")) - misses; got != 2 {
		t.Errorf("miss delta = %v, want 2", got)
	}
}

func TestAddEnvelopeTiesIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(envelopeTiesTotal)
	AddEnvelopeTies(0)
	AddEnvelopeTies(-3)
	AddEnvelopeTies(2)
	if got := testutil.ToFloat64(envelopeTiesTotal) - before; got != 2 {
		t.Errorf("ties delta = %v, want 2", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	IncExtrapolation()
	path := filepath.Join(t.TempDir(), "gorotor.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(data), "gorotor_polar_extrapolations_total") {
		t.Errorf("textfile missing extrapolation counter:\n%s", data)
	}
}
