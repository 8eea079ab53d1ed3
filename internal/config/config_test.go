package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/alexiusacademia/gorotor/internal/parse"
)

func TestParse(t *testing.T) {
	data := []byte(`
[solver]
xrotor = /opt/xrotor/bin/xrotor
timeout = 45s
workers = 3
keep_workdir = true

[format]
flapwise = My

[envelope]
tolerance = 1e-6

[cache]
dir = /tmp/polars
max_files = 10

[log]
level = debug
format = JSON

[metrics]
textfile = loads.prom
`)
	logger, hook := logtest.NewNullLogger()
	cfg, err := Parse(data, logger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(hook.AllEntries()) != 0 {
		t.Errorf("unexpected warnings: %v", hook.AllEntries())
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"xrotor", cfg.Solver.Xrotor, "/opt/xrotor/bin/xrotor"},
		{"xfoil", cfg.Solver.Xfoil, "xfoil"},
		{"timeout", cfg.Solver.Timeout, 45 * time.Second},
		{"workers", cfg.Solver.Workers, 3},
		{"keep_workdir", cfg.Solver.KeepWorkDir, true},
		{"version", cfg.Format.Version, parse.DefaultVersion},
		{"flapwise", cfg.Format.Flapwise, "My"},
		{"tolerance", cfg.Envelope.Tolerance, 1e-6},
		{"cache dir", cfg.Cache.Dir, "/tmp/polars"},
		{"max_files", cfg.Cache.MaxFiles, 10},
		{"log level", cfg.Log.Level, "debug"},
		{"log format", cfg.Log.Format, "json"},
		{"textfile", cfg.Metrics.Textfile, "loads.prom"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestParseInvalidValues(t *testing.T) {
	data := []byte(`
[solver]
timeout = soon
workers = -2
keep_workdir = maybe

[format]
version = xrotor-1.0

[envelope]
tolerance = -1

[cache]
max_files = many

[log]
level = loud
format = xml
`)
	logger, hook := logtest.NewNullLogger()
	cfg, err := Parse(data, logger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	def := Default()
	if cfg != def {
		t.Errorf("Parse() = %+v, want defaults %+v", cfg, def)
	}
	if n := len(hook.AllEntries()); n != 8 {
		t.Errorf("%d warnings, want 8", n)
	}
	for _, e := range hook.AllEntries() {
		if e.Level != logrus.WarnLevel || e.Data["key"] == nil || e.Data["default"] == nil {
			t.Errorf("warning %q fields %v", e.Message, e.Data)
		}
	}
}

func TestLoad(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	if _, err := Load(filepath.Join(t.TempDir(), "missing.ini"), logger); err == nil {
		t.Error("Load of a missing file succeeded")
	}

	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte("[solver]\nworkers = 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path, logger)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Solver.Workers != 2 || cfg.Cache.MaxFiles != Default().Cache.MaxFiles {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestFormatResolve(t *testing.T) {
	f, err := FormatConfig{Version: parse.DefaultVersion, Flapwise: "My", Alpha: "alpha"}.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	def, _ := parse.Lookup(parse.DefaultVersion)
	if f.Bend.Flapwise != "My" || f.Oper.Alpha != "alpha" || f.Bend.Edgewise != def.Bend.Edgewise {
		t.Errorf("Resolve() = %+v", f)
	}
	if _, err := (FormatConfig{Version: "nope"}).Resolve(); err == nil {
		t.Error("unknown version resolved")
	}
}

func TestLogApply(t *testing.T) {
	logger := logrus.New()
	if err := (LogConfig{Level: "warn", Format: "json"}).Apply(logger); err != nil {
		t.Fatal(err)
	}
	if logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("level = %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter = %T", logger.Formatter)
	}
	if err := (LogConfig{Level: "loud"}).Apply(logger); err == nil {
		t.Error("invalid level applied")
	}
}
