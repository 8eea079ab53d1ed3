package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"github.com/alexiusacademia/gorotor/internal/envelope"
	"github.com/alexiusacademia/gorotor/internal/parse"
	"github.com/alexiusacademia/gorotor/internal/polardb"
	"github.com/alexiusacademia/gorotor/internal/solver"
)

// DefaultFile is read when no configuration file is given.
const DefaultFile = "gorotor.ini"

// Config is the complete run configuration.
type Config struct {
	Solver   SolverConfig
	Format   FormatConfig
	Envelope EnvelopeConfig
	Cache    CacheConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// SolverConfig locates the external solvers.
type SolverConfig struct {
	Xrotor      string
	Xfoil       string
	Timeout     time.Duration
	Workers     int
	KeepWorkDir bool
}

// FormatConfig selects the rotor solver output format. Non-empty column
// names override the format's defaults.
type FormatConfig struct {
	Version  string
	Alpha    string
	Flapwise string
	Edgewise string
	Thrust   string
	Torque   string
}

// EnvelopeConfig tunes the envelope reduction.
type EnvelopeConfig struct {
	Tolerance float64
}

// CacheConfig locates the polar database.
type CacheConfig struct {
	Dir      string
	MaxFiles int
}

// LogConfig sets up logging.
type LogConfig struct {
	Level  string
	Format string // text or json
}

// MetricsConfig enables the metrics textfile export. An empty Textfile
// disables it.
type MetricsConfig struct {
	Textfile string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Solver: SolverConfig{
			Xrotor:  "xrotor",
			Xfoil:   "xfoil",
			Timeout: solver.DefaultTimeout,
			Workers: runtime.NumCPU(),
		},
		Format:   FormatConfig{Version: parse.DefaultVersion},
		Envelope: EnvelopeConfig{Tolerance: envelope.DefaultTolerance},
		Cache:    CacheConfig{Dir: ".gorotor/polars", MaxFiles: polardb.DefaultMaxEntries},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the ini file at path. Invalid values are logged and replaced by
// their defaults.
func Load(path string, logger logrus.FieldLogger) (Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return load(f, logger), nil
}

// Parse reads configuration from ini text.
func Parse(data []byte, logger logrus.FieldLogger) (Config, error) {
	f, err := ini.Load(data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return load(f, logger), nil
}

func load(f *ini.File, logger logrus.FieldLogger) Config {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	l := &loader{f: f, log: logger}
	cfg := Default()

	cfg.Solver.Xrotor = l.string("solver", "xrotor", cfg.Solver.Xrotor)
	cfg.Solver.Xfoil = l.string("solver", "xfoil", cfg.Solver.Xfoil)
	cfg.Solver.Timeout = l.duration("solver", "timeout", cfg.Solver.Timeout)
	cfg.Solver.Workers = l.int("solver", "workers", cfg.Solver.Workers)
	cfg.Solver.KeepWorkDir = l.bool("solver", "keep_workdir", cfg.Solver.KeepWorkDir)

	cfg.Format.Version = l.string("format", "version", cfg.Format.Version)
	if _, err := parse.Lookup(cfg.Format.Version); err != nil {
		l.warn("format", "version", cfg.Format.Version, parse.DefaultVersion)
		cfg.Format.Version = parse.DefaultVersion
	}
	cfg.Format.Alpha = l.string("format", "alpha", "")
	cfg.Format.Flapwise = l.string("format", "flapwise", "")
	cfg.Format.Edgewise = l.string("format", "edgewise", "")
	cfg.Format.Thrust = l.string("format", "thrust", "")
	cfg.Format.Torque = l.string("format", "torque", "")

	cfg.Envelope.Tolerance = l.float("envelope", "tolerance", cfg.Envelope.Tolerance)

	cfg.Cache.Dir = l.string("cache", "dir", cfg.Cache.Dir)
	cfg.Cache.MaxFiles = l.int("cache", "max_files", cfg.Cache.MaxFiles)

	cfg.Log.Level = l.string("log", "level", cfg.Log.Level)
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		l.warn("log", "level", cfg.Log.Level, "info")
		cfg.Log.Level = "info"
	}
	cfg.Log.Format = strings.ToLower(l.string("log", "format", cfg.Log.Format))
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		l.warn("log", "format", cfg.Log.Format, "text")
		cfg.Log.Format = "text"
	}

	cfg.Metrics.Textfile = l.string("metrics", "textfile", "")
	return cfg
}

// loader reads typed keys, keeping the default for absent or invalid values.
type loader struct {
	f   *ini.File
	log logrus.FieldLogger
}

func (l *loader) key(section, name string) (*ini.Key, bool) {
	s, err := l.f.GetSection(section)
	if err != nil || !s.HasKey(name) {
		return nil, false
	}
	k := s.Key(name)
	return k, strings.TrimSpace(k.String()) != ""
}

func (l *loader) warn(section, name string, value, def any) {
	l.log.WithFields(logrus.Fields{
		"key":     section + "." + name,
		"value":   value,
		"default": def,
	}).Warn("invalid config value, using default")
}

func (l *loader) string(section, name, def string) string {
	if k, ok := l.key(section, name); ok {
		return strings.TrimSpace(k.String())
	}
	return def
}

func (l *loader) int(section, name string, def int) int {
	k, ok := l.key(section, name)
	if !ok {
		return def
	}
	v, err := k.Int()
	if err != nil || v <= 0 {
		l.warn(section, name, k.String(), def)
		return def
	}
	return v
}

func (l *loader) float(section, name string, def float64) float64 {
	k, ok := l.key(section, name)
	if !ok {
		return def
	}
	v, err := k.Float64()
	if err != nil || v < 0 {
		l.warn(section, name, k.String(), def)
		return def
	}
	return v
}

func (l *loader) duration(section, name string, def time.Duration) time.Duration {
	k, ok := l.key(section, name)
	if !ok {
		return def
	}
	v, err := k.Duration()
	if err != nil || v <= 0 {
		l.warn(section, name, k.String(), def)
		return def
	}
	return v
}

func (l *loader) bool(section, name string, def bool) bool {
	k, ok := l.key(section, name)
	if !ok {
		return def
	}
	v, err := k.Bool()
	if err != nil {
		l.warn(section, name, k.String(), def)
		return def
	}
	return v
}

// Resolve returns the configured output format with column overrides applied.
func (c FormatConfig) Resolve() (parse.Format, error) {
	f, err := parse.Lookup(c.Version)
	if err != nil {
		return parse.Format{}, err
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&f.Oper.Alpha, c.Alpha)
	override(&f.Bend.Flapwise, c.Flapwise)
	override(&f.Bend.Edgewise, c.Edgewise)
	override(&f.Bend.Thrust, c.Thrust)
	override(&f.Bend.Torque, c.Torque)
	return f, f.Validate()
}

// Apply sets the level and formatter of logger.
func (c LogConfig) Apply(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	switch c.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
