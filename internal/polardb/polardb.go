// Package polardb stores computed airfoil polars on disk, keyed by a hash of
// everything that determines them, so that a repeated analysis with the same
// inputs is loaded instead of recomputed.
package polardb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alexiusacademia/gorotor/internal/airfoil"
	"github.com/alexiusacademia/gorotor/internal/metrics"
	"github.com/alexiusacademia/gorotor/internal/solver"
)

// FormatVersion is the on-disk layout version. It is part of every signature,
// so changing it orphans existing entries.
const FormatVersion = 1

const (
	polarExt = ".polar"
	cpExt    = ".cp"
)

// DefaultMaxEntries is the number of entries kept when none is configured.
const DefaultMaxEntries = 50

var (
	// ErrNotFound is returned by Load when no entry has the signature.
	ErrNotFound = errors.New("polar not in database")
	// ErrSignatureMismatch is returned by Load when an entry's stored
	// signature disagrees with its file name.
	ErrSignatureMismatch = errors.New("stored polar signature mismatch")
)

// Request is everything that determines a computed polar.
type Request struct {
	Coordinates []airfoil.Point
	Reynolds    []float64
	Alphas      []float64
	Ncrit       float64
	IterLimit   int
}

// RequestFor builds the request for analysing a under req.
func RequestFor(a *airfoil.Airfoil, req airfoil.AnalysisRequest) Request {
	return Request{
		Coordinates: a.Coordinates,
		Reynolds:    req.Reynolds,
		Alphas:      req.Alphas(),
		Ncrit:       a.Ncrit,
		IterLimit:   a.IterLimit,
	}
}

// Signature returns the hex SHA-256 of the request.
func (r Request) Signature() string {
	h := sha256.New()
	g := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	fmt.Fprintf(h, "format %d\n", FormatVersion)
	fmt.Fprintf(h, "coordinates %d\n", len(r.Coordinates))
	for _, p := range r.Coordinates {
		fmt.Fprintf(h, "%s %s\n", g(p.X), g(p.Y))
	}
	fmt.Fprintf(h, "reynolds %d\n", len(r.Reynolds))
	for _, re := range r.Reynolds {
		fmt.Fprintln(h, g(re))
	}
	fmt.Fprintf(h, "alphas %d\n", len(r.Alphas))
	for _, a := range r.Alphas {
		fmt.Fprintln(h, g(a))
	}
	fmt.Fprintf(h, "ncrit %s\niter %d\n", g(r.Ncrit), r.IterLimit)
	return hex.EncodeToString(h.Sum(nil))
}

// Entry is one stored polar with its pressure curves.
type Entry struct {
	Signature string
	Airfoil   string
	Points    []airfoil.PolarPoint
	Curves    []airfoil.PressureCurve
}

// DB is a directory of polar entries. Each entry is a <signature>.polar file
// and, when pressure curves were computed, a <signature>.cp file.
type DB struct {
	dir        string
	maxEntries int
	logger     logrus.FieldLogger
}

// Open creates dir if needed and returns a database keeping at most
// maxEntries entries.
func Open(dir string, maxEntries int, logger logrus.FieldLogger) (*DB, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating polar database: %w", err)
	}
	return &DB{dir: dir, maxEntries: maxEntries, logger: logger}, nil
}

// Dir returns the database directory.
func (db *DB) Dir() string {
	return db.dir
}

func (db *DB) path(sig, ext string) string {
	return filepath.Join(db.dir, sig+ext)
}

// Load reads the entry stored under sig.
func (db *DB) Load(sig string) (*Entry, error) {
	f, err := os.Open(db.path(sig, polarExt))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", sig, ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()

	e, err := readPolar(f)
	if err != nil {
		return nil, fmt.Errorf("%s%s: %w", sig, polarExt, err)
	}
	if e.Signature != sig {
		return nil, fmt.Errorf("%s: %w: file holds %s", sig, ErrSignatureMismatch, e.Signature)
	}

	cf, err := os.Open(db.path(sig, cpExt))
	switch {
	case err == nil:
		defer cf.Close()
		curveSig, curves, err := readCurves(cf)
		if err != nil {
			return nil, fmt.Errorf("%s%s: %w", sig, cpExt, err)
		}
		if curveSig != sig {
			return nil, fmt.Errorf("%s%s: %w: file holds %s", sig, cpExt, ErrSignatureMismatch, curveSig)
		}
		e.Curves = curves
	case !os.IsNotExist(err):
		return nil, err
	}

	// Loaded entries count as recently used when pruning.
	now := time.Now()
	_ = os.Chtimes(db.path(sig, polarExt), now, now)
	return e, nil
}

// Save writes e and prunes the oldest entries beyond the configured limit.
func (db *DB) Save(e *Entry) error {
	if e.Signature == "" {
		return errors.New("polar entry has no signature")
	}
	if err := writeFile(db.path(e.Signature, polarExt), func(w io.Writer) error { return writePolar(w, e) }); err != nil {
		return err
	}
	if len(e.Curves) > 0 {
		if err := writeFile(db.path(e.Signature, cpExt), func(w io.Writer) error { return writeCurves(w, e) }); err != nil {
			return err
		}
	} else if err := os.Remove(db.path(e.Signature, cpExt)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return db.prune()
}

// writeFile writes through a temporary file so readers never see a partial entry.
func writeFile(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("writing polar database: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

type entryFile struct {
	sig     string
	modTime time.Time
}

// Entries lists stored signatures, oldest first.
func (db *DB) Entries() ([]string, error) {
	files, err := db.list()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.sig
	}
	return out, nil
}

func (db *DB) list() ([]entryFile, error) {
	dirEntries, err := os.ReadDir(db.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing polar database: %w", err)
	}
	var files []entryFile
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, polarExt) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		files = append(files, entryFile{sig: strings.TrimSuffix(name, polarExt), modTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].sig < files[j].sig
		}
		return files[i].modTime.Before(files[j].modTime)
	})
	return files, nil
}

func (db *DB) prune() error {
	files, err := db.list()
	if err != nil {
		return err
	}
	if len(files) <= db.maxEntries {
		return nil
	}
	for _, f := range files[:len(files)-db.maxEntries] {
		for _, ext := range []string{polarExt, cpExt} {
			if err := os.Remove(db.path(f.sig, ext)); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("pruning polar %s: %w", f.sig, err)
			}
		}
		db.logger.WithField("signature", f.sig).Debug("pruned polar")
	}
	return nil
}

// LoadOrCompute fills a's tables from the database, or runs the airfoil
// solver and stores the result. It reports whether the database was hit.
// A failed save is logged and does not fail the call.
func (db *DB) LoadOrCompute(ctx context.Context, a *airfoil.Airfoil, req airfoil.AnalysisRequest, runner solver.Runner) (bool, error) {
	if err := req.Validate(); err != nil {
		return false, err
	}
	sig := RequestFor(a, req).Signature()
	log := db.logger.WithFields(logrus.Fields{"airfoil": a.Name, "signature": sig[:12]})

	e, err := db.Load(sig)
	if err == nil {
		if err = e.Apply(a); err == nil {
			metrics.IncPolarCache(true)
			log.Debug("polar loaded from database")
			return true, nil
		}
	}
	if !errors.Is(err, ErrNotFound) {
		log.WithField("error", err).Warn("discarding stored polar")
	}
	metrics.IncPolarCache(false)

	if err := a.Analyze(ctx, runner, req); err != nil {
		return false, err
	}
	e = &Entry{Signature: sig, Airfoil: a.Name, Points: a.Polar(), Curves: a.PressureCurves()}
	if err := db.Save(e); err != nil {
		log.WithField("error", err).Warn("polar not stored")
	} else {
		log.WithField("points", len(e.Points)).Info("polar computed and stored")
	}
	return false, nil
}

// Apply replaces a's polar and, when stored, pressure tables with the entry's.
func (e *Entry) Apply(a *airfoil.Airfoil) error {
	if err := a.SetPolar(e.Points); err != nil {
		return err
	}
	if len(e.Curves) > 0 {
		return a.SetPressure(e.Curves)
	}
	return nil
}
