// Package shasplit implements the content-addressed backup engine: a
// single-writer, single-reader repository that splits an input stream into
// fixed-size parts, stores each part once by digest, and records each
// backup as an ordered sequence of references into that shared store.
package shasplit

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Default configuration values, matching the original shasplit's defaults
// except for Algorithm (see DESIGN.md for the rationale).
const (
	DefaultAlgorithm      = "sha256"
	DefaultPartSize       = 1 << 20 // 1 MiB
	DefaultMaxParts       = 1000000
	DefaultDirectory      = "~/.shasplit"
	DefaultSnapshotSuffix = "-shasplit-snap"
	DefaultSnapshotSize   = 1 << 30 // 1 GiB
)

// Config holds the explicit, validated configuration the engine is
// constructed with, replacing the original's module-level globals and class
// defaults.
type Config struct {
	Directory      string // repository root, "~" expanded
	Algorithm      string // fixed for the lifetime of a repository
	PartSize       int64
	MaxParts       int64
	SnapshotSuffix string // LVM snapshot name suffix
	SnapshotSize   int64  // LVM snapshot size in bytes
}

// DefaultConfig returns a Config populated with shasplit's defaults.
func DefaultConfig() Config {
	return Config{
		Directory:      DefaultDirectory,
		Algorithm:      DefaultAlgorithm,
		PartSize:       DefaultPartSize,
		MaxParts:       DefaultMaxParts,
		SnapshotSuffix: DefaultSnapshotSuffix,
		SnapshotSize:   DefaultSnapshotSize,
	}
}

// Repository is the content-addressed backup engine operating on one
// repository directory. It is safe to reuse across operations but only one
// mutating operation may run against a given repository directory at a
// time; this is a documented precondition, not enforced by a lock.
type Repository struct {
	cfg      Config
	log      *logrus.Entry
	now      func() time.Time // clock collaborator; overridable for tests
	progress Reporter
}

// New validates cfg and returns a Repository rooted at cfg.Directory.
// It does not create the directory; the first mutating operation does, via
// the filesystem primitives in fsutil.go.
func New(cfg Config, log *logrus.Entry) (*Repository, error) {
	dir, err := expandHome(cfg.Directory)
	if err != nil {
		return nil, err
	}
	cfg.Directory = dir

	if cfg.Algorithm, err = ValidateAlgorithm(cfg.Algorithm); err != nil {
		return nil, err
	}
	if cfg.PartSize, err = ValidatePositive("partsize", cfg.PartSize); err != nil {
		return nil, err
	}
	if cfg.MaxParts, err = ValidatePositive("maxparts", cfg.MaxParts); err != nil {
		return nil, err
	}
	if cfg.SnapshotSize, err = ValidatePositive("snapshotsize", cfg.SnapshotSize); err != nil {
		return nil, err
	}

	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Repository{cfg: cfg, log: log, now: time.Now, progress: noopReporter{}}, nil
}

// Config returns the repository's configuration.
func (r *Repository) Config() Config { return r.cfg }

// SetClock overrides the repository's clock collaborator. Intended for
// tests that need deterministic or colliding timestamps; production code
// never needs to call it.
func (r *Repository) SetClock(now func() time.Time) { r.now = now }

// path joins rel onto the repository root.
func (r *Repository) path(rel string) string {
	return filepath.Join(r.cfg.Directory, rel)
}

func expandHome(dir string) (string, error) {
	if dir == "~" || len(dir) >= 2 && dir[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if dir == "~" {
			return home, nil
		}
		return filepath.Join(home, dir[2:]), nil
	}
	return dir, nil
}
