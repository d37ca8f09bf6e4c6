// Package modelstore persists trained model bundles on disk. Each version
// gets its own directory holding model.json; an ACTIVE pointer file names
// the version served at startup. Writes go through temp-file renames so a
// crash mid-save never leaves a half-written model or pointer.
package modelstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
	"github.com/SuperSonnix71/Xnake/internal/ml/model"
)

const (
	modelFile   = "model.json"
	activeFile  = "ACTIVE"
	dirPerm     = 0o755
	filePerm    = 0o644
)

// Info summarizes one stored version.
type Info struct {
	Version   string             `json:"version"`
	Active    bool               `json:"active"`
	Metrics   types.ModelMetrics `json:"metrics"`
	TrainedAt time.Time          `json:"trained_at"`
}

// Store is a directory-backed model repository.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates the store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the bundle under its version directory.
func (s *Store) Save(b *model.Bundle) error {
	if b.Version == "" {
		return ErrMissingVersion
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vdir := filepath.Join(s.dir, b.Version)
	if err := os.MkdirAll(vdir, dirPerm); err != nil {
		return fmt.Errorf("create version dir: %w", err)
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	return atomicWrite(filepath.Join(vdir, modelFile), data)
}

// Activate points ACTIVE at the version. The version must exist.
func (s *Store) Activate(version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(filepath.Join(s.dir, version, modelFile)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrVersionNotFound, version)
		}
		return fmt.Errorf("stat version %s: %w", version, err)
	}
	return atomicWrite(filepath.Join(s.dir, activeFile), []byte(version+"\n"))
}

// ActiveVersion returns the version named by ACTIVE, or "" when none is set.
func (s *Store) ActiveVersion() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, activeFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read active pointer: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// LoadActive loads the bundle named by ACTIVE. Returns (nil, nil) when no
// model has been activated yet.
func (s *Store) LoadActive() (*model.Bundle, error) {
	version, err := s.ActiveVersion()
	if err != nil {
		return nil, err
	}
	if version == "" {
		return nil, nil
	}
	return s.Load(version)
}

// Load reads one stored version.
func (s *Store) Load(version string) (*model.Bundle, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, version, modelFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, version)
		}
		return nil, fmt.Errorf("read model %s: %w", version, err)
	}

	var b model.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", version, err)
	}
	return &b, nil
}

// List returns every stored version, newest first by training time.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list model dir: %w", err)
	}
	active, err := s.ActiveVersion()
	if err != nil {
		return nil, err
	}

	var infos []Info
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		b, err := s.Load(e.Name())
		if err != nil {
			// Half-written or foreign directory; not a listable version.
			continue
		}
		infos = append(infos, Info{
			Version:   b.Version,
			Active:    b.Version == active,
			Metrics:   b.Metrics,
			TrainedAt: b.TrainedAt,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].TrainedAt.After(infos[j].TrainedAt) })
	return infos, nil
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
