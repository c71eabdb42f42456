// Package settings persists the user's commute configuration as a small
// JSON file. The scheduler core only ever reads snapshots from it; the one
// write path is the settings API, which saves and then replans.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/afero"

	"github.com/avritt/raincheck/internal/commute"
)

// Store reads and writes the commute configuration file. The filesystem is
// abstracted so tests run against an in-memory fs.
type Store struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewStore creates a Store over the given filesystem and file path.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Load returns the stored configuration, or the defaults when no file
// exists yet: weekday commutes, morning 08:00, evening 17:30,
// notifications on, empty addresses.
func (s *Store) Load() (commute.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return commute.DefaultConfig(), nil
		}
		return commute.Config{}, fmt.Errorf("reading settings file: %w", err)
	}

	cfg := commute.DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return commute.Config{}, fmt.Errorf("parsing settings file: %w", err)
	}
	if cfg.Vehicle == "" {
		cfg.Vehicle = commute.VehicleBike
	}
	return cfg, nil
}

// Save writes the configuration back to the file.
func (s *Store) Save(cfg commute.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}
