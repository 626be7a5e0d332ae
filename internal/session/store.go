package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNoSession is returned by Load when no session file exists on disk.
var ErrNoSession = errors.New("no active recording")

const (
	recordFile      = "session.json"
	stopRequestFile = "stop-request"
)

// SessionStore persists a Record to disk and carries stop requests between
// processes.
type SessionStore interface {
	Save(r *Record) error
	Load() (*Record, error) // returns ErrNoSession if none exists
	Delete() error          // also clears any pending stop request
	RequestStop() error
	StopRequested() bool
	Dir() string
}

// diskStore is the concrete SessionStore that writes to the XDG data directory.
type diskStore struct {
	dir string
}

// NewSessionStore returns a SessionStore backed by the XDG data directory.
// Path: $XDG_DATA_HOME/lapse/session.json or ~/.local/share/lapse/session.json
func NewSessionStore() (SessionStore, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &diskStore{dir: dir}, nil
}

// dataDir returns the lapse-specific XDG data directory.
func dataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "lapse"), nil
}

func (d *diskStore) Dir() string { return d.dir }

func (d *diskStore) path(name string) string { return filepath.Join(d.dir, name) }

// Save marshals r to JSON and writes it atomically via a temp file + os.Rename.
func (d *diskStore) Save(r *Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}

	// Write to a temp file in the same directory so os.Rename is atomic.
	tmp, err := os.CreateTemp(d.dir, "session-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}

	if err = os.Rename(tmpName, d.path(recordFile)); err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	return nil
}

// Load reads and unmarshals the session file.
// Returns ErrNoSession if the file does not exist.
func (d *diskStore) Load() (*Record, error) {
	data, err := os.ReadFile(d.path(recordFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session state: %w", err)
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse session state: %w", err)
	}
	return &r, nil
}

// Delete removes the session file and any stop request from disk.
func (d *diskStore) Delete() error {
	for _, name := range []string{stopRequestFile, recordFile} {
		if err := os.Remove(d.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete session state: %w", err)
		}
	}
	return nil
}

// RequestStop drops a stop-request file next to the record. The recording
// process notices it through WatchStop.
func (d *diskStore) RequestStop() error {
	if _, err := os.Stat(d.path(recordFile)); errors.Is(err, os.ErrNotExist) {
		return ErrNoSession
	}
	stamp := []byte(time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(d.path(stopRequestFile), stamp, 0o644); err != nil {
		return fmt.Errorf("failed to request stop: %w", err)
	}
	return nil
}

func (d *diskStore) StopRequested() bool {
	_, err := os.Stat(d.path(stopRequestFile))
	return err == nil
}

// ClearStopRequest removes a stale stop request left by an earlier run.
func ClearStopRequest(s SessionStore) error {
	err := os.Remove(filepath.Join(s.Dir(), stopRequestFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
