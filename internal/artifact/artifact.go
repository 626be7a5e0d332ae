// Package artifact inspects the video file an encoder leaves behind once it
// has exited.
package artifact

import (
	"errors"
	"fmt"
	"os"
)

// MinSizeBytes is the smallest file considered a usable recording. Anything
// below it means the encoder started but never wrote real frames.
const MinSizeBytes = 10_000

// ErrInvalidArtifact is returned by VideoArtifact.Err for missing or
// undersized files.
var ErrInvalidArtifact = errors.New("invalid video artifact")

// VideoArtifact is the result of validating a recording on disk.
type VideoArtifact struct {
	Path      string `json:"path" yaml:"path"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes"`
	Valid     bool   `json:"valid" yaml:"valid"`
}

// Validate stats path and classifies the file. It never fails: a missing or
// unreadable file is simply reported as invalid.
func Validate(path string) VideoArtifact {
	a := VideoArtifact{Path: path}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return a
	}
	a.SizeBytes = info.Size()
	a.Valid = a.SizeBytes >= MinSizeBytes
	return a
}

// Err explains why the artifact is invalid, or returns nil for a valid one.
func (a VideoArtifact) Err() error {
	if a.Valid {
		return nil
	}
	if a.SizeBytes == 0 {
		if _, err := os.Stat(a.Path); err != nil {
			return fmt.Errorf("%w: %s is missing", ErrInvalidArtifact, a.Path)
		}
	}
	return fmt.Errorf("%w: %s is %d bytes (minimum %d)", ErrInvalidArtifact, a.Path, a.SizeBytes, MinSizeBytes)
}
