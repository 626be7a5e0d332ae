package recorder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fakeyudi/lapse/internal/encoder"
)

var (
	// ErrBinaryNotFound is returned by Start when the encoder executable is
	// missing. No process is spawned.
	ErrBinaryNotFound = encoder.ErrBinaryNotFound
	// ErrSpawnFailure wraps OS errors from starting the encoder.
	ErrSpawnFailure = errors.New("encoder failed to start")
	// ErrRuntimeExit is matched by *ExitError.
	ErrRuntimeExit = errors.New("encoder exited unexpectedly")
	// ErrShutdownEscalation wraps errors from signalling the encoder during
	// Stop. It is logged and never blocks cleanup.
	ErrShutdownEscalation = errors.New("encoder shutdown signal failed")
)

// ExitError reports an encoder that exited on its own while recording.
type ExitError struct {
	Code int
	// Detail is the last driver error seen on stderr, if any.
	Detail string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("encoder exited with code %d", e.Code)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap lets errors.Is(err, ErrRuntimeExit) match.
func (e *ExitError) Unwrap() error {
	return ErrRuntimeExit
}

// CaptureErrorKind classifies driver failures reported on stderr.
type CaptureErrorKind int

const (
	// DeviceRejected means the capture driver refused the requested window,
	// device or area.
	DeviceRejected CaptureErrorKind = iota + 1
	// PermissionDenied means the OS refused screen capture.
	PermissionDenied
	// DisplayUnavailable means the display server could not be reached.
	DisplayUnavailable
)

func (k CaptureErrorKind) String() string {
	switch k {
	case DeviceRejected:
		return "device rejected"
	case PermissionDenied:
		return "permission denied"
	case DisplayUnavailable:
		return "display unavailable"
	}
	return "unknown"
}

// CaptureError is a structured driver failure recognised in encoder output.
type CaptureError struct {
	Kind CaptureErrorKind
	Line string
}

func (e *CaptureError) Error() string {
	return e.Kind.String() + ": " + strings.TrimSpace(e.Line)
}
