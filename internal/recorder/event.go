package recorder

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fakeyudi/lapse/internal/artifact"
	"github.com/fakeyudi/lapse/internal/target"
)

// EventType tags an Event.
type EventType int

const (
	// EventStatus carries a Status.
	EventStatus EventType = iota
	// EventLog carries one line of encoder stderr.
	EventLog
	// EventError carries a classified driver failure.
	EventError
	// EventSessionStopped carries the StopResult of a finished session.
	EventSessionStopped
)

func (t EventType) String() string {
	switch t {
	case EventStatus:
		return "status"
	case EventLog:
		return "log"
	case EventError:
		return "error"
	case EventSessionStopped:
		return "sessionStopped"
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// MarshalText renders the type by name.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Status is the periodic capture status reported to observers.
type Status struct {
	IsCapturing bool   `json:"isCapturing"`
	Duration    int    `json:"duration"`
	Error       string `json:"error,omitempty"`
}

// StopResult describes how a session ended.
type StopResult struct {
	SessionID string                 `json:"sessionId"`
	State     State                  `json:"state"`
	Artifact  artifact.VideoArtifact `json:"artifact"`
	ExitCode  int                    `json:"exitCode"`
	// Forced is true when the encoder had to be terminated or killed.
	Forced   bool          `json:"forced"`
	Duration time.Duration `json:"-"`
	Err      error         `json:"-"`
}

// Event is one notification from the Orchestrator. Exactly one of the
// payload fields is set, according to Type.
type Event struct {
	Type      EventType
	SessionID string
	Status    Status
	Line      string
	Err       error
	Result    *StopResult
}

// IsTick reports whether e is a periodic recording status. Ticks may be
// dropped for slow subscribers; nothing else is.
func (e Event) IsTick() bool {
	return e.Type == EventStatus && e.Status.IsCapturing
}

type eventJSON struct {
	Type      EventType   `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Status    *Status     `json:"status,omitempty"`
	Line      string      `json:"line,omitempty"`
	Error     string      `json:"error,omitempty"`
	Kind      string      `json:"kind,omitempty"`
	Result    *resultJSON `json:"result,omitempty"`
}

type resultJSON struct {
	*StopResult
	Duration int    `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// MarshalJSON renders the event as one self-describing JSON object.
func (e Event) MarshalJSON() ([]byte, error) {
	out := eventJSON{Type: e.Type, SessionID: e.SessionID}
	switch e.Type {
	case EventStatus:
		st := e.Status
		out.Status = &st
	case EventLog:
		out.Line = e.Line
	case EventError:
		if e.Err != nil {
			out.Error = e.Err.Error()
		}
		var ce *CaptureError
		if errors.As(e.Err, &ce) {
			out.Kind = ce.Kind.String()
		}
	case EventSessionStopped:
		if e.Result != nil {
			r := &resultJSON{StopResult: e.Result, Duration: int(e.Result.Duration / time.Second)}
			if e.Result.Err != nil {
				r.Error = e.Result.Err.Error()
			}
			out.Result = r
		}
	}
	return json.Marshal(out)
}

// SessionInfo is a snapshot of the current or most recent session.
type SessionInfo struct {
	ID         string        `json:"id"`
	State      State         `json:"state"`
	Target     target.Target `json:"target"`
	Quality    string        `json:"quality"`
	OutputPath string        `json:"outputPath"`
	StartedAt  time.Time     `json:"startedAt"`
	PID        int           `json:"pid,omitempty"`
	// Duration is whole seconds since StartedAt, frozen once stopping began.
	Duration int `json:"duration"`
}
