// Package report renders what lapse knows (targets, the running recording,
// a finished capture) for people and for scripts.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fakeyudi/lapse/internal/artifact"
	"github.com/fakeyudi/lapse/internal/procstat"
	"github.com/fakeyudi/lapse/internal/recorder"
	"github.com/fakeyudi/lapse/internal/session"
	"github.com/fakeyudi/lapse/internal/target"
)

// Document is anything a Renderer can emit. Structured renderers marshal the
// value itself; the text renderer calls WriteText.
type Document interface {
	WriteText(w io.Writer)
}

// TargetList is the output of `lapse targets`.
type TargetList struct {
	Targets []target.Target `json:"targets" yaml:"targets"`
}

func (l *TargetList) WriteText(w io.Writer) {
	fmt.Fprintf(w, "%-22s %-7s %-20s %s\n", "ID", "KIND", "GEOMETRY", "NAME")
	for _, t := range l.Targets {
		fmt.Fprintf(w, "%-22s %-7s %-20s %s\n", t.ID, t.Kind, t.Geometry, t.DisplayName)
	}
}

// Status describes the recording owned by another lapse process, if any.
type Status struct {
	Recording bool            `json:"recording" yaml:"recording"`
	Session   *session.Record `json:"session,omitempty" yaml:"session,omitempty"`
	Elapsed   string          `json:"elapsed,omitempty" yaml:"elapsed,omitempty"`
	// OutputBytes is the current size of the file being written.
	OutputBytes int64           `json:"output_bytes,omitempty" yaml:"output_bytes,omitempty"`
	Encoder     *procstat.Stats `json:"encoder,omitempty" yaml:"encoder,omitempty"`
	// Stale is set when a record exists but its recorder process is gone.
	Stale bool `json:"stale,omitempty" yaml:"stale,omitempty"`
}

func (s *Status) WriteText(w io.Writer) {
	if s.Session == nil {
		fmt.Fprintln(w, "No active recording.")
		return
	}
	if s.Stale {
		fmt.Fprintf(w, "Stale recording record %s (recorder pid %d is not running).\n", s.Session.ID, s.Session.RecorderPID)
		fmt.Fprintln(w, "Run 'lapse stop' to clear it.")
		return
	}
	fmt.Fprintln(w, "Recording in progress")
	fmt.Fprintf(w, "  Session:  %s\n", s.Session.ID)
	fmt.Fprintf(w, "  Target:   %s (%s)\n", s.Session.TargetName, s.Session.TargetID)
	fmt.Fprintf(w, "  Quality:  %s\n", s.Session.Quality)
	fmt.Fprintf(w, "  Started:  %s\n", s.Session.StartTime.Format(time.RFC3339))
	fmt.Fprintf(w, "  Elapsed:  %s\n", s.Elapsed)
	fmt.Fprintf(w, "  Output:   %s (%s)\n", s.Session.OutputPath, procstat.HumanBytes(uint64(s.OutputBytes)))
	if s.Encoder != nil {
		fmt.Fprintf(w, "  Encoder:  pid %d, %.1f%% CPU, %s RSS\n",
			s.Encoder.PID, s.Encoder.CPUPercent, procstat.HumanBytes(s.Encoder.RSSBytes))
	}
}

// Capture summarises one finished recording.
type Capture struct {
	SessionID string                 `json:"session_id" yaml:"session_id"`
	Target    target.Target          `json:"target" yaml:"target"`
	Quality   string                 `json:"quality" yaml:"quality"`
	State     string                 `json:"state" yaml:"state"`
	StartedAt time.Time              `json:"started_at" yaml:"started_at"`
	Duration  int                    `json:"duration_seconds" yaml:"duration_seconds"`
	ExitCode  int                    `json:"exit_code" yaml:"exit_code"`
	Forced    bool                   `json:"forced" yaml:"forced"`
	Artifact  artifact.VideoArtifact `json:"artifact" yaml:"artifact"`
	Error     string                 `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewCapture combines the session snapshot taken at start with its result.
func NewCapture(info recorder.SessionInfo, res *recorder.StopResult) *Capture {
	c := &Capture{
		SessionID: info.ID,
		Target:    info.Target,
		Quality:   info.Quality,
		StartedAt: info.StartedAt,
		State:     info.State.String(),
		Artifact:  artifact.VideoArtifact{Path: info.OutputPath},
	}
	if res == nil {
		return c
	}
	c.State = res.State.String()
	c.Duration = int(res.Duration / time.Second)
	c.ExitCode = res.ExitCode
	c.Forced = res.Forced
	c.Artifact = res.Artifact
	if res.Err != nil {
		c.Error = res.Err.Error()
	}
	return c
}

func (c *Capture) WriteText(w io.Writer) {
	fmt.Fprintf(w, "Capture %s\n", c.SessionID)
	fmt.Fprintf(w, "  Target:   %s (%s)\n", c.Target.DisplayName, c.Target.ID)
	fmt.Fprintf(w, "  Quality:  %s\n", c.Quality)
	fmt.Fprintf(w, "  State:    %s\n", c.State)
	fmt.Fprintf(w, "  Duration: %s\n", time.Duration(c.Duration)*time.Second)
	if c.Forced {
		fmt.Fprintf(w, "  Exit:     %d (forced)\n", c.ExitCode)
	} else {
		fmt.Fprintf(w, "  Exit:     %d\n", c.ExitCode)
	}
	writeArtifact(w, c.Artifact)
	if c.Error != "" {
		fmt.Fprintf(w, "  Error:    %s\n", c.Error)
	}
}

// Artifact wraps a validation result as a Document.
type Artifact struct {
	artifact.VideoArtifact `yaml:",inline"`
}

func (a *Artifact) WriteText(w io.Writer) {
	writeArtifact(w, a.VideoArtifact)
}

func writeArtifact(w io.Writer, a artifact.VideoArtifact) {
	verdict := "valid"
	if !a.Valid {
		verdict = "INVALID"
	}
	fmt.Fprintf(w, "  Artifact: %s\n", a.Path)
	fmt.Fprintf(w, "  Size:     %s (%s)\n", procstat.HumanBytes(uint64(a.SizeBytes)), verdict)
}
