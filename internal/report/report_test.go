package report_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/fakeyudi/lapse/internal/artifact"
	"github.com/fakeyudi/lapse/internal/procstat"
	"github.com/fakeyudi/lapse/internal/recorder"
	"github.com/fakeyudi/lapse/internal/report"
	"github.com/fakeyudi/lapse/internal/session"
	"github.com/fakeyudi/lapse/internal/target"
)

var started = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

func sampleCapture() *report.Capture {
	info := recorder.SessionInfo{
		ID:      "0b7c",
		State:   recorder.StateRecording,
		Quality: "high",
		Target: target.Target{
			ID:          "x11:0x3a00003",
			DisplayName: "Terminal",
			Kind:        target.KindWindow,
			Geometry:    target.Geometry{X: 10, Y: 20, Width: 1280, Height: 720},
		},
		OutputPath: "/rec/capture-20260504-103000.mp4",
		StartedAt:  started,
	}
	res := &recorder.StopResult{
		SessionID: "0b7c",
		State:     recorder.StateStopped,
		Artifact:  artifact.VideoArtifact{Path: info.OutputPath, SizeBytes: 52_000, Valid: true},
		Forced:    true,
		ExitCode:  255,
		Duration:  125 * time.Second,
		Err:       errors.New("encoder needed to be terminated"),
	}
	return report.NewCapture(info, res)
}

func TestNewCapture(t *testing.T) {
	c := sampleCapture()
	assert.Equal(t, "stopped", c.State)
	assert.Equal(t, 125, c.Duration)
	assert.True(t, c.Forced)
	assert.Equal(t, 255, c.ExitCode)
	assert.Equal(t, "encoder needed to be terminated", c.Error)
	assert.True(t, c.Artifact.Valid)
}

func TestNewCaptureWithoutResult(t *testing.T) {
	info := recorder.SessionInfo{ID: "a", State: recorder.StateFailed, OutputPath: "/rec/x.mp4"}
	c := report.NewCapture(info, nil)
	assert.Equal(t, "failed", c.State)
	assert.Equal(t, "/rec/x.mp4", c.Artifact.Path)
	assert.False(t, c.Artifact.Valid)
}

func TestCaptureText(t *testing.T) {
	out, err := (&report.TextRenderer{}).Render(sampleCapture())
	require.NoError(t, err)

	text := string(out)
	for _, want := range []string{
		"Capture 0b7c",
		"Terminal (x11:0x3a00003)",
		"Duration: 2m5s",
		"255 (forced)",
		"50.8 KiB (valid)",
		"Error:    encoder needed to be terminated",
	} {
		assert.Contains(t, text, want)
	}
}

func TestCaptureJSONShape(t *testing.T) {
	out, err := (&report.JSONRenderer{}).Render(sampleCapture())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "window", m["target"].(map[string]any)["kind"])
	assert.Equal(t, float64(125), m["duration_seconds"])
	assert.Equal(t, true, m["artifact"].(map[string]any)["valid"])
}

func TestCaptureYAMLShape(t *testing.T) {
	out, err := (&report.YAMLRenderer{}).Render(sampleCapture())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, yaml.Unmarshal(out, &m))
	assert.Equal(t, "stopped", m["state"])
	assert.Equal(t, 125, m["duration_seconds"])
	assert.NotContains(t, string(out), "preview")
}

// Property: a capture report survives rendering and parsing in both
// structured formats.
func TestCaptureParseRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := &report.Capture{
			SessionID: rapid.StringMatching(`[0-9a-f]{8}`).Draw(t, "id"),
			Target: target.Target{
				ID:          rapid.StringMatching(`screen:[0-9]|x11:0x[0-9a-f]{6}`).Draw(t, "target"),
				DisplayName: rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{0,20}`).Draw(t, "name"),
				Kind:        rapid.SampledFrom([]target.Kind{target.KindScreen, target.KindWindow}).Draw(t, "kind"),
			},
			Quality:   rapid.SampledFrom([]string{"low", "high"}).Draw(t, "quality"),
			State:     rapid.SampledFrom([]string{"stopped", "failed"}).Draw(t, "state"),
			StartedAt: time.Unix(rapid.Int64Range(1_600_000_000, 1_900_000_000).Draw(t, "start"), 0).UTC(),
			Duration:  rapid.IntRange(0, 86_400).Draw(t, "duration"),
			ExitCode:  rapid.IntRange(-1, 255).Draw(t, "exit"),
			Forced:    rapid.Bool().Draw(t, "forced"),
			Artifact: artifact.VideoArtifact{
				Path:      "/rec/" + rapid.StringMatching(`[a-z]{1,12}\.mp4`).Draw(t, "file"),
				SizeBytes: rapid.Int64Range(0, 1<<40).Draw(t, "size"),
			},
		}
		c.Artifact.Valid = c.Artifact.SizeBytes >= artifact.MinSizeBytes

		for _, r := range []report.Renderer{&report.JSONRenderer{}, &report.YAMLRenderer{}} {
			out, err := r.Render(c)
			if err != nil {
				t.Fatalf("%T: %v", r, err)
			}
			got, err := report.ParseCapture(out)
			if err != nil {
				t.Fatalf("%T: parse: %v\n%s", r, err, out)
			}
			if !got.StartedAt.Equal(c.StartedAt) {
				t.Fatalf("%T: started_at %v, want %v", r, got.StartedAt, c.StartedAt)
			}
			got.StartedAt = c.StartedAt
			if *got != *c {
				t.Fatalf("%T: got %+v, want %+v", r, *got, *c)
			}
		}
	})
}

func TestParseCaptureRejectsOtherDocuments(t *testing.T) {
	_, err := report.ParseCapture([]byte(`{"targets": []}`))
	assert.Error(t, err)
	_, err = report.ParseCapture([]byte("{not json"))
	assert.Error(t, err)
}

func TestTargetListText(t *testing.T) {
	list := &report.TargetList{Targets: []target.Target{
		{ID: "screen:0", DisplayName: "Entire screen", Kind: target.KindScreen, Geometry: target.Geometry{Width: 2560, Height: 1440}},
		{ID: "x11:0x1", DisplayName: "Editor", Kind: target.KindWindow, Geometry: target.Geometry{Width: 1280, Height: 720}},
	}}
	out, err := (&report.TextRenderer{}).Render(list)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "2560x1440+0+0")
	assert.Contains(t, lines[2], "window")
}

func TestStatusText(t *testing.T) {
	none, err := (&report.TextRenderer{}).Render(&report.Status{})
	require.NoError(t, err)
	assert.Equal(t, "No active recording.\n", string(none))

	rec := &session.Record{ID: "s1", RecorderPID: 42, TargetID: "screen:0", TargetName: "Entire screen", Quality: "low", StartTime: started}
	stale, err := (&report.TextRenderer{}).Render(&report.Status{Session: rec, Stale: true})
	require.NoError(t, err)
	assert.Contains(t, string(stale), "recorder pid 42 is not running")

	live := &report.Status{
		Recording:   true,
		Session:     rec,
		Elapsed:     "1m0s",
		OutputBytes: 2048,
		Encoder:     &procstat.Stats{PID: 43, CPUPercent: 12.5, RSSBytes: 64 << 20},
	}
	out, err := (&report.TextRenderer{}).Render(live)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Elapsed:  1m0s")
	assert.Contains(t, string(out), "pid 43, 12.5% CPU, 64.0 MiB RSS")
	assert.Contains(t, string(out), "(2.0 KiB)")
}

func TestArtifactDocumentJSONIsFlat(t *testing.T) {
	doc := &report.Artifact{VideoArtifact: artifact.VideoArtifact{Path: "/x.mp4", SizeBytes: 9_999}}
	out, err := (&report.JSONRenderer{}).Render(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"/x.mp4","size_bytes":9999,"valid":false}`, string(out))
}

func TestRendererFor(t *testing.T) {
	for format, want := range map[string]report.Renderer{
		"":     &report.TextRenderer{},
		"text": &report.TextRenderer{},
		"JSON": &report.JSONRenderer{},
		"yaml": &report.YAMLRenderer{},
		"yml":  &report.YAMLRenderer{},
	} {
		got, err := report.RendererFor(format)
		require.NoError(t, err, format)
		assert.IsType(t, want, got, format)
	}
	_, err := report.RendererFor("markdown")
	assert.Error(t, err)
}
