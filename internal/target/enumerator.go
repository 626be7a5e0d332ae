package target

import (
	"context"
	"fmt"
	"image"

	"github.com/hashicorp/go-hclog"
)

const (
	// PreviewScale is the factor previews are scaled down by when requested,
	// and scaled back up by when estimating window geometry.
	PreviewScale = 4

	minEstimateWidth  = 640
	minEstimateHeight = 480
)

var (
	// FallbackDisplay is used when the primary display cannot be queried.
	FallbackDisplay = Geometry{Width: 1920, Height: 1080}
	// DefaultWindowGeometry replaces implausibly small window estimates.
	DefaultWindowGeometry = Geometry{Width: 1280, Height: 720}
)

// Enumerator lists capture targets from a Provider.
type Enumerator struct {
	provider Provider
	rules    Rules
	filters  []Filter
	logger   hclog.Logger
}

// NewEnumerator returns an Enumerator over p. A nil logger discards output.
func NewEnumerator(p Provider, rules Rules, logger hclog.Logger) *Enumerator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Enumerator{
		provider: p,
		rules:    rules,
		filters:  Pipeline,
		logger:   logger.Named("targets"),
	}
}

// List returns the capture targets currently available. It never fails and
// never returns an empty slice: the whole-screen target always comes first,
// and any provider failure degrades to that target alone.
func (e *Enumerator) List(ctx context.Context) (targets []Target) {
	screen := Target{
		ID:          ScreenID(0),
		DisplayName: "Entire screen",
		Kind:        KindScreen,
		Geometry:    FallbackDisplay,
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("target enumeration panicked", "panic", fmt.Sprint(r))
			targets = []Target{screen}
		}
	}()

	display, displayErr := e.primaryDisplay(ctx)
	screen.Geometry = display
	if displayErr != nil {
		e.logger.Warn("primary display unavailable, using fallback resolution",
			"error", displayErr, "width", display.Width, "height", display.Height)
	}

	thumb := image.Pt(display.Width/PreviewScale, display.Height/PreviewScale)
	sources, err := e.provider.Sources(ctx, thumb)
	if err != nil {
		e.logger.Warn("source enumeration failed, offering the whole screen only", "error", err)
		return []Target{screen}
	}

	var windows, screens []Source
	for _, s := range sources {
		if s.Kind == KindWindow {
			windows = append(windows, s)
		} else {
			screens = append(screens, s)
		}
	}

	targets = append(targets, screen)
	for _, s := range screens {
		if s.ID == screen.ID {
			targets[0].Preview = s.Preview
			if s.Name != "" {
				targets[0].DisplayName = s.Name
			}
			continue
		}
		g := display
		if s.Preview != nil {
			g = scaleUp(s.Preview.Bounds(), s.Origin)
		}
		targets = append(targets, Target{
			ID:          s.ID,
			DisplayName: s.Name,
			Kind:        KindScreen,
			Geometry:    g,
			Preview:     s.Preview,
		})
	}

	fc := NewFilterContext(e.rules, sources)
	kept, rejected := Apply(e.filters, fc, windows)
	for _, r := range rejected {
		e.logger.Trace("window skipped", "id", r.Source.ID, "title", r.Source.Name, "filter", r.Filter)
	}
	for _, s := range kept {
		targets = append(targets, Target{
			ID:          s.ID,
			DisplayName: s.Name,
			Kind:        KindWindow,
			Geometry:    EstimateGeometry(s.Preview.Bounds(), s.Origin),
			Preview:     s.Preview,
		})
	}

	e.logger.Debug("targets enumerated", "sources", len(sources), "targets", len(targets), "skipped", len(rejected))
	return targets
}

func (e *Enumerator) primaryDisplay(ctx context.Context) (Geometry, error) {
	g, err := e.provider.PrimaryDisplay(ctx)
	if err != nil {
		return FallbackDisplay, err
	}
	if g.Width <= 0 || g.Height <= 0 {
		return FallbackDisplay, fmt.Errorf("display reported invalid size %dx%d", g.Width, g.Height)
	}
	return g, nil
}

func scaleUp(preview image.Rectangle, origin image.Point) Geometry {
	return Geometry{
		X:      origin.X,
		Y:      origin.Y,
		Width:  preview.Dx() * PreviewScale,
		Height: preview.Dy() * PreviewScale,
	}
}

// EstimateGeometry converts a preview size back into window pixels. Estimates
// smaller than 640x480 are replaced by DefaultWindowGeometry.
func EstimateGeometry(preview image.Rectangle, origin image.Point) Geometry {
	g := scaleUp(preview, origin)
	if g.Width < minEstimateWidth || g.Height < minEstimateHeight {
		g.Width = DefaultWindowGeometry.Width
		g.Height = DefaultWindowGeometry.Height
	}
	return g
}

// Resolve maps a start command onto a target. id is matched against targets;
// a non-empty hint overrides the display name used for title-based capture.
// Unknown screen ids resolve to a synthetic screen, and unknown window ids
// resolve only when a hint gives the capture driver a title to match.
func Resolve(targets []Target, id, hint string) (Target, bool) {
	for _, t := range targets {
		if t.ID == id {
			if hint != "" {
				t.DisplayName = hint
			}
			return t, true
		}
	}

	if n, ok := ScreenIndex(id); ok {
		g := FallbackDisplay
		if len(targets) > 0 && targets[0].Kind == KindScreen {
			g = targets[0].Geometry
		}
		name := hint
		if name == "" {
			name = fmt.Sprintf("Screen %d", n)
		}
		return Target{ID: id, DisplayName: name, Kind: KindScreen, Geometry: g}, true
	}

	if hint != "" {
		return Target{ID: id, DisplayName: hint, Kind: KindWindow, Geometry: DefaultWindowGeometry}, true
	}
	return Target{}, false
}
