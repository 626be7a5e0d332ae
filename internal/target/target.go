// Package target enumerates the screens and application windows that can be
// recorded, and filters out the ones that are not worth offering.
package target

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Kind distinguishes whole screens from single application windows.
type Kind int

const (
	KindScreen Kind = iota
	KindWindow
)

func (k Kind) String() string {
	if k == KindWindow {
		return "window"
	}
	return "screen"
}

// MarshalText renders the kind as "screen" or "window" in JSON and YAML.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the forms produced by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "screen":
		*k = KindScreen
	case "window":
		*k = KindWindow
	default:
		return fmt.Errorf("unknown target kind %q", string(b))
	}
	return nil
}

// Geometry is a capture rectangle in screen pixels.
type Geometry struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", g.Width, g.Height, g.X, g.Y)
}

// Target is one screen or window a user may record. Targets are rebuilt on
// every enumeration and carry no identity across refreshes.
type Target struct {
	ID          string   `json:"id" yaml:"id"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Kind        Kind     `json:"kind" yaml:"kind"`
	Geometry    Geometry `json:"geometry" yaml:"geometry"`
	// Preview is a low-resolution thumbnail used for display and geometry
	// estimation only.
	Preview image.Image `json:"-" yaml:"-"`
}

// Source is a raw entry reported by a Provider before filtering.
type Source struct {
	ID   string
	Name string
	Kind Kind
	// Preview is nil when the platform could not render a thumbnail.
	// Providers that only know a window's size report a size-only preview
	// (an image.Rectangle) scaled down by PreviewScale.
	Preview image.Image
	// Origin is the window's top-left corner, when the platform reports it.
	Origin image.Point
}

// Provider is the platform-specific source of displays and windows.
type Provider interface {
	// PrimaryDisplay returns the usable resolution of the main display.
	PrimaryDisplay(ctx context.Context) (Geometry, error)
	// Sources lists screens and windows with previews no larger than thumb.
	Sources(ctx context.Context, thumb image.Point) ([]Source, error)
}

// ScreenID returns the identifier of the n-th screen; "screen:0" is the
// primary display.
func ScreenID(n int) string {
	return "screen:" + strconv.Itoa(n)
}

// ScreenIndex parses a screen identifier produced by ScreenID.
func ScreenIndex(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, "screen:")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// SizePreview returns a blank preview of a w x h window scaled down by
// PreviewScale, for platforms that report window sizes but no thumbnails.
func SizePreview(w, h int) image.Image {
	return image.Rect(0, 0, w/PreviewScale, h/PreviewScale)
}
