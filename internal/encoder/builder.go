package encoder

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fakeyudi/lapse/internal/target"
)

const (
	// DefaultMinDimension is the smallest width or height accepted before the
	// fallback resolution is used.
	DefaultMinDimension = 64
	// DefaultScreenDeviceBase is the avfoundation index of "Capture screen 0"
	// on a machine with one camera.
	DefaultScreenDeviceBase = 1
	// DefaultLogLevel is passed to ffmpeg's -loglevel.
	DefaultLogLevel = "info"
	// DefaultDisplay is the X11 display used when $DISPLAY is unset.
	DefaultDisplay = ":0.0"
)

// FallbackWidth and FallbackHeight replace geometries below the floor.
const (
	FallbackWidth  = 1920
	FallbackHeight = 1080
)

// Options tunes how invocations are built.
type Options struct {
	// Display is the X11 display name. Empty means $DISPLAY or DefaultDisplay.
	Display string
	// ScreenDeviceBase is the avfoundation device index of screen 0.
	ScreenDeviceBase int
	// HideCursor suppresses drawing the mouse pointer into frames.
	HideCursor bool
	// MinDimension is the floor for width and height. Zero means
	// DefaultMinDimension.
	MinDimension int
	// LogLevel is ffmpeg's -loglevel. Empty means DefaultLogLevel.
	LogLevel string
}

// Builder builds encoder invocations for one platform.
type Builder struct {
	Platform Platform
	// Binary is recorded on built invocations. Empty means "ffmpeg".
	Binary  string
	Options Options
}

// NewBuilder returns a Builder for the host platform.
func NewBuilder(binary string, opts Options) Builder {
	return Builder{Platform: HostPlatform(), Binary: binary, Options: opts}
}

// OutputPath returns the timestamped file name a capture started at t is
// written to inside dir.
func OutputPath(dir string, t time.Time) string {
	return filepath.Join(dir, "capture-"+t.Format("20060102-150405")+".mp4")
}

// Build returns the invocation recording t into outputPath with profile p.
// It creates the output directory when missing and otherwise has no side
// effects. Build never fails; problems that do not prevent a usable command
// line are reported in Invocation.Warnings.
func (b Builder) Build(t target.Target, outputPath string, p QualityProfile) Invocation {
	inv := Invocation{Binary: b.Binary, Platform: b.Platform}
	if inv.Binary == "" {
		inv.Binary = "ffmpeg"
	}
	if abs, err := filepath.Abs(outputPath); err == nil {
		outputPath = abs
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		inv.Warnings = append(inv.Warnings, fmt.Sprintf("create output directory: %v", err))
	}
	if p.FrameRate <= 0 {
		p = ProfileByName(p.Name)
	}

	w, h := b.dimensions(t.Geometry)
	in := input{target: t, width: w, height: h}

	args := []string{"-hide_banner", "-loglevel", b.logLevel(), "-y"}
	var locator []string
	switch b.Platform {
	case DesktopCompositor:
		locator = b.desktopCompositor(in, &inv)
	case NativeWindowing:
		locator = b.nativeWindowing(in, &inv)
	default:
		locator = b.x11(in)
	}
	args = append(args, b.driverFlags(p)...)
	args = append(args, "-video_size", strconv.Itoa(w)+"x"+strconv.Itoa(h))
	args = append(args, locator...)
	args = append(args,
		"-c:v", "libx264",
		"-preset", p.Preset,
		"-crf", strconv.Itoa(p.Quality),
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(p.FrameRate),
		outputPath,
	)
	inv.args = args
	return inv
}

type input struct {
	target        target.Target
	width, height int
}

func (b Builder) logLevel() string {
	if b.Options.LogLevel != "" {
		return b.Options.LogLevel
	}
	return DefaultLogLevel
}

func (b Builder) minDimension() int {
	if b.Options.MinDimension > 0 {
		return b.Options.MinDimension
	}
	return DefaultMinDimension
}

// dimensions rounds the geometry down to even numbers and replaces sizes
// below the floor with the fallback resolution.
func (b Builder) dimensions(g target.Geometry) (int, int) {
	w, h := g.Width&^1, g.Height&^1
	floor := b.minDimension()
	if w < floor || h < floor {
		return FallbackWidth &^ 1, FallbackHeight &^ 1
	}
	return w, h
}

func (b Builder) driverFlags(p QualityProfile) []string {
	flags := []string{
		"-f", b.Platform.Driver(),
		"-thread_queue_size", strconv.Itoa(p.ThreadQueueSize),
		"-rtbufsize", p.BufferSize,
		"-framerate", strconv.Itoa(p.FrameRate),
	}
	cursor := "1"
	if b.Options.HideCursor {
		cursor = "0"
	}
	if b.Platform == NativeWindowing {
		return append(flags, "-capture_cursor", cursor)
	}
	return append(flags, "-draw_mouse", cursor)
}

func (b Builder) desktopCompositor(in input, inv *Invocation) []string {
	t := in.target
	if t.Kind == target.KindWindow {
		if SafeTitle(t.DisplayName) {
			return []string{"-i", "title=" + t.DisplayName}
		}
		inv.Warnings = append(inv.Warnings,
			fmt.Sprintf("window title %q cannot be matched by gdigrab, capturing its screen area", t.DisplayName))
		return offsets(t.Geometry)
	}
	if t.Geometry.X != 0 || t.Geometry.Y != 0 {
		return offsets(t.Geometry)
	}
	return []string{"-i", "desktop"}
}

func offsets(g target.Geometry) []string {
	return []string{
		"-offset_x", strconv.Itoa(g.X),
		"-offset_y", strconv.Itoa(g.Y),
		"-i", "desktop",
	}
}

func (b Builder) nativeWindowing(in input, inv *Invocation) []string {
	screen := 0
	if n, ok := target.ScreenIndex(in.target.ID); ok {
		screen = n
	} else if in.target.Kind == target.KindWindow {
		inv.Warnings = append(inv.Warnings, "window capture is not supported by avfoundation, capturing screen 0")
	}
	return []string{"-i", strconv.Itoa(b.Options.ScreenDeviceBase+screen) + ":none"}
}

func (b Builder) x11(in input) []string {
	display := b.Options.Display
	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	if display == "" {
		display = DefaultDisplay
	}
	g := in.target.Geometry
	return []string{"-i", display + "+" + strconv.Itoa(g.X) + "," + strconv.Itoa(g.Y)}
}

// SafeTitle reports whether gdigrab can match title verbatim. Titles with
// characters outside printable ASCII, or with quotes and backslashes, are
// captured by coordinates instead.
func SafeTitle(title string) bool {
	if title == "" {
		return false
	}
	for _, r := range title {
		if r < 0x20 || r > 0x7e {
			return false
		}
		switch r {
		case '"', '\\', '`':
			return false
		}
	}
	return true
}
