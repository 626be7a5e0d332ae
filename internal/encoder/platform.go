// Package encoder turns a capture target and a quality tier into an ffmpeg
// invocation for the host's screen capture driver.
package encoder

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform selects the capture driver family an invocation is built for.
type Platform int

const (
	// X11 captures through x11grab. It is also the fallback for unknown hosts.
	X11 Platform = iota
	// DesktopCompositor captures through gdigrab, by window title or by
	// desktop coordinates.
	DesktopCompositor
	// NativeWindowing captures through avfoundation by device index.
	NativeWindowing
)

func (p Platform) String() string {
	switch p {
	case DesktopCompositor:
		return "desktop-compositor"
	case NativeWindowing:
		return "native-windowing"
	default:
		return "x11"
	}
}

// Driver returns the ffmpeg input format used on p.
func (p Platform) Driver() string {
	switch p {
	case DesktopCompositor:
		return "gdigrab"
	case NativeWindowing:
		return "avfoundation"
	default:
		return "x11grab"
	}
}

// PlatformFor maps a GOOS value onto a Platform.
func PlatformFor(goos string) Platform {
	switch goos {
	case "windows":
		return DesktopCompositor
	case "darwin", "ios":
		return NativeWindowing
	default:
		return X11
	}
}

// HostPlatform returns the Platform of the running binary.
func HostPlatform() Platform {
	return PlatformFor(runtime.GOOS)
}

// ParsePlatform accepts the names produced by Platform.String as well as the
// driver names.
func ParsePlatform(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "x11", "x11grab":
		return X11, nil
	case "desktop-compositor", "gdigrab":
		return DesktopCompositor, nil
	case "native-windowing", "avfoundation":
		return NativeWindowing, nil
	}
	return X11, fmt.Errorf("unknown platform %q", name)
}
