package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/fakeyudi/lapse/internal/processutil"
	"github.com/fakeyudi/lapse/internal/target"
)

// ErrBinaryNotFound is returned when the encoder executable does not exist.
var ErrBinaryNotFound = errors.New("encoder binary not found")

// ResolveBinary returns the executable path for name. Absolute or relative
// paths must point at an existing regular file; bare names are looked up on
// PATH.
func ResolveBinary(name string) (string, error) {
	if name == "" {
		name = "ffmpeg"
	}
	if filepath.Base(name) != name {
		info, err := os.Stat(name)
		if err != nil || info.IsDir() {
			return "", fmt.Errorf("%w: %s", ErrBinaryNotFound, name)
		}
		return name, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s not on PATH", ErrBinaryNotFound, name)
	}
	return path, nil
}

// ProbeScreenDevices asks ffmpeg for its avfoundation devices and returns the
// index of "Capture screen 0". It is only meaningful on NativeWindowing hosts.
func ProbeScreenDevices(ctx context.Context, binary string) (int, error) {
	// Listing devices always exits non-zero; the output is still complete.
	out, _ := processutil.Output(ctx, binary, "-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", "")
	devices := target.ParseScreenDevices(out)
	if len(devices) == 0 {
		return DefaultScreenDeviceBase, fmt.Errorf("no avfoundation screen devices listed")
	}
	return devices[0].Index - devices[0].Screen, nil
}
