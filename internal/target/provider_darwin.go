//go:build darwin

package target

import (
	"context"
	"fmt"
	"image"

	"github.com/hashicorp/go-hclog"

	"github.com/fakeyudi/lapse/internal/processutil"
)

type darwinProvider struct {
	ffmpeg string
	logger hclog.Logger
}

// NewHostProvider returns the Provider for the running platform. On macOS
// only screens are offered; they are discovered through ffmpeg's avfoundation
// device list.
func NewHostProvider(ffmpeg string, logger hclog.Logger) Provider {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &darwinProvider{ffmpeg: ffmpeg, logger: logger.Named("provider")}
}

func (p *darwinProvider) PrimaryDisplay(ctx context.Context) (Geometry, error) {
	out, err := processutil.Output(ctx, "system_profiler", "SPDisplaysDataType")
	if err != nil {
		return Geometry{}, err
	}
	return ParseSystemProfiler(out)
}

func (p *darwinProvider) Sources(ctx context.Context, thumb image.Point) ([]Source, error) {
	// The device listing always exits non-zero because there is no input.
	out, _ := processutil.Output(ctx, p.ffmpeg, "-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", "")
	devices := ParseScreenDevices(out)
	if len(devices) == 0 {
		return nil, fmt.Errorf("avfoundation: no screen capture devices listed")
	}

	sources := make([]Source, 0, len(devices))
	for _, d := range devices {
		s := Source{ID: ScreenID(d.Screen), Kind: KindScreen}
		if d.Screen != 0 {
			s.Name = fmt.Sprintf("Screen %d", d.Screen)
		} else {
			s.Preview = image.Rect(0, 0, thumb.X, thumb.Y)
		}
		sources = append(sources, s)
	}
	return sources, nil
}
