package target

import (
	"bufio"
	"fmt"
	"image"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	xrandrPrimaryRe = regexp.MustCompile(`\bconnected\s+primary\s+(\d+)x(\d+)\+(-?\d+)\+(-?\d+)`)
	xrandrCurrentRe = regexp.MustCompile(`current\s+(\d+)\s*x\s*(\d+)`)
	xwininfoRe      = regexp.MustCompile(`^\s*(0x[0-9a-fA-F]+)\s+"(.*)":\s+\(.*\)\s+(\d+)x(\d+)\+(-?\d+)\+(-?\d+)\s+\+(-?\d+)\+(-?\d+)`)
	resolutionRe    = regexp.MustCompile(`Resolution:\s*(\d+)\s*x\s*(\d+)`)
	avfDeviceRe     = regexp.MustCompile(`\[([0-9]+)\] (.*)`)
	avfScreenRe     = regexp.MustCompile(`(?i)^capture screen (\d+)`)
	sizeRe          = regexp.MustCompile(`^\s*(\d+)\s*x\s*(\d+)\s*$`)
)

// ParseXrandr extracts the primary output's geometry from `xrandr --current`.
// Without a primary output the screen's current size is used.
func ParseXrandr(out string) (Geometry, error) {
	if m := xrandrPrimaryRe.FindStringSubmatch(out); m != nil {
		return Geometry{X: atoi(m[3]), Y: atoi(m[4]), Width: atoi(m[1]), Height: atoi(m[2])}, nil
	}
	if m := xrandrCurrentRe.FindStringSubmatch(out); m != nil {
		return Geometry{Width: atoi(m[1]), Height: atoi(m[2])}, nil
	}
	return Geometry{}, fmt.Errorf("xrandr: no screen size in output")
}

// ParseXwininfoTree reads the window list printed by `xwininfo -root -tree`.
// Unnamed windows and windows smaller than minSize on either edge are
// skipped. Each returned source carries a size-only preview.
func ParseXwininfoTree(out string, minSize int) []Source {
	var sources []Source
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		m := xwininfoRe.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		w, h := atoi(m[3]), atoi(m[4])
		if w < minSize || h < minSize {
			continue
		}
		sources = append(sources, Source{
			ID:      "x11:" + strings.ToLower(m[1]),
			Name:    m[2],
			Kind:    KindWindow,
			Preview: SizePreview(w, h),
			Origin:  image.Pt(atoi(m[7]), atoi(m[8])),
		})
	}
	return sources
}

// ParseSystemProfiler returns the first display resolution reported by
// `system_profiler SPDisplaysDataType`.
func ParseSystemProfiler(out string) (Geometry, error) {
	m := resolutionRe.FindStringSubmatch(out)
	if m == nil {
		return Geometry{}, fmt.Errorf("system_profiler: no display resolution in output")
	}
	return Geometry{Width: atoi(m[1]), Height: atoi(m[2])}, nil
}

// ScreenDevice is an avfoundation video device that captures a screen.
type ScreenDevice struct {
	// Index is the avfoundation device index passed as "<index>:none".
	Index int
	// Screen is the screen number in the device name.
	Screen int
}

// ParseScreenDevices extracts the screen capture devices from the output of
// `ffmpeg -f avfoundation -list_devices true -i ""`, ordered by screen
// number. Audio devices are ignored.
func ParseScreenDevices(out string) []ScreenDevice {
	var devices []ScreenDevice
	inVideo := true
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.Contains(line, "video devices:"):
			inVideo = true
			continue
		case strings.Contains(line, "audio devices:"):
			inVideo = false
			continue
		}
		if !inVideo {
			continue
		}
		m := avfDeviceRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		sm := avfScreenRe.FindStringSubmatch(strings.TrimSpace(m[2]))
		if sm == nil {
			continue
		}
		devices = append(devices, ScreenDevice{Index: atoi(m[1]), Screen: atoi(sm[1])})
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Screen < devices[j].Screen })
	return devices
}

// ParseWindowRows reads "handle|x|y|width|height|title" rows printed by the
// Windows enumeration script. Malformed rows are skipped.
func ParseWindowRows(out string, minSize int) []Source {
	var sources []Source
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		parts := strings.SplitN(strings.TrimRight(sc.Text(), "\r"), "|", 6)
		if len(parts) != 6 {
			continue
		}
		nums := make([]int, 4)
		ok := true
		for i, p := range parts[1:5] {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				ok = false
				break
			}
			nums[i] = n
		}
		if !ok || nums[2] < minSize || nums[3] < minSize {
			continue
		}
		sources = append(sources, Source{
			ID:      "win:" + strings.TrimSpace(parts[0]),
			Name:    parts[5],
			Kind:    KindWindow,
			Preview: SizePreview(nums[2], nums[3]),
			Origin:  image.Pt(nums[0], nums[1]),
		})
	}
	return sources
}

// ParseSize parses a "WIDTHxHEIGHT" line.
func ParseSize(out string) (Geometry, error) {
	m := sizeRe.FindStringSubmatch(out)
	if m == nil {
		return Geometry{}, fmt.Errorf("unrecognised size %q", strings.TrimSpace(out))
	}
	return Geometry{Width: atoi(m[1]), Height: atoi(m[2])}, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
