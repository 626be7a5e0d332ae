package encoder

import "strings"

// QualityProfile is a named bundle of encoder tuning knobs.
type QualityProfile struct {
	Name string `json:"name" yaml:"name"`
	// FrameRate is used both as the capture rate and the output rate.
	FrameRate int `json:"frame_rate" yaml:"frame_rate"`
	// Preset is the libx264 speed preset.
	Preset string `json:"preset" yaml:"preset"`
	// Quality is the libx264 constant rate factor; lower is better.
	Quality int `json:"quality" yaml:"quality"`
	// BufferSize is the capture driver's real-time buffer (-rtbufsize).
	BufferSize string `json:"buffer_size" yaml:"buffer_size"`
	// ThreadQueueSize is the input packet queue length.
	ThreadQueueSize int `json:"thread_queue_size" yaml:"thread_queue_size"`
}

var (
	// Low favours low CPU cost and generous buffering over fidelity.
	Low = QualityProfile{
		Name:            "low",
		FrameRate:       10,
		Preset:          "ultrafast",
		Quality:         32,
		BufferSize:      "1024M",
		ThreadQueueSize: 4096,
	}
	// High favours fidelity at a higher encoding cost.
	High = QualityProfile{
		Name:            "high",
		FrameRate:       30,
		Preset:          "medium",
		Quality:         20,
		BufferSize:      "256M",
		ThreadQueueSize: 1024,
	}
)

// Profiles lists the built-in tiers.
var Profiles = []QualityProfile{Low, High}

// ProfileByName returns the tier called name. Unknown names select Low.
func ProfileByName(name string) QualityProfile {
	for _, p := range Profiles {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p
		}
	}
	return Low
}
