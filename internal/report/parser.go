package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseCapture reads a capture report written with --report in either JSON
// or YAML.
func ParseCapture(data []byte) (*Capture, error) {
	var c Capture
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &c); err != nil {
			return nil, fmt.Errorf("failed to parse JSON report: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML report: %w", err)
	}
	if c.Artifact.Path == "" {
		return nil, fmt.Errorf("not a lapse capture report: no artifact path")
	}
	return &c, nil
}
