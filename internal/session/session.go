// Package session persists the active recording so that other lapse
// invocations can inspect it and ask it to stop.
package session

import "time"

// Record describes the recording owned by a running `lapse record` process.
type Record struct {
	ID          string    `json:"id" yaml:"id"`
	RecorderPID int       `json:"recorder_pid" yaml:"recorder_pid"` // the lapse process supervising the encoder
	EncoderPID  int       `json:"encoder_pid" yaml:"encoder_pid"`
	TargetID    string    `json:"target_id" yaml:"target_id"`
	TargetName  string    `json:"target_name" yaml:"target_name"`
	OutputPath  string    `json:"output_path" yaml:"output_path"`
	Quality     string    `json:"quality" yaml:"quality"`
	StartTime   time.Time `json:"start_time" yaml:"start_time"`
}

// Elapsed returns how long the recording has been running at now.
func (r *Record) Elapsed(now time.Time) time.Duration {
	if r.StartTime.IsZero() || now.Before(r.StartTime) {
		return 0
	}
	return now.Sub(r.StartTime)
}
