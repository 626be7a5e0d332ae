// Package recorder supervises the encoder process for one capture session at
// a time and reports its progress to subscribers.
package recorder

import "fmt"

// State is a capture session's lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRecording
	StateStopping
	StateStopped
	StateFailed
)

var stateNames = [...]string{"idle", "starting", "recording", "stopping", "stopped", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", string(b))
}

// Active reports whether a session in this state owns an encoder process.
func (s State) Active() bool {
	return s == StateStarting || s == StateRecording || s == StateStopping
}

// Terminal reports whether the session has ended.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFailed
}
