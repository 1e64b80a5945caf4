package audio

// MicState is the current state of the microphone/recording. Exactly one
// state holds at any instant for the single allowed concurrent recording.
type MicState int

const (
	// MicIdle means no recording is in progress.
	MicIdle MicState = iota
	// MicActivating means a recording has started but no sound has been
	// heard yet.
	MicActivating
	// MicActive means the recording is receiving non-silent audio.
	MicActive
	// MicProcessing means a finished recording is being transcribed.
	MicProcessing
)

// String returns the lowercase name of the state.
func (s MicState) String() string {
	switch s {
	case MicIdle:
		return "idle"
	case MicActivating:
		return "activating"
	case MicActive:
		return "active"
	case MicProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// Event is emitted by the recorder when the mic state changes. A recording
// emits at most one event: the transition to MicActive on the first
// non-silent frame.
type Event struct {
	State MicState
}
