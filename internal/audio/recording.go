package audio

import "time"

// SampleFormat describes how samples in a WAV container are encoded.
type SampleFormat int

const (
	// FormatInt is integer PCM.
	FormatInt SampleFormat = iota
	// FormatFloat is IEEE floating-point PCM.
	FormatFloat
)

// String returns "int" or "float".
func (f SampleFormat) String() string {
	if f == FormatFloat {
		return "float"
	}
	return "int"
}

// WavSpec describes the layout of a WAV container.
type WavSpec struct {
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	Format        SampleFormat
}

// Recording is a finished capture: a complete WAV container plus the spec
// it was recorded with. It is created once by Finish and consumed exactly
// once by the pipeline.
type Recording struct {
	data []byte
	spec WavSpec
}

// NewRecording wraps raw WAV container bytes and their spec.
func NewRecording(data []byte, spec WavSpec) *Recording {
	return &Recording{data: data, spec: spec}
}

// Data returns the raw WAV container bytes.
func (r *Recording) Data() []byte {
	return r.data
}

// Spec returns the WAV spec of the recording.
func (r *Recording) Spec() WavSpec {
	return r.spec
}

// Samples returns the sample count derived from the container length.
func (r *Recording) Samples() uint64 {
	return uint64(len(r.data)) / uint64(r.spec.BitsPerSample/8)
}

// Duration returns the length of the recording.
func (r *Recording) Duration() time.Duration {
	seconds := float64(r.Samples()) / float64(r.spec.SampleRate)
	return time.Duration(seconds * float64(time.Second))
}
