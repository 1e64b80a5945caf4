// Package audio captures microphone input into WAV recordings and converts
// WAV containers into the sample layout the local inference engine expects.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
)

// MinDBFS is the silence floor. Frames that never exceed it are treated
// as silence and not written to the recording.
const MinDBFS = -96.0

// wavFormatIEEEFloat is the WAVE format tag for 32-bit float PCM.
const wavFormatIEEEFloat = 3

var (
	// ErrNoInputDevice is returned when no capture device is available.
	ErrNoInputDevice = errors.New("audio: no input device available")
	// ErrSampleFormatNotSupported is returned for capture specs other
	// than 32-bit float. Other native formats are a hard error, not a
	// silent downcast.
	ErrSampleFormatNotSupported = errors.New("audio: sample format not supported")
)

// Recorder owns the audio context and opens capture streams on demand.
// At most one RecordingHandle may be live at a time; the caller enforces
// exclusivity through its trigger edge logic.
type Recorder struct {
	ctx  *malgo.AllocatedContext
	spec WavSpec
	log  zerolog.Logger
}

// NewRecorder creates a recorder that captures with the given spec.
// Call Close when done. Only 32-bit float capture is supported.
func NewRecorder(spec WavSpec, log zerolog.Logger) (*Recorder, error) {
	if spec.Format != FormatFloat || spec.BitsPerSample != 32 {
		return nil, fmt.Errorf("%w: %d-bit %v", ErrSampleFormatNotSupported, spec.BitsPerSample, spec.Format)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: initializing audio context: %w", err)
	}

	return &Recorder{ctx: ctx, spec: spec, log: log}, nil
}

// Spec returns the capture spec recordings are produced with.
func (r *Recorder) Spec() WavSpec {
	return r.spec
}

// StartRecording opens the default input device and begins capturing into
// a new handle. Mic-activity events are delivered on events, which may be
// nil if the caller does not care.
func (r *Recorder) StartRecording(events chan<- Event) (*RecordingHandle, error) {
	infos, err := r.ctx.Devices(malgo.Capture)
	if err != nil || len(infos) == 0 {
		return nil, ErrNoInputDevice
	}

	h := newRecordingHandle(r.spec, events, r.log)

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatF32
	deviceCfg.Capture.Channels = uint32(r.spec.Channels)
	deviceCfg.SampleRate = r.spec.SampleRate

	device, err := malgo.InitDevice(r.ctx.Context, deviceCfg, malgo.DeviceCallbacks{
		Data: h.onData,
	})
	if err != nil {
		return nil, fmt.Errorf("audio: building capture stream: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("audio: starting capture stream: %w", err)
	}

	h.device = device

	r.log.Debug().
		Uint32("sample_rate", r.spec.SampleRate).
		Uint16("channels", r.spec.Channels).
		Msg("recording from default input device")

	return h, nil
}

// Close releases the audio context.
func (r *Recorder) Close() error {
	if r.ctx != nil {
		if err := r.ctx.Uninit(); err != nil {
			return fmt.Errorf("audio: uninitializing audio context: %w", err)
		}
		r.ctx.Free()
		r.ctx = nil
	}
	return nil
}

// RecordingHandle is the live side of a single capture session. The device
// callback feeds it; Finish stops the stream and yields the Recording.
type RecordingHandle struct {
	spec   WavSpec
	events chan<- Event
	log    zerolog.Logger

	device *malgo.Device

	// mu guards enc and buf. The device callback only ever try-locks it,
	// so a contended frame is dropped rather than stalling the driver.
	mu       sync.Mutex
	enc      *wav.Encoder
	buf      *memWriter
	finished bool

	// micActive is the one-shot voice-activity gate. It is touched only
	// from the device callback, which miniaudio serializes.
	micActive bool
}

func newRecordingHandle(spec WavSpec, events chan<- Event, log zerolog.Logger) *RecordingHandle {
	buf := newMemWriter()
	enc := wav.NewEncoder(buf,
		int(spec.SampleRate), int(spec.BitsPerSample), int(spec.Channels),
		wavFormatIEEEFloat)

	return &RecordingHandle{
		spec:   spec,
		events: events,
		log:    log,
		enc:    enc,
		buf:    buf,
	}
}

// onData is invoked by the audio subsystem for each captured frame batch.
// It must never block.
func (h *RecordingHandle) onData(_, pSamples []byte, frameCount uint32) {
	samples := bytesToFloat32(pSamples, frameCount*uint32(h.spec.Channels))

	// Until the first non-silent frame, nothing is written: the recording
	// strips leading silence. The gate never re-arms once tripped.
	if !h.micActive {
		if dbFS(samples) <= MinDBFS {
			return
		}
		h.micActive = true
		if h.events != nil {
			select {
			case h.events <- Event{State: MicActive}:
			default:
			}
		}
	}

	if !h.mu.TryLock() {
		return // drop the frame, real-time deadline wins
	}
	defer h.mu.Unlock()

	if h.enc == nil {
		return
	}
	for _, s := range samples {
		if err := h.enc.WriteFrame(s); err != nil {
			return
		}
	}
}

// Finish stops the stream, finalizes the WAV framing, and returns the
// recording. It is idempotent: the second call returns nil.
func (h *RecordingHandle) Finish() (*Recording, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.finished {
		return nil, nil
	}
	h.finished = true

	h.log.Info().Msg("ending recording")

	if h.device != nil {
		h.device.Uninit()
		h.device = nil
	}

	if err := h.enc.Close(); err != nil {
		h.enc = nil
		return nil, fmt.Errorf("audio: finalizing wav container: %w", err)
	}
	h.enc = nil

	return NewRecording(h.buf.Bytes(), h.spec), nil
}

// Close finalizes an unfinished recording and discards the result, so no
// stream is left running if the caller bails out early.
func (h *RecordingHandle) Close() error {
	_, err := h.Finish()
	return err
}

// bytesToFloat32 converts raw little-endian float32 bytes to a float32 slice.
func bytesToFloat32(data []byte, sampleCount uint32) []float32 {
	samples := make([]float32, 0, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		offset := i * 4
		if offset+4 > uint32(len(data)) {
			break
		}
		bits := binary.LittleEndian.Uint32(data[offset : offset+4])
		samples = append(samples, math.Float32frombits(bits))
	}
	return samples
}

// dbFS returns the peak level of the frame in dB relative to full scale,
// clamped to [MinDBFS, 0].
func dbFS(samples []float32) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	db := 20 * math.Log10(peak)
	if db < MinDBFS || math.IsNaN(db) {
		return MinDBFS
	}
	if db > 0 {
		return 0
	}
	return db
}
