package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func float32Bytes(samples []float32) []byte {
	buf := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return buf
}

func testSpec() WavSpec {
	return WavSpec{Channels: 1, SampleRate: 16000, BitsPerSample: 32, Format: FormatFloat}
}

func TestNewRecorderRejectsIntFormat(t *testing.T) {
	spec := WavSpec{Channels: 1, SampleRate: 16000, BitsPerSample: 16, Format: FormatInt}
	_, err := NewRecorder(spec, zerolog.Nop())
	if !errors.Is(err, ErrSampleFormatNotSupported) {
		t.Errorf("error = %v, want ErrSampleFormatNotSupported", err)
	}
}

func TestHandleStripsLeadingSilence(t *testing.T) {
	h := newRecordingHandle(testSpec(), nil, zerolog.Nop())

	// Silent frames before the gate trips are never written.
	silence := float32Bytes(make([]float32, 8))
	h.onData(nil, silence, 8)
	h.onData(nil, silence, 8)
	if h.micActive {
		t.Fatal("gate tripped on silence")
	}

	loud := float32Bytes([]float32{0.5, 0.25, -0.5, 0.1})
	h.onData(nil, loud, 4)
	if !h.micActive {
		t.Fatal("gate did not trip on voice")
	}

	rec, err := h.Finish()
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	samples, err := Convert(rec.Data())
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(samples) != 4 {
		t.Errorf("got %d samples, want the 4 voiced ones", len(samples))
	}
}

func TestHandleGateNeverRearms(t *testing.T) {
	h := newRecordingHandle(testSpec(), nil, zerolog.Nop())

	h.onData(nil, float32Bytes([]float32{0.5, 0.5}), 2)
	// Silence after the gate tripped is kept, not stripped.
	h.onData(nil, float32Bytes([]float32{0, 0}), 2)

	rec, err := h.Finish()
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	samples, err := Convert(rec.Data())
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(samples) != 4 {
		t.Errorf("got %d samples, want 4", len(samples))
	}
}

func TestHandleEmitsOneActiveEvent(t *testing.T) {
	events := make(chan Event, 4)
	h := newRecordingHandle(testSpec(), events, zerolog.Nop())

	loud := float32Bytes([]float32{0.9})
	h.onData(nil, loud, 1)
	h.onData(nil, loud, 1)

	if _, err := h.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	close(events)
	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].State != MicActive {
		t.Errorf("event state = %v, want MicActive", got[0].State)
	}
}

func TestHandleFinishIdempotent(t *testing.T) {
	h := newRecordingHandle(testSpec(), nil, zerolog.Nop())
	h.onData(nil, float32Bytes([]float32{0.5}), 1)

	rec, err := h.Finish()
	if err != nil {
		t.Fatalf("first Finish failed: %v", err)
	}
	if rec == nil {
		t.Fatal("first Finish returned nil recording")
	}

	rec2, err := h.Finish()
	if err != nil {
		t.Errorf("second Finish errored: %v", err)
	}
	if rec2 != nil {
		t.Error("second Finish must return nil")
	}
}

func TestHandleDropsFramesAfterFinish(t *testing.T) {
	h := newRecordingHandle(testSpec(), nil, zerolog.Nop())
	h.onData(nil, float32Bytes([]float32{0.5}), 1)
	if _, err := h.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	// A straggler callback after finalize must be a no-op, not a panic.
	h.onData(nil, float32Bytes([]float32{0.5}), 1)
}

func TestRecordingAccessors(t *testing.T) {
	spec := testSpec()
	rec := NewRecording(make([]byte, 64000), spec)

	if rec.Samples() != 16000 {
		t.Errorf("Samples() = %d, want 16000", rec.Samples())
	}
	if got := rec.Duration().Seconds(); got != 1.0 {
		t.Errorf("Duration() = %vs, want 1s", got)
	}
	if rec.Spec() != spec {
		t.Errorf("Spec() = %+v, want %+v", rec.Spec(), spec)
	}
}

func TestBytesToFloat32(t *testing.T) {
	data := []byte{0x00, 0x00, 0x80, 0x3F, 0x00, 0x00, 0x00, 0xBF}
	got := bytesToFloat32(data, 2)
	if len(got) != 2 || got[0] != 1.0 || got[1] != -0.5 {
		t.Errorf("got %v, want [1 -0.5]", got)
	}

	// Truncated input yields only the complete samples.
	if got := bytesToFloat32(data[:6], 2); len(got) != 1 {
		t.Errorf("truncated input gave %d samples, want 1", len(got))
	}
}

func TestDBFS(t *testing.T) {
	if got := dbFS(make([]float32, 16)); got != MinDBFS {
		t.Errorf("silence dbFS = %v, want %v", got, MinDBFS)
	}
	if got := dbFS([]float32{1.0}); got != 0 {
		t.Errorf("full-scale dbFS = %v, want 0", got)
	}
	if got := dbFS([]float32{0.5}); math.Abs(got+6.0206) > 0.001 {
		t.Errorf("half-scale dbFS = %v, want about -6.02", got)
	}
	if got := dbFS(nil); got != MinDBFS {
		t.Errorf("empty frame dbFS = %v, want %v", got, MinDBFS)
	}
}

func TestMemWriterWriteAndSeek(t *testing.T) {
	w := newMemWriter()
	if _, err := w.Write([]byte("hello world")); err != nil {
		t.Fatal(err)
	}

	// Seek back and overwrite, like the encoder patching chunk sizes.
	if _, err := w.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("HELLO")); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(w.Bytes(), []byte("HELLO world")) {
		t.Errorf("buffer = %q, want %q", w.Bytes(), "HELLO world")
	}

	pos, err := w.Seek(-5, io.SeekEnd)
	if err != nil {
		t.Fatal(err)
	}
	if pos != 6 {
		t.Errorf("seek from end = %d, want 6", pos)
	}

	if _, err := w.Seek(-1, io.SeekStart); err == nil {
		t.Error("expected error for negative position")
	}
	if _, err := w.Seek(0, 42); err == nil {
		t.Error("expected error for invalid whence")
	}
}

func TestMemWriterSparseSeekWrite(t *testing.T) {
	w := newMemWriter()
	if _, err := w.Seek(4, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte{0xAB}); err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 0, 0, 0, 0xAB}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("buffer = %v, want %v", w.Bytes(), want)
	}
}
