package audio

import (
	"errors"
	"math"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// encodeFloatWAV builds a float32 WAV container from interleaved samples.
func encodeFloatWAV(t *testing.T, samples []float32, rate, channels int) []byte {
	t.Helper()
	buf := newMemWriter()
	enc := wav.NewEncoder(buf, rate, 32, channels, wavFormatIEEEFloat)
	for _, s := range samples {
		if err := enc.WriteFrame(s); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

// encodeIntWAV builds a 16-bit integer PCM WAV container.
func encodeIntWAV(t *testing.T, samples []int, rate, channels int) []byte {
	t.Helper()
	buf := newMemWriter()
	enc := wav.NewEncoder(buf, rate, 16, channels, 1)
	err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestConvertFloatMonoPassthrough(t *testing.T) {
	want := []float32{0, 0.25, -0.5, 1.0}
	data := encodeFloatWAV(t, want, TargetSampleRate, 1)

	got, err := Convert(data)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestConvertInt16Normalized(t *testing.T) {
	data := encodeIntWAV(t, []int{16384, -16384, 0, 32767}, TargetSampleRate, 1)

	got, err := Convert(data)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	want := []float32{0.5, -0.5, 0, 32767.0 / 32768.0}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if diff := math.Abs(float64(got[i] - want[i])); diff > 1e-6 {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestConvertStereoDownmix(t *testing.T) {
	// Interleaved L/R frames; each mono output is the frame average.
	data := encodeFloatWAV(t, []float32{1.0, 0.0, 0.5, -0.5}, TargetSampleRate, 2)

	got, err := Convert(data)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	want := []float32{0.5, 0.0}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestConvertResamplesTo16k(t *testing.T) {
	samples := make([]float32, 480) // 10ms at 48kHz
	data := encodeFloatWAV(t, samples, 48000, 1)

	got, err := Convert(data)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(got) != 160 {
		t.Errorf("got %d samples, want 160", len(got))
	}
}

func TestConvertMalformed(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not a wav file of any kind")},
		{"truncated header", []byte("RIFF\x00\x00\x00\x00WAVE")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Convert(tc.data)
			if err == nil {
				t.Fatal("expected error")
			}
			var fe *InvalidFormatError
			if !errors.As(err, &fe) {
				t.Errorf("error type = %T, want *InvalidFormatError", err)
			}
		})
	}
}

func TestResampleIdentityCopies(t *testing.T) {
	in := []float32{1, 2, 3}
	out := Resample(in, 16000, 16000)
	if len(out) != len(in) {
		t.Fatalf("got %d samples, want %d", len(out), len(in))
	}
	out[0] = 99
	if in[0] != 1 {
		t.Error("identity resample must not alias the input slice")
	}
}

func TestResampleLinearInterpolation(t *testing.T) {
	// Upsampling 2x places interpolated midpoints between source samples.
	out := Resample([]float32{0, 1}, 8000, 16000)
	if len(out) != 4 {
		t.Fatalf("got %d samples, want 4", len(out))
	}
	if out[0] != 0 || out[1] != 0.5 || out[2] != 1 {
		t.Errorf("got %v, want leading [0 0.5 1 ...]", out)
	}
	// Positions past the input tail are silence.
	if out[3] != 1 && out[3] != 0 {
		t.Errorf("tail sample = %v, want clamped or silent", out[3])
	}
}
