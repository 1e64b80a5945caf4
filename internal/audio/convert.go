package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/go-audio/wav"
)

// TargetSampleRate is the rate the local inference engine requires.
const TargetSampleRate = 16000

// InvalidFormatError reports WAV bytes the converter cannot make sense of.
// Conversion is a total function: malformed input yields this error, never
// a panic, and retrying the same bytes can never succeed.
type InvalidFormatError struct {
	Reason string
}

func (e *InvalidFormatError) Error() string {
	return "audio: invalid audio format: " + e.Reason
}

// Convert decodes a WAV container into mono float32 samples at
// TargetSampleRate. Integer PCM is normalized to [-1, 1], multi-channel
// audio is downmixed by averaging, and resampling uses plain linear
// interpolation, which is adequate for speech bandwidths.
func Convert(wavBytes []byte) ([]float32, error) {
	d := wav.NewDecoder(bytes.NewReader(wavBytes))
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return nil, &InvalidFormatError{Reason: err.Error()}
	}
	if d.NumChans == 0 || d.SampleRate == 0 || d.BitDepth == 0 {
		return nil, &InvalidFormatError{Reason: "missing or empty format header"}
	}

	var samples []float32
	switch d.WavAudioFormat {
	case wavFormatIEEEFloat:
		if d.BitDepth != 32 {
			return nil, &InvalidFormatError{Reason: "float wav must be 32-bit"}
		}
		raw, err := rawPCM(d)
		if err != nil {
			return nil, err
		}
		samples = make([]float32, len(raw)/4)
		for i := range samples {
			bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
			samples[i] = math.Float32frombits(bits)
		}
	case 1: // integer PCM
		buf, err := d.FullPCMBuffer()
		if err != nil {
			return nil, &InvalidFormatError{Reason: err.Error()}
		}
		maxVal := float32(int64(1) << (d.BitDepth - 1))
		samples = make([]float32, len(buf.Data))
		for i, v := range buf.Data {
			samples[i] = float32(v) / maxVal
		}
	default:
		return nil, &InvalidFormatError{Reason: "unsupported wav audio format"}
	}

	mono := downmix(samples, int(d.NumChans))
	return Resample(mono, int(d.SampleRate), TargetSampleRate), nil
}

// rawPCM reads the data chunk bytes out of the decoder.
func rawPCM(d *wav.Decoder) ([]byte, error) {
	if err := d.FwdToPCM(); err != nil {
		return nil, &InvalidFormatError{Reason: err.Error()}
	}
	if d.PCMChunk == nil {
		return nil, &InvalidFormatError{Reason: "no data chunk"}
	}
	raw, err := io.ReadAll(d.PCMChunk)
	if err != nil && err != io.EOF {
		return nil, &InvalidFormatError{Reason: err.Error()}
	}
	return raw, nil
}

// downmix averages the channels of each frame into a single sample.
func downmix(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}
	mono := make([]float32, 0, len(samples)/channels)
	for i := 0; i+channels <= len(samples); i += channels {
		var sum float32
		for _, s := range samples[i : i+channels] {
			sum += s
		}
		mono = append(mono, sum/float32(channels))
	}
	return mono
}

// Resample converts samples from one rate to another by linear
// interpolation. Output length is round(len * to/from); source positions
// past the end of the input yield silence.
func Resample(samples []float32, from, to int) []float32 {
	if from == to {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out
	}

	ratio := float64(from) / float64(to)
	n := int(math.Round(float64(len(samples)) * float64(to) / float64(from)))
	out := make([]float32, n)

	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		frac := pos - float64(j)

		switch {
		case j+1 < len(samples):
			s0 := float64(samples[j])
			s1 := float64(samples[j+1])
			out[i] = float32(s0*(1-frac) + s1*frac)
		case j < len(samples):
			out[i] = samples[j]
		default:
			// past the input tail, leave silence
		}
	}

	return out
}
