package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"github.com/kestrelabs/murmur/internal/audio"
	"github.com/kestrelabs/murmur/internal/models"
)

// validWAV builds a minimal float32 mono container on disk and returns
// its bytes.
func validWAV(t *testing.T) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rec.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 16000, 32, 1, 3)
	for _, s := range []float32{0.1, 0.2, -0.1, 0} {
		if err := enc.WriteFrame(s); err != nil {
			t.Fatal(err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestLocalRejectsMalformedAudio(t *testing.T) {
	mgr := models.NewManager(t.TempDir(), zerolog.Nop())
	l := NewLocal(models.Default(), mgr, zerolog.Nop())

	_, err := l.Transcribe(context.Background(), []byte("not a wav"), "")
	var fe *audio.InvalidFormatError
	if !errors.As(err, &fe) {
		t.Errorf("error = %v, want *audio.InvalidFormatError", err)
	}
}

func TestLocalMissingModel(t *testing.T) {
	mgr := models.NewManager(t.TempDir(), zerolog.Nop())
	l := NewLocal(models.Default(), mgr, zerolog.Nop())

	_, err := l.Transcribe(context.Background(), validWAV(t), "")
	if err == nil {
		t.Fatal("expected error for missing model file")
	}
	if !strings.Contains(err.Error(), "-download") {
		t.Errorf("error should point at the download flow, got: %v", err)
	}
}

func TestLocalHonorsCancellation(t *testing.T) {
	mgr := models.NewManager(t.TempDir(), zerolog.Nop())
	l := NewLocal(models.Default(), mgr, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Transcribe(ctx, validWAV(t), "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
