// Package transcribe provides speech-to-text backends.
//
// Supported backends:
//   - openai: remote transcription API (default)
//   - local: whisper.cpp via Go bindings
package transcribe

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kestrelabs/murmur/internal/config"
	"github.com/kestrelabs/murmur/internal/models"
)

// ErrNoAPIKey is returned by the remote backend when no API key is
// configured.
var ErrNoAPIKey = errors.New("transcribe: no API key configured")

// APIError is a non-success response from the remote transcription API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("transcribe: api returned %d: %s", e.Status, e.Body)
}

// Transcriber converts recorded audio to text.
type Transcriber interface {
	// Transcribe converts a WAV container to text. language is an
	// optional ISO 639-1 hint; empty means auto-detect where the
	// backend supports it.
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
	// Name identifies the backend for diagnostics.
	Name() string
}

// New creates a Transcriber based on the configured backend. The choice
// is a deployment-time setting, not an open extension point: the set of
// backends is closed.
func New(store *config.Store, mgr *models.Manager, log zerolog.Logger) (Transcriber, error) {
	switch backend := store.Backend(); backend {
	case "local":
		model := models.Default()
		if name := store.LocalModel(); name != "" {
			var ok bool
			model, ok = models.FromName(name)
			if !ok {
				return nil, fmt.Errorf("transcribe: unknown model %q (available: %v)", name, models.AllNames())
			}
		}
		return NewLocal(model, mgr, log), nil
	case "openai", "":
		return NewOpenAI(store, log), nil
	default:
		return nil, fmt.Errorf("transcribe: unknown backend %q (supported: openai, local)", backend)
	}
}
