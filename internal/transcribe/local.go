package transcribe

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog"

	"github.com/kestrelabs/murmur/internal/audio"
	"github.com/kestrelabs/murmur/internal/models"
)

// Local runs inference in-process via whisper.cpp. The model is loaded
// lazily on first use so startup stays fast when the backend is never
// exercised.
type Local struct {
	model models.Model
	mgr   *models.Manager
	log   zerolog.Logger

	// mu guards wm so concurrent first calls cannot double-initialize.
	mu sync.Mutex
	wm whisper.Model
}

// NewLocal creates the local backend for the given model variant.
// Call Close when done to release the model.
func NewLocal(model models.Model, mgr *models.Manager, log zerolog.Logger) *Local {
	return &Local{model: model, mgr: mgr, log: log}
}

// Name identifies the backend.
func (l *Local) Name() string {
	return "local"
}

// Transcribe converts the WAV container to 16 kHz mono samples, runs
// greedy decoding, and joins the produced segments into one string.
func (l *Local) Transcribe(ctx context.Context, audioBytes []byte, language string) (string, error) {
	// Inference is not interruptible mid-run; honor cancellation at the
	// boundary only.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	samples, err := audio.Convert(audioBytes)
	if err != nil {
		return "", err
	}

	wm, err := l.loadModel()
	if err != nil {
		return "", err
	}

	wctx, err := wm.NewContext()
	if err != nil {
		return "", fmt.Errorf("transcribe: create context: %w", err)
	}

	if language == "" {
		language = "auto"
	}
	if err := wctx.SetLanguage(language); err != nil {
		return "", fmt.Errorf("transcribe: set language %q: %w", language, err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("transcribe: process: %w", err)
	}

	var segments []string
	for {
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("transcribe: next segment: %w", err)
		}
		segments = append(segments, seg.Text)
	}

	return strings.TrimSpace(strings.Join(segments, " ")), nil
}

// loadModel returns the loaded whisper model, initializing it on first use.
func (l *Local) loadModel() (whisper.Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.wm != nil {
		return l.wm, nil
	}

	path := l.mgr.Path(l.model)
	if !l.mgr.Exists(l.model) {
		return nil, fmt.Errorf("transcribe: model %q not found at %s (run with -download first)", l.model.Name, path)
	}

	l.log.Info().Str("model", l.model.Name).Str("path", path).Msg("loading whisper model")
	wm, err := whisper.New(path)
	if err != nil {
		return nil, fmt.Errorf("transcribe: load whisper model %q: %w", path, err)
	}
	l.log.Info().Str("model", l.model.Name).Msg("whisper model loaded")

	l.wm = wm
	return wm, nil
}

// Close releases the whisper model resources.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.wm != nil {
		err := l.wm.Close()
		l.wm = nil
		return err
	}
	return nil
}
