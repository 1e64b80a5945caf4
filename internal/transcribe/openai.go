package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kestrelabs/murmur/internal/config"
)

const (
	transcriptionEndpoint = "https://api.openai.com/v1/audio/transcriptions"
	defaultRemoteModel    = "gpt-4o-mini-transcribe"
)

// OpenAI sends recordings to the hosted transcription API. The API key
// and model name are read from the config store per request, so settings
// changes apply without rebuilding the client.
type OpenAI struct {
	store    *config.Store
	client   *http.Client
	endpoint string
	log      zerolog.Logger
}

// NewOpenAI creates the remote backend.
func NewOpenAI(store *config.Store, log zerolog.Logger) *OpenAI {
	return &OpenAI{
		store:    store,
		client:   &http.Client{Timeout: 60 * time.Second},
		endpoint: transcriptionEndpoint,
		log:      log,
	}
}

// Name identifies the backend.
func (o *OpenAI) Name() string {
	return "openai"
}

// Transcribe posts the recording as a multipart form and returns the text
// of the JSON response envelope.
func (o *OpenAI) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	key := o.store.OpenAIKey()
	if key == "" {
		return "", ErrNoAPIKey
	}

	model := o.store.Model()
	if model == "" {
		model = defaultRemoteModel
	}

	o.log.Debug().
		Str("model", model).
		Int("audio_bytes", len(audio)).
		Str("language", language).
		Msg("sending transcription request")

	body, contentType, err := buildForm(audio, model, language)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("transcribe: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", contentType)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe: posting audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return "", &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var envelope struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("transcribe: decoding response: %w", err)
	}

	return envelope.Text, nil
}

// buildForm assembles the multipart request body: the audio file part,
// the model name, and the optional language hint.
func buildForm(audio []byte, model, language string) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="recording.wav"`)
	header.Set("Content-Type", "audio/wav")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("transcribe: creating file part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("transcribe: writing file part: %w", err)
	}

	if err := mw.WriteField("model", model); err != nil {
		return nil, "", fmt.Errorf("transcribe: writing model field: %w", err)
	}
	if language != "" {
		if err := mw.WriteField("language", language); err != nil {
			return nil, "", fmt.Errorf("transcribe: writing language field: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("transcribe: closing form: %w", err)
	}

	return &body, mw.FormDataContentType(), nil
}
