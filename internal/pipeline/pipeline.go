// Package pipeline orchestrates submission of finished recordings to a
// transcription backend: discard pre-filtering, retries, and ordered
// delivery of results as events.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kestrelabs/murmur/internal/audio"
	"github.com/kestrelabs/murmur/internal/config"
	"github.com/kestrelabs/murmur/internal/transcribe"
)

// EventType discriminates pipeline events.
type EventType int

const (
	// EventStateChanged carries a mic state transition.
	EventStateChanged EventType = iota
	// EventTranscriptReady carries the text of a successful transcription.
	EventTranscriptReady
	// EventAudioError carries the original audio of a recording whose
	// retry budget is exhausted, so the caller can persist it for manual
	// recovery.
	EventAudioError
)

// Event is delivered to the caller-supplied event channel. Exactly one
// terminal event (transcript or audio error) is delivered per accepted
// recording.
type Event struct {
	Type    EventType
	State   audio.MicState
	Text    string
	Audio   []byte
	Retries int
	Err     error
}

// SubmitResult reports what happened to a submitted recording.
type SubmitResult int

const (
	// Sent means the recording was queued for transcription.
	Sent SubmitResult = iota
	// Discarded means the recording was shorter than the configured
	// discard threshold and was dropped before any backend work.
	Discarded
)

// Pipeline runs transcription jobs on a single background worker, one
// in-flight job at a time, and forwards results through a collector so
// each job's outcome is emitted exactly once.
type Pipeline struct {
	store  *config.Store
	tr     transcribe.Transcriber
	events chan<- Event
	log    zerolog.Logger

	jobs    chan job
	results chan result

	closed        atomic.Bool
	closeOnce     sync.Once
	collectorDone chan struct{}
}

type job struct {
	id  uuid.UUID
	rec *audio.Recording
}

type result struct {
	id      uuid.UUID
	text    string
	err     error
	retries int
	audio   []byte
}

// New creates a running pipeline. Results and state transitions are
// delivered on events; the caller must keep draining it.
func New(store *config.Store, tr transcribe.Transcriber, events chan<- Event, log zerolog.Logger) *Pipeline {
	p := &Pipeline{
		store:         store,
		tr:            tr,
		events:        events,
		log:           log,
		jobs:          make(chan job, 64),
		results:       make(chan result, 64),
		collectorDone: make(chan struct{}),
	}

	go p.worker()
	go p.collector()

	return p
}

// Submit hands a finished recording to the pipeline. Recordings below the
// configured discard threshold are dropped here, before any network or
// inference work; this is a hard pre-filter, not a retry target.
func (p *Pipeline) Submit(rec *audio.Recording) SubmitResult {
	p.log.Info().
		Uint64("samples", rec.Samples()).
		Int("bytes", len(rec.Data())).
		Float64("length_seconds", rec.Duration().Seconds()).
		Msg("audio submitted")

	if p.closed.Load() {
		p.log.Warn().Msg("recording submitted after close, dropping")
		return Discarded
	}

	if discard := p.store.DiscardDuration(); rec.Duration() < discard {
		p.log.Info().Dur("discard_duration", discard).Msg("discarding recording")
		return Discarded
	}

	p.jobs <- job{id: uuid.New(), rec: rec}
	return Sent
}

// Close drains the queue, stops the worker and collector, and returns
// once all accepted jobs have had their events delivered.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.jobs)
		<-p.collectorDone
	})
}

// worker processes jobs sequentially. A single worker bounds concurrency
// to one in-flight transcription, which keeps the backend rate-limit
// friendly and makes completion order equal submission order.
func (p *Pipeline) worker() {
	defer close(p.results)
	for j := range p.jobs {
		p.results <- p.run(j)
	}
}

// run executes one job: the backend call plus up to the configured number
// of retries, re-sending the identical bytes with no backoff between
// attempts. Malformed audio is never retried, since the same bytes can
// never convert.
func (p *Pipeline) run(j job) result {
	data := j.rec.Data()
	budget := p.store.Retries()
	language := p.store.Language()

	var lastErr error
	var retries int
	for attempt := 0; attempt <= budget; attempt++ {
		retries = attempt
		if attempt > 0 {
			p.log.Warn().
				Stringer("job", j.id).
				Int("attempt", attempt).
				Err(lastErr).
				Msg("retrying transcription")
		}

		start := time.Now()
		text, err := p.tr.Transcribe(context.Background(), data, language)
		if err == nil {
			p.log.Info().
				Stringer("job", j.id).
				Str("backend", p.tr.Name()).
				Dur("duration", time.Since(start)).
				Msg("transcription completed")
			return result{id: j.id, text: text}
		}
		lastErr = err

		var formatErr *audio.InvalidFormatError
		if errors.As(err, &formatErr) {
			break
		}
	}

	// retries reports the re-attempts actually made, which is fewer than
	// the budget when malformed audio ends the loop early.
	return result{id: j.id, err: lastErr, retries: retries, audio: data}
}

// collector forwards completed jobs to the event channel in completion
// order. It runs for the lifetime of the pipeline; exiting while the
// pipeline is still open means something closed the results channel out
// from under us.
func (p *Pipeline) collector() {
	defer close(p.collectorDone)

	for res := range p.results {
		if res.err == nil {
			p.emit(Event{Type: EventTranscriptReady, Text: res.text})
			continue
		}

		p.log.Error().
			Stringer("job", res.id).
			Int("retries", res.retries).
			Err(res.err).
			Msg("transcription failed")
		p.emit(Event{Type: EventStateChanged, State: audio.MicIdle})
		p.emit(Event{Type: EventAudioError, Audio: res.audio, Retries: res.retries, Err: res.err})
	}

	if !p.closed.Load() {
		p.log.Error().Msg("results collector stopped unexpectedly")
	}
}

func (p *Pipeline) emit(ev Event) {
	if p.events != nil {
		p.events <- ev
	}
}
