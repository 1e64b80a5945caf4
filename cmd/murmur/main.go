// Command murmur is a push-to-talk dictation daemon: hold a hotkey,
// speak, release, and the transcribed text lands in the focused
// application.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/kestrelabs/murmur/internal/audio"
	"github.com/kestrelabs/murmur/internal/config"
	"github.com/kestrelabs/murmur/internal/hotkey"
	"github.com/kestrelabs/murmur/internal/inject"
	"github.com/kestrelabs/murmur/internal/logging"
	"github.com/kestrelabs/murmur/internal/models"
	"github.com/kestrelabs/murmur/internal/notify"
	"github.com/kestrelabs/murmur/internal/pipeline"
	"github.com/kestrelabs/murmur/internal/transcribe"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/murmur/config.yaml)")
	download := flag.Bool("download", false, "interactively download a local model and exit")
	listModels := flag.Bool("list-models", false, "list available local model variants and exit")
	flag.Parse()

	if *listModels {
		for _, m := range models.Catalog {
			fmt.Printf("%-22s %8s\n", m.Name, m.SizeHuman())
		}
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)
	store := config.NewStore(cfg)
	manager := models.NewManager(cfg.ModelsDir, log)

	if *download {
		if err := models.RunInteractiveDownload(context.Background(), manager); err != nil {
			log.Fatal().Err(err).Msg("model download failed")
		}
		return
	}

	if err := run(store, manager, log); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run(store *config.Store, manager *models.Manager, log zerolog.Logger) error {
	cfg := store.Snapshot()

	transcriber, err := transcribe.New(store, manager, log)
	if err != nil {
		return err
	}
	log.Info().Str("backend", transcriber.Name()).Msg("transcriber ready")

	if cfg.Backend == "local" {
		model := models.Default()
		if cfg.LocalModel != "" {
			model, _ = models.FromName(cfg.LocalModel)
		}
		if _, err := manager.Ensure(context.Background(), model, nil); err != nil {
			return fmt.Errorf("preparing local model %s: %w", model.Name, err)
		}
	}

	spec := audio.WavSpec{
		Channels:      uint16(cfg.Audio.Channels),
		SampleRate:    cfg.Audio.SampleRate,
		BitsPerSample: 32,
		Format:        audio.FormatFloat,
	}
	recorder, err := audio.NewRecorder(spec, log)
	if err != nil {
		return fmt.Errorf("initializing recorder: %w (check microphone permissions)", err)
	}
	log.Info().Msg("audio recorder ready")

	injector := inject.NewInjector(cfg.Inject.Method, cfg.Inject.RestoreClipboard)
	notifier := notify.New(cfg.Notify, log)

	pipeEvents := make(chan pipeline.Event, 16)
	pipe := pipeline.New(store, transcriber, pipeEvents, log)

	audioEvents := make(chan audio.Event, 4)

	listener := hotkey.NewListener(cfg.Hotkey.Keys, cfg.Hotkey.Mode)
	go listener.Start()
	log.Info().
		Str("hotkey", strings.Join(cfg.Hotkey.Keys, "+")).
		Str("mode", cfg.Hotkey.Mode).
		Msg("hotkey listener ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Info().Msgf("ready, press %s to dictate", strings.Join(cfg.Hotkey.Keys, "+"))

	var handle *audio.RecordingHandle
	shutdown := func(code int) {
		if handle != nil {
			_ = handle.Close()
		}
		listener.Stop()
		// The select loop is no longer draining pipeEvents, so keep a
		// drain running or the collector could block and stall Close.
		go func() {
			for range pipeEvents {
			}
		}()
		pipe.Close()
		_ = recorder.Close()
		if closer, ok := transcriber.(io.Closer); ok {
			_ = closer.Close()
		}
		// Exit directly to avoid gohook's C cleanup crash; the OS
		// reclaims the event hook on process exit.
		os.Exit(code)
	}

	for {
		select {
		case ev, ok := <-listener.Events():
			if !ok {
				log.Warn().Msg("hotkey listener stopped")
				shutdown(0)
			}
			switch ev.Type {
			case hotkey.EventStart:
				if handle != nil {
					continue // one recording at a time
				}
				h, err := recorder.StartRecording(audioEvents)
				if err != nil {
					log.Error().Err(err).Msg("failed to start recording")
					continue
				}
				handle = h
				log.Info().Msg("recording")

			case hotkey.EventStop:
				if handle == nil {
					continue
				}
				rec, err := handle.Finish()
				handle = nil
				if err != nil {
					log.Error().Err(err).Msg("failed to finish recording")
					continue
				}
				if rec == nil {
					continue
				}
				if pipe.Submit(rec) == pipeline.Discarded {
					log.Info().
						Float64("seconds", rec.Duration().Seconds()).
						Msg("recording too short, skipped")
				}
			}

		case ev := <-audioEvents:
			log.Debug().Stringer("state", ev.State).Msg("mic state changed")

		case ev := <-pipeEvents:
			switch ev.Type {
			case pipeline.EventTranscriptReady:
				log.Info().Str("text", ev.Text).Msg("transcript ready")
				if err := injector.Inject(ev.Text); err != nil {
					log.Error().Err(err).Msg("text injection failed")
					notifier.Error("murmur", "Transcribed, but injecting the text failed.")
				}
			case pipeline.EventAudioError:
				path := saveFailedAudio(ev.Audio, log)
				msg := "Transcription failed."
				if path != "" {
					msg = "Transcription failed; audio saved to " + path
				}
				notifier.Error("murmur", msg)
			case pipeline.EventStateChanged:
				log.Debug().Stringer("state", ev.State).Msg("pipeline state changed")
			}

		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("shutting down")
			shutdown(0)
		}
	}
}

// saveFailedAudio writes the audio of a failed transcription to the data
// directory so the user can recover it manually. Returns the path, or ""
// if saving failed.
func saveFailedAudio(data []byte, log zerolog.Logger) string {
	dir := config.DefaultDataDir()
	if dir == "" {
		return ""
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Error().Err(err).Msg("saving failed audio")
		return ""
	}

	path := filepath.Join(dir, fmt.Sprintf("failed-%s.wav", time.Now().Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0600); err != nil {
		log.Error().Err(err).Msg("saving failed audio")
		return ""
	}

	log.Info().Str("path", path).Msg("failed audio saved")
	return path
}

// loadConfig loads the config from the given path, falling back to the
// default location, and writes defaults there on first run.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		return config.Load(defaultPath)
	}

	cfg := config.Default()
	if err := cfg.Save(defaultPath); err != nil {
		// First-run persistence is a convenience, not a requirement.
		fmt.Fprintf(os.Stderr, "could not write default config: %v\n", err)
	}
	return cfg, nil
}
