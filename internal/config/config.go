package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// OpenAIKey is the API key used by the remote transcription backend.
	OpenAIKey string `yaml:"openai_key,omitempty"`
	// Backend selects the transcription backend: "openai" or "local".
	Backend string `yaml:"backend"`
	// Model is the remote model name sent to the API. Empty selects the
	// backend's default.
	Model string `yaml:"model,omitempty"`
	// LocalModel is the whisper model variant used by the local backend,
	// e.g. "base.en-q8_0". Empty selects the default variant.
	LocalModel string `yaml:"local_model,omitempty"`
	// Language is an optional ISO 639-1 language hint for transcription.
	Language string `yaml:"language,omitempty"`
	// DiscardDuration drops recordings shorter than this many seconds
	// before they reach a backend.
	DiscardDuration float64 `yaml:"discard_duration"`
	// Retries is the number of re-attempts per failed transcription.
	Retries int `yaml:"retries"`
	// ModelsDir is where downloaded model files live.
	ModelsDir string `yaml:"models_dir"`

	Hotkey   HotkeyConfig `yaml:"hotkey"`
	Audio    AudioConfig  `yaml:"audio"`
	Inject   InjectConfig `yaml:"inject"`
	Notify   bool         `yaml:"notify"`
	LogLevel string       `yaml:"log_level"`
}

// HotkeyConfig holds hotkey-related settings.
type HotkeyConfig struct {
	Keys []string `yaml:"keys"`
	Mode string   `yaml:"mode"` // "hold" or "toggle"
}

// AudioConfig holds audio capture settings.
type AudioConfig struct {
	SampleRate uint32 `yaml:"sample_rate"`
	Channels   uint32 `yaml:"channels"`
}

// InjectConfig holds text injection settings.
type InjectConfig struct {
	Method           string `yaml:"method"` // "type" or "paste"
	RestoreClipboard bool   `yaml:"restore_clipboard"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "murmur")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultDataDir returns the default data directory path.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "murmur")
}

// DefaultModelsDir returns the default directory for downloaded models.
func DefaultModelsDir() string {
	return filepath.Join(DefaultDataDir(), "models")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Backend:         "openai",
		DiscardDuration: 0.5,
		Retries:         5,
		ModelsDir:       DefaultModelsDir(),
		Hotkey: HotkeyConfig{
			Keys: []string{"ctrl", "shift", "d"},
			Mode: "hold",
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
		},
		Inject: InjectConfig{
			Method: "type",
		},
		Notify:   true,
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in models_dir is expanded to the user's home
// directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ModelsDir = expandTilde(cfg.ModelsDir)

	return cfg, nil
}

// Save writes the config as YAML to the given path, creating parent
// directories as needed. The file is created with 0600 permissions
// because it may contain an API key.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.Backend {
	case "openai", "local":
	default:
		return fmt.Errorf("backend must be \"openai\" or \"local\", got %q", c.Backend)
	}

	if c.DiscardDuration < 0 {
		return fmt.Errorf("discard_duration must be >= 0")
	}

	if c.Retries < 0 || c.Retries > 255 {
		return fmt.Errorf("retries must be in [0, 255], got %d", c.Retries)
	}

	if c.ModelsDir == "" {
		return fmt.Errorf("models_dir must not be empty")
	}

	if len(c.Hotkey.Keys) == 0 {
		return fmt.Errorf("hotkey.keys must not be empty")
	}

	switch c.Hotkey.Mode {
	case "hold", "toggle":
	default:
		return fmt.Errorf("hotkey.mode must be \"hold\" or \"toggle\", got %q", c.Hotkey.Mode)
	}

	if c.Audio.SampleRate == 0 {
		return fmt.Errorf("audio.sample_rate must be > 0")
	}

	if c.Audio.Channels == 0 {
		return fmt.Errorf("audio.channels must be > 0")
	}

	switch c.Inject.Method {
	case "type", "paste":
	default:
		return fmt.Errorf("inject.method must be \"type\" or \"paste\", got %q", c.Inject.Method)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
