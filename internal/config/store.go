package config

import (
	"sync"
	"time"
)

// Store is a shared, read-mostly handle to the live configuration.
// The capture and pipeline components read policy values through it;
// writers are rare (config reload, settings changes). Locks are held
// only for the duration of a single field read, never across a
// network call or inference run.
type Store struct {
	mu  sync.RWMutex
	cfg *Config
}

// NewStore wraps cfg in a Store.
func NewStore(cfg *Config) *Store {
	return &Store{cfg: cfg}
}

// Snapshot returns a copy of the current config.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

// Update applies fn to the config under the write lock.
func (s *Store) Update(fn func(*Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.cfg)
}

// OpenAIKey returns the configured API key.
func (s *Store) OpenAIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.OpenAIKey
}

// Backend returns the configured transcription backend.
func (s *Store) Backend() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Backend
}

// Model returns the configured remote model name.
func (s *Store) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Model
}

// LocalModel returns the configured local model variant name.
func (s *Store) LocalModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.LocalModel
}

// Language returns the configured language hint, or "" for auto-detect.
func (s *Store) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Language
}

// Retries returns the configured retry budget.
func (s *Store) Retries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Retries
}

// DiscardDuration returns the minimum recording length as a Duration.
func (s *Store) DiscardDuration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.cfg.DiscardDuration * float64(time.Second))
}
