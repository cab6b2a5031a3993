package config

import (
	"fmt"
	"sync"
)

// Store holds the runtime-adjustable configuration. Reads return copies, so a
// generation works from a consistent snapshot even if a PUT lands mid-flight.
type Store struct {
	mu  sync.RWMutex
	cfg Config
}

func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg}
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.cfg
	c.ExtraArgs = append([]string(nil), s.cfg.ExtraArgs...)
	c.CORSOrigins = append([]string(nil), s.cfg.CORSOrigins...)
	c.CORSMethods = append([]string(nil), s.cfg.CORSMethods...)
	c.CORSHeaders = append([]string(nil), s.cfg.CORSHeaders...)
	return c
}

func (s *Store) MaxLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.MaxLength
}

func (s *Store) MaxContextLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.MaxContextLength
}

func (s *Store) SoftPrompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.SoftPrompt
}

func (s *Store) ModelAnnounce() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.ModelAnnounce
}

func (s *Store) SetMaxLength(n int) error {
	if n <= 0 {
		return fmt.Errorf("max_length must be positive, got %d", n)
	}
	s.mu.Lock()
	s.cfg.MaxLength = n
	s.mu.Unlock()
	return nil
}

func (s *Store) SetMaxContextLength(n int) error {
	if n <= 0 {
		return fmt.Errorf("max_context_length must be positive, got %d", n)
	}
	s.mu.Lock()
	s.cfg.MaxContextLength = n
	s.mu.Unlock()
	return nil
}

func (s *Store) SetSoftPrompt(name string) {
	s.mu.Lock()
	s.cfg.SoftPrompt = name
	s.mu.Unlock()
}
