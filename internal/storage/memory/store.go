// Package memory implements an in-memory storage gateway for tests
// and throwaway runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vitran/ecfr-analyzer/internal/ecfr"
	"github.com/vitran/ecfr-analyzer/internal/storage"
)

// Store keeps the snapshot and artifacts in process memory.
type Store struct {
	mu        sync.RWMutex
	titles    []ecfr.Title
	meta      *storage.Metadata
	artifacts map[string]any
	clock     ecfr.Clock
}

// New returns an empty Store stamping saves with the given clock.
func New(clock ecfr.Clock) *Store {
	return &Store{
		artifacts: map[string]any{},
		clock:     clock,
	}
}

// SaveTitles replaces the snapshot and updates metadata.
func (s *Store) SaveTitles(_ context.Context, titles []ecfr.Title) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = make([]ecfr.Title, len(titles))
	copy(s.titles, titles)
	s.meta = &storage.Metadata{
		TotalTitles: len(titles),
		LastUpdate:  s.clock.Now(),
		Version:     storage.SnapshotVersion,
	}
	return nil
}

// LoadTitles returns a copy of the current snapshot.
func (s *Store) LoadTitles(_ context.Context) ([]ecfr.Title, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ecfr.Title, len(s.titles))
	copy(out, s.titles)
	return out, nil
}

// HasExistingData reports whether a non-empty snapshot exists.
func (s *Store) HasExistingData(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.titles) > 0, nil
}

// LastUpdateTime returns the timestamp of the last save, if any.
func (s *Store) LastUpdateTime(_ context.Context) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.meta == nil {
		return time.Time{}, false, nil
	}
	return s.meta.LastUpdate, true, nil
}

// SaveArtifact stores one derived artifact by name.
func (s *Store) SaveArtifact(_ context.Context, name string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[name] = payload
	return nil
}

// Artifact returns a stored artifact for assertions in tests.
func (s *Store) Artifact(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.artifacts[name]
	return v, ok
}
