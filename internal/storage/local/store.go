// Package local implements the storage gateway on the local
// filesystem with atomic snapshot replacement.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/vitran/ecfr-analyzer/internal/ecfr"
	"github.com/vitran/ecfr-analyzer/internal/storage"
)

const (
	titlesFile   = "ecfr-titles.json"
	metadataFile = "metadata.json"
)

// Config captures the parameters for the local store.
type Config struct {
	// DataDir is the directory holding the snapshot and artifacts.
	DataDir string `mapstructure:"data_dir"`
}

// Store persists the snapshot as JSON files under one directory.
type Store struct {
	dir    string
	clock  ecfr.Clock
	logger *zap.Logger
}

// New creates the data directory if needed and returns a Store.
func New(cfg Config, clock ecfr.Clock, logger *zap.Logger) (*Store, error) {
	if cfg.DataDir == "" {
		return nil, errors.New("data directory is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", cfg.DataDir, err)
	}
	return &Store{dir: cfg.DataDir, clock: clock, logger: logger}, nil
}

// SaveTitles overwrites the snapshot atomically and refreshes run
// metadata.
func (s *Store) SaveTitles(ctx context.Context, titles []ecfr.Title) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save titles: %w", err)
	}
	if err := s.writeAtomic(titlesFile, titles); err != nil {
		return fmt.Errorf("save titles: %w", err)
	}

	meta := storage.Metadata{
		TotalTitles: len(titles),
		LastUpdate:  s.clock.Now(),
		Version:     storage.SnapshotVersion,
	}
	if err := s.writeAtomic(metadataFile, meta); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}

	s.logger.Info("snapshot saved",
		zap.Int("titles", len(titles)),
		zap.String("dir", s.dir),
	)
	return nil
}

// LoadTitles returns the current snapshot, or an empty slice when no
// snapshot exists yet.
func (s *Store) LoadTitles(ctx context.Context) ([]ecfr.Title, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load titles: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, titlesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []ecfr.Title{}, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var titles []ecfr.Title
	if err := json.Unmarshal(data, &titles); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return titles, nil
}

// HasExistingData reports whether a non-empty snapshot exists.
func (s *Store) HasExistingData(ctx context.Context) (bool, error) {
	titles, err := s.LoadTitles(ctx)
	if err != nil {
		return false, err
	}
	return len(titles) > 0, nil
}

// LastUpdateTime round-trips the timestamp written by the last
// successful save. The second return is false when no metadata exists.
func (s *Store) LastUpdateTime(ctx context.Context) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, fmt.Errorf("last update time: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("read metadata: %w", err)
	}
	var meta storage.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return time.Time{}, false, fmt.Errorf("decode metadata: %w", err)
	}
	return meta.LastUpdate, true, nil
}

// SaveArtifact writes one derived-analytics artifact as JSON.
func (s *Store) SaveArtifact(ctx context.Context, name string, payload any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	if err := s.writeAtomic(name+".json", payload); err != nil {
		return fmt.Errorf("save artifact %s: %w", name, err)
	}
	return nil
}

// writeAtomic marshals v and replaces the target file via rename, so
// readers never see a partial write.
func (s *Store) writeAtomic(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
