// Package storage defines the snapshot persistence contract and its
// shared types. Providers live in subpackages.
package storage

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/vitran/ecfr-analyzer/internal/ecfr"
)

// SnapshotVersion is written into run metadata.
const SnapshotVersion = "1.0"

// Metadata describes the most recent snapshot.
type Metadata struct {
	TotalTitles int       `json:"totalTitles"`
	LastUpdate  time.Time `json:"lastUpdate"`
	Version     string    `json:"version"`
}

// Store persists and loads the title snapshot plus derived artifacts.
// SaveTitles must replace the snapshot atomically: a reader never
// observes a partially written snapshot.
type Store interface {
	SaveTitles(ctx context.Context, titles []ecfr.Title) error
	LoadTitles(ctx context.Context) ([]ecfr.Title, error)
	HasExistingData(ctx context.Context) (bool, error)
	LastUpdateTime(ctx context.Context) (time.Time, bool, error)
	SaveArtifact(ctx context.Context, name string, payload any) error
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// SanitizeName converts an arbitrary label (such as an agency name)
// into a safe artifact name.
func SanitizeName(name string) string {
	return strings.ToLower(unsafeNameChars.ReplaceAllString(name, "_"))
}
