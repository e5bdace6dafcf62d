package ecfr

import (
	"context"
	"time"
)

// Client fetches catalog, structure, and content payloads from the
// remote versioned-document API.
type Client interface {
	FetchAgencies(ctx context.Context) (map[string]Agency, error)
	FetchTitleCatalog(ctx context.Context) ([]Title, error)
	FetchStructure(ctx context.Context, date string, number int) (string, error)
	FetchContent(ctx context.Context, date string, number int) (string, error)
}

// Hasher computes digests for integrity fingerprints.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Limiter spaces out calls against the remote API. There is exactly
// one limiter per process; every external call goes through it.
type Limiter interface {
	Wait(ctx context.Context) error
}
