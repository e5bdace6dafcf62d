// Package pipeline orchestrates one acquisition-enrichment-aggregation
// run: catalog fetch, per-title enrichment, snapshot persistence, and
// derived-artifact generation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vitran/ecfr-analyzer/internal/analytics"
	"github.com/vitran/ecfr-analyzer/internal/ecfr"
	"github.com/vitran/ecfr-analyzer/internal/enricher"
	"github.com/vitran/ecfr-analyzer/internal/metrics"
	"github.com/vitran/ecfr-analyzer/internal/storage"
)

// ErrSyncInProgress is returned when a run is requested while another
// run holds the exclusion flag. The request is rejected outright; no
// state is touched.
var ErrSyncInProgress = errors.New("sync already in progress")

// Service runs the pipeline. At most one run is active per process,
// enforced by a compare-and-swap on the running flag; storage is only
// written while the flag is held.
type Service struct {
	client    ecfr.Client
	enricher  *enricher.Enricher
	analytics *analytics.Service
	store     storage.Store
	clock     ecfr.Clock
	logger    *zap.Logger

	running atomic.Bool

	mu      sync.Mutex
	lastRun time.Time
}

// New constructs a Service.
func New(
	client ecfr.Client,
	enr *enricher.Enricher,
	an *analytics.Service,
	store storage.Store,
	clock ecfr.Clock,
	logger *zap.Logger,
) *Service {
	return &Service{
		client:    client,
		enricher:  enr,
		analytics: an,
		store:     store,
		clock:     clock,
		logger:    logger,
	}
}

// Run executes one full pipeline pass and returns the enriched titles.
// The run fails only on total title-catalog failure or storage
// failure; everything else degrades per title or per stage. On
// failure the previously persisted snapshot remains authoritative.
func (s *Service) Run(ctx context.Context) ([]ecfr.Title, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.running.Store(false)
	return s.run(ctx)
}

// Start begins a run in the background. The exclusion flag is claimed
// synchronously, so a second caller gets ErrSyncInProgress right away,
// but the run itself detaches from the caller's cancellation: a full
// pass takes minutes with production rate limiting and must outlive
// any HTTP request deadline.
func (s *Service) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	go func() {
		defer s.running.Store(false)
		if _, err := s.run(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("background sync failed", zap.Error(err))
		}
	}()
	return nil
}

// run assumes the caller holds the running flag.
func (s *Service) run(ctx context.Context) ([]ecfr.Title, error) {
	metrics.SetSyncInProgress(true)
	defer metrics.SetSyncInProgress(false)

	s.logger.Info("starting data acquisition pipeline")

	titles, agencies, err := s.Acquire(ctx)
	if err != nil {
		metrics.ObserveSyncRun("failed")
		return nil, err
	}

	if len(agencies) > 0 {
		if err := s.store.SaveArtifact(ctx, "agencies", agencies); err != nil {
			s.logger.Warn("save agency catalog", zap.Error(err))
		}
	}

	if len(titles) == 0 {
		s.logger.Info("no titles acquired; keeping existing snapshot")
		metrics.ObserveSyncRun("empty")
		return titles, nil
	}

	if err := s.store.SaveTitles(ctx, titles); err != nil {
		metrics.ObserveSyncRun("failed")
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}

	if err := s.writeArtifacts(ctx, titles); err != nil {
		metrics.ObserveSyncRun("failed")
		return nil, err
	}

	s.mu.Lock()
	s.lastRun = s.clock.Now()
	s.mu.Unlock()

	metrics.ObserveSyncRun("ok")
	s.logger.Info("pipeline run complete", zap.Int("titles", len(titles)))
	return titles, nil
}

// Acquire fetches both catalogs and enriches the title stubs without
// touching storage. Agency-catalog failure degrades to an empty
// mapping; a malformed title catalog degrades to an empty run; a
// transport-level title-catalog failure fails the run.
func (s *Service) Acquire(ctx context.Context) ([]ecfr.Title, map[string]ecfr.Agency, error) {
	agencies, err := s.client.FetchAgencies(ctx)
	if err != nil {
		s.logger.Warn("agency catalog unavailable; treating all agencies as unknown", zap.Error(err))
		agencies = map[string]ecfr.Agency{}
	}

	stubs, err := s.client.FetchTitleCatalog(ctx)
	if err != nil {
		if errors.Is(err, ecfr.ErrMalformedCatalog) {
			s.logger.Warn("malformed title catalog; degrading to empty", zap.Error(err))
			return []ecfr.Title{}, agencies, nil
		}
		return nil, nil, fmt.Errorf("title catalog: %w", err)
	}

	return s.enricher.EnrichAll(ctx, stubs), agencies, nil
}

// writeArtifacts persists every derived-analytics artifact. All
// artifacts are attempted; errors are joined.
func (s *Service) writeArtifacts(ctx context.Context, titles []ecfr.Title) error {
	artifacts := map[string]any{
		analytics.ArtifactWordCounts:       s.analytics.WordCounts(titles),
		analytics.ArtifactChecksums:        s.analytics.Checksums(titles),
		analytics.ArtifactChanges:          s.analytics.HistoricalChanges(titles),
		analytics.ArtifactComplexityScores: s.analytics.ComplexityScores(titles),
		analytics.ArtifactAgencyMetrics:    s.analytics.AgencyRollups(titles),
		analytics.ArtifactTitleSummaries:   s.analytics.TitleSummaries(titles),
	}

	var errs []error
	for name, payload := range artifacts {
		if err := s.store.SaveArtifact(ctx, name, payload); err != nil {
			errs = append(errs, err)
		}
	}

	// Per-agency snapshot slices for downstream consumers.
	byAgency := map[string][]ecfr.Title{}
	for _, t := range titles {
		if t.Agency != "" {
			byAgency[t.Agency] = append(byAgency[t.Agency], t)
		}
	}
	for agency, agencyTitles := range byAgency {
		name := "agency-" + storage.SanitizeName(agency)
		if err := s.store.SaveArtifact(ctx, name, agencyTitles); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("write artifacts: %w", errors.Join(errs...))
	}
	s.logger.Info("analytics artifacts written", zap.Int("count", len(artifacts)+len(byAgency)))
	return nil
}

// InProgress reports whether a run is currently active.
func (s *Service) InProgress() bool {
	return s.running.Load()
}

// LastRunTime returns when the last successful run finished.
func (s *Service) LastRunTime() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, !s.lastRun.IsZero()
}
