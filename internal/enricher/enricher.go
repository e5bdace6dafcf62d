// Package enricher attaches content, word counts, structure, and
// checksums to title stubs from the catalog.
package enricher

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vitran/ecfr-analyzer/internal/checksum"
	"github.com/vitran/ecfr-analyzer/internal/ecfr"
	"github.com/vitran/ecfr-analyzer/internal/metrics"
)

// minValidContentLength is the smallest trimmed payload accepted as
// real title content.
const minValidContentLength = 100

// Config controls Enricher behavior.
type Config struct {
	// MaxTitlesPerRun caps the number of non-reserved titles enriched
	// in one run. Reserved titles do not consume the quota, but once
	// the quota is full the catalog loop stops entirely.
	MaxTitlesPerRun int
	// FallbackDate is the last candidate date tried for content.
	FallbackDate string
}

// Enricher runs the per-title enrichment pipeline in catalog order.
type Enricher struct {
	client   ecfr.Client
	checksum *checksum.Computer
	clock    ecfr.Clock
	cfg      Config
	logger   *zap.Logger
}

// New constructs an Enricher.
func New(client ecfr.Client, cks *checksum.Computer, clock ecfr.Clock, cfg Config, logger *zap.Logger) *Enricher {
	if cfg.MaxTitlesPerRun <= 0 {
		cfg.MaxTitlesPerRun = 50
	}
	if cfg.FallbackDate == "" {
		cfg.FallbackDate = "2024-01-01"
	}
	return &Enricher{
		client:   client,
		checksum: cks,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// EnrichAll processes title stubs sequentially until the catalog or
// the per-run quota is exhausted. A failure in one title never aborts
// the loop: the title is still emitted with agency, checksum, and
// timestamp set so it remains reportable.
func (e *Enricher) EnrichAll(ctx context.Context, stubs []ecfr.Title) []ecfr.Title {
	enriched := make([]ecfr.Title, 0, len(stubs))
	quota := 0

	for _, stub := range stubs {
		if ctx.Err() != nil {
			e.logger.Warn("enrichment interrupted", zap.Error(ctx.Err()))
			break
		}

		if quota >= e.cfg.MaxTitlesPerRun {
			e.logger.Info("per-run title quota reached, stopping",
				zap.Int("quota", e.cfg.MaxTitlesPerRun),
			)
			break
		}

		title := stub
		if title.Reserved {
			e.stampReserved(&title)
			enriched = append(enriched, title)
			metrics.ObserveTitleProcessed("reserved")
			continue
		}

		outcome := e.enrichOne(ctx, &title)
		enriched = append(enriched, title)
		quota++
		metrics.ObserveTitleProcessed(outcome)
	}

	return enriched
}

func (e *Enricher) stampReserved(t *ecfr.Title) {
	t.Agency = ecfr.ReservedAgency
	t.LastUpdated = e.clock.Now()
	t.Checksum = e.checksum.TitleChecksum(*t)
	e.logger.Debug("skipping reserved title", zap.Int("number", t.Number))
}

// enrichOne runs steps 2-6 of the pipeline for a single title and
// reports the outcome ("enriched", "fallback", or "failed"). Any
// failure, including a panic, is contained here.
func (e *Enricher) enrichOne(ctx context.Context, t *ecfr.Title) (outcome string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("title enrichment panicked",
				zap.Int("number", t.Number),
				zap.Any("panic", r),
			)
			e.stampFallbacks(t)
			outcome = "failed"
		}
	}()

	e.logger.Info("processing title", zap.Int("number", t.Number), zap.String("name", t.Name))

	t.Agency = ecfr.ResolveAgency(strconv.Itoa(t.Number))

	titleDate := ecfr.NormalizeDate(t.LatestIssueDate)
	if titleDate == "" {
		titleDate = e.clock.Now().Format(time.DateOnly)
	}

	// Structure retrieval is best-effort; the payload feeds the
	// keyword-density word estimate when content fetching fails.
	if structure, err := e.client.FetchStructure(ctx, titleDate, t.Number); err != nil {
		e.logger.Debug("structure not available",
			zap.Int("number", t.Number),
			zap.Error(err),
		)
	} else {
		t.StructureData = structure
	}

	fetched := e.fetchContent(ctx, t, titleDate)
	if !fetched {
		e.synthesizeFallback(t)
	}

	t.LastUpdated = e.clock.Now()
	t.Checksum = e.checksum.TitleChecksum(*t)

	if fetched {
		return "enriched"
	}
	return "fallback"
}

// fetchContent tries the candidate dates in order and accepts the
// first payload that passes validation. It reports whether content
// was set.
func (e *Enricher) fetchContent(ctx context.Context, t *ecfr.Title, primaryDate string) bool {
	candidates := []string{
		primaryDate,
		t.UpToDateAsOf,
		t.LatestAmendedOn,
		e.cfg.FallbackDate,
	}

	for _, candidate := range candidates {
		date := ecfr.NormalizeDate(candidate)
		if date == "" {
			continue
		}

		payload, err := e.client.FetchContent(ctx, date, t.Number)
		if err != nil {
			e.logger.Debug("content fetch failed",
				zap.Int("number", t.Number),
				zap.String("date", date),
				zap.Error(err),
			)
			continue
		}
		if !validContent(payload) {
			e.logger.Debug("content rejected by validation",
				zap.Int("number", t.Number),
				zap.String("date", date),
			)
			continue
		}

		t.SetContent(ecfr.ExtractText(payload))
		e.logger.Info("content accepted",
			zap.Int("number", t.Number),
			zap.String("date", date),
			zap.Int("word_count", t.WordCount),
		)
		return true
	}
	return false
}

// validContent applies the minimal sanity check: a minimum trimmed
// length and a recognizable root marker.
func validContent(payload string) bool {
	trimmed := strings.TrimSpace(payload)
	if len(trimmed) <= minValidContentLength {
		return false
	}
	return strings.Contains(trimmed, "<CFR>") || strings.Contains(trimmed, "<?xml")
}

// synthesizeFallback fills content and word count when no candidate
// date yielded a valid payload.
func (e *Enricher) synthesizeFallback(t *ecfr.Title) {
	wordCount := EstimateWordsFromTitleName(t.Name)
	if t.StructureData != "" {
		wordCount = EstimateWordsFromStructure(t.StructureData)
	}

	t.Content = fmt.Sprintf("CFR Title %d: %s - Last amended: %s - Issue date: %s",
		t.Number, t.Name, t.LatestAmendedOn, t.LatestIssueDate)
	t.WordCount = wordCount

	e.logger.Info("no content available, using metadata fallback",
		zap.Int("number", t.Number),
		zap.Int("estimated_words", wordCount),
	)
}

// stampFallbacks guarantees the reportability invariant for titles
// whose enrichment failed partway.
func (e *Enricher) stampFallbacks(t *ecfr.Title) {
	if t.Agency == "" {
		t.Agency = ecfr.ResolveAgency(strconv.Itoa(t.Number))
	}
	if t.Content == "" {
		e.synthesizeFallback(t)
	}
	t.LastUpdated = e.clock.Now()
	t.Checksum = e.checksum.TitleChecksum(*t)
}
