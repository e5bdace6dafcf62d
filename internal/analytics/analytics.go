package analytics

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/vitran/ecfr-analyzer/internal/checksum"
	"github.com/vitran/ecfr-analyzer/internal/ecfr"
)

// Ranking metric names accepted by TopAgenciesByMetric.
const (
	MetricRegulations = "regulations"
	MetricWords       = "words"
	MetricComplexity  = "complexity"
)

// Config controls scoring behavior.
type Config struct {
	// RecentCutoff is the amendment date on or after which a title
	// counts as recently amended for the capped Complexity Score.
	RecentCutoff string
}

// Service computes agency metrics and analysis reports.
type Service struct {
	checksum *checksum.Computer
	clock    ecfr.Clock
	cfg      Config
	logger   *zap.Logger
}

// New constructs a Service.
func New(cks *checksum.Computer, clock ecfr.Clock, cfg Config, logger *zap.Logger) *Service {
	if cfg.RecentCutoff == "" {
		cfg.RecentCutoff = "2024-01-01"
	}
	return &Service{
		checksum: cks,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// GenerateReport builds the corpus-wide report from a title snapshot.
// An empty snapshot yields a report with zero totals, an empty agency
// map, and no top-agency selection.
func (s *Service) GenerateReport(titles []ecfr.Title) AnalysisReport {
	report := AnalysisReport{
		GeneratedAt:      s.clock.Now(),
		TotalRegulations: len(titles),
		AgencyMetrics:    map[string]AgencyMetrics{},
	}

	for _, t := range titles {
		report.TotalWordCount += int64(t.WordCount)
		if t.LastUpdated.After(report.LastDataUpdate) {
			report.LastDataUpdate = t.LastUpdated
		}
	}

	report.AgencyMetrics = s.AgencyMetricsByName(titles)
	report.TotalAgencies = len(report.AgencyMetrics)
	report.OverallChecksum = s.checksum.CollectionChecksum(titles)
	s.setTopAgencies(&report)

	s.logger.Info("analysis report generated",
		zap.Int("agencies", report.TotalAgencies),
		zap.Int("regulations", report.TotalRegulations),
	)
	return report
}

// AgencyMetricsByName groups titles by resolved agency and computes
// metrics per group. Titles with no resolvable agency are excluded.
func (s *Service) AgencyMetricsByName(titles []ecfr.Title) map[string]AgencyMetrics {
	groups := groupByAgency(titles)
	out := make(map[string]AgencyMetrics, len(groups))
	for agency, agencyTitles := range groups {
		out[agency] = s.agencyMetrics(agency, agencyTitles)
	}
	return out
}

func (s *Service) agencyMetrics(agency string, titles []ecfr.Title) AgencyMetrics {
	m := AgencyMetrics{
		AgencyName:       agency,
		TotalRegulations: len(titles),
		UniqueTitles:     distinctTitleNumbers(titles),
		LastUpdated:      s.clock.Now(),
	}
	for _, t := range titles {
		m.TotalWordCount += int64(t.WordCount)
	}
	if m.TotalRegulations > 0 {
		m.AverageWordsPerRegulation = float64(m.TotalWordCount) / float64(m.TotalRegulations)
	}
	m.RegulatoryComplexityIndex = s.RegulatoryComplexityIndex(titles)
	m.ComplexityScore = s.ComplexityScore(titles)
	m.Checksum = s.checksum.CollectionChecksum(titles)
	return m
}

// RegulatoryComplexityIndex is the primary unbounded composite metric:
// 0.4*verbosity + 0.3*scope + 0.3*structure, rounded to 2 decimals.
// An empty subset yields 0.0.
func (s *Service) RegulatoryComplexityIndex(titles []ecfr.Title) float64 {
	if len(titles) == 0 {
		return 0.0
	}

	var totalWords float64
	for _, t := range titles {
		totalWords += float64(t.WordCount)
	}
	verbosity := totalWords / float64(len(titles)) / 1000.0
	scope := float64(distinctTitleNumbers(titles)) / 10.0
	structure := structureComplexity(titles)

	return round2(0.4*verbosity + 0.3*scope + 0.3*structure)
}

// ComplexityScore is the capped presentation variant on a 0-10 scale.
// Each component is clamped before summation; an empty subset yields
// the defined minimum of 1.0.
func (s *Service) ComplexityScore(titles []ecfr.Title) float64 {
	if len(titles) == 0 {
		return 1.0
	}

	var totalWords float64
	recent := 0
	for _, t := range titles {
		totalWords += float64(t.WordCount)
		if t.LatestAmendedOn != "" && t.LatestAmendedOn >= s.cfg.RecentCutoff {
			recent++
		}
	}

	verbosity := math.Min(totalWords/float64(len(titles))/5000.0, 3.0)
	scope := math.Min(float64(distinctTitleNumbers(titles))/5.0, 3.0)
	recency := math.Min(float64(recent)/float64(len(titles))*4.0, 4.0)

	return round2(math.Min(verbosity+scope+recency, 10.0))
}

// TopAgenciesByMetric ranks agencies descending by the chosen metric
// ("regulations", "words", or "complexity"; anything else sorts by
// regulations) and truncates to limit. Ties break alphabetically.
func (s *Service) TopAgenciesByMetric(titles []ecfr.Title, metric string, limit int) []AgencyMetrics {
	byName := s.AgencyMetricsByName(titles)
	all := make([]AgencyMetrics, 0, len(byName))
	for _, m := range byName {
		all = append(all, m)
	}

	var key func(m AgencyMetrics) float64
	switch strings.ToLower(metric) {
	case MetricWords:
		key = func(m AgencyMetrics) float64 { return float64(m.TotalWordCount) }
	case MetricComplexity:
		key = func(m AgencyMetrics) float64 { return m.RegulatoryComplexityIndex }
	default:
		key = func(m AgencyMetrics) float64 { return float64(m.TotalRegulations) }
	}
	sort.Slice(all, func(i, j int) bool {
		ki, kj := key(all[i]), key(all[j])
		if ki != kj {
			return ki > kj
		}
		return all[i].AgencyName < all[j].AgencyName
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// setTopAgencies selects the maximum for each headline metric, with
// ties broken by the stable alphabetical agency ordering.
func (s *Service) setTopAgencies(report *AnalysisReport) {
	names := sortedAgencyNames(report.AgencyMetrics)
	for _, name := range names {
		m := report.AgencyMetrics[name]
		if report.MostRegulationsAgency == "" ||
			m.TotalRegulations > report.AgencyMetrics[report.MostRegulationsAgency].TotalRegulations {
			report.MostRegulationsAgency = name
		}
		if report.MostWordsAgency == "" ||
			m.TotalWordCount > report.AgencyMetrics[report.MostWordsAgency].TotalWordCount {
			report.MostWordsAgency = name
		}
		if report.HighestComplexityAgency == "" ||
			m.RegulatoryComplexityIndex > report.AgencyMetrics[report.HighestComplexityAgency].RegulatoryComplexityIndex {
			report.HighestComplexityAgency = name
		}
	}
}

func groupByAgency(titles []ecfr.Title) map[string][]ecfr.Title {
	groups := map[string][]ecfr.Title{}
	for _, t := range titles {
		agency := strings.TrimSpace(t.Agency)
		if agency == "" {
			continue
		}
		groups[agency] = append(groups[agency], t)
	}
	return groups
}

func distinctTitleNumbers(titles []ecfr.Title) int {
	seen := map[int]struct{}{}
	for _, t := range titles {
		seen[t.Number] = struct{}{}
	}
	return len(seen)
}

// structureComplexity counts distinct non-blank part, chapter, and
// section identifiers. Zero is legitimate when that granularity is
// unavailable in the snapshot.
func structureComplexity(titles []ecfr.Title) float64 {
	parts := map[string]struct{}{}
	chapters := map[string]struct{}{}
	sections := map[string]struct{}{}
	for _, t := range titles {
		if v := strings.TrimSpace(t.Part); v != "" {
			parts[v] = struct{}{}
		}
		if v := strings.TrimSpace(t.Chapter); v != "" {
			chapters[v] = struct{}{}
		}
		if v := strings.TrimSpace(t.Section); v != "" {
			sections[v] = struct{}{}
		}
	}
	return float64(len(parts)+len(chapters)+len(sections)) / 100.0
}

func sortedAgencyNames(metrics map[string]AgencyMetrics) []string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func round2(x float64) float64 {
	return math.Round(x*100.0) / 100.0
}
