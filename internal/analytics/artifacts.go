package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vitran/ecfr-analyzer/internal/ecfr"
)

// Artifact names persisted through the storage gateway after each run.
const (
	ArtifactWordCounts       = "word-counts"
	ArtifactChecksums        = "checksums"
	ArtifactChanges          = "historical-changes"
	ArtifactComplexityScores = "complexity-scores"
	ArtifactAgencyMetrics    = "agency-metrics"
	ArtifactTitleSummaries   = "title-summaries"
)

// sectionKeywords drive the structural-element estimate for title
// summaries.
var sectionKeywords = []string{"section", "§", "sec.", "part", "subpart"}

// WordCounts maps each agency to its total word count.
func (s *Service) WordCounts(titles []ecfr.Title) map[string]int64 {
	counts := map[string]int64{}
	for agency, agencyTitles := range groupByAgency(titles) {
		var total int64
		for _, t := range agencyTitles {
			total += int64(t.WordCount)
		}
		counts[agency] = total
	}
	return counts
}

// Checksums maps each agency to the collection checksum of its titles.
func (s *Service) Checksums(titles []ecfr.Title) map[string]string {
	sums := map[string]string{}
	for agency, agencyTitles := range groupByAgency(titles) {
		sums[agency] = s.checksum.CollectionChecksum(agencyTitles)
	}
	return sums
}

// HistoricalChanges builds the chronological change list, most recent
// first, from titles carrying an amendment date.
func (s *Service) HistoricalChanges(titles []ecfr.Title) []ChangeRecord {
	changes := make([]ChangeRecord, 0, len(titles))
	for _, t := range titles {
		if t.LatestAmendedOn == "" {
			continue
		}
		changes = append(changes, ChangeRecord{
			Agency:      t.Agency,
			Title:       t.Number,
			TitleName:   t.Name,
			Date:        t.LatestAmendedOn,
			IssueDate:   t.LatestIssueDate,
			UpToDate:    t.UpToDateAsOf,
			Type:        "amendment",
			Description: fmt.Sprintf("Title %d amended", t.Number),
			WordCount:   t.WordCount,
		})
	}
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Date != changes[j].Date {
			return changes[i].Date > changes[j].Date
		}
		return changes[i].Title < changes[j].Title
	})
	return changes
}

// ComplexityScores maps each agency to its capped Complexity Score.
func (s *Service) ComplexityScores(titles []ecfr.Title) map[string]float64 {
	scores := map[string]float64{}
	for agency, agencyTitles := range groupByAgency(titles) {
		scores[agency] = s.ComplexityScore(agencyTitles)
	}
	return scores
}

// AgencyRollups builds the consolidated agency-metrics artifact.
func (s *Service) AgencyRollups(titles []ecfr.Title) map[string]AgencyRollup {
	rollups := map[string]AgencyRollup{}
	for agency, agencyTitles := range groupByAgency(titles) {
		numbers := map[int]struct{}{}
		var totalWords int64
		latestAmendment := "Unknown"
		for _, t := range agencyTitles {
			numbers[t.Number] = struct{}{}
			totalWords += int64(t.WordCount)
			if t.LatestAmendedOn != "" &&
				(latestAmendment == "Unknown" || t.LatestAmendedOn > latestAmendment) {
				latestAmendment = t.LatestAmendedOn
			}
		}
		cfrTitles := make([]int, 0, len(numbers))
		for n := range numbers {
			cfrTitles = append(cfrTitles, n)
		}
		sort.Ints(cfrTitles)

		rollups[agency] = AgencyRollup{
			AgencyName:                agency,
			TotalWords:                totalWords,
			TotalRegulations:          len(agencyTitles),
			CFRTitles:                 cfrTitles,
			Checksum:                  s.checksum.CollectionChecksum(agencyTitles),
			ComplexityScore:           s.ComplexityScore(agencyTitles),
			RegulatoryComplexityIndex: s.RegulatoryComplexityIndex(agencyTitles),
			LatestAmendment:           latestAmendment,
			LastUpdated:               s.clock.Now().Format(time.RFC3339Nano),
		}
	}
	return rollups
}

// TitleSummaries builds the title-number keyed summary artifact.
func (s *Service) TitleSummaries(titles []ecfr.Title) map[int]TitleSummary {
	summaries := make(map[int]TitleSummary, len(titles))
	for _, t := range titles {
		summaries[t.Number] = TitleSummary{
			Number:            t.Number,
			Name:              t.Name,
			Agency:            t.Agency,
			WordCount:         t.WordCount,
			Reserved:          t.Reserved,
			LatestAmendedOn:   t.LatestAmendedOn,
			LatestIssueDate:   t.LatestIssueDate,
			UpToDateAsOf:      t.UpToDateAsOf,
			Checksum:          t.Checksum,
			LastUpdated:       t.LastUpdated,
			EstimatedSections: EstimateSections(t.StructureData),
		}
	}
	return summaries
}

// EstimateSections estimates the structural-element count of a title
// from keyword density over its structure payload. Titles with no
// structure default to 10; the floor is 1 otherwise.
func EstimateSections(structureData string) int {
	if structureData == "" {
		return 10
	}
	lower := strings.ToLower(structureData)
	count := 0
	for _, kw := range sectionKeywords {
		count += strings.Count(lower, kw)
	}
	if count < 1 {
		return 1
	}
	return count
}
