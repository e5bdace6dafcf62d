// Package analytics derives per-agency metrics and corpus-wide
// reports from an enriched title snapshot.
package analytics

import "time"

// AgencyMetrics is the per-agency read model, recomputed from scratch
// every time a report is generated.
type AgencyMetrics struct {
	AgencyName                string    `json:"agency_name"`
	TotalRegulations          int       `json:"total_regulations"`
	TotalWordCount            int64     `json:"total_word_count"`
	AverageWordsPerRegulation float64   `json:"average_words_per_regulation"`
	UniqueTitles              int       `json:"unique_titles"`
	Checksum                  string    `json:"checksum"`
	RegulatoryComplexityIndex float64   `json:"regulatory_complexity_index"`
	ComplexityScore           float64   `json:"complexity_score"`
	LastUpdated               time.Time `json:"last_updated"`
}

// AnalysisReport is the corpus-wide read model. Top-agency fields are
// empty, not an error, when there are no agencies.
type AnalysisReport struct {
	GeneratedAt      time.Time                `json:"generated_at"`
	TotalRegulations int                      `json:"total_regulations"`
	TotalWordCount   int64                    `json:"total_word_count"`
	TotalAgencies    int                      `json:"total_agencies"`
	AgencyMetrics    map[string]AgencyMetrics `json:"agency_metrics"`
	OverallChecksum  string                   `json:"overall_checksum"`
	LastDataUpdate   time.Time                `json:"last_data_update,omitzero"`

	MostRegulationsAgency   string `json:"most_regulations_agency,omitempty"`
	MostWordsAgency         string `json:"most_words_agency,omitempty"`
	HighestComplexityAgency string `json:"highest_complexity_agency,omitempty"`
}

// ChangeRecord is one entry in the chronological change list.
type ChangeRecord struct {
	Agency      string `json:"agency"`
	Title       int    `json:"title"`
	TitleName   string `json:"title_name"`
	Date        string `json:"date"`
	IssueDate   string `json:"issue_date,omitempty"`
	UpToDate    string `json:"up_to_date,omitempty"`
	Type        string `json:"type"`
	Description string `json:"description"`
	WordCount   int    `json:"word_count"`
}

// TitleSummary is the per-title entry of the title-summaries artifact.
type TitleSummary struct {
	Number            int       `json:"number"`
	Name              string    `json:"name"`
	Agency            string    `json:"agency,omitempty"`
	WordCount         int       `json:"word_count"`
	Reserved          bool      `json:"reserved"`
	LatestAmendedOn   string    `json:"latest_amended_on,omitempty"`
	LatestIssueDate   string    `json:"latest_issue_date,omitempty"`
	UpToDateAsOf      string    `json:"up_to_date_as_of,omitempty"`
	Checksum          string    `json:"checksum,omitempty"`
	LastUpdated       time.Time `json:"last_updated,omitzero"`
	EstimatedSections int       `json:"estimated_sections"`
}

// AgencyRollup is the consolidated per-agency entry of the
// agency-metrics artifact.
type AgencyRollup struct {
	AgencyName                string  `json:"agency_name"`
	TotalWords                int64   `json:"total_words"`
	TotalRegulations          int     `json:"total_regulations"`
	CFRTitles                 []int   `json:"cfr_titles"`
	Checksum                  string  `json:"checksum"`
	ComplexityScore           float64 `json:"complexity_score"`
	RegulatoryComplexityIndex float64 `json:"regulatory_complexity_index"`
	LatestAmendment           string  `json:"latest_amendment"`
	LastUpdated               string  `json:"last_updated"`
}
