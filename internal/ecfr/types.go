// Package ecfr defines core types shared across subsystems and the
// client for the eCFR versioned-document API.
package ecfr

import (
	"time"
)

// Agency is one issuing body from the agency catalog. Immutable within a run.
type Agency struct {
	Name          string         `json:"name"`
	ShortName     string         `json:"short_name"`
	DisplayName   string         `json:"display_name"`
	SortableName  string         `json:"sortable_name"`
	Slug          string         `json:"slug"`
	Children      []Agency       `json:"children,omitempty"`
	CFRReferences []CFRReference `json:"cfr_references,omitempty"`
}

// CFRReference points an agency at a title/chapter it administers.
type CFRReference struct {
	Title   int    `json:"title"`
	Chapter string `json:"chapter,omitempty"`
}

// Title is one CFR title. The catalog populates the first block of
// fields; the enricher fills in the rest.
type Title struct {
	Number          int    `json:"number"`
	Name            string `json:"name"`
	Reserved        bool   `json:"reserved"`
	LatestAmendedOn string `json:"latest_amended_on,omitempty"`
	LatestIssueDate string `json:"latest_issue_date,omitempty"`
	UpToDateAsOf    string `json:"up_to_date_as_of,omitempty"`

	Agency        string    `json:"agency,omitempty"`
	Content       string    `json:"content,omitempty"`
	WordCount     int       `json:"word_count"`
	StructureData string    `json:"structure_data,omitempty"`
	Checksum      string    `json:"checksum,omitempty"`
	LastUpdated   time.Time `json:"last_updated,omitzero"`

	// Structural identifiers when that granularity is available.
	Part    string `json:"part,omitempty"`
	Chapter string `json:"chapter,omitempty"`
	Section string `json:"section,omitempty"`
}

// SetContent stores content and derives the word count from it.
func (t *Title) SetContent(content string) {
	t.Content = content
	t.WordCount = CountWords(content)
}

// agenciesResponse is the envelope of the agency list endpoint.
type agenciesResponse struct {
	Agencies []Agency `json:"agencies"`
}

// titlesResponse is the envelope of the title catalog endpoint.
type titlesResponse struct {
	Titles []Title        `json:"titles"`
	Meta   map[string]any `json:"meta,omitempty"`
}
