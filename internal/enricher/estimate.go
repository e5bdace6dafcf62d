package enricher

import "strings"

// structureKeywords are the structural markers counted for the
// keyword-density word estimate, each weighted by wordsPerKeyword.
var structureKeywords = []string{
	"section", "part", "chapter", "subpart", "paragraph", "regulation", "rule",
}

const (
	wordsPerKeyword   = 50
	minEstimatedWords = 1000
)

// EstimateWordsFromStructure derives a word-count estimate from the
// density of structural keywords in a raw structure payload.
func EstimateWordsFromStructure(structureJSON string) int {
	if structureJSON == "" {
		return minEstimatedWords
	}
	lower := strings.ToLower(structureJSON)
	count := 0
	for _, kw := range structureKeywords {
		count += strings.Count(lower, kw)
	}
	if estimate := count * wordsPerKeyword; estimate > minEstimatedWords {
		return estimate
	}
	return minEstimatedWords
}

// EstimateWordsFromTitleName derives a word-count estimate from
// heuristics over the title name when no structure is available.
func EstimateWordsFromTitleName(name string) int {
	if name == "" {
		return minEstimatedWords
	}

	estimate := 5000
	if len(name) > 30 {
		estimate += 2000
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, "administration") {
		estimate += 3000
	}
	if strings.Contains(lower, "management") {
		estimate += 2000
	}
	if strings.Contains(lower, "regulation") {
		estimate += 4000
	}
	return estimate
}
