// Package checksum computes deterministic integrity fingerprints for
// titles and title collections.
package checksum

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"github.com/vitran/ecfr-analyzer/internal/ecfr"
)

// Computer fingerprints titles with the configured digest. The same
// inputs always produce the same output.
type Computer struct {
	hasher ecfr.Hasher
}

// New returns a Computer backed by the given hasher.
func New(hasher ecfr.Hasher) *Computer {
	return &Computer{hasher: hasher}
}

// TitleChecksum fingerprints a single title from its number, name,
// content, and word count.
func (c *Computer) TitleChecksum(t ecfr.Title) string {
	return c.digest(canonicalTitle(t))
}

// CollectionChecksum fingerprints a title collection. Input order does
// not matter: titles are sorted by number ascending with a name
// tie-break before hashing, so the fingerprint is order-invariant but
// sensitive to any content change.
func (c *Computer) CollectionChecksum(titles []ecfr.Title) string {
	sorted := make([]ecfr.Title, len(titles))
	copy(sorted, titles)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Number != sorted[j].Number {
			return sorted[i].Number < sorted[j].Number
		}
		return sorted[i].Name < sorted[j].Name
	})

	lines := make([]string, len(sorted))
	for i, t := range sorted {
		lines[i] = canonicalTitle(t)
	}
	return c.digest(strings.Join(lines, "\n"))
}

func (c *Computer) digest(canonical string) string {
	sum, err := c.hasher.Hash([]byte(canonical))
	if err != nil {
		// Degraded numeric fingerprint; still deterministic.
		h := fnv.New64a()
		_, _ = h.Write([]byte(canonical))
		return strconv.FormatUint(h.Sum64(), 10)
	}
	return sum
}

func canonicalTitle(t ecfr.Title) string {
	return fmt.Sprintf("%d|%s|%s|%d", t.Number, t.Name, t.Content, t.WordCount)
}
