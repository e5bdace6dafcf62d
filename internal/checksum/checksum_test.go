package checksum

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitran/ecfr-analyzer/internal/ecfr"
	"github.com/vitran/ecfr-analyzer/internal/hash/sha256"
)

type failingHasher struct{}

func (failingHasher) Hash([]byte) (string, error) {
	return "", errors.New("digest unavailable")
}

func sampleTitles() []ecfr.Title {
	return []ecfr.Title{
		{Number: 7, Name: "Agriculture", Content: "farm rules", WordCount: 2},
		{Number: 1, Name: "General Provisions", Content: "definitions", WordCount: 1},
		{Number: 21, Name: "Food and Drugs", Content: "drug approval", WordCount: 2},
	}
}

func TestTitleChecksum_Deterministic(t *testing.T) {
	t.Parallel()

	c := New(sha256.New())
	title := ecfr.Title{Number: 1, Name: "General Provisions", Content: "definitions", WordCount: 1}

	first := c.TitleChecksum(title)
	second := c.TitleChecksum(title)
	require.Equal(t, first, second)
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), first)
}

func TestTitleChecksum_SensitiveToEveryField(t *testing.T) {
	t.Parallel()

	c := New(sha256.New())
	base := ecfr.Title{Number: 1, Name: "A", Content: "x", WordCount: 1}
	baseSum := c.TitleChecksum(base)

	mutations := []ecfr.Title{
		{Number: 2, Name: "A", Content: "x", WordCount: 1},
		{Number: 1, Name: "B", Content: "x", WordCount: 1},
		{Number: 1, Name: "A", Content: "y", WordCount: 1},
		{Number: 1, Name: "A", Content: "x", WordCount: 2},
	}
	for _, m := range mutations {
		require.NotEqual(t, baseSum, c.TitleChecksum(m), "mutation %+v", m)
	}
}

func TestTitleChecksum_IgnoresNonCanonicalFields(t *testing.T) {
	t.Parallel()

	c := New(sha256.New())
	a := ecfr.Title{Number: 1, Name: "A", Content: "x", WordCount: 1, Agency: "One"}
	b := ecfr.Title{Number: 1, Name: "A", Content: "x", WordCount: 1, Agency: "Two", StructureData: "{}"}
	require.Equal(t, c.TitleChecksum(a), c.TitleChecksum(b))
}

func TestCollectionChecksum_OrderInvariant(t *testing.T) {
	t.Parallel()

	c := New(sha256.New())
	titles := sampleTitles()
	reversed := []ecfr.Title{titles[2], titles[1], titles[0]}

	require.Equal(t, c.CollectionChecksum(titles), c.CollectionChecksum(reversed))
}

func TestCollectionChecksum_SensitiveToContentChange(t *testing.T) {
	t.Parallel()

	c := New(sha256.New())
	titles := sampleTitles()
	base := c.CollectionChecksum(titles)

	titles[1].Content = "amended definitions"
	require.NotEqual(t, base, c.CollectionChecksum(titles))
}

func TestCollectionChecksum_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	c := New(sha256.New())
	titles := sampleTitles()
	c.CollectionChecksum(titles)
	require.Equal(t, 7, titles[0].Number, "input order preserved")
}

func TestCollectionChecksum_Empty(t *testing.T) {
	t.Parallel()

	c := New(sha256.New())
	require.Equal(t, c.CollectionChecksum(nil), c.CollectionChecksum([]ecfr.Title{}))
}

func TestDigest_FallsBackWhenHasherFails(t *testing.T) {
	t.Parallel()

	c := New(failingHasher{})
	title := ecfr.Title{Number: 1, Name: "A", Content: "x", WordCount: 1}

	sum := c.TitleChecksum(title)
	require.Regexp(t, regexp.MustCompile(`^\d+$`), sum, "degraded fingerprint is decimal")
	require.Equal(t, sum, c.TitleChecksum(title), "fallback is still deterministic")
}
