package ecfr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want string
	}{
		{"2024-03-15", "2024-03-15"},
		{"2024/03/15", "2024-03-15"},
		{"  2024-01-01  ", "2024-01-01"},
		{"", ""},
		{"   ", ""},
		{"not-a-date", ""},
		{"2024-13-45", ""},
		{"15-03-2024", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, NormalizeDate(tc.raw), "raw %q", tc.raw)
	}
}
