package sha256

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHash_KnownVector(t *testing.T) {
	t.Parallel()

	h := New()
	sum, err := h.Hash([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)
}

func TestHash_EmptyInput(t *testing.T) {
	t.Parallel()

	h := New()
	sum, err := h.Hash(nil)
	require.NoError(t, err)
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", sum)
}
