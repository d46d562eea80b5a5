package secret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	s, err := NewAESGCM("local-dev-key")
	require.NoError(t, err)

	sealed, err := s.Seal("Pa55word!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, sealedPrefix))
	assert.NotContains(t, sealed, "Pa55word!")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "Pa55word!", plain)
}

func TestSealUsesFreshNonce(t *testing.T) {
	s, err := NewAESGCM("local-dev-key")
	require.NoError(t, err)

	a, _ := s.Seal("same")
	b, _ := s.Seal("same")
	assert.NotEqual(t, a, b)
}

func TestOpenRejectsForeignKeyAndGarbage(t *testing.T) {
	a, _ := NewAESGCM("key-a")
	b, _ := NewAESGCM("key-b")

	sealed, err := a.Seal("secret")
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.Error(t, err)

	_, err = a.Open("plaintext")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEmptyValues(t *testing.T) {
	s, _ := NewAESGCM("k")
	sealed, err := s.Seal("")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	_, err = NewAESGCM("  ")
	assert.Error(t, err)
}
