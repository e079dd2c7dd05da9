package helpers

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenVerificationToken(t *testing.T) {
	a, err := GenVerificationToken()
	require.NoError(t, err)
	b, err := GenVerificationToken()
	require.NoError(t, err)

	require.Len(t, a, 64)
	require.NotEqual(t, a, b)
	_, err = hex.DecodeString(a)
	require.NoError(t, err)
}

func TestGenResetSecret(t *testing.T) {
	s, err := GenResetSecret()
	require.NoError(t, err)
	require.Len(t, s, 16)
	_, err = hex.DecodeString(s)
	require.NoError(t, err)
}

func TestHashResetSecret(t *testing.T) {
	h1 := HashResetSecret("abc")
	h2 := HashResetSecret("abc")
	h3 := HashResetSecret("abd")

	require.Equal(t, h1, h2)
	require.NotEqual(t, h1, h3)
	require.Len(t, h1, 64)
	require.NotEqual(t, "abc", h1)
}
