package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindDuplicateEmail, http.StatusBadRequest},
		{KindInvalidResetToken, http.StatusBadRequest},
		{KindInvalidVerificationToken, http.StatusBadRequest},
		{KindInvalidCredentials, http.StatusUnauthorized},
		{KindEmailNotVerified, http.StatusUnauthorized},
		{KindMissingToken, http.StatusUnauthorized},
		{KindInvalidToken, http.StatusUnauthorized},
		{KindExpiredToken, http.StatusUnauthorized},
		{KindStalePasswordToken, http.StatusUnauthorized},
		{KindInvalidCurrentPassword, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, StatusOf(New(tc.kind, "x")), "kind %d", tc.kind)
	}

	require.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))
	require.Equal(t, http.StatusInternalServerError, StatusOf(nil))
}

func TestWrapPreservesKindThroughChain(t *testing.T) {
	inner := errors.New("pg: connection refused")
	err := Wrap(KindNotFound, "user not found", inner)

	require.True(t, Is(err, KindNotFound))
	require.ErrorIs(t, err, inner)
	require.Contains(t, err.Error(), "user not found")

	// Wrapping again with fmt-style chains keeps the kind visible.
	outer := Wrap(KindForbidden, "invalid refresh token", err)
	require.True(t, Is(outer, KindForbidden))
}

func TestMessageOf(t *testing.T) {
	require.Equal(t, "boom", MessageOf(New(KindNotFound, "boom")))
	// Unclassified errors never leak internals through the message.
	require.NotContains(t, MessageOf(errors.New("dsn=secret")), "secret")
}
