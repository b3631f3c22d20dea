package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/auth/me", nil)
	require.Empty(t, BearerToken(r))

	r.Header.Set("Authorization", "Basic abc")
	require.Empty(t, BearerToken(r))

	r.Header.Set("Authorization", "Bearer some-token")
	require.Equal(t, "some-token", BearerToken(r))

	r.Header.Set("Authorization", "Bearer   padded-token ")
	require.Equal(t, "padded-token", BearerToken(r))
}
