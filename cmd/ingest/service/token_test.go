package service

import (
	"testing"
	"time"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenAuthenticator_RoundTrip(t *testing.T) {
	auth, err := NewTokenAuthenticator("s3cret", time.Hour)
	require.NoError(t, err)

	token, err := auth.Issue("a1", "env-1", []string{"policy", "function"}, 0)
	require.NoError(t, err)

	claims, err := auth.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeDeploy, claims.Type)
	assert.Equal(t, "a1", claims.AppID)
	assert.Equal(t, "env-1", claims.Source)
	assert.Equal(t, []string{"policy", "function"}, claims.Scopes)
}

func TestTokenAuthenticator_Rejects(t *testing.T) {
	auth, err := NewTokenAuthenticator("s3cret", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenAuthenticator("different", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Issue("a1", "", nil, 0)
	require.NoError(t, err)

	expired, err := auth.Issue("a1", "", nil, time.Hour)
	require.NoError(t, err)
	later := time.Now().Add(2 * time.Hour)
	auth.now = func() time.Time { return later }

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, models.DeployClaims{Type: "deploy", AppID: "a1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":     "",
		"garbage":   "not.a.token",
		"signature": foreign,
		"expired":   expired,
		"alg none":  none,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.Authenticate(token)
			assert.ErrorIs(t, err, models.ErrUnauthenticated)
			assert.EqualError(t, err, "Unauthorized")
		})
	}
}

func TestTokenAuthenticator_NoExpiry(t *testing.T) {
	auth, err := NewTokenAuthenticator("s3cret", time.Hour)
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, models.DeployClaims{Type: "deploy", AppID: "a1"}).
		SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = auth.Authenticate(token)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestTokenAuthenticator_EmptySecret(t *testing.T) {
	_, err := NewTokenAuthenticator("", time.Hour)
	assert.Error(t, err)
	_, err = NewAuthorTokens("", time.Hour)
	assert.Error(t, err)
}

func TestAuthorTokens(t *testing.T) {
	tokens, err := NewAuthorTokens("author", time.Hour)
	require.NoError(t, err)

	token, err := tokens.Issue("u1", 0)
	require.NoError(t, err)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UID)

	blank, err := jwt.NewWithClaims(jwt.SigningMethodHS256, models.AuthorClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("author"))
	require.NoError(t, err)

	_, err = tokens.Verify(blank)
	assert.ErrorContains(t, err, "no uid")
}
