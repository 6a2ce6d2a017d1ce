package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskhub/taskhub-api/internal/models"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken("secret", time.Hour, 42, models.RoleManager)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	require.Equal(t, uint64(42), claims.UserID)
	require.Equal(t, models.RoleManager, claims.Role)
}

func TestAccessTokensAreUnique(t *testing.T) {
	a, err := NewAccessToken("secret", time.Hour, 42, models.RoleUser)
	require.NoError(t, err)
	b, err := NewAccessToken("secret", time.Hour, 42, models.RoleUser)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	claims, err := ParseToken("secret", a)
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)
}

func TestParseToken_RejectsWrongSecret(t *testing.T) {
	token, err := NewAccessToken("secret", time.Hour, 42, models.RoleUser)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", token)
	require.Error(t, err)
}

func TestParseToken_RejectsExpired(t *testing.T) {
	token, err := NewAccessToken("secret", -time.Minute, 42, models.RoleUser)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	require.Error(t, err)
}

func TestParseToken_RejectsGarbage(t *testing.T) {
	_, err := ParseToken("secret", "definitely.not.a.token")
	require.Error(t, err)
}

func TestVerificationTokensAreUnique(t *testing.T) {
	a, err := NewVerificationToken()
	require.NoError(t, err)
	b, err := NewVerificationToken()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.Len(t, a, 64)
}
