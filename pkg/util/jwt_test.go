package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "storefront-test-secret"

func issue(t *testing.T, userID uint, role string, access, refresh time.Duration) *TokenPair {
	t.Helper()
	tokens, err := GenerateTokenPair(userID, "shopper@example.com", role, testSecret, access, refresh)
	require.NoError(t, err)
	require.NotNil(t, tokens)
	return tokens
}

func TestGenerateTokenPair_DistinctTokens(t *testing.T) {
	tokens := issue(t, 1, "user", 15*time.Minute, 7*24*time.Hour)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tokens.ExpiresAt, 5*time.Second)
}

func TestValidateToken(t *testing.T) {
	tokens := issue(t, 123, "user", 15*time.Minute, 7*24*time.Hour)

	tests := []struct {
		name     string
		token    string
		secret   string
		wantType string
		wantErr  error
	}{
		{"access token", tokens.AccessToken, testSecret, TokenTypeAccess, nil},
		{"refresh token", tokens.RefreshToken, testSecret, TokenTypeRefresh, nil},
		{"wrong secret", tokens.AccessToken, "other-secret", "", ErrInvalidToken},
		{"garbage", "invalid.token.format", testSecret, "", ErrInvalidToken},
		{"empty", "", testSecret, "", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(123), claims.UserID)
			assert.Equal(t, "shopper@example.com", claims.Email)
			assert.Equal(t, "user", claims.Role)
			assert.Equal(t, tt.wantType, claims.TokenType)
			assert.True(t, claims.IssuedAt.Before(claims.ExpiresAt.Time))
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	tokens := issue(t, 1, "user", time.Nanosecond, time.Nanosecond)
	time.Sleep(10 * time.Millisecond)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestClaims_RemainingTTL(t *testing.T) {
	tokens := issue(t, 9, "admin", time.Hour, 2*time.Hour)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	require.NoError(t, err)

	ttl := claims.RemainingTTL()
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl %s", ttl)
	assert.Zero(t, (&Claims{}).RemainingTTL())
}
