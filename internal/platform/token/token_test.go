package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "artshow/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("secret", "artshow")

	signed, err := svc.GenerateToken("operator-1", time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "operator-1", claims.OperatorID)
}

func TestTokenExpired(t *testing.T) {
	svc := NewService("secret", "artshow")

	signed, err := svc.GenerateToken("operator-1", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestTokenWrongKey(t *testing.T) {
	signed, err := NewService("secret", "artshow").GenerateToken("operator-1", time.Minute)
	require.NoError(t, err)

	_, err = NewService("other", "artshow").ValidateToken(signed)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestTokenGarbage(t *testing.T) {
	_, err := NewService("secret", "artshow").ValidateToken("not.a.jwt")
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}
