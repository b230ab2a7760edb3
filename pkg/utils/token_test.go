package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magnusfroste/auto-sense-sub000/pkg/apperrors"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken(userID, "user@example.com", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "user@example.com", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "user@example.com", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not-a-token", "secret")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
