package utils

import (
	"testing"
	"time"

	"tektongeo/backend/config"
	"tektongeo/backend/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "testsecret"}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig()
	user := &models.User{Model: gorm.Model{ID: 42}, Role: "encoder"}

	token, err := GenerateJWTToken(user, cfg)
	require.NoError(t, err)

	userID, err := ParseUserIDFromToken(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestTokenWrongSecret(t *testing.T) {
	user := &models.User{Model: gorm.Model{ID: 7}, Role: "admin"}

	token, err := GenerateJWTToken(user, &config.Config{JWTSecret: "one"})
	require.NoError(t, err)

	_, err = ParseUserIDFromToken(token, &config.Config{JWTSecret: "another"})
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := testConfig()

	claims := jwt.MapClaims{
		"user_id": float64(42),
		"role":    "encoder",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	_, err = ParseUserIDFromToken(expired, cfg)
	assert.Error(t, err)
}

func TestTokenMissingUserID(t *testing.T) {
	cfg := testConfig()

	claims := jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	_, err = ParseUserIDFromToken(token, cfg)
	assert.Error(t, err)
}
