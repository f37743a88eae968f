package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/infrastructure/config"
)

func testService(expiration time.Duration) *JWTService {
	return NewJWTService(&config.JWTConfig{
		Secret:     "test-secret-test-secret-test-secret!",
		Issuer:     "storefront-backend",
		Expiration: expiration,
	})
}

func TestJWTService_IssueAndVerify(t *testing.T) {
	svc := testService(time.Hour)
	userID := uuid.New()

	token, err := svc.Issue(userID, "a@example.com", "CUSTOMER")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "CUSTOMER", claims.Role)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := testService(-time.Minute)
	token, err := svc.Issue(uuid.New(), "a@example.com", "CUSTOMER")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsTampered(t *testing.T) {
	svc := testService(time.Hour)
	token, err := svc.Issue(uuid.New(), "a@example.com", "CUSTOMER")
	require.NoError(t, err)

	_, err = svc.Verify(token + "x")
	assert.Error(t, err)
}
