package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/user-service/internal/auth"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hashed, err := auth.HashPassword("Test12345", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEmpty(t, hashed)

	assert.NoError(t, auth.ComparePassword(hashed, "Test12345"))
	assert.Error(t, auth.ComparePassword(hashed, "not-the-password"))
}

func TestHashPasswordClampsCost(t *testing.T) {
	hashed, err := auth.HashPassword("Test12345", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
