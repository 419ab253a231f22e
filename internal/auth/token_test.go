package auth_test

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestCodec(t *testing.T) *auth.TokenCodec {
	t.Helper()
	codec, err := auth.NewTokenCodec(testSecret, time.Hour, nil)
	require.NoError(t, err)
	return codec
}

func TestNewTokenCodec_RejectsWeakSecret(t *testing.T) {
	_, err := auth.NewTokenCodec("", time.Hour, nil)
	assert.ErrorIs(t, err, auth.ErrWeakSecret)

	_, err = auth.NewTokenCodec("short-secret", time.Hour, nil)
	assert.ErrorIs(t, err, auth.ErrWeakSecret)
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	token, exp, err := codec.Issue("tester", []domain.Role{domain.RoleUser, domain.RoleMod})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, exp.After(time.Now()))

	identity := codec.Validate(token)
	require.NotNil(t, identity)
	assert.Equal(t, "tester", identity.Subject)
	assert.ElementsMatch(t, []domain.Role{domain.RoleUser, domain.RoleMod}, identity.Authorities)
}

func TestTokenCodec_Validate_BlankToken(t *testing.T) {
	codec := newTestCodec(t)

	assert.Nil(t, codec.Validate(""))
	assert.Nil(t, codec.Validate("   "))
}

func TestTokenCodec_Validate_MalformedToken(t *testing.T) {
	codec := newTestCodec(t)

	for _, token := range []string{
		"not-a-token",
		"a.b",
		"a.b.c.d",
		"eyJhbGciOiJIUzI1NiJ9",
	} {
		assert.Nil(t, codec.Validate(token), "token %q must be rejected", token)
	}
}

func TestTokenCodec_Validate_TamperedSignature(t *testing.T) {
	codec := newTestCodec(t)

	token, _, err := codec.Issue("tester", []domain.Role{domain.RoleUser})
	require.NoError(t, err)

	assert.Nil(t, codec.Validate(token+"x"))
}

func TestTokenCodec_Validate_WrongKey(t *testing.T) {
	codec := newTestCodec(t)
	other, err := auth.NewTokenCodec("ffffffffffffffffffffffffffffffff", time.Hour, nil)
	require.NoError(t, err)

	token, _, err := other.Issue("tester", []domain.Role{domain.RoleUser})
	require.NoError(t, err)

	assert.Nil(t, codec.Validate(token))
}

func TestTokenCodec_Validate_ExpiredToken(t *testing.T) {
	codec := newTestCodec(t)

	claims := &auth.Claims{
		Authorities: []string{"USER"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "tester",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	assert.Nil(t, codec.Validate(expired))
}

func TestTokenCodec_Validate_UnsupportedAlgorithm(t *testing.T) {
	codec := newTestCodec(t)

	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "tester",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	assert.Nil(t, codec.Validate(signed))
}

func TestTokenCodec_Validate_MissingAuthoritiesClaim(t *testing.T) {
	codec := newTestCodec(t)

	claims := jwt.RegisteredClaims{
		Subject:   "legacy",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	legacy, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	identity := codec.Validate(legacy)
	require.NotNil(t, identity)
	assert.Equal(t, "legacy", identity.Subject)
	assert.Empty(t, identity.Authorities)
}
