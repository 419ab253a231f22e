package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/domain"
)

// HS256 keys must carry at least 256 bits (RFC 7518, section 3.2).
const minSecretBytes = 32

// ErrWeakSecret indicates a missing or under-sized signing key.
var ErrWeakSecret = errors.New("jwt signing key must be at least 256 bits")

// TokenCodec issues and validates signed bearer tokens.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
}

// NewTokenCodec builds a codec. The secret is checked once here; rejecting a
// weak key is a startup-time fatal condition.
func NewTokenCodec(secret string, ttl time.Duration, logger *zap.Logger) (*TokenCodec, error) {
	if len(secret) < minSecretBytes {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl, logger: logger}, nil
}

// Claims describes the JWT payload. Authorities are serialized as raw role
// names; tokens without the claim are accepted as having no authorities.
type Claims struct {
	Authorities []string `json:"authorities,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs a token embedding the subject and its authorities.
func (tc *TokenCodec) Issue(subject string, authorities []domain.Role) (string, time.Time, error) {
	if len(tc.secret) < minSecretBytes {
		return "", time.Time{}, ErrWeakSecret
	}

	now := time.Now()
	expiresAt := now.Add(tc.ttl)
	claims := &Claims{
		Authorities: domain.RoleNames(authorities),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate parses and verifies a bearer token. Every failure mode degrades
// to anonymous: blank, malformed, tampered, expired, or wrong-algorithm
// tokens yield nil, never an error. Rejections are logged at debug only.
func (tc *TokenCodec) Validate(tokenStr string) *domain.Identity {
	if strings.TrimSpace(tokenStr) == "" {
		return nil
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tc.secret, nil
	})
	if err != nil {
		tc.logger.Debug("token rejected", zap.Error(err))
		return nil
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		tc.logger.Debug("token claims invalid")
		return nil
	}

	return &domain.Identity{
		Subject:     claims.Subject,
		Authorities: domain.RolesFromNames(claims.Authorities),
	}
}
