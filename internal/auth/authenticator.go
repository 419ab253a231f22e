package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/domain"
)

// ErrInvalidCredentials covers every credential failure. Unknown usernames
// and wrong passwords are deliberately indistinguishable to callers.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserLookup is the subset of the user repository the authenticator needs.
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}

// Authenticator validates a username/password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.Identity, error)
}

type credentialAuthenticator struct {
	users  UserLookup
	logger *zap.Logger
}

// NewCredentialAuthenticator validates credentials against stored accounts.
func NewCredentialAuthenticator(users UserLookup, logger *zap.Logger) Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &credentialAuthenticator{users: users, logger: logger}
}

func (a *credentialAuthenticator) Authenticate(ctx context.Context, username, password string) (*domain.Identity, error) {
	user, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Enabled {
		return nil, ErrInvalidCredentials
	}
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	a.logger.Debug("authenticated user", zap.String("username", username))
	return user.Identity(), nil
}

type devAuthenticator struct {
	username string
	password string
	logger   *zap.Logger
}

// NewDevAuthenticator accepts a fixed credential pair for local development.
// It must only be enabled by configuration in non-deployed environments.
func NewDevAuthenticator(username, password string, logger *zap.Logger) Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &devAuthenticator{username: username, password: password, logger: logger}
}

func (a *devAuthenticator) Authenticate(_ context.Context, username, password string) (*domain.Identity, error) {
	if a.password == "" || username != a.username {
		return nil, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) != 1 {
		return nil, ErrInvalidCredentials
	}

	a.logger.Warn("dev credential accepted", zap.String("username", username))
	return &domain.Identity{Subject: username, Authorities: []domain.Role{domain.RoleAdmin}}, nil
}

// Chain tries authenticators in order; the first success wins. Credential
// mismatches fall through to the next strategy, and an exhausted chain
// reports ErrInvalidCredentials. Infrastructure failures stop the chain.
type Chain struct {
	strategies []Authenticator
}

// NewChain builds an ordered authenticator chain.
func NewChain(strategies ...Authenticator) *Chain {
	return &Chain{strategies: strategies}
}

func (c *Chain) Authenticate(ctx context.Context, username, password string) (*domain.Identity, error) {
	for _, strategy := range c.strategies {
		identity, err := strategy.Authenticate(ctx, username, password)
		if err == nil && identity != nil {
			return identity, nil
		}
		if err != nil && !errors.Is(err, ErrInvalidCredentials) {
			return nil, err
		}
	}
	return nil, ErrInvalidCredentials
}
