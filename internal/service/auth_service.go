package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/events"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// AuthService coordinates the login flow: throttle, authenticator chain,
// token issuance.
type AuthService struct {
	chain      *auth.Chain
	codec      *auth.TokenCodec
	throttle   *auth.LoginThrottle
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(chain *auth.Chain, codec *auth.TokenCodec, throttle *auth.LoginThrottle, dispatcher events.Dispatcher, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		chain:      chain,
		codec:      codec,
		throttle:   throttle,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Login authenticates the credential pair and mints a bearer token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Identity, string, time.Time, error) {
	if !s.throttle.Allow(ctx, username) {
		return nil, "", time.Time{}, apperrors.NewTooManyRequests("too many login attempts")
	}

	identity, err := s.chain.Authenticate(ctx, username, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.codec.Issue(identity.Subject, identity.Authorities)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.throttle.Reset(ctx, username)
	s.logger.Debug("login succeeded", zap.String("username", identity.Subject))
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.NewEvent(events.EventUserLoggedIn, identity.Subject, nil))
	}
	return identity, token, exp, nil
}

// IssueFor mints a token for an already-verified identity, for example a
// freshly registered account.
func (s *AuthService) IssueFor(identity *domain.Identity) (string, time.Time, error) {
	return s.codec.Issue(identity.Subject, identity.Authorities)
}

// Codec exposes the token codec for middleware wiring.
func (s *AuthService) Codec() *auth.TokenCodec {
	return s.codec
}
