package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/repository"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// ProfileUpdate carries the mutable profile fields of an account.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Address   string
	City      string
	Phone     string
}

// UserService coordinates account lifecycle operations.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, bcryptCost int, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, dispatcher: dispatcher, bcryptCost: bcryptCost, logger: logger}
}

// Get returns the account for the username.
func (s *UserService) Get(ctx context.Context, username string) (*domain.User, error) {
	return s.users.FindByUsername(ctx, username)
}

// Register creates a new enabled account holding the USER authority.
func (s *UserService) Register(ctx context.Context, user *domain.User, rawPassword string) (*domain.User, error) {
	if _, err := s.users.FindByUsername(ctx, user.Username); err == nil {
		return nil, apperrors.NewUnprocessable("The username already existed", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(rawPassword, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = hash
	user.Enabled = true
	user.Authorities = []domain.Role{domain.RoleUser}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Debug("created user", zap.String("username", user.Username))
	s.publish(ctx, events.NewEvent(events.EventUserCreated, user.Username, events.UserCreatedPayload{
		Email: user.Email,
		City:  user.City,
	}))
	return user, nil
}

// Update overwrites the profile fields of the account.
func (s *UserService) Update(ctx context.Context, username string, update ProfileUpdate) (*domain.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	user.FirstName = update.FirstName
	user.LastName = update.LastName
	user.Address = update.Address
	user.City = update.City
	user.Phone = update.Phone
	if err := s.users.UpdateInfo(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventUserUpdated, username, nil))
	return user, nil
}

// Enable re-activates a soft-deleted account.
func (s *UserService) Enable(ctx context.Context, username string) error {
	if _, err := s.users.FindByUsername(ctx, username); err != nil {
		return err
	}
	if err := s.users.Enable(ctx, username); err != nil {
		return err
	}
	s.publish(ctx, events.NewEvent(events.EventUserEnabled, username, nil))
	return nil
}

// SoftDelete disables an account. ADMIN accounts are never deletable, and
// MOD accounts only by an ADMIN caller.
func (s *UserService) SoftDelete(ctx context.Context, username string, trigger *domain.Identity) error {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	if user.HasAuthority(domain.RoleAdmin) ||
		(!trigger.HasAuthority(domain.RoleAdmin) && user.HasAuthority(domain.RoleMod)) {
		s.logger.Warn("refusing soft delete",
			zap.String("username", username),
			zap.String("triggered_by", trigger.Subject),
		)
		return apperrors.NewForbidden("not allowed to delete this account")
	}

	if err := s.users.SoftDelete(ctx, username); err != nil {
		return err
	}
	s.publish(ctx, events.NewEvent(events.EventUserDisabled, username, events.UserDisabledPayload{
		TriggeredBy: trigger.Subject,
	}))
	return nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
