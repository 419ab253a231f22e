package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/spec-kit/user-service/internal/domain"
)

// CreateUserRequest payload for account creation.
type CreateUserRequest struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	RePassword string `json:"rePassword"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Phone      string `json:"phone"`
}

// Validate checks the payload.
func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Username, validation.Required, validation.Length(3, 64), is.Alphanumeric),
		validation.Field(&r.Password, validation.Required, validation.Length(5, 100)),
		validation.Field(&r.RePassword, validation.Required, validation.Length(5, 100)),
		validation.Field(&r.FirstName, validation.Required),
		validation.Field(&r.LastName, validation.Required),
		validation.Field(&r.City, validation.Required),
		validation.Field(&r.Phone, validation.Required, is.E164),
	)
}

// UpdateUserRequest payload for profile updates.
type UpdateUserRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Phone     string `json:"phone"`
}

// Validate checks the payload.
func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required),
		validation.Field(&r.LastName, validation.Required),
		validation.Field(&r.City, validation.Required),
		validation.Field(&r.Phone, validation.Required, is.E164),
	)
}

// LoginRequest payload for the auth endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse structured response for a successful login.
type AuthResponse struct {
	Message string `json:"message"`
	Error   bool   `json:"error"`
	Token   string `json:"token"`
}

// CreateUserResponse response for account creation.
type CreateUserResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// FindUserResponse public view of an account.
type FindUserResponse struct {
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Address     string   `json:"address,omitempty"`
	City        string   `json:"city"`
	Phone       string   `json:"phone"`
	Enabled     bool     `json:"enabled"`
	Authorities []string `json:"authorities"`
}

// FindUserResponseFrom maps a domain user to its public view.
func FindUserResponseFrom(user *domain.User) FindUserResponse {
	return FindUserResponse{
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Address:     user.Address,
		City:        user.City,
		Phone:       user.Phone,
		Enabled:     user.Enabled,
		Authorities: domain.RoleNames(user.Authorities),
	}
}
