package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/user-service/internal/api/dto"
	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/service"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// UsersHandler exposes account management endpoints.
type UsersHandler struct {
	users *service.UserService
	auth  *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService, authService *service.AuthService) *UsersHandler {
	return &UsersHandler{users: userService, auth: authService}
}

// Welcome handles GET /api/users.
func (h *UsersHandler) Welcome(c *fiber.Ctx) error {
	return c.SendString("Welcome to the user service")
}

// Member handles GET /api/users/mem.
func (h *UsersHandler) Member(c *fiber.Ctx) error {
	return c.SendString("A member")
}

// Find handles GET /api/users/:username.
func (h *UsersHandler) Find(c *fiber.Ctx) error {
	username := c.Params("username")

	user, err := h.users.Get(c.Context(), username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}
	return c.JSON(dto.FindUserResponseFrom(user))
}

// Create handles POST /api/users. A successful registration also mints a
// token so the new account is immediately usable.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError("Please check the payload", map[string]any{"reason": err.Error()})
	}
	if req.Password != req.RePassword {
		return apperrors.NewValidationError("Please check submitted password", nil)
	}

	user := &domain.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		City:      req.City,
		Phone:     req.Phone,
	}
	created, err := h.users.Register(c.Context(), user, req.Password)
	if err != nil {
		return apperrors.MapError(err)
	}

	token, _, err := h.auth.IssueFor(created.Identity())
	if err != nil {
		return apperrors.MapError(err)
	}

	return c.Status(http.StatusCreated).JSON(dto.CreateUserResponse{
		Message: "Create user successfully",
		Token:   token,
	})
}

// Update handles PUT /api/users/:username.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	username := c.Params("username")

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError("Please check the payload", map[string]any{"reason": err.Error()})
	}

	user, err := h.users.Update(c.Context(), username, service.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		City:      req.City,
		Phone:     req.Phone,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}
	return c.JSON(dto.FindUserResponseFrom(user))
}

// Enable handles POST /api/users/:username/enable.
func (h *UsersHandler) Enable(c *fiber.Ctx) error {
	username := c.Params("username")

	if err := h.users.Enable(c.Context(), username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"message": "User enabled"})
}

// Delete handles DELETE /api/users/:username (soft delete).
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	username := c.Params("username")

	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.users.SoftDelete(c.Context(), username, identity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"message": "User disabled"})
}
