package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-service/internal/api/http/handlers"
	"github.com/spec-kit/user-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Users         *handlers.UsersHandler
	Authenticator *auth.RequestAuthenticator
	Policy        *auth.Policy
}

// RegisterRoutes wires HTTP routes. The request authenticator binds an
// identity when a valid bearer token is present; the policy middleware then
// decides whether the request may proceed.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Authenticator.Handle)
	app.Use(cfg.Policy.Middleware())

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/api/auth", cfg.Auth.Login)

	users := app.Group("/api/users")
	users.Get("", cfg.Users.Welcome)
	users.Post("", cfg.Users.Create)
	users.Get("/mem", cfg.Users.Member)
	users.Get("/:username", cfg.Users.Find)
	users.Put("/:username", cfg.Users.Update)
	users.Post("/:username/enable", cfg.Users.Enable)
	users.Delete("/:username", cfg.Users.Delete)
}
