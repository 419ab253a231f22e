package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-service/internal/domain"
)

const identityKey = "auth_identity"

// LoginPath is exempt from bearer-token processing; credentials are carried
// in the request body there, never in an Authorization header.
const LoginPath = "/api/auth"

// RequestAuthenticator extracts a bearer token, validates it, and binds the
// resulting identity to the request. It never fails a request itself: a
// missing or invalid token leaves the request anonymous and the policy
// layer decides whether that is acceptable.
type RequestAuthenticator struct {
	codec *TokenCodec
}

// NewRequestAuthenticator constructs the filter.
func NewRequestAuthenticator(codec *TokenCodec) *RequestAuthenticator {
	return &RequestAuthenticator{codec: codec}
}

// Handle runs once per request.
func (m *RequestAuthenticator) Handle(c *fiber.Ctx) error {
	if c.Path() == LoginPath {
		return c.Next()
	}

	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return c.Next()
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return c.Next()
	}

	if identity := m.codec.Validate(parts[1]); identity != nil {
		c.Locals(identityKey, identity)
	}
	return c.Next()
}

// IdentityFromContext retrieves the authenticated identity, if any.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(*domain.Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}
