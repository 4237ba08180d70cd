package middleware

import (
	"context"
	"strings"

	"github.com/arzan03/usermanager/internal/apperror"
	"github.com/arzan03/usermanager/internal/logger"
	"github.com/arzan03/usermanager/internal/models"
	"github.com/arzan03/usermanager/internal/policy"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	TokenCookie   = "token"
	notAuthorized = "Not authorized"
	noAccess      = "Forbidden: You do not have access"
)

// Authenticator resolves a bearer token to the caller it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Identity, error)
}

// Authenticate reads the token from the "token" cookie or the Authorization
// header and attaches the caller's identity to the request context.
func Authenticate(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(TokenCookie)
		if token == "" {
			if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
			}
		}
		if token == "" {
			logger.Debug("Missing token", zap.String("path", c.Path()))
			return apperror.Unauthorized(notAuthorized)
		}

		id, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			logger.Warn("Authentication failed", zap.String("path", c.Path()), zap.Error(err))
			return apperror.Unauthorized(notAuthorized).Wrap(err)
		}

		c.SetUserContext(WithIdentity(c.UserContext(), id))
		return c.Next()
	}
}

// Authorize admits callers whose role may perform op. It must run after Authenticate.
func Authorize(op policy.Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return apperror.Unauthorized(notAuthorized)
		}
		if !policy.RoleAllowed(op, id.Role) {
			logger.Warn("Role not allowed",
				zap.String("operation", string(op)),
				zap.String("role", string(id.Role)),
				zap.String("email", id.Email),
			)
			return apperror.Forbidden(noAccess)
		}
		return c.Next()
	}
}
