package middleware

import (
	"context"

	"github.com/arzan03/usermanager/internal/models"
	"github.com/gofiber/fiber/v2"
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying the authenticated caller.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	return id, ok
}

// IdentityFrom returns the caller attached by Authenticate.
func IdentityFrom(c *fiber.Ctx) (models.Identity, bool) {
	return IdentityFromContext(c.UserContext())
}
