package middleware

import (
	"github.com/arzan03/usermanager/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type payloadKey struct{}

// ValidateBody decodes and checks the JSON body against T before the handler
// runs. The normalized payload is read back with Payload.
func ValidateBody[T any, P interface {
	*T
	validation.Payload
}](requirePayload bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := P(new(T))
		if err := validation.Bind(c.Body(), p, requirePayload); err != nil {
			return err
		}
		c.Locals(payloadKey{}, p)
		return c.Next()
	}
}

// Payload returns the body decoded by ValidateBody for this request.
func Payload[T any](c *fiber.Ctx) (*T, bool) {
	p, ok := c.Locals(payloadKey{}).(*T)
	return p, ok
}
