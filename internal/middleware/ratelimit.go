package middleware

import (
	"net/http"

	"github.com/arzan03/usermanager/internal/apperror"
	"github.com/arzan03/usermanager/internal/config"
	"github.com/arzan03/usermanager/internal/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

const tooManyRequests = "Too many requests from this IP, please try again later."

// RateLimit allows cfg.Max requests per client IP in each fixed window.
func RateLimit(cfg config.RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               cfg.Max,
		Expiration:        cfg.Window,
		LimiterMiddleware: limiter.FixedWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			logger.Warn("Rate limit reached", zap.String("ip", c.IP()), zap.String("path", c.Path()))
			return apperror.New(http.StatusTooManyRequests, tooManyRequests)
		},
	})
}
