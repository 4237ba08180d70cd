package middleware

import (
	"time"

	"github.com/arzan03/usermanager/internal/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger writes one line per request. Errors from the chain are
// rendered first so the logged status is the one the client receives.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		l := logger.WithRequestID(c.GetRespHeader(fiber.HeaderXRequestID))
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			l.Error("Request failed", fields...)
		case status >= fiber.StatusBadRequest:
			l.Warn("Request rejected", fields...)
		default:
			l.Info("Request handled", fields...)
		}
		return nil
	}
}
