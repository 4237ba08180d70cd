package handlers

import (
	"errors"

	"github.com/arzan03/usermanager/internal/apperror"
	"github.com/arzan03/usermanager/internal/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler renders every failure as {success:false, message}. Validation
// failures add the violated fields. Unclassified errors become internal
// errors, and outside production those carry the stack where they were caught.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr, ok := apperror.As(err)
		if !ok {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				appErr = apperror.New(fe.Code, fe.Message)
			} else {
				appErr = apperror.Internal(err)
			}
		}

		status := appErr.Status
		body := fiber.Map{"success": false}
		if len(appErr.Fields) > 0 {
			body["errors"] = appErr.Fields
		}
		if !production && appErr.Stack != nil {
			body["stack"] = string(appErr.Stack)
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("Unhandled error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		body["message"] = appErr.Message
		return c.Status(status).JSON(body)
	}
}

// NotFound answers requests no route matched.
func NotFound(c *fiber.Ctx) error {
	return apperror.NotFound("Route not found")
}
