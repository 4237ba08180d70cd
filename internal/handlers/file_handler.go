package handlers

import (
	"github.com/arzan03/usermanager/internal/logger"
	"github.com/arzan03/usermanager/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const pictureField = "profilePicture"

type PictureHandler struct {
	pictures *services.PictureService
}

// NewPictureHandler creates the profile picture handler.
func NewPictureHandler(pictures *services.PictureService) *PictureHandler {
	return &PictureHandler{pictures: pictures}
}

// UpdateProfilePicture accepts a multipart upload in the profilePicture field.
func (h *PictureHandler) UpdateProfilePicture(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	// a missing or unreadable file is reported by the service after the access check
	fh, err := c.FormFile(pictureField)
	if err != nil {
		logger.Debug("No profile picture in request", zap.Error(err))
	}

	user, err := h.pictures.UpdateProfilePicture(c.UserContext(), actor, c.Params("id"), fh)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile picture updated",
		"data":    user,
	})
}
