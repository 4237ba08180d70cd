package handlers

import (
	"time"

	"github.com/arzan03/usermanager/internal/apperror"
	"github.com/arzan03/usermanager/internal/middleware"
	"github.com/arzan03/usermanager/internal/services"
	"github.com/arzan03/usermanager/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	auth         *services.AuthService
	secureCookie bool
}

// NewAuthHandler creates the auth handlers. secureCookie sets the Secure flag on the token cookie.
func NewAuthHandler(auth *services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookie: secureCookie}
}

// Register creates an account and signs the caller in with a cookie.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	req, err := payload[validation.RegisterRequest](c)
	if err != nil {
		return err
	}

	user, token, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	h.setTokenCookie(c, token)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login returns a token in the body and sets it as a cookie.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	req, err := payload[validation.LoginRequest](c)
	if err != nil {
		return err
	}

	user, token, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setTokenCookie(c, token)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// Logout clears the token cookie. It always succeeds.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.ClearCookie(middleware.TokenCookie)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (h *AuthHandler) setTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.auth.TokenTTL()),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func payload[T any](c *fiber.Ctx) (*T, error) {
	p, ok := middleware.Payload[T](c)
	if !ok {
		return nil, apperror.BadRequest("Payload is required")
	}
	return p, nil
}
