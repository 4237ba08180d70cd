package handlers

import (
	"github.com/arzan03/usermanager/internal/apperror"
	"github.com/arzan03/usermanager/internal/middleware"
	"github.com/arzan03/usermanager/internal/models"
	"github.com/arzan03/usermanager/internal/services"
	"github.com/arzan03/usermanager/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates the user resource handlers.
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List handles GET /api/users with paging, sorting, role filter and search.
func (h *UserHandler) List(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	page, err := h.users.List(c.UserContext(), actor, services.ListParams{
		Page:   c.Query("page"),
		Limit:  c.Query("limit"),
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
		Role:   c.Query("role"),
		Search: c.Query("search"),
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"page":       page.Page,
		"totalPages": page.TotalPages,
		"totalUsers": page.TotalUsers,
		"users":      page.Users,
	})
}

// Get handles GET /api/users/:id.
func (h *UserHandler) Get(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	user, err := h.users.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

// Create handles POST /api/users.
func (h *UserHandler) Create(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	req, err := payload[validation.CreateUserRequest](c)
	if err != nil {
		return err
	}

	user, err := h.users.Create(c.UserContext(), actor, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User created successfully",
		"user":    user,
	})
}

// Update handles PUT /api/users/:id.
func (h *UserHandler) Update(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	req, err := payload[validation.UpdateUserRequest](c)
	if err != nil {
		return err
	}

	user, err := h.users.Update(c.UserContext(), actor, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User updated successfully",
		"user":    user,
	})
}

// Delete handles DELETE /api/users/:id.
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	if err := h.users.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User deleted successfully",
	})
}

func actorOf(c *fiber.Ctx) (models.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return models.Identity{}, apperror.Unauthorized("Not authorized")
	}
	return id, nil
}
