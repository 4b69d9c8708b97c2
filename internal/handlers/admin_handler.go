package handlers

import (
	"fmt"

	"joints/internal/middleware"
	"joints/internal/models"
	"joints/internal/repositories"
	"joints/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles moderation requests. Every route requires an administrator.
type AdminHandler struct {
	users repositories.UserRepository
	posts *services.PostService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(users repositories.UserRepository, posts *services.PostService) *AdminHandler {
	return &AdminHandler{
		users: users,
		posts: posts,
	}
}

// RegisterRoutes registers the admin routes behind auth and admin checks.
func (h *AdminHandler) RegisterRoutes(router fiber.Router, auth, admin fiber.Handler) {
	adminRoutes := router.Group("/admin", auth, admin)
	adminRoutes.Get("/users", h.HandleListUsers)
	adminRoutes.Post("/users/:username/ban", h.HandleBan)
	adminRoutes.Post("/users/:username/unban", h.HandleUnban)
	adminRoutes.Post("/users/:username/promote", h.HandlePromote)
	adminRoutes.Delete("/posts/:id", h.HandleDeletePost)
}

// HandleListUsers lists every account.
func (h *AdminHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.users.ListAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return c.JSON(out)
}

// HandleBan bans :username.
func (h *AdminHandler) HandleBan(c *fiber.Ctx) error {
	return h.setBanned(c, true)
}

// HandleUnban lifts a ban on :username.
func (h *AdminHandler) HandleUnban(c *fiber.Ctx) error {
	return h.setBanned(c, false)
}

func (h *AdminHandler) setBanned(c *fiber.Ctx, banned bool) error {
	username := c.Params("username")
	if err := h.users.SetBanned(c.UserContext(), username, banned); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"username": username, "banned": banned})
}

// HandlePromote makes :username an administrator.
func (h *AdminHandler) HandlePromote(c *fiber.Ctx) error {
	username := c.Params("username")
	if err := h.users.PromoteToAdmin(c.UserContext(), username); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"username": username, "isAdmin": true})
}

// HandleDeletePost deletes any post regardless of its author.
func (h *AdminHandler) HandleDeletePost(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.posts.DeletePost(c.UserContext(), id, middleware.CurrentUser(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Post %d deleted successfully", id),
	})
}
