package handlers

import (
	"joints/internal/middleware"
	"joints/internal/repositories"
	"joints/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for profiles and the follow graph.
type UserHandler struct {
	users repositories.UserRepository
	posts *services.PostService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users repositories.UserRepository, posts *services.PostService) *UserHandler {
	return &UserHandler{
		users: users,
		posts: posts,
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/:username", h.HandleGetUser)
	userRoutes.Get("/:username/posts", h.HandleGetUserPosts)
	userRoutes.Post("/:username/follow", auth, h.HandleFollow)
	userRoutes.Delete("/:username/follow", auth, h.HandleUnfollow)
}

// HandleGetUser returns a public profile.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	user, err := h.users.FindByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user.Public())
}

// HandleGetUserPosts returns one page of a user's posts, newest first.
func (h *UserHandler) HandleGetUserPosts(c *fiber.Ctx) error {
	username := c.Params("username")
	if _, err := h.users.FindByUsername(c.UserContext(), username); err != nil {
		return respondError(c, err)
	}
	page, err := h.posts.PostsByAuthor(c.UserContext(), username, c.QueryInt("page", 1))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// HandleFollow makes the caller follow :username.
func (h *UserHandler) HandleFollow(c *fiber.Ctx) error {
	me := middleware.CurrentUser(c).Username
	target := c.Params("username")
	if err := h.users.Follow(c.UserContext(), me, target); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"following": target != me})
}

// HandleUnfollow makes the caller stop following :username.
func (h *UserHandler) HandleUnfollow(c *fiber.Ctx) error {
	if err := h.users.Unfollow(c.UserContext(), middleware.CurrentUser(c).Username, c.Params("username")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"following": false})
}
