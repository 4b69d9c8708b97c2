package handlers

import (
	"fmt"

	"joints/internal/middleware"
	"joints/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PostHandler handles HTTP requests for posts, likes and comments.
type PostHandler struct {
	service *services.PostService
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service *services.PostService) *PostHandler {
	return &PostHandler{
		service: service,
	}
}

// RegisterRoutes registers the post routes. Reads are public; mutations go through auth.
func (h *PostHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	postRoutes := router.Group("/posts")
	postRoutes.Get("/", h.HandleFeed)
	postRoutes.Get("/:id", h.HandleGetPost)
	postRoutes.Post("/", auth, h.HandleCreatePost)
	postRoutes.Delete("/:id", auth, h.HandleDeletePost)
	postRoutes.Post("/:id/like", auth, h.HandleToggleLike)
	postRoutes.Post("/:id/comments", auth, h.HandleAddComment)
	postRoutes.Delete("/:id/comments/:commentId", auth, h.HandleDeleteComment)
}

// HandleFeed returns one page of posts. ?sort=top ranks by likes; anything
// else lists newest first.
func (h *PostHandler) HandleFeed(c *fiber.Ctx) error {
	page, err := h.service.Feed(c.UserContext(), c.Query("sort", "new"), c.QueryInt("page", 1))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// HandleGetPost retrieves a single post by its ID.
func (h *PostHandler) HandleGetPost(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	post, err := h.service.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePostRequest carries the metadata of an already uploaded image.
type CreatePostRequest struct {
	Title         string `json:"title" validate:"max=120"`
	Caption       string `json:"caption" validate:"max=2000"`
	ImageFilename string `json:"imageFilename" validate:"required,max=255"`
}

// HandleCreatePost creates a new post.
func (h *PostHandler) HandleCreatePost(c *fiber.Ctx) error {
	var req CreatePostRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	username := middleware.CurrentUser(c).Username
	post, err := h.service.CreatePost(c.UserContext(), username, req.Title, req.Caption, req.ImageFilename)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// HandleDeletePost deletes a post owned by the caller, or any post for admins.
func (h *PostHandler) HandleDeletePost(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeletePost(c.UserContext(), id, middleware.CurrentUser(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Post %d deleted successfully", id),
	})
}

// HandleToggleLike likes or unlikes a post.
func (h *PostHandler) HandleToggleLike(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	username := middleware.CurrentUser(c).Username
	post, err := h.service.ToggleLike(c.UserContext(), id, username)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"likes": post.Likes,
		"liked": post.IsLikedBy(username),
	})
}

// AddCommentRequest represents the request body for a new comment.
type AddCommentRequest struct {
	Text string `json:"text" validate:"max=1000"`
}

// HandleAddComment appends a comment. Blank text is dropped and the client is
// sent back to the post unchanged.
func (h *PostHandler) HandleAddComment(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req AddCommentRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	comment, err := h.service.AddComment(c.UserContext(), id, middleware.CurrentUser(c).Username, req.Text)
	if err != nil {
		if isValidation(err) {
			return c.Redirect(fmt.Sprintf("/api/v1/posts/%d", id), fiber.StatusSeeOther)
		}
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// HandleDeleteComment removes a comment written by the caller or on the caller's post.
func (h *PostHandler) HandleDeleteComment(c *fiber.Ctx) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	commentID, err := parseIDParam(c, "commentId")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeleteComment(c.UserContext(), postID, commentID, middleware.CurrentUser(c).Username); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Comment %d deleted successfully", commentID),
	})
}
