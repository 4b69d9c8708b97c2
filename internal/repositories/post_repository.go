package repositories

import (
	"context"

	"joints/internal/models"
)

// PostRepository defines the interface for post data access.
type PostRepository interface {
	Create(ctx context.Context, author, title, caption, imageFilename string) (*models.Post, error)
	FindByID(ctx context.Context, id int64) (*models.Post, error)
	Delete(ctx context.Context, id int64, requester string) error
	DeleteAsAdmin(ctx context.Context, id int64) error
	ToggleLike(ctx context.Context, id int64, username string) (*models.Post, error)
	AddComment(ctx context.Context, postID int64, author, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID int64, requester string) error
	ListByAuthor(ctx context.Context, username string) ([]models.Post, error)
	ListAll(ctx context.Context) ([]models.Post, error)
	Pick(ctx context.Context, index int) (*models.Post, error)
}
