package repositories

import (
	"context"

	"joints/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Register(ctx context.Context, username, email, credential string) (*models.User, error)
	Authenticate(ctx context.Context, username, credential string) (*models.User, error)
	Follow(ctx context.Context, follower, target string) error
	Unfollow(ctx context.Context, follower, target string) error
	SetBanned(ctx context.Context, username string, banned bool) error
	PromoteToAdmin(ctx context.Context, username string) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
}
