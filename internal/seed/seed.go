// Package seed fills the user and post collections with demo data for local
// development. It goes through the repositories, so seeded records obey the
// same rules as records created over HTTP.
package seed

import (
	"context"
	"errors"
	"fmt"

	"joints/internal/models"
	"joints/internal/observability"
	"joints/internal/repositories"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password every seeded account gets.
const DefaultPassword = "password123"

// Options controls how much data Run creates.
type Options struct {
	Users int
	Posts int
	// Seed makes the generated content reproducible. Zero picks a random seed.
	Seed int64
}

// Summary reports what Run created.
type Summary struct {
	Users    []string
	Posts    int
	Follows  int
	Likes    int
	Comments int
}

// Seeder creates demo users, follows, posts, likes and comments.
type Seeder struct {
	users repositories.UserRepository
	posts repositories.PostRepository
	fake  *gofakeit.Faker
}

// NewSeeder creates a Seeder writing through the given repositories.
func NewSeeder(users repositories.UserRepository, posts repositories.PostRepository, opts Options) *Seeder {
	return &Seeder{
		users: users,
		posts: posts,
		fake:  gofakeit.New(opts.Seed),
	}
}

// Run seeds opts.Users accounts and opts.Posts posts spread among them.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Users < 1 {
		return nil, errors.New("seed: at least one user is required")
	}
	summary := &Summary{}

	for len(summary.Users) < opts.Users {
		username := fmt.Sprintf("%s%d", s.fake.Username(), s.fake.Number(100, 999))
		_, err := s.users.Register(ctx, username, s.fake.Email(), DefaultPassword)
		if errors.Is(err, models.ErrDuplicateUsername) {
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("seed user: %w", err)
		}
		summary.Users = append(summary.Users, username)
	}

	for _, follower := range summary.Users {
		for _, target := range summary.Users {
			if follower == target || s.fake.Number(0, 2) != 0 {
				continue
			}
			if err := s.users.Follow(ctx, follower, target); err != nil {
				return summary, fmt.Errorf("seed follow: %w", err)
			}
			summary.Follows++
		}
	}

	for i := 0; i < opts.Posts; i++ {
		author := summary.Users[s.fake.Number(0, len(summary.Users)-1)]
		post, err := s.posts.Create(ctx, author, s.fake.HipsterSentence(4), s.fake.Sentence(12), s.fake.UUID()+".jpg")
		if err != nil {
			return summary, fmt.Errorf("seed post: %w", err)
		}
		summary.Posts++

		for _, username := range summary.Users {
			if s.fake.Number(0, 3) != 0 {
				continue
			}
			if _, err := s.posts.ToggleLike(ctx, post.ID, username); err != nil {
				return summary, fmt.Errorf("seed like: %w", err)
			}
			summary.Likes++
		}

		for c := s.fake.Number(0, 3); c > 0; c-- {
			commenter := summary.Users[s.fake.Number(0, len(summary.Users)-1)]
			if _, err := s.posts.AddComment(ctx, post.ID, commenter, s.fake.Sentence(8)); err != nil {
				return summary, fmt.Errorf("seed comment: %w", err)
			}
			summary.Comments++
		}
	}

	observability.Log.WithField("users", len(summary.Users)).
		WithField("posts", summary.Posts).
		WithField("follows", summary.Follows).
		WithField("likes", summary.Likes).
		WithField("comments", summary.Comments).
		Info("seed complete")
	return summary, nil
}
