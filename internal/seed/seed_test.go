package seed_test

import (
	"context"
	"os"
	"testing"

	"joints/internal/observability"
	"joints/internal/repositories"
	"joints/internal/seed"
	"joints/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	observability.SetOutputDiscard()
	os.Exit(m.Run())
}

func TestSeeder_Run(t *testing.T) {
	st := store.NewMemoryStore()
	locker := store.NewLocalLocker()
	users := repositories.NewStoreUserRepository(st, locker, repositories.WithHashCost(bcrypt.MinCost))
	posts := repositories.NewStorePostRepository(st, locker)
	ctx := context.Background()

	opts := seed.Options{Users: 5, Posts: 8, Seed: 42}
	summary, err := seed.NewSeeder(users, posts, opts).Run(ctx, opts)
	require.NoError(t, err)

	assert.Len(t, summary.Users, 5)
	assert.Equal(t, 8, summary.Posts)

	allUsers, err := users.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, allUsers, 5)
	assert.True(t, allUsers[0].IsAdmin)

	follows := 0
	for _, u := range allUsers {
		follows += len(u.Following)
		assert.NotContains(t, u.Following, u.Username)
	}
	assert.Equal(t, summary.Follows, follows)

	allPosts, err := posts.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, allPosts, 8)
	likes, comments := 0, 0
	for _, p := range allPosts {
		assert.Equal(t, len(p.LikedBy), p.Likes)
		likes += p.Likes
		comments += len(p.Comments)
	}
	assert.Equal(t, summary.Likes, likes)
	assert.Equal(t, summary.Comments, comments)

	_, err = users.Authenticate(ctx, summary.Users[1], seed.DefaultPassword)
	assert.NoError(t, err)
}

func TestSeeder_RequiresUsers(t *testing.T) {
	st := store.NewMemoryStore()
	locker := store.NewLocalLocker()
	s := seed.NewSeeder(
		repositories.NewStoreUserRepository(st, locker),
		repositories.NewStorePostRepository(st, locker),
		seed.Options{},
	)

	_, err := s.Run(context.Background(), seed.Options{Posts: 3})

	assert.Error(t, err)
}
