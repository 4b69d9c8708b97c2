package repositories_test

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"joints/internal/models"
	"joints/internal/repositories"
	"joints/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postTime = time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC)

func newPostRepo(t *testing.T, st store.Store) *repositories.StorePostRepository {
	t.Helper()
	return repositories.NewStorePostRepository(st, store.NewLocalLocker(),
		repositories.WithPostClock(func() time.Time { return postTime }),
	)
}

func TestCreate_AssignsIDFromClock(t *testing.T) {
	repo := newPostRepo(t, store.NewMemoryStore())
	ctx := context.Background()

	first, err := repo.Create(ctx, "alice", "Sunset", "over the bay", "sunset.jpg")
	require.NoError(t, err)
	second, err := repo.Create(ctx, "alice", "", "", "again.jpg")
	require.NoError(t, err)

	assert.Equal(t, postTime.UnixMilli(), first.ID)
	assert.Equal(t, postTime.UnixMilli(), first.CreatedAt)
	// Same millisecond: the id is bumped, createdAt is not.
	assert.Equal(t, postTime.UnixMilli()+1, second.ID)
	assert.Equal(t, postTime.UnixMilli(), second.CreatedAt)
	assert.Equal(t, 0, first.Likes)
	assert.Equal(t, []string{}, first.LikedBy)
	assert.Equal(t, []models.Comment{}, first.Comments)
}

func TestCreate_RequiresImage(t *testing.T) {
	repo := newPostRepo(t, store.NewMemoryStore())

	_, err := repo.Create(context.Background(), "alice", "t", "c", " ")

	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestFindByID(t *testing.T) {
	repo := newPostRepo(t, store.NewMemoryStore())
	ctx := context.Background()
	created, err := repo.Create(ctx, "alice", "t", "c", "a.jpg")
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, found)

	_, err = repo.FindByID(ctx, 42)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDelete_OnlyAuthor(t *testing.T) {
	repo := newPostRepo(t, store.NewMemoryStore())
	ctx := context.Background()
	post, err := repo.Create(ctx, "alice", "t", "c", "a.jpg")
	require.NoError(t, err)

	err = repo.Delete(ctx, post.ID, "bob")
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = repo.FindByID(ctx, post.ID)
	assert.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, post.ID, "alice"))
	_, err = repo.FindByID(ctx, post.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, post.ID, "alice"), models.ErrNotFound)
}

func TestDeleteAsAdmin(t *testing.T) {
	repo := newPostRepo(t, store.NewMemoryStore())
	ctx := context.Background()
	keep, err := repo.Create(ctx, "alice", "t", "c", "keep.jpg")
	require.NoError(t, err)
	drop, err := repo.Create(ctx, "alice", "t", "c", "drop.jpg")
	require.NoError(t, err)

	require.NoError(t, repo.DeleteAsAdmin(ctx, drop.ID))

	posts, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, keep.ID, posts[0].ID)
	assert.ErrorIs(t, repo.DeleteAsAdmin(ctx, drop.ID), models.ErrNotFound)
}

func TestToggleLike_PairsUp(t *testing.T) {
	repo := newPostRepo(t, store.NewMemoryStore())
	ctx := context.Background()
	post, err := repo.Create(ctx, "alice", "t", "c", "a.jpg")
	require.NoError(t, err)

	liked, err := repo.ToggleLike(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, liked.Likes)
	assert.True(t, liked.IsLikedBy("bob"))

	liked, err = repo.ToggleLike(ctx, post.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, 2, liked.Likes)

	unliked, err := repo.ToggleLike(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, unliked.Likes)
	assert.Equal(t, []string{"carol"}, unliked.LikedBy)

	_, err = repo.ToggleLike(ctx, 1, "bob")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestToggleLike_RepairsDriftedCounter(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, repositories.PostsCollection, []store.Document{
		{"id": int64(1), "author": "alice", "imageFilename": "a.jpg", "likes": int64(7), "likedBy": []any{"bob"}},
	}))
	repo := newPostRepo(t, st)

	post, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, post.Likes)

	post, err = repo.ToggleLike(ctx, 1, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, post.Likes)
	assert.Empty(t, post.LikedBy)
}

func TestAddComment(t *testing.T) {
	repo := newPostRepo(t, store.NewMemoryStore())
	ctx := context.Background()
	post, err := repo.Create(ctx, "alice", "t", "c", "a.jpg")
	require.NoError(t, err)

	c1, err := repo.AddComment(ctx, post.ID, "bob", "  lovely  ")
	require.NoError(t, err)
	c2, err := repo.AddComment(ctx, post.ID, "carol", "agreed")
	require.NoError(t, err)

	assert.Equal(t, "lovely", c1.Text)
	assert.NotEqual(t, c1.ID, c2.ID)

	stored, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, stored.Comments, 2)
	assert.Equal(t, "bob", stored.Comments[0].Author)
	assert.Equal(t, "carol", stored.Comments[1].Author)
}

func TestAddComment_BlankTextRejected(t *testing.T) {
	repo := newPostRepo(t, store.NewMemoryStore())
	ctx := context.Background()
	post, err := repo.Create(ctx, "alice", "t", "c", "a.jpg")
	require.NoError(t, err)

	_, err = repo.AddComment(ctx, post.ID, "bob", " \n\t ")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = repo.AddComment(ctx, 99, "bob", "hi")
	assert.ErrorIs(t, err, models.ErrNotFound)

	stored, _ := repo.FindByID(ctx, post.ID)
	assert.Empty(t, stored.Comments)
}

func TestDeleteComment_CommentAuthorOrPostAuthor(t *testing.T) {
	repo := newPostRepo(t, store.NewMemoryStore())
	ctx := context.Background()
	post, err := repo.Create(ctx, "alice", "t", "c", "a.jpg")
	require.NoError(t, err)
	byBob, err := repo.AddComment(ctx, post.ID, "bob", "first")
	require.NoError(t, err)
	byCarol, err := repo.AddComment(ctx, post.ID, "carol", "second")
	require.NoError(t, err)

	err = repo.DeleteComment(ctx, post.ID, byBob.ID, "carol")
	assert.ErrorIs(t, err, models.ErrForbidden)

	require.NoError(t, repo.DeleteComment(ctx, post.ID, byBob.ID, "bob"))
	require.NoError(t, repo.DeleteComment(ctx, post.ID, byCarol.ID, "alice"))

	stored, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Comments)

	assert.ErrorIs(t, repo.DeleteComment(ctx, post.ID, byBob.ID, "bob"), models.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteComment(ctx, 99, byBob.ID, "bob"), models.ErrNotFound)
}

func TestListByAuthor(t *testing.T) {
	repo := newPostRepo(t, store.NewMemoryStore())
	ctx := context.Background()
	for _, author := range []string{"alice", "bob", "alice"} {
		_, err := repo.Create(ctx, author, "t", "c", author+".jpg")
		require.NoError(t, err)
	}

	alice, err := repo.ListByAuthor(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	nobody, err := repo.ListByAuthor(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, nobody)
	assert.Empty(t, nobody)
}

func TestPick(t *testing.T) {
	repo := newPostRepo(t, store.NewMemoryStore())
	ctx := context.Background()
	first, err := repo.Create(ctx, "alice", "t", "c", "1.jpg")
	require.NoError(t, err)
	second, err := repo.Create(ctx, "bob", "t", "c", "2.jpg")
	require.NoError(t, err)

	p, err := repo.Pick(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, first.ID, p.ID)
	p, err = repo.Pick(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, p.ID)

	for _, index := range []int{-1, 2} {
		_, err := repo.Pick(ctx, index)
		assert.ErrorIs(t, err, models.ErrNotFound)
	}
}

func TestToggleLike_ConcurrentLikesLoseNothing(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	repo := newPostRepo(t, st)
	ctx := context.Background()
	post, err := repo.Create(ctx, "alice", "t", "c", "a.jpg")
	require.NoError(t, err)

	const likers = 20
	var wg sync.WaitGroup
	for i := 0; i < likers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.ToggleLike(ctx, post.ID, fmt.Sprintf("user%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, likers, stored.Likes)
	assert.Len(t, stored.LikedBy, likers)
}

func TestCreate_ConcurrentCreatesGetDistinctIDs(t *testing.T) {
	repo := newPostRepo(t, store.NewMemoryStore())
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, "alice", "t", "c", fmt.Sprintf("%d.jpg", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	posts, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, n)
	ids := make(map[int64]struct{}, n)
	for _, p := range posts {
		ids[p.ID] = struct{}{}
	}
	assert.Len(t, ids, n)
}

func TestRepositories_ShareOneStore(t *testing.T) {
	st := store.NewMemoryStore()
	locker := store.NewLocalLocker()
	users := repositories.NewStoreUserRepository(st, locker, repositories.WithHashCost(4))
	posts := repositories.NewStorePostRepository(st, locker)
	ctx := context.Background()

	_, err := users.Register(ctx, "alice", "", "pw")
	require.NoError(t, err)
	_, err = posts.Create(ctx, "alice", "t", "c", "a.jpg")
	require.NoError(t, err)

	allUsers, err := users.ListAll(ctx)
	require.NoError(t, err)
	allPosts, err := posts.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, allUsers, 1)
	assert.Len(t, allPosts, 1)
}

func TestCreate_RefusesWhenIdentifiersAreExhausted(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, repositories.PostsCollection, []store.Document{
		{"id": int64(math.MaxInt64), "author": "alice", "imageFilename": "a.jpg",
			"likedBy": []any{}, "comments": []any{}},
	}))
	repo := newPostRepo(t, st)

	_, err := repo.Create(ctx, "bob", "t", "c", "b.jpg")
	assert.ErrorIs(t, err, models.ErrValidation)

	posts, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(math.MaxInt64), posts[0].ID)
}

func TestAddComment_RefusesWhenIdentifiersAreExhausted(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, repositories.PostsCollection, []store.Document{
		{"id": int64(1), "author": "alice", "imageFilename": "a.jpg", "likedBy": []any{},
			"comments": []any{map[string]any{"id": int64(math.MaxInt64), "author": "bob", "text": "hi"}}},
	}))
	repo := newPostRepo(t, st)

	_, err := repo.AddComment(ctx, 1, "carol", "hello")
	assert.ErrorIs(t, err, models.ErrValidation)

	post, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, post.Comments, 1)
}
