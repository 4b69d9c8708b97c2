package repositories

import (
	"context"
	"math"
	"strings"
	"time"

	"joints/internal/models"
	"joints/internal/schema"
	"joints/internal/store"

	"github.com/sirupsen/logrus"
)

// PostsCollection is the name of the persisted post collection.
const PostsCollection = "posts"

// StorePostRepository is a Store-backed implementation of PostRepository.
type StorePostRepository struct {
	posts *collection[models.Post]
	now   func() time.Time
}

// PostOption configures a StorePostRepository.
type PostOption func(*StorePostRepository)

// WithPostClock overrides the clock used for post and comment ids.
func WithPostClock(now func() time.Time) PostOption {
	return func(r *StorePostRepository) { r.now = now }
}

// NewStorePostRepository creates a new instance of StorePostRepository.
func NewStorePostRepository(st store.Store, locker store.Locker, opts ...PostOption) *StorePostRepository {
	r := &StorePostRepository{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	r.posts = newCollection[models.Post](PostsCollection, st, locker, schema.NormalizePosts)
	return r
}

// nextID derives an id from the creation instant, bumped past the largest
// id already in use so two creates in the same millisecond still differ.
func nextID(nowMillis, maxExisting int64) (int64, error) {
	if nowMillis > maxExisting {
		return nowMillis, nil
	}
	if maxExisting == math.MaxInt64 {
		return 0, models.NewValidationError("no identifiers left after the largest one in use")
	}
	return maxExisting + 1, nil
}

func indexOfPost(posts []models.Post, id int64) int {
	for i := range posts {
		if posts[i].ID == id {
			return i
		}
	}
	return -1
}

// Create stores a new post. Its id and createdAt come from the same instant
// unless that instant's id is already taken.
func (r *StorePostRepository) Create(ctx context.Context, author, title, caption, imageFilename string) (*models.Post, error) {
	if strings.TrimSpace(imageFilename) == "" {
		return nil, models.NewValidationError("image filename is required")
	}

	var created models.Post
	err := r.posts.mutate(ctx, func(posts []models.Post) ([]models.Post, error) {
		var maxID int64
		for i := range posts {
			if posts[i].ID > maxID {
				maxID = posts[i].ID
			}
		}
		now := r.now().UnixMilli()
		id, err := nextID(now, maxID)
		if err != nil {
			return nil, err
		}
		created = models.Post{
			ID:            id,
			Title:         title,
			Caption:       caption,
			ImageFilename: imageFilename,
			Author:        author,
			CreatedAt:     now,
			LikedBy:       []string{},
			Comments:      []models.Comment{},
		}
		return append(posts, created), nil
	})
	if err != nil {
		return nil, err
	}

	r.posts.log.LogCreate(ctx, logrus.Fields{"post_id": created.ID, "author": author})
	return &created, nil
}

// FindByID returns the post with the given id.
func (r *StorePostRepository) FindByID(ctx context.Context, id int64) (*models.Post, error) {
	posts, err := r.posts.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOfPost(posts, id)
	if i < 0 {
		return nil, models.NewNotFoundError("post", id)
	}
	return &posts[i], nil
}

// Delete removes a post on behalf of its author.
func (r *StorePostRepository) Delete(ctx context.Context, id int64, requester string) error {
	return r.remove(ctx, id, func(p *models.Post) error {
		if p.Author != requester {
			return models.NewForbiddenError("only the author can delete this post")
		}
		return nil
	})
}

// DeleteAsAdmin removes a post without the ownership check.
func (r *StorePostRepository) DeleteAsAdmin(ctx context.Context, id int64) error {
	return r.remove(ctx, id, func(*models.Post) error { return nil })
}

func (r *StorePostRepository) remove(ctx context.Context, id int64, authorize func(p *models.Post) error) error {
	err := r.posts.mutate(ctx, func(posts []models.Post) ([]models.Post, error) {
		i := indexOfPost(posts, id)
		if i < 0 {
			return nil, models.NewNotFoundError("post", id)
		}
		if err := authorize(&posts[i]); err != nil {
			return nil, err
		}
		return append(posts[:i], posts[i+1:]...), nil
	})
	if err != nil {
		return err
	}

	r.posts.log.LogDelete(ctx, logrus.Fields{"post_id": id})
	return nil
}

// ToggleLike likes the post for username, or unlikes it if already liked.
func (r *StorePostRepository) ToggleLike(ctx context.Context, id int64, username string) (*models.Post, error) {
	var updated models.Post
	err := r.posts.mutate(ctx, func(posts []models.Post) ([]models.Post, error) {
		i := indexOfPost(posts, id)
		if i < 0 {
			return nil, models.NewNotFoundError("post", id)
		}
		p := &posts[i]
		if p.IsLikedBy(username) {
			p.LikedBy = models.RemoveFromSet(p.LikedBy, username)
			p.Likes--
		} else {
			p.LikedBy = models.AddToSet(p.LikedBy, username)
			p.Likes++
		}
		if p.Likes < 0 {
			p.Likes = 0
		}
		updated = *p
		return posts, nil
	})
	if err != nil {
		return nil, err
	}

	r.posts.log.LogUpdate(ctx, logrus.Fields{"action": "toggle_like", "post_id": id, "username": username, "likes": updated.Likes})
	return &updated, nil
}

// AddComment appends a comment. Text that is empty after trimming is rejected.
func (r *StorePostRepository) AddComment(ctx context.Context, postID int64, author, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("comment text is required")
	}

	var created models.Comment
	err := r.posts.mutate(ctx, func(posts []models.Post) ([]models.Post, error) {
		i := indexOfPost(posts, postID)
		if i < 0 {
			return nil, models.NewNotFoundError("post", postID)
		}
		p := &posts[i]

		var maxID int64
		for _, c := range p.Comments {
			if c.ID > maxID {
				maxID = c.ID
			}
		}
		now := r.now().UnixMilli()
		id, err := nextID(now, maxID)
		if err != nil {
			return nil, err
		}
		created = models.Comment{
			ID:        id,
			Author:    author,
			Text:      text,
			CreatedAt: now,
		}
		p.Comments = append(p.Comments, created)
		return posts, nil
	})
	if err != nil {
		return nil, err
	}

	r.posts.log.LogCreate(ctx, logrus.Fields{"post_id": postID, "comment_id": created.ID, "author": author})
	return &created, nil
}

// DeleteComment removes a comment. Either the comment's author or the post's
// author may do so.
func (r *StorePostRepository) DeleteComment(ctx context.Context, postID, commentID int64, requester string) error {
	err := r.posts.mutate(ctx, func(posts []models.Post) ([]models.Post, error) {
		i := indexOfPost(posts, postID)
		if i < 0 {
			return nil, models.NewNotFoundError("post", postID)
		}
		p := &posts[i]

		ci := p.CommentIndex(commentID)
		if ci < 0 {
			return nil, models.NewNotFoundError("comment", commentID)
		}
		if p.Comments[ci].Author != requester && p.Author != requester {
			return nil, models.NewForbiddenError("only the comment author or the post author can delete this comment")
		}
		p.Comments = append(p.Comments[:ci], p.Comments[ci+1:]...)
		return posts, nil
	})
	if err != nil {
		return err
	}

	r.posts.log.LogDelete(ctx, logrus.Fields{"post_id": postID, "comment_id": commentID})
	return nil
}

// ListByAuthor returns the posts written by username in stored order.
func (r *StorePostRepository) ListByAuthor(ctx context.Context, username string) ([]models.Post, error) {
	posts, err := r.posts.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Post, 0)
	for _, p := range posts {
		if p.Author == username {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListAll returns every post in stored order.
func (r *StorePostRepository) ListAll(ctx context.Context) ([]models.Post, error) {
	return r.posts.load(ctx)
}

// Pick returns the post at position index in stored order.
func (r *StorePostRepository) Pick(ctx context.Context, index int) (*models.Post, error) {
	posts, err := r.posts.load(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(posts) {
		return nil, models.NewNotFoundError("post at index", index)
	}
	return &posts[index], nil
}
