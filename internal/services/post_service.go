package services

import (
	"context"
	"time"

	"joints/internal/models"
	"joints/internal/observability"
	"joints/internal/repositories"
)

// Routing keys for published domain events.
const (
	EventPostCreated    = "post.created"
	EventPostDeleted    = "post.deleted"
	EventPostLiked      = "post.liked"
	EventPostUnliked    = "post.unliked"
	EventCommentAdded   = "comment.added"
	EventCommentDeleted = "comment.deleted"
)

// EventPublisher is the slice of the message queue client this service needs.
type EventPublisher interface {
	PublishEvent(routingKey string, payload map[string]interface{}) error
}

// PostService handles business logic related to posts and publishes an event
// for every successful mutation.
type PostService struct {
	repo      repositories.PostRepository
	publisher EventPublisher // may be nil
	pageSize  int
}

// NewPostService creates a new PostService. publisher may be nil.
func NewPostService(repo repositories.PostRepository, publisher EventPublisher, pageSize int) *PostService {
	if pageSize < 1 {
		pageSize = repositories.DefaultPageSize
	}
	return &PostService{
		repo:      repo,
		publisher: publisher,
		pageSize:  pageSize,
	}
}

// Feed returns one page of all posts in the requested sort order.
func (s *PostService) Feed(ctx context.Context, sortMode string, page int) (models.Page, error) {
	posts, err := s.repo.ListAll(ctx)
	if err != nil {
		return models.Page{}, err
	}
	return repositories.Paginate(repositories.SortPosts(posts, sortMode), page, s.pageSize), nil
}

// PostsByAuthor returns one page of a user's posts, newest first.
func (s *PostService) PostsByAuthor(ctx context.Context, username string, page int) (models.Page, error) {
	posts, err := s.repo.ListByAuthor(ctx, username)
	if err != nil {
		return models.Page{}, err
	}
	return repositories.Paginate(repositories.SortRecent(posts), page, s.pageSize), nil
}

// GetPost retrieves a single post by its ID.
func (s *PostService) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	return s.repo.FindByID(ctx, id)
}

// CreatePost stores a post for an uploaded image.
func (s *PostService) CreatePost(ctx context.Context, author, title, caption, imageFilename string) (*models.Post, error) {
	post, err := s.repo.Create(ctx, author, title, caption, imageFilename)
	if err != nil {
		return nil, err
	}
	s.publish(EventPostCreated, map[string]interface{}{
		"postID": post.ID,
		"author": post.Author,
		"image":  post.ImageFilename,
	})
	return post, nil
}

// DeletePost removes a post. Administrators skip the ownership check.
func (s *PostService) DeletePost(ctx context.Context, id int64, requester *models.User) error {
	var err error
	if requester.IsAdmin {
		err = s.repo.DeleteAsAdmin(ctx, id)
	} else {
		err = s.repo.Delete(ctx, id, requester.Username)
	}
	if err != nil {
		return err
	}
	s.publish(EventPostDeleted, map[string]interface{}{"postID": id, "by": requester.Username})
	return nil
}

// ToggleLike flips username's like on a post.
func (s *PostService) ToggleLike(ctx context.Context, id int64, username string) (*models.Post, error) {
	post, err := s.repo.ToggleLike(ctx, id, username)
	if err != nil {
		return nil, err
	}
	key := EventPostUnliked
	if post.IsLikedBy(username) {
		key = EventPostLiked
	}
	s.publish(key, map[string]interface{}{"postID": id, "username": username, "likes": post.Likes})
	return post, nil
}

// AddComment appends a comment to a post.
func (s *PostService) AddComment(ctx context.Context, postID int64, author, text string) (*models.Comment, error) {
	comment, err := s.repo.AddComment(ctx, postID, author, text)
	if err != nil {
		return nil, err
	}
	s.publish(EventCommentAdded, map[string]interface{}{"postID": postID, "commentID": comment.ID, "author": author})
	return comment, nil
}

// DeleteComment removes a comment on behalf of requester.
func (s *PostService) DeleteComment(ctx context.Context, postID, commentID int64, requester string) error {
	if err := s.repo.DeleteComment(ctx, postID, commentID, requester); err != nil {
		return err
	}
	s.publish(EventCommentDeleted, map[string]interface{}{"postID": postID, "commentID": commentID, "by": requester})
	return nil
}

// publish never fails the caller: the mutation is already durable.
func (s *PostService) publish(key string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	payload["occurredAt"] = time.Now().UTC().Format(time.RFC3339)
	if err := s.publisher.PublishEvent(key, payload); err != nil {
		observability.Log.WithError(err).WithField("event", key).Warn("failed to publish event")
	}
}
