package repositories

import (
	"context"
	"strings"
	"time"

	"joints/internal/models"
	"joints/internal/schema"
	"joints/internal/store"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UsersCollection is the name of the persisted user collection.
const UsersCollection = "users"

// StoreUserRepository is a Store-backed implementation of UserRepository.
type StoreUserRepository struct {
	users    *collection[models.User]
	now      func() time.Time
	hashCost int
}

// UserOption configures a StoreUserRepository.
type UserOption func(*StoreUserRepository)

// WithUserClock overrides the clock used for join dates.
func WithUserClock(now func() time.Time) UserOption {
	return func(r *StoreUserRepository) { r.now = now }
}

// WithHashCost sets the bcrypt cost used when storing new credentials.
func WithHashCost(cost int) UserOption {
	return func(r *StoreUserRepository) { r.hashCost = cost }
}

// NewStoreUserRepository creates a new instance of StoreUserRepository.
func NewStoreUserRepository(st store.Store, locker store.Locker, opts ...UserOption) *StoreUserRepository {
	r := &StoreUserRepository{
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.users = newCollection[models.User](UsersCollection, st, locker, func(docs []store.Document) ([]store.Document, bool) {
		return schema.NormalizeUsers(docs, r.now())
	})
	return r
}

// grantsAdmin is the first-user policy: whoever registers into an empty
// collection becomes an administrator.
func grantsAdmin(existing []models.User) bool {
	return len(existing) == 0
}

func indexOfUser(users []models.User, username string) int {
	for i := range users {
		if users[i].Username == username {
			return i
		}
	}
	return -1
}

// Register adds a new user. Usernames are matched case-sensitively.
func (r *StoreUserRepository) Register(ctx context.Context, username, email, credential string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, models.NewValidationError("username is required")
	}
	if credential == "" {
		return nil, models.NewValidationError("credential is required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(credential), r.hashCost)
	if err != nil {
		return nil, models.NewValidationError("credential cannot be hashed: " + err.Error())
	}

	var created models.User
	err = r.users.mutate(ctx, func(users []models.User) ([]models.User, error) {
		if indexOfUser(users, username) >= 0 {
			return nil, models.NewDuplicateUsernameError(username)
		}
		created = models.User{
			Username:   username,
			Email:      email,
			Credential: string(hashed),
			JoinedAt:   r.now().UnixMilli(),
			IsAdmin:    grantsAdmin(users),
			Followers:  []string{},
			Following:  []string{},
		}
		return append(users, created), nil
	})
	if err != nil {
		return nil, err
	}

	r.users.log.LogCreate(ctx, logrus.Fields{"username": username, "is_admin": created.IsAdmin})
	return &created, nil
}

// Authenticate checks a username/credential pair. A banned account with the
// right credential fails with ErrBanned; everything else fails with
// ErrInvalidCredential.
func (r *StoreUserRepository) Authenticate(ctx context.Context, username, credential string) (*models.User, error) {
	users, err := r.users.load(ctx)
	if err != nil {
		return nil, err
	}

	i := indexOfUser(users, username)
	if i < 0 || !credentialMatches(users[i].Credential, credential) {
		return nil, models.ErrInvalidCredential
	}
	if users[i].Banned {
		return nil, models.ErrBanned
	}
	return &users[i], nil
}

// credentialMatches compares against a bcrypt hash, or verbatim for records
// written before credentials were hashed.
func credentialMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return stored != "" && stored == given
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

// Follow makes follower follow target. Following yourself is a no-op, and so
// is following someone twice.
func (r *StoreUserRepository) Follow(ctx context.Context, follower, target string) error {
	if follower == target {
		return nil
	}

	err := r.users.mutate(ctx, func(users []models.User) ([]models.User, error) {
		fi, ti, err := locatePair(users, follower, target)
		if err != nil {
			return nil, err
		}
		users[fi].Following = models.AddToSet(users[fi].Following, target)
		users[ti].Followers = models.AddToSet(users[ti].Followers, follower)
		return users, nil
	})
	if err != nil {
		return err
	}

	r.users.log.LogUpdate(ctx, logrus.Fields{"action": "follow", "follower": follower, "target": target})
	return nil
}

// Unfollow removes both sides of the relationship. Unfollowing someone you do
// not follow is a no-op.
func (r *StoreUserRepository) Unfollow(ctx context.Context, follower, target string) error {
	if follower == target {
		return nil
	}

	err := r.users.mutate(ctx, func(users []models.User) ([]models.User, error) {
		fi, ti, err := locatePair(users, follower, target)
		if err != nil {
			return nil, err
		}
		users[fi].Following = models.RemoveFromSet(users[fi].Following, target)
		users[ti].Followers = models.RemoveFromSet(users[ti].Followers, follower)
		return users, nil
	})
	if err != nil {
		return err
	}

	r.users.log.LogUpdate(ctx, logrus.Fields{"action": "unfollow", "follower": follower, "target": target})
	return nil
}

func locatePair(users []models.User, follower, target string) (int, int, error) {
	fi := indexOfUser(users, follower)
	if fi < 0 {
		return 0, 0, models.NewNotFoundError("user", follower)
	}
	ti := indexOfUser(users, target)
	if ti < 0 {
		return 0, 0, models.NewNotFoundError("user", target)
	}
	return fi, ti, nil
}

// SetBanned bans or unbans a user.
func (r *StoreUserRepository) SetBanned(ctx context.Context, username string, banned bool) error {
	err := r.updateUser(ctx, username, func(u *models.User) { u.Banned = banned })
	if err != nil {
		return err
	}
	r.users.log.LogUpdate(ctx, logrus.Fields{"action": "set_banned", "username": username, "banned": banned})
	return nil
}

// PromoteToAdmin grants administrator rights.
func (r *StoreUserRepository) PromoteToAdmin(ctx context.Context, username string) error {
	err := r.updateUser(ctx, username, func(u *models.User) { u.IsAdmin = true })
	if err != nil {
		return err
	}
	r.users.log.LogUpdate(ctx, logrus.Fields{"action": "promote", "username": username})
	return nil
}

func (r *StoreUserRepository) updateUser(ctx context.Context, username string, apply func(u *models.User)) error {
	return r.users.mutate(ctx, func(users []models.User) ([]models.User, error) {
		i := indexOfUser(users, username)
		if i < 0 {
			return nil, models.NewNotFoundError("user", username)
		}
		apply(&users[i])
		return users, nil
	})
}

// FindByUsername returns the user with the given username.
func (r *StoreUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	users, err := r.users.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOfUser(users, username)
	if i < 0 {
		return nil, models.NewNotFoundError("user", username)
	}
	return &users[i], nil
}

// ListAll returns every user in registration order.
func (r *StoreUserRepository) ListAll(ctx context.Context) ([]models.User, error) {
	return r.users.load(ctx)
}
