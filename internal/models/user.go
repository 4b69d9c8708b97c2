package models

import "time"

// User represents a registered account and its place in the follow graph.
// Followers and Following are sets; they are stored as arrays without duplicates.
type User struct {
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Credential string   `json:"credential"`
	JoinedAt   int64    `json:"joinedAt"` // milliseconds since epoch
	IsAdmin    bool     `json:"isAdmin"`
	Banned     bool     `json:"banned"`
	Followers  []string `json:"followers"`
	Following  []string `json:"following"`
}

// Joined returns JoinedAt as a time.Time.
func (u *User) Joined() time.Time {
	return time.UnixMilli(u.JoinedAt)
}

// IsFollowing reports whether u follows username.
func (u *User) IsFollowing(username string) bool {
	return containsString(u.Following, username)
}

// PublicUser is the view of a User handed to clients. It never carries the credential.
type PublicUser struct {
	Username  string   `json:"username"`
	Email     string   `json:"email,omitempty"`
	JoinedAt  int64    `json:"joinedAt"`
	IsAdmin   bool     `json:"isAdmin"`
	Banned    bool     `json:"banned"`
	Followers []string `json:"followers"`
	Following []string `json:"following"`
}

// Public strips the credential from u.
func (u *User) Public() PublicUser {
	return PublicUser{
		Username:  u.Username,
		Email:     u.Email,
		JoinedAt:  u.JoinedAt,
		IsAdmin:   u.IsAdmin,
		Banned:    u.Banned,
		Followers: u.Followers,
		Following: u.Following,
	}
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// AddToSet appends v to set unless it is already present.
func AddToSet(set []string, v string) []string {
	if containsString(set, v) {
		return set
	}
	return append(set, v)
}

// RemoveFromSet returns set without v. Removing an absent value is a no-op.
func RemoveFromSet(set []string, v string) []string {
	out := make([]string, 0, len(set))
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
