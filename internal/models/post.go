package models

import "time"

// Comment is a single remark on a post. IDs are unique within their post.
type Comment struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`
}

// Post is an uploaded image plus its engagement state.
// Likes always equals len(LikedBy).
type Post struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Caption       string    `json:"caption"`
	ImageFilename string    `json:"imageFilename"`
	Author        string    `json:"author"`
	CreatedAt     int64     `json:"createdAt"` // milliseconds since epoch
	Likes         int       `json:"likes"`
	LikedBy       []string  `json:"likedBy"`
	Comments      []Comment `json:"comments"`
}

// Created returns CreatedAt as a time.Time.
func (p *Post) Created() time.Time {
	return time.UnixMilli(p.CreatedAt)
}

// IsLikedBy reports whether username has liked the post.
func (p *Post) IsLikedBy(username string) bool {
	return containsString(p.LikedBy, username)
}

// CommentIndex returns the position of the comment with the given id, or -1.
func (p *Post) CommentIndex(id int64) int {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return i
		}
	}
	return -1
}

// Page is one slice of a sorted post listing.
type Page struct {
	Items      []Post `json:"items"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
	Total      int    `json:"total"`
}
