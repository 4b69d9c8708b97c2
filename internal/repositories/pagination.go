package repositories

import (
	"sort"

	"joints/internal/models"
)

// DefaultPageSize is used when a caller passes a page size below one.
const DefaultPageSize = 9

// Sort modes accepted by SortPosts.
const (
	SortNew = "new"
	SortTop = "top"
)

// SortRecent returns a copy of posts ordered newest first.
func SortRecent(posts []models.Post) []models.Post {
	out := append([]models.Post(nil), posts...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// SortByLikes returns a copy of posts ordered by likes, then newest first.
func SortByLikes(posts []models.Post) []models.Post {
	out := append([]models.Post(nil), posts...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Likes != out[j].Likes {
			return out[i].Likes > out[j].Likes
		}
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// SortPosts applies the named sort mode. Anything unrecognized sorts as "new".
func SortPosts(posts []models.Post, mode string) []models.Post {
	if mode == SortTop {
		return SortByLikes(posts)
	}
	return SortRecent(posts)
}

// Paginate slices an already sorted listing. The page number is clamped into
// [1, TotalPages] and TotalPages is at least 1, even for no posts.
func Paginate(posts []models.Post, page, pageSize int) models.Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total := len(posts)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	if start > total {
		start = total
	}

	items := make([]models.Post, end-start)
	copy(items, posts[start:end])
	return models.Page{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Total:      total,
	}
}
