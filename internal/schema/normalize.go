// Package schema backfills missing or malformed fields on stored documents so
// that records written by older versions decode into the current models.
//
// Normalization is pure: it never touches the input documents and reports
// whether anything was amended. Running it on its own output reports no change.
package schema

import (
	"encoding/json"
	"math"
	"time"

	"joints/internal/store"
)

// Field names as they appear in stored documents.
const (
	FieldUsername   = "username"
	FieldEmail      = "email"
	FieldCredential = "credential"
	FieldJoinedAt   = "joinedAt"
	FieldIsAdmin    = "isAdmin"
	FieldBanned     = "banned"
	FieldFollowers  = "followers"
	FieldFollowing  = "following"

	FieldID            = "id"
	FieldTitle         = "title"
	FieldCaption       = "caption"
	FieldImageFilename = "imageFilename"
	FieldAuthor        = "author"
	FieldCreatedAt     = "createdAt"
	FieldLikes         = "likes"
	FieldLikedBy       = "likedBy"
	FieldComments      = "comments"
	FieldText          = "text"
)

// NormalizeUsers returns users in canonical shape. Missing join dates are set
// to now.
func NormalizeUsers(docs []store.Document, now time.Time) ([]store.Document, bool) {
	out := make([]store.Document, 0, len(docs))
	changed := false

	for _, doc := range docs {
		u := clone(doc)
		for _, f := range []string{FieldUsername, FieldEmail, FieldCredential} {
			changed = ensureString(u, f) || changed
		}
		if _, ok := asInt(u[FieldJoinedAt]); !ok {
			if isNumber(u[FieldJoinedAt]) {
				changed = ensureNumber(u, FieldJoinedAt) || changed
			} else {
				u[FieldJoinedAt] = now.UnixMilli()
				changed = true
			}
		}
		changed = ensureBool(u, FieldIsAdmin) || changed
		changed = ensureBool(u, FieldBanned) || changed
		changed = ensureSet(u, FieldFollowers) || changed
		changed = ensureSet(u, FieldFollowing) || changed
		out = append(out, u)
	}
	return out, changed
}

// NormalizePosts returns posts in canonical shape. The likes counter is
// re-derived from likedBy so the two never disagree after a load.
func NormalizePosts(docs []store.Document) ([]store.Document, bool) {
	out := make([]store.Document, 0, len(docs))
	changed := false

	for _, doc := range docs {
		p := clone(doc)
		for _, f := range []string{FieldTitle, FieldCaption, FieldImageFilename, FieldAuthor} {
			changed = ensureString(p, f) || changed
		}
		changed = ensureNumber(p, FieldID) || changed
		changed = ensureNumber(p, FieldCreatedAt) || changed
		changed = ensureSet(p, FieldLikedBy) || changed

		likedBy, _ := p[FieldLikedBy].([]any)
		if n, ok := asInt(p[FieldLikes]); !ok || n != int64(len(likedBy)) {
			p[FieldLikes] = int64(len(likedBy))
			changed = true
		}

		changed = ensureComments(p) || changed
		out = append(out, p)
	}
	return out, changed
}

func clone(doc store.Document) store.Document {
	c := make(store.Document, len(doc))
	for k, v := range doc {
		c[k] = v
	}
	return c
}

func ensureString(doc store.Document, field string) bool {
	if _, ok := doc[field].(string); ok {
		return false
	}
	doc[field] = ""
	return true
}

func ensureBool(doc store.Document, field string) bool {
	if _, ok := doc[field].(bool); ok {
		return false
	}
	doc[field] = false
	return true
}

// ensureNumber makes the field an integer. Fractional values are truncated
// and values outside the int64 range are clamped; anything else becomes 0.
func ensureNumber(doc store.Document, field string) bool {
	v := doc[field]
	if _, ok := asInt(v); ok {
		return false
	}
	doc[field] = int64(0)
	if isNumber(v) {
		if f, ok := asFloat(v); ok {
			doc[field] = clampToInt64(f)
		}
	}
	return true
}

// ensureSet turns the field into a []any of distinct strings, keeping first
// occurrence order.
func ensureSet(doc store.Document, field string) bool {
	var items []any
	switch v := doc[field].(type) {
	case []any:
		items = v
	case []string:
		items = make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
	default:
		doc[field] = []any{}
		return true
	}

	seen := make(map[string]struct{}, len(items))
	set := make([]any, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		set = append(set, s)
	}

	_, wasAnySlice := doc[field].([]any)
	doc[field] = set
	return !wasAnySlice || len(set) != len(items)
}

func ensureComments(post store.Document) bool {
	raw, ok := post[FieldComments].([]any)
	if !ok {
		post[FieldComments] = []any{}
		return true
	}

	changed := false
	comments := make([]any, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			if d, isDoc := entry.(store.Document); isDoc {
				m = d
			} else {
				changed = true
				continue
			}
		}
		c := clone(m)
		changed = ensureNumber(c, FieldID) || changed
		changed = ensureNumber(c, FieldCreatedAt) || changed
		changed = ensureString(c, FieldAuthor) || changed
		changed = ensureString(c, FieldText) || changed
		comments = append(comments, map[string]any(c))
	}
	post[FieldComments] = comments
	return changed
}

func clampToInt64(f float64) int64 {
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func isNumber(v any) bool {
	switch n := v.(type) {
	case json.Number:
		_, err := n.Float64()
		return err == nil
	case float64:
		return !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	}
	return 0, false
}
