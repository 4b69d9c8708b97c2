package schema_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"joints/internal/schema"
	"joints/internal/store"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNormalizeUsers_BackfillsLegacyRecord(t *testing.T) {
	in := []store.Document{
		{"username": "alice", "credential": "hunter2"},
	}

	out, changed := schema.NormalizeUsers(in, fixedNow)

	assert.True(t, changed)
	want := []store.Document{{
		"username":   "alice",
		"email":      "",
		"credential": "hunter2",
		"joinedAt":   fixedNow.UnixMilli(),
		"isAdmin":    false,
		"banned":     false,
		"followers":  []any{},
		"following":  []any{},
	}}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("NormalizeUsers() mismatch (-want +got):\n%s", diff)
	}
	// The input is left untouched.
	assert.NotContains(t, in[0], "joinedAt")
}

func TestNormalizeUsers_KeepsExistingValues(t *testing.T) {
	in := []store.Document{{
		"username":   "bob",
		"email":      "bob@example.com",
		"credential": "x",
		"joinedAt":   json.Number("1700000000000"),
		"isAdmin":    true,
		"banned":     true,
		"followers":  []any{"alice"},
		"following":  []any{},
	}}

	out, changed := schema.NormalizeUsers(in, fixedNow)

	assert.False(t, changed)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("NormalizeUsers() changed a canonical record (-want +got):\n%s", diff)
	}
}

func TestNormalizeUsers_RepairsWrongTypes(t *testing.T) {
	in := []store.Document{{
		"username":  "carol",
		"isAdmin":   "yes",
		"joinedAt":  "yesterday",
		"followers": []any{"dave", "dave", 3, "erin"},
		"following": nil,
	}}

	out, changed := schema.NormalizeUsers(in, fixedNow)

	assert.True(t, changed)
	assert.Equal(t, false, out[0]["isAdmin"])
	assert.Equal(t, fixedNow.UnixMilli(), out[0]["joinedAt"])
	assert.Equal(t, []any{"dave", "erin"}, out[0]["followers"])
	assert.Equal(t, []any{}, out[0]["following"])
}

func TestNormalizePosts_BackfillsLegacyRecord(t *testing.T) {
	in := []store.Document{
		{"id": json.Number("1718000000000"), "author": "alice", "imageFilename": "a.jpg", "createdAt": json.Number("1718000000000")},
	}

	out, changed := schema.NormalizePosts(in)

	assert.True(t, changed)
	want := []store.Document{{
		"id":            json.Number("1718000000000"),
		"title":         "",
		"caption":       "",
		"imageFilename": "a.jpg",
		"author":        "alice",
		"createdAt":     json.Number("1718000000000"),
		"likes":         int64(0),
		"likedBy":       []any{},
		"comments":      []any{},
	}}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("NormalizePosts() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizePosts_LikesFollowLikedBy(t *testing.T) {
	in := []store.Document{{
		"id":      json.Number("1"),
		"likes":   json.Number("17"),
		"likedBy": []any{"bob", "carol", "bob"},
	}}

	out, changed := schema.NormalizePosts(in)

	assert.True(t, changed)
	assert.Equal(t, []any{"bob", "carol"}, out[0]["likedBy"])
	assert.Equal(t, int64(2), out[0]["likes"])
}

func TestNormalizePosts_RepairsComments(t *testing.T) {
	in := []store.Document{{
		"id": json.Number("1"),
		"comments": []any{
			map[string]any{"id": json.Number("5"), "author": "bob", "text": "nice", "createdAt": json.Number("5")},
			"garbage",
			map[string]any{"text": "no author"},
		},
	}}

	out, changed := schema.NormalizePosts(in)

	assert.True(t, changed)
	want := []any{
		map[string]any{"id": json.Number("5"), "author": "bob", "text": "nice", "createdAt": json.Number("5")},
		map[string]any{"id": int64(0), "author": "", "text": "no author", "createdAt": int64(0)},
	}
	if diff := cmp.Diff(want, out[0]["comments"]); diff != "" {
		t.Errorf("comments mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizePosts_TruncatesFractionalNumbers(t *testing.T) {
	in := []store.Document{{"id": json.Number("12.7"), "createdAt": 3.5}}

	out, _ := schema.NormalizePosts(in)

	assert.Equal(t, int64(12), out[0]["id"])
	assert.Equal(t, int64(3), out[0]["createdAt"])
}

func TestNormalizePosts_ClampsOutOfRangeNumbers(t *testing.T) {
	in := []store.Document{
		{"id": json.Number("1e20"), "createdAt": -1e20},
		{"id": 1e19, "createdAt": json.Number("99999999999999999999")},
	}

	out, changed := schema.NormalizePosts(in)

	assert.True(t, changed)
	assert.Equal(t, int64(math.MaxInt64), out[0]["id"])
	assert.Equal(t, int64(math.MinInt64), out[0]["createdAt"])
	assert.Equal(t, int64(math.MaxInt64), out[1]["id"])
	assert.Equal(t, int64(math.MaxInt64), out[1]["createdAt"])

	_, changed = schema.NormalizePosts(out)
	assert.False(t, changed)
}

func TestNormalize_Idempotent(t *testing.T) {
	users := []store.Document{
		{"username": "alice", "followers": []any{"bob", "bob"}},
		{},
	}
	posts := []store.Document{
		{"id": json.Number("1"), "likedBy": []any{"a", "a", "b"}, "comments": []any{map[string]any{}}},
		{"likes": "many"},
	}

	onceUsers, _ := schema.NormalizeUsers(users, fixedNow)
	twiceUsers, changed := schema.NormalizeUsers(onceUsers, fixedNow.Add(time.Hour))
	assert.False(t, changed)
	if diff := cmp.Diff(onceUsers, twiceUsers); diff != "" {
		t.Errorf("second user pass changed records (-once +twice):\n%s", diff)
	}

	oncePosts, _ := schema.NormalizePosts(posts)
	twicePosts, changed := schema.NormalizePosts(oncePosts)
	assert.False(t, changed)
	if diff := cmp.Diff(oncePosts, twicePosts); diff != "" {
		t.Errorf("second post pass changed records (-once +twice):\n%s", diff)
	}
}

func TestNormalize_EmptyCollections(t *testing.T) {
	users, changed := schema.NormalizeUsers(nil, fixedNow)
	assert.False(t, changed)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	posts, changed := schema.NormalizePosts([]store.Document{})
	assert.False(t, changed)
	assert.Empty(t, posts)
}
