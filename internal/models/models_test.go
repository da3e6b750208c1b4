package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeItemFromStoredDocument(t *testing.T) {
	doc := Document{
		"_id":         "2LkS3x0Tz0wP5pD4b1Vq7n9YhRk",
		"title":       "Chair",
		"description": "Wood chair",
		"category":    "furniture",
		"user_id":     "owner",
		"status":      "claimed",
		"created_at":  "2026-01-02T03:04:05.123456Z",
		"claimed_by":  "claimer",
		"claimed_at":  "2026-01-03T00:00:00Z",
		"condition":   "used",
	}

	var item Item
	require.NoError(t, Decode(doc, &item))

	assert.Equal(t, "Chair", item.Title)
	assert.Equal(t, ItemStatusClaimed, item.Status)
	assert.Nil(t, item.ImageURL)
	require.NotNil(t, item.ClaimedBy)
	assert.Equal(t, "claimer", *item.ClaimedBy)
	require.NotNil(t, item.ClaimedAt)
	assert.Equal(t, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), *item.ClaimedAt)
	assert.Equal(t, 2026, item.CreatedAt.Year())
	assert.Equal(t, map[string]any{"condition": "used"}, item.Extra)
}

func TestItemJSONKeepsExtraFields(t *testing.T) {
	url := "https://cdn.example/chair.png"
	item := Item{
		ID:       "abc",
		Title:    "Chair",
		Status:   ItemStatusApproved,
		ImageURL: &url,
		Extra:    map[string]any{"condition": "used", "title": "ignored"},
	}

	raw, err := json.Marshal(item)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "abc", out["_id"])
	assert.Equal(t, "Chair", out["title"])
	assert.Equal(t, "used", out["condition"])
	assert.Equal(t, url, out["image_url"])
	assert.NotContains(t, out, "claimed_by")
	assert.NotContains(t, out, "created_at")
}

func TestUserJSONOmitsPassword(t *testing.T) {
	user := User{
		ID:           "u1",
		Email:        "a@example.com",
		PasswordHash: "$argon2id$secret",
		Name:         "Ann",
		Role:         UserRoleUser,
		Active:       true,
		CreatedAt:    time.Now(),
	}

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "argon2id")
	assert.Contains(t, string(raw), `"_id":"u1"`)

	assert.Equal(t, "$argon2id$secret", user.Document()["password"])
}

func TestDecodeUserWeakTypes(t *testing.T) {
	var user User
	require.NoError(t, Decode(Document{"email": "a@example.com", "active": "false", "role": "admin"}, &user))
	assert.False(t, user.Active)
	assert.True(t, user.IsAdmin())
}

func TestDecodeKeepsUnconvertibleValues(t *testing.T) {
	doc := Document{
		"_id":        "item-1",
		"title":      map[string]any{"en": "Lamp"},
		"status":     "approved",
		"created_at": "2024-01-01",
		"condition":  "used",
	}

	var item Item
	require.NoError(t, Decode(doc, &item))

	assert.Equal(t, "item-1", item.ID)
	assert.True(t, item.Visible())
	assert.Empty(t, item.Title)
	assert.True(t, item.CreatedAt.IsZero())
	assert.Equal(t, "2024-01-01", item.Extra["created_at"])
	assert.Equal(t, "used", item.Extra["condition"])

	raw, err := json.Marshal(item)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, map[string]any{"en": "Lamp"}, out["title"])
	assert.Equal(t, "2024-01-01", out["created_at"])
	assert.Equal(t, "approved", out["status"])
}

func TestDecodeUserWithOddTimestamp(t *testing.T) {
	var user User
	require.NoError(t, Decode(Document{"email": "a@example.com", "password": "h", "created_at": "2024-01-01"}, &user))
	assert.Equal(t, "a@example.com", user.Email)
	assert.Equal(t, "h", user.PasswordHash)
	assert.Equal(t, "2024-01-01", user.Public()["created_at"])
}
