package models

import (
	"encoding/json"
	"time"
)

type ItemStatus string

const (
	ItemStatusPending  ItemStatus = "pending"
	ItemStatusApproved ItemStatus = "approved"
	ItemStatusRejected ItemStatus = "rejected"
	ItemStatusClaimed  ItemStatus = "claimed"
)

type Item struct {
	ID          string         `mapstructure:"_id"`
	Title       string         `mapstructure:"title"`
	Description string         `mapstructure:"description"`
	Category    string         `mapstructure:"category"`
	UserID      string         `mapstructure:"user_id"`
	Status      ItemStatus     `mapstructure:"status"`
	ImageURL    *string        `mapstructure:"image_url"`
	CreatedAt   time.Time      `mapstructure:"created_at"`
	ClaimedBy   *string        `mapstructure:"claimed_by"`
	ClaimedAt   *time.Time     `mapstructure:"claimed_at"`
	Extra       map[string]any `mapstructure:",remain"`
}

func (i Item) Document() Document {
	doc := merge(i.Extra, Document{
		"title":       i.Title,
		"description": i.Description,
		"category":    i.Category,
		"user_id":     i.UserID,
		"status":      string(i.Status),
	})
	if i.ID != "" {
		doc[FieldID] = i.ID
	}
	if !i.CreatedAt.IsZero() {
		doc["created_at"] = i.CreatedAt.UTC()
	}
	if i.ImageURL != nil {
		doc["image_url"] = *i.ImageURL
	}
	if i.ClaimedBy != nil {
		doc["claimed_by"] = *i.ClaimedBy
	}
	if i.ClaimedAt != nil {
		doc["claimed_at"] = i.ClaimedAt.UTC()
	}
	return doc
}

func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Document())
}

// Visible reports whether the item belongs in the public listing.
func (i Item) Visible() bool {
	return i.Status == ItemStatusApproved
}
