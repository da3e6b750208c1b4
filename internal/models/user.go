package models

import (
	"encoding/json"
	"time"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	ID           string         `mapstructure:"_id"`
	Email        string         `mapstructure:"email"`
	PasswordHash string         `mapstructure:"password"`
	Name         string         `mapstructure:"name"`
	Role         UserRole       `mapstructure:"role"`
	Active       bool           `mapstructure:"active"`
	CreatedAt    time.Time      `mapstructure:"created_at"`
	Extra        map[string]any `mapstructure:",remain"`
}

// Document returns the stored form of the user, password hash included.
func (u User) Document() Document {
	doc := merge(u.Extra, Document{
		"email":      u.Email,
		"password":   u.PasswordHash,
		"name":       u.Name,
		"role":       string(u.Role),
		"active":     u.Active,
	})
	if u.ID != "" {
		doc[FieldID] = u.ID
	}
	if !u.CreatedAt.IsZero() {
		doc["created_at"] = u.CreatedAt.UTC()
	}
	return doc
}

// Public is the document without the password hash.
func (u User) Public() Document {
	doc := u.Document()
	delete(doc, "password")
	return doc
}

func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Public())
}

func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
