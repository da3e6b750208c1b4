// Package session reads and writes the caller identity kept in the gin
// session. The user and admin keys are independent; a caller may hold both.
package session

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	keyUserID = "user_id"
	keyAdmin  = "admin"
)

// Identity is the typed view of a session handed to services.
type Identity struct {
	UserID  string
	AdminID string
}

func (i Identity) HasUser() bool  { return i.UserID != "" }
func (i Identity) HasAdmin() bool { return i.AdminID != "" }

func Load(c *gin.Context) Identity {
	s := sessions.Default(c)
	return Identity{
		UserID:  stringValue(s.Get(keyUserID)),
		AdminID: stringValue(s.Get(keyAdmin)),
	}
}

func SetUser(c *gin.Context, userID string) error {
	s := sessions.Default(c)
	s.Set(keyUserID, userID)
	return s.Save()
}

func ClearUser(c *gin.Context) error {
	s := sessions.Default(c)
	s.Delete(keyUserID)
	return s.Save()
}

func SetAdmin(c *gin.Context, adminID string) error {
	s := sessions.Default(c)
	s.Set(keyAdmin, adminID)
	return s.Save()
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
