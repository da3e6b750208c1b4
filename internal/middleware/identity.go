package middleware

import (
	"github.com/gin-gonic/gin"

	"necessities/swap/internal/session"
)

const identityKey = "identity"

// Identity reads the caller identity from the session once per request. It
// must run after the sessions middleware.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(identityKey, session.Load(c))
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) session.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(session.Identity); ok {
			return identity
		}
	}
	return session.Identity{}
}
