package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"necessities/swap/internal/middleware"
	"necessities/swap/internal/service"
)

var statusByKind = map[service.Kind]int{
	service.KindValidation:      http.StatusBadRequest,
	service.KindConflict:        http.StatusBadRequest,
	service.KindUnauthenticated: http.StatusUnauthorized,
	service.KindForbidden:       http.StatusForbidden,
	service.KindNotFound:        http.StatusNotFound,
	service.KindTooLarge:        http.StatusRequestEntityTooLarge,
	service.KindUnavailable:     http.StatusServiceUnavailable,
}

func (h HandlerSet) respondError(c *gin.Context, err error) {
	if status, ok := statusByKind[service.KindOf(err)]; ok {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.log.Error().
		Err(err).
		Str("request_id", middleware.RequestIDFrom(c)).
		Str("path", c.FullPath()).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"message": "Internal server error",
	})
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

func badJSON(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
}
