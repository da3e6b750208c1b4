package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"necessities/swap/internal/middleware"
	"necessities/swap/internal/models"
	"necessities/swap/internal/session"
)

func (h HandlerSet) AdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}

	id, err := h.adminService.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := session.SetAdmin(c, id); err != nil {
		h.respondError(c, err)
		return
	}
	message(c, http.StatusOK, "Login successful")
}

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// bindFields decodes an arbitrary JSON object. It answers the request itself
// and returns false when the body is not an object.
func bindFields(c *gin.Context) (models.Document, bool) {
	var fields models.Document
	if err := c.ShouldBindJSON(&fields); err != nil || fields == nil {
		badJSON(c)
		return nil, false
	}
	return fields, true
}

func (h HandlerSet) AdminUpdateUser(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	if err := h.adminService.Authorize(c.Request.Context(), identity); err != nil {
		h.respondError(c, err)
		return
	}

	fields, ok := bindFields(c)
	if !ok {
		return
	}
	if err := h.adminService.UpdateUser(c.Request.Context(), identity, c.Param("id"), fields); err != nil {
		h.respondError(c, err)
		return
	}
	message(c, http.StatusOK, "User updated")
}

func (h HandlerSet) AdminListItems(c *gin.Context) {
	items, err := h.adminService.ListItems(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

type moderateRequest struct {
	Action string `json:"action"`
}

func (h HandlerSet) AdminModerateItem(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	if err := h.adminService.Authorize(c.Request.Context(), identity); err != nil {
		h.respondError(c, err)
		return
	}

	var req moderateRequest
	// an empty body leaves Action empty, which the service rejects
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badJSON(c)
		return
	}

	msg, err := h.adminService.ModerateItem(c.Request.Context(), identity, c.Param("id"), req.Action)
	if err != nil {
		h.respondError(c, err)
		return
	}
	message(c, http.StatusOK, msg)
}

func (h HandlerSet) AdminAddItem(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	if err := h.adminService.Authorize(c.Request.Context(), identity); err != nil {
		h.respondError(c, err)
		return
	}

	fields, ok := bindFields(c)
	if !ok {
		return
	}
	if _, err := h.adminService.AddItem(c.Request.Context(), identity, fields); err != nil {
		h.respondError(c, err)
		return
	}
	message(c, http.StatusOK, "Item added")
}

func (h HandlerSet) AdminUserStats(c *gin.Context) {
	stats, err := h.adminService.UserStats(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h HandlerSet) AdminActivity(c *gin.Context) {
	overview, err := h.adminService.ActivityOverview(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
