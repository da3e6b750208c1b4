package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"necessities/swap/internal/middleware"
	"necessities/swap/internal/service"
	"necessities/swap/internal/session"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}

	id, err := h.userService.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := session.SetUser(c, id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user_id": id,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}

	profile, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := session.SetUser(c, profile.UserID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    profile,
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	if err := session.ClearUser(c); err != nil {
		h.respondError(c, err)
		return
	}
	message(c, http.StatusOK, "Logout successful")
}

func (h HandlerSet) GetProfile(c *gin.Context) {
	profile, err := h.userService.GetProfile(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		if service.IsKind(err, service.KindNotFound) {
			if clearErr := session.ClearUser(c); clearErr != nil {
				h.log.Warn().Err(clearErr).Msg("clear stale session user failed")
			}
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	identity := middleware.IdentityFrom(c)

	// an unauthenticated caller gets 401 whatever the body
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil && identity.HasUser() {
		badJSON(c)
		return
	}

	err := h.userService.UpdateProfile(c.Request.Context(), identity, service.UpdateProfileInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	message(c, http.StatusOK, "Profile updated successfully")
}
