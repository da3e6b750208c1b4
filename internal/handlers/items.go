package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"necessities/swap/internal/middleware"
	"necessities/swap/internal/service"
)

func (h HandlerSet) ListItems(c *gin.Context) {
	items, err := h.itemService.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h HandlerSet) GetItem(c *gin.Context) {
	item, err := h.itemService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type createItemRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	ImageURL    *string `json:"image_url"`
}

func (h HandlerSet) CreateItem(c *gin.Context) {
	identity := middleware.IdentityFrom(c)

	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil && identity.HasUser() {
		badJSON(c)
		return
	}

	id, err := h.itemService.Create(c.Request.Context(), identity, service.CreateItemInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Item created successfully",
		"item_id": id,
	})
}

func (h HandlerSet) ClaimItem(c *gin.Context) {
	if err := h.itemService.Claim(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	message(c, http.StatusOK, "Item claimed successfully")
}

func (h HandlerSet) MyItems(c *gin.Context) {
	items, err := h.itemService.ListMine(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// multipart framing on top of the file itself
const uploadOverhead = 1 << 20

func (h HandlerSet) UploadItemImage(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	input := service.UploadImageInput{ItemID: c.Param("id")}

	if identity.HasUser() {
		if max := h.cfg.Storage.MaxUploadBytes; max > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max+uploadOverhead)
		}
		header, err := c.FormFile("file")
		if err == nil {
			file, err := header.Open()
			if err != nil {
				h.respondError(c, err)
				return
			}
			defer file.Close()
			input.File = file
			input.Size = header.Size
			input.Header = header.Header
		}
	}

	url, err := h.itemService.UploadImage(c.Request.Context(), identity, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Image uploaded successfully",
		"image_url": url,
	})
}
