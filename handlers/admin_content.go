package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kkmt-store/models"
)

// SettingsInput edits the store-wide settings.
type SettingsInput struct {
	StoreEmail string `json:"storeEmail" binding:"omitempty,email"`
}

// AdminGetSettings returns the saved row alongside the values actually in
// effect after defaults are applied.
func (h *Handler) AdminGetSettings(c *gin.Context) {
	ctx := c.Request.Context()
	saved, err := h.Settings.Get(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	eff, err := h.Effective.Effective(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"settings":  gin.H{"storeEmail": saved.StoreEmail},
		"effective": eff,
	})
}

func (h *Handler) AdminSaveSettings(c *gin.Context) {
	var input SettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid settings", err)
		return
	}
	saved, err := h.Settings.Save(c.Request.Context(), models.Settings{StoreEmail: models.NormalizeEmail(input.StoreEmail)})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.Effective.Invalidate()
	h.Log.Info("settings updated", zap.String("store_email", saved.StoreEmail))
	c.JSON(http.StatusOK, gin.H{"settings": gin.H{"storeEmail": saved.StoreEmail}})
}

// NameInput names a category or subcategory.
type NameInput struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) AdminCreateCategory(c *gin.Context) {
	var input NameInput
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Name) == "" {
		badRequest(c, "Name is required", err)
		return
	}
	cat, err := h.Catalog.CreateCategory(c.Request.Context(), input.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": cat})
}

func (h *Handler) AdminCreateSubcategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, models.ErrCategoryNotFound)
		return
	}
	var input NameInput
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Name) == "" {
		badRequest(c, "Name is required", err)
		return
	}
	sub, err := h.Catalog.CreateSubcategory(c.Request.Context(), id, input.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subcategory": sub})
}

// BlogInput creates a news post.
type BlogInput struct {
	Title    string `json:"title" binding:"required"`
	Excerpt  string `json:"excerpt"`
	Content  string `json:"content" binding:"required"`
	Category string `json:"category"`
	ImageURL string `json:"imageUrl"`
}

func (h *Handler) AdminCreateBlog(c *gin.Context) {
	var input BlogInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Title and content are required", err)
		return
	}
	blog := models.Blog{
		Title:    strings.TrimSpace(input.Title),
		Excerpt:  strings.TrimSpace(input.Excerpt),
		Content:  input.Content,
		Category: strings.TrimSpace(input.Category),
		ImageURL: strings.TrimSpace(input.ImageURL),
	}
	if err := h.Blogs.Create(c.Request.Context(), &blog); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"blog": toBlogDTO(&blog, true)})
}

func (h *Handler) AdminDeleteBlog(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, models.ErrBlogNotFound)
		return
	}
	if err := h.Blogs.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
