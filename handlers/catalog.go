package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kkmt-store/models"
)

const (
	defaultListLimit = 24
	maxListLimit     = 100
	latestBlogs      = 10
)

// ListProducts serves the storefront catalog. Only active products are
// listed.
func (h *Handler) ListProducts(c *gin.Context) {
	limit := min(max(queryInt(c, "limit", defaultListLimit), 1), maxListLimit)
	offset := max(queryInt(c, "offset", 0), 0)

	filters := models.ProductFilters{
		Search:        strings.TrimSpace(c.Query("q")),
		CategoryID:    queryUint(c, "category"),
		SubcategoryID: queryUint(c, "subcategory"),
		FeaturedOnly:  c.Query("featured") == "true" || c.Query("featured") == "1",
	}

	products, total, err := h.Products.List(c.Request.Context(), offset, limit, filters)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "products": toProductDTOs(products)})
}

// GetProduct returns one active product.
func (h *Handler) GetProduct(c *gin.Context) {
	p, ok := h.activeProduct(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": toProductDTO(p)})
}

// activeProduct loads the :id product and hides inactive ones as missing.
func (h *Handler) activeProduct(c *gin.Context) (*models.Product, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, models.ErrProductNotFound)
		return nil, false
	}
	p, err := h.Products.GetByID(c.Request.Context(), id)
	if err == nil && !p.IsActive {
		err = models.ErrProductNotFound
	}
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return p, true
}

// ListCategories returns the taxonomy tree.
func (h *Handler) ListCategories(c *gin.Context) {
	tree, err := h.Catalog.Tree(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": tree})
}

// BlogDTO is a news post.
type BlogDTO struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt"`
	Content   string `json:"content,omitempty"`
	Category  string `json:"category"`
	ImageURL  string `json:"imageUrl"`
	CreatedAt string `json:"createdAt"`
}

func toBlogDTO(b *models.Blog, full bool) BlogDTO {
	dto := BlogDTO{
		ID:        b.ID,
		Title:     b.Title,
		Excerpt:   b.Excerpt,
		Category:  b.Category,
		ImageURL:  b.ImageURL,
		CreatedAt: b.CreatedAt.Format("2006-01-02"),
	}
	if full {
		dto.Content = b.Content
	}
	return dto
}

func (h *Handler) ListBlogs(c *gin.Context) {
	blogs, err := h.Blogs.Latest(c.Request.Context(), latestBlogs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]BlogDTO, len(blogs))
	for i := range blogs {
		out[i] = toBlogDTO(&blogs[i], false)
	}
	c.JSON(http.StatusOK, gin.H{"blogs": out})
}

func (h *Handler) GetBlog(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, models.ErrBlogNotFound)
		return
	}
	blog, err := h.Blogs.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blog": toBlogDTO(blog, true)})
}
