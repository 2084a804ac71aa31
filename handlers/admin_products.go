// admin_products.go - Back-office product management

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"kkmt-store/models"
	"kkmt-store/table"
)

var errUploadsDisabled = errors.New("image uploads are not configured")

// productTable backs the admin product list.
var productTable = table.Table[models.Product]{
	Columns: []table.Column[models.Product]{
		{Key: "name", Header: "Name", Sortable: true, Value: func(p models.Product) any { return p.Name }},
		{Key: "sku", Header: "SKU", Sortable: true, Value: func(p models.Product) any { return p.SKU }},
		{Key: "brandName", Header: "Brand", Sortable: true, Value: func(p models.Product) any { return p.BrandName }},
		{Key: "status", Header: "Status", Sortable: true, Value: func(p models.Product) any { return productStatus(p) }},
		{Key: "price", Header: "Price", Sortable: true, Value: func(p models.Product) any { return p.Price }},
		{Key: "stock", Header: "Stock", Sortable: true, Value: func(p models.Product) any { return p.Stock }},
		{Key: "createdAt", Header: "Created", Sortable: true, Value: func(p models.Product) any { return p.CreatedAt }},
	},
	SearchKeys: []string{"name", "sku", "brandName", "status"},
}

var productSortPresets = map[string]table.Sort{
	"created-desc": {Key: "createdAt", Desc: true},
	"created-asc":  {Key: "createdAt"},
	"price-asc":    {Key: "price"},
	"price-desc":   {Key: "price", Desc: true},
}

func productStatus(p models.Product) string {
	if p.IsActive {
		return "active"
	}
	return "inactive"
}

// tableQuery reads q, sort, dir, page and perPage. sort is either a preset
// name or a column key combined with dir=asc|desc.
func tableQuery(c *gin.Context, presets map[string]table.Sort, fallback string) table.Query {
	q := table.Query{
		Search:  c.Query("q"),
		Page:    queryInt(c, "page", 1),
		PerPage: queryInt(c, "perPage", table.DefaultPageSize),
	}
	key := c.DefaultQuery("sort", fallback)
	if preset, ok := presets[key]; ok {
		q.Sort = &preset
	} else {
		q.Sort = &table.Sort{Key: key, Desc: strings.EqualFold(c.Query("dir"), "desc")}
	}
	return q
}

func mapRows[T, U any](res table.Result[T], f func(*T) U) table.Result[U] {
	rows := make([]U, len(res.Rows))
	for i := range res.Rows {
		rows[i] = f(&res.Rows[i])
	}
	return table.Result[U]{
		Rows:      rows,
		Total:     res.Total,
		From:      res.From,
		To:        res.To,
		Page:      res.Page,
		PerPage:   res.PerPage,
		PageCount: res.PageCount,
	}
}

// listProducts applies the admin filters shared by the API and the page.
func (h *Handler) listProducts(c *gin.Context) (table.Result[models.Product], error) {
	products, err := h.Products.All(c.Request.Context())
	if err != nil {
		return table.Result[models.Product]{}, err
	}
	brand := strings.TrimSpace(c.Query("brand"))
	status := c.DefaultQuery("status", "all")

	t := productTable
	t.Filter = func(p models.Product, _ string) bool {
		if brand != "" && !strings.EqualFold(p.BrandName, brand) {
			return false
		}
		switch status {
		case "active":
			return p.IsActive
		case "inactive":
			return !p.IsActive
		}
		return true
	}
	return t.Apply(products, tableQuery(c, productSortPresets, "created-desc")), nil
}

func (h *Handler) AdminListProducts(c *gin.Context) {
	res, err := h.listProducts(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapRows(res, toProductDTO))
}

func (h *Handler) AdminGetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, models.ErrProductNotFound)
		return
	}
	p, err := h.Products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": toProductDTO(p)})
}

// PriceInput accepts a JSON number or a string such as "1,234.50".
type PriceInput string

func (p *PriceInput) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = PriceInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("price must be a number or a string: %w", err)
	}
	*p = PriceInput(n.String())
	return nil
}

// ImageInput attaches an already hosted image.
type ImageInput struct {
	URL       string  `json:"url" binding:"required"`
	IsPrimary bool    `json:"isPrimary"`
	Alt       *string `json:"alt"`
}

func toNewImages(in []ImageInput) []models.NewImage {
	out := make([]models.NewImage, len(in))
	for i, img := range in {
		out[i] = models.NewImage{URL: strings.TrimSpace(img.URL), Alt: img.Alt, IsPrimary: img.IsPrimary}
	}
	return out
}

// ProductRequest creates a product.
type ProductRequest struct {
	Name          string       `json:"name" binding:"required"`
	BrandName     string       `json:"brandName"`
	Price         PriceInput   `json:"price" binding:"required"`
	Stock         int          `json:"stock" binding:"min=0"`
	SKU           string       `json:"sku"`
	Model         string       `json:"model"`
	Size          string       `json:"size"`
	IsFeatured    bool         `json:"isFeatured"`
	SubcategoryID *uint        `json:"subcategoryId"`
	Images        []ImageInput `json:"images" binding:"dive"`
}

func (r ProductRequest) input() (models.ProductInput, error) {
	price, err := models.ParsePrice(string(r.Price))
	if err != nil {
		return models.ProductInput{}, err
	}
	in := models.ProductInput{
		Name:          strings.TrimSpace(r.Name),
		BrandName:     strings.TrimSpace(r.BrandName),
		Price:         price,
		Stock:         r.Stock,
		Model:         strings.TrimSpace(r.Model),
		Size:          strings.TrimSpace(r.Size),
		IsFeatured:    r.IsFeatured,
		SubcategoryID: r.SubcategoryID,
	}
	if sku := strings.TrimSpace(r.SKU); sku != "" {
		in.SKU = &sku
	}
	return in, nil
}

// AdminCreateProduct accepts JSON or a multipart form with uploaded files.
func (h *Handler) AdminCreateProduct(c *gin.Context) {
	var (
		req      ProductRequest
		images   []models.NewImage
		uploaded []string
		err      error
	)
	if strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		req, images, uploaded, err = h.bindProductForm(c)
		if err != nil {
			if rerr := (requestError{}); errors.As(err, &rerr) {
				badRequest(c, rerr.msg, rerr.err)
				return
			}
			h.respondError(c, err)
			return
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid product", err)
			return
		}
		images = toNewImages(req.Images)
	}

	in, err := req.input()
	if err != nil {
		h.discardUploads(c, uploaded)
		h.respondError(c, err)
		return
	}
	p, err := h.Products.Create(c.Request.Context(), in, images)
	if err != nil {
		h.discardUploads(c, uploaded)
		h.respondError(c, err)
		return
	}
	h.Log.Info("product created", zap.Uint("product_id", p.ID), zap.Int("images", len(p.Images)))
	c.JSON(http.StatusCreated, gin.H{"product": toProductDTO(p)})
}

// requestError is a malformed form field.
type requestError struct {
	msg string
	err error
}

func (e requestError) Error() string { return e.msg }

// bindProductForm reads the multipart product form. Images listed in the
// "images" JSON field come first, then uploaded "files" in order. A valid
// primaryIndex overrides the isPrimary flags. The URLs of files written to
// the bucket are returned so a failed create can remove them.
func (h *Handler) bindProductForm(c *gin.Context) (ProductRequest, []models.NewImage, []string, error) {
	var req ProductRequest
	form, err := c.MultipartForm()
	if err != nil {
		return req, nil, nil, requestError{msg: "Invalid form data", err: err}
	}
	get := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	req.Name = get("name")
	req.BrandName = get("brandName")
	req.Price = PriceInput(get("price"))
	req.SKU = get("sku")
	req.Model = get("model")
	req.Size = get("size")
	req.IsFeatured = parseCheckbox(get("isFeatured"))
	if req.Name == "" || req.Price == "" {
		return req, nil, nil, requestError{msg: "Name and price are required"}
	}
	if raw := get("stock"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return req, nil, nil, requestError{msg: "Stock must be a whole number", err: err}
		}
		req.Stock = n
	}
	if raw := get("subcategoryId"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return req, nil, nil, requestError{msg: "Invalid subcategory", err: err}
		}
		id := uint(n)
		req.SubcategoryID = &id
	}
	if _, err := models.ParsePrice(string(req.Price)); err != nil {
		return req, nil, nil, err
	}

	var images []models.NewImage
	if raw := get("images"); raw != "" {
		var listed []ImageInput
		if err := json.Unmarshal([]byte(raw), &listed); err != nil {
			return req, nil, nil, requestError{msg: "Invalid images field", err: err}
		}
		for _, img := range listed {
			if strings.TrimSpace(img.URL) != "" {
				images = append(images, toNewImages([]ImageInput{img})...)
			}
		}
	}

	files := form.File["files"]
	if len(files) > 0 && h.Uploads == nil {
		return req, nil, nil, errUploadsDisabled
	}
	var uploaded []string
	for _, fh := range files {
		url, err := h.uploadFile(c, fh)
		if err != nil {
			h.discardUploads(c, uploaded)
			return req, nil, nil, err
		}
		uploaded = append(uploaded, url)
		images = append(images, models.NewImage{URL: url})
	}

	if raw := get("primaryIndex"); raw != "" {
		if idx, err := strconv.Atoi(raw); err == nil && idx >= 0 && idx < len(images) {
			for i := range images {
				images[i].IsPrimary = i == idx
			}
		}
	}
	return req, images, uploaded, nil
}

func (h *Handler) uploadFile(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()
	return h.Uploads.Upload(c.Request.Context(), fh.Filename, fh.Header.Get("Content-Type"), f)
}

// discardUploads removes objects written for a request that then failed.
// Errors are logged only.
func (h *Handler) discardUploads(c *gin.Context, urls []string) {
	for _, url := range urls {
		if err := h.Uploads.Delete(c.Request.Context(), url); err != nil {
			h.Log.Warn("failed to remove orphaned upload", zap.String("url", url), zap.Error(err))
		}
	}
}

func parseCheckbox(v string) bool {
	switch strings.ToLower(v) {
	case "true", "on", "1":
		return true
	}
	return false
}

// ProductPatch updates only the fields present.
type ProductPatch struct {
	Name           *string      `json:"name"`
	BrandName      *string      `json:"brandName"`
	Price          *PriceInput  `json:"price"`
	Stock          *int         `json:"stock" binding:"omitempty,min=0"`
	SKU            *string      `json:"sku"`
	Model          *string      `json:"model"`
	Size           *string      `json:"size"`
	IsFeatured     *bool        `json:"isFeatured"`
	IsActive       *bool        `json:"isActive"`
	SubcategoryID  *uint        `json:"subcategoryId"` // 0 clears it
	PrimaryImageID *uint        `json:"primaryImageId"`
	RemoveImageIDs []uint       `json:"removeImageIds"`
	AddImages      []ImageInput `json:"addImages" binding:"dive"`
}

func (p ProductPatch) update() (models.ProductUpdate, error) {
	upd := models.ProductUpdate{
		Name:            p.Name,
		BrandName:       p.BrandName,
		Stock:           p.Stock,
		SKU:             p.SKU,
		Model:           p.Model,
		Size:            p.Size,
		IsFeatured:      p.IsFeatured,
		IsActive:        p.IsActive,
		SubcategoryID:   p.SubcategoryID,
		PrimaryImageID:  p.PrimaryImageID,
		RemovedImageIDs: p.RemoveImageIDs,
		AddImages:       toNewImages(p.AddImages),
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return upd, requestError{msg: "Name cannot be empty"}
	}
	if p.Price != nil {
		price, err := models.ParsePrice(string(*p.Price))
		if err != nil {
			return upd, err
		}
		upd.Price = &price
	}
	return upd, nil
}

func (h *Handler) AdminUpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, models.ErrProductNotFound)
		return
	}
	var patch ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid product", err)
		return
	}
	upd, err := patch.update()
	if err != nil {
		if rerr := (requestError{}); errors.As(err, &rerr) {
			badRequest(c, rerr.msg, nil)
			return
		}
		h.respondError(c, err)
		return
	}
	p, err := h.Products.Update(c.Request.Context(), id, upd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": toProductDTO(p)})
}

func (h *Handler) AdminDeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, models.ErrProductNotFound)
		return
	}
	if err := h.Products.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	h.Log.Info("product deleted", zap.Uint("product_id", id))
	c.Status(http.StatusNoContent)
}

// FlagInput toggles a boolean product flag.
type FlagInput struct {
	Value *bool `json:"value" binding:"required"`
}

func (h *Handler) AdminSetActive(c *gin.Context) {
	h.setFlag(c, h.Products.SetActive)
}

func (h *Handler) AdminSetFeatured(c *gin.Context) {
	h.setFlag(c, h.Products.SetFeatured)
}

func (h *Handler) setFlag(c *gin.Context, set func(ctx context.Context, id uint, value bool) error) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, models.ErrProductNotFound)
		return
	}
	var input FlagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Missing value", err)
		return
	}
	if err := set(c.Request.Context(), id, *input.Value); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "value": *input.Value})
}

// PrimaryImageInput selects the primary image.
type PrimaryImageInput struct {
	ImageID uint `json:"imageId" binding:"required"`
}

func (h *Handler) AdminSetPrimaryImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, models.ErrProductNotFound)
		return
	}
	var input PrimaryImageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Missing imageId", err)
		return
	}
	if err := h.Products.SetPrimaryImage(c.Request.Context(), id, input.ImageID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "primaryImageId": input.ImageID})
}

// AdminUpload stores a single "file" and returns its public URL.
func (h *Handler) AdminUpload(c *gin.Context) {
	if h.Uploads == nil {
		h.respondError(c, errUploadsDisabled)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded", nil)
		return
	}
	url, err := h.uploadFile(c, fh)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
