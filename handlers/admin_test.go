// admin_test.go - Tests for the admin API
// Covers the role gate, product management, uploads and store settings.

package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	"gorm.io/datatypes"

	"kkmt-store/models"
	"kkmt-store/table"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// TestNonAdminAccess tests that the admin API is closed to anonymous and regular users
func TestNonAdminAccess(t *testing.T) {
	s := setupServer(t)
	user := s.sessionCookie(t, "user@test.com", models.RoleUser)

	w := s.do(http.MethodGet, "/api/admin/products", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/admin/products", nil, user)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, w.Body.String())

	w = s.do(http.MethodDelete, "/api/admin/products/1", nil, user)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminListProducts(t *testing.T) {
	s := setupServer(t)
	admin := s.sessionCookie(t, "admin@test.com", models.RoleAdmin)
	ctx := context.Background()

	s.createProduct(t, "Racing Piston Kit", "HP-PST-001", "2500")
	clip := s.createProduct(t, "Clip-on Fairing", "RB-CLP-002", "3800")
	s.createProduct(t, "Titanium Exhaust", "TF-EXH-003", "7950")
	mirror := s.createProduct(t, "Bar End Mirror", "CSM-MIR-004", "1200")
	require.NoError(t, s.h.Products.SetActive(ctx, clip.ID, false))

	names := func(res table.Result[ProductDTO]) []string {
		out := make([]string, len(res.Rows))
		for i, p := range res.Rows {
			out[i] = p.Name
		}
		return out
	}
	list := func(query string) table.Result[ProductDTO] {
		t.Helper()
		w := s.do(http.MethodGet, "/api/admin/products"+query, nil, admin)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var res table.Result[ProductDTO]
		decode(t, w, &res)
		return res
	}

	res := list("?sort=price-asc")
	want := []string{"Bar End Mirror", "Racing Piston Kit", "Clip-on Fairing", "Titanium Exhaust"}
	if diff := cmp.Diff(want, names(res)); diff != "" {
		t.Errorf("price-asc order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, res.Total)

	res = list("?status=inactive")
	assert.Equal(t, []string{"Clip-on Fairing"}, names(res))

	res = list("?q=csm-mir")
	require.Len(t, res.Rows, 1)
	assert.Equal(t, mirror.ID, res.Rows[0].ID)

	res = list("?sort=name&dir=desc&perPage=10&page=9")
	assert.Equal(t, 1, res.Page) // clamped to the only page
	assert.Equal(t, "Titanium Exhaust", res.Rows[0].Name)
}

func TestAdminCreateProductJSON(t *testing.T) {
	s := setupServer(t)
	admin := s.sessionCookie(t, "admin@test.com", models.RoleAdmin)

	w := s.do(http.MethodPost, "/api/admin/products", obj{
		"name":      "Racing Piston Kit",
		"brandName": "Honda",
		"price":     "2,500.50",
		"stock":     12,
		"sku":       "HP-PST-001",
		"images": []obj{
			{"url": "https://cdn.kkmt.ph/a.jpg"},
			{"url": "https://cdn.kkmt.ph/b.jpg", "isPrimary": true},
		},
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Product ProductDTO `json:"product"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 2500.5, resp.Product.Price)
	assert.True(t, resp.Product.IsActive)
	require.Len(t, resp.Product.Images, 2)
	assert.Equal(t, "https://cdn.kkmt.ph/b.jpg", resp.Product.PrimaryImageURL)
	assert.Equal(t, 1, s.logs.FilterMessage("product created").Len())

	// Same SKU again is a conflict
	w = s.do(http.MethodPost, "/api/admin/products", obj{"name": "Copy", "price": 10, "sku": "HP-PST-001"}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Garbage price is semantically invalid
	w = s.do(http.MethodPost, "/api/admin/products", obj{"name": "Bad", "price": "abc"}, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPost, "/api/admin/products", obj{"price": 10}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// multipartProduct - Builds a product form with one uploaded file
func multipartProduct(t *testing.T, fields map[string]string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("files", "front view.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAdminCreateProductMultipart(t *testing.T) {
	s := setupServer(t)
	admin := s.sessionCookie(t, "admin@test.com", models.RoleAdmin)

	body, contentType := multipartProduct(t, map[string]string{
		"name":         "Titanium Exhaust",
		"brandName":    "Two Brothers",
		"price":        "7950",
		"stock":        "3",
		"isFeatured":   "on",
		"images":       `[{"url":"https://cdn.kkmt.ph/side.jpg","isPrimary":true}]`,
		"primaryIndex": "1",
	}, pngHeader)

	req, _ := http.NewRequest(http.MethodPost, "/api/admin/products", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(admin)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Product ProductDTO `json:"product"`
	}
	decode(t, w, &resp)
	assert.True(t, resp.Product.IsFeatured)
	require.Len(t, resp.Product.Images, 2)
	assert.Equal(t, "https://cdn.kkmt.ph/side.jpg", resp.Product.Images[0].URL)

	// primaryIndex points at the uploaded file, overriding the JSON flag
	uploaded := resp.Product.Images[1]
	assert.True(t, uploaded.IsPrimary)
	assert.True(t, strings.HasPrefix(uploaded.URL, "/uploads/products/"), uploaded.URL)
	assert.True(t, strings.HasSuffix(uploaded.URL, "-front_view.png"), uploaded.URL)
}

// TestAdminCreateProductMultipartRemovesUploadsOnFailure tests that files
// written for a rejected create do not stay in the bucket
func TestAdminCreateProductMultipartRemovesUploadsOnFailure(t *testing.T) {
	s := setupServer(t)
	admin := s.sessionCookie(t, "admin@test.com", models.RoleAdmin)
	s.createProduct(t, "Racing Piston Kit", "HP-PST-001", "2500")

	post := func(fields map[string]string) *httptest.ResponseRecorder {
		body, contentType := multipartProduct(t, fields, pngHeader)
		req, _ := http.NewRequest(http.MethodPost, "/api/admin/products", body)
		req.Header.Set("Content-Type", contentType)
		req.AddCookie(admin)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	w := post(map[string]string{"name": "Piston Copy", "price": "2500", "sku": "HP-PST-001"})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	w = post(map[string]string{"name": "Orphan", "price": "2500", "subcategoryId": "9999"})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	iter := s.bucket.List(&blob.ListOptions{Prefix: "products/"})
	_, err := iter.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestAdminUploadRejectsNonImage(t *testing.T) {
	s := setupServer(t)
	admin := s.sessionCookie(t, "admin@test.com", models.RoleAdmin)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("just some text"))
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest(http.MethodPost, "/api/admin/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(admin)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code, w.Body.String())
}

func TestAdminUpdateAndFlags(t *testing.T) {
	s := setupServer(t)
	admin := s.sessionCookie(t, "admin@test.com", models.RoleAdmin)
	p := s.createProduct(t, "Racing Piston Kit", "HP-PST-001", "2500")
	path := "/api/admin/products/" + uintStr(p.ID)

	w := s.do(http.MethodPatch, path, obj{
		"price":     "2750",
		"addImages": []obj{{"url": "https://cdn.kkmt.ph/new.jpg"}},
	}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Product ProductDTO `json:"product"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 2750.0, resp.Product.Price)
	require.Len(t, resp.Product.Images, 2)

	newImage := resp.Product.Images[1].ID
	w = s.do(http.MethodPost, path+"/primary-image", obj{"imageId": newImage}, admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, path+"/primary-image", obj{"imageId": 9999}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, path+"/featured", obj{"value": true}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodPost, path+"/active", obj{"value": false}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodPost, path+"/active", obj{}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	got, err := s.h.Products.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFeatured)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.PrimaryImageID)
	assert.Equal(t, newImage, *got.PrimaryImageID)

	// Inactive products disappear from the storefront
	w = s.do(http.MethodGet, "/api/products/"+uintStr(p.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodGet, path, nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPatch, "/api/admin/products/9999", obj{"stock": 1}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestAdminProductSubcategory tests assigning, rejecting and clearing a subcategory
func TestAdminProductSubcategory(t *testing.T) {
	s := setupServer(t)
	admin := s.sessionCookie(t, "admin@test.com", models.RoleAdmin)
	p := s.createProduct(t, "Racing Piston Kit", "HP-PST-001", "2500")
	path := "/api/admin/products/" + uintStr(p.ID)
	pistons, err := s.h.Catalog.EnsureSubcategory(context.Background(), "Engine", "Pistons")
	require.NoError(t, err)

	w := s.do(http.MethodPatch, path, obj{"subcategoryId": 9999}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	w = s.do(http.MethodPost, "/api/admin/products", obj{"name": "Ghost", "price": "10", "subcategoryId": 9999}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = s.do(http.MethodPatch, path, obj{"subcategoryId": pistons.ID}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got, err := s.h.Products.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SubcategoryID)
	assert.Equal(t, pistons.ID, *got.SubcategoryID)

	w = s.do(http.MethodPatch, path, obj{"subcategoryId": 0}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got, err = s.h.Products.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SubcategoryID)
}

func TestAdminDeleteProduct(t *testing.T) {
	s := setupServer(t)
	admin := s.sessionCookie(t, "admin@test.com", models.RoleAdmin)
	ordered := s.createProduct(t, "Racing Piston Kit", "HP-PST-001", "2500")
	unused := s.createProduct(t, "Bar End Mirror", "CSM-MIR-004", "1200")

	order := &models.Order{
		CustomerName:    "Juan",
		CustomerEmail:   "juan@example.com",
		ShippingAddress: datatypes.NewJSONType(models.ShippingAddress{City: "Calamba"}),
		Subtotal:        ordered.Price,
		ShippingFee:     decimal.Zero,
		Total:           ordered.Price,
		Items:           []models.OrderItem{{ProductID: ordered.ID, Quantity: 1, Price: ordered.Price}},
	}
	require.NoError(t, s.h.Orders.Create(context.Background(), order))

	w := s.do(http.MethodDelete, "/api/admin/products/"+uintStr(ordered.ID), nil, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodDelete, "/api/admin/products/"+uintStr(unused.ID), nil, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodDelete, "/api/admin/products/"+uintStr(unused.ID), nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminOrdersAndStats(t *testing.T) {
	s := setupServer(t)
	admin := s.sessionCookie(t, "admin@test.com", models.RoleAdmin)
	p := s.createProduct(t, "Racing Piston Kit", "HP-PST-001", "2500")

	for _, qty := range []int{1, 2} {
		w := s.do(http.MethodPost, "/api/checkout", obj{
			"customerInfo": customer(),
			"cartItems":    []obj{{"id": p.ID, "quantity": qty}},
			"total":        2500 * qty,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := s.do(http.MethodGet, "/api/admin/orders?sort=total-desc", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	var orders table.Result[OrderDTO]
	decode(t, w, &orders)
	require.Len(t, orders.Rows, 2)
	assert.Equal(t, 5000.0, orders.Rows[0].Total)
	assert.Equal(t, 2650.0, orders.Rows[1].Total)

	w = s.do(http.MethodGet, "/api/admin/orders/"+orders.Rows[1].OrderID, nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/admin/stats", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	var d Dashboard
	decode(t, w, &d)
	assert.EqualValues(t, 2, d.Orders)
	assert.Equal(t, 7650.0, d.Revenue)
	assert.Equal(t, 2, d.OrdersThisWeek)
	assert.EqualValues(t, 1, d.Products.Total)
	assert.Len(t, d.Recent, 2)
}

func TestAdminSettings(t *testing.T) {
	s := setupServer(t)
	admin := s.sessionCookie(t, "admin@test.com", models.RoleAdmin)

	type settingsResponse struct {
		Settings  struct{ StoreEmail string } `json:"settings"`
		Effective struct {
			StoreEmail string `json:"storeEmail"`
			FromEmail  string `json:"fromEmail"`
		} `json:"effective"`
	}

	// Falls back to the SMTP user until a store email is saved
	w := s.do(http.MethodGet, "/api/admin/settings", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	var before settingsResponse
	decode(t, w, &before)
	assert.Equal(t, "orders@kkmt.ph", before.Effective.StoreEmail)
	assert.Equal(t, "Kuya Kardz Motorcycle Trading <orders@kkmt.ph>", before.Effective.FromEmail)

	w = s.do(http.MethodPut, "/api/admin/settings", obj{"storeEmail": "Owner@KKMT.ph"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The cached value is invalidated on save
	w = s.do(http.MethodGet, "/api/admin/settings", nil, admin)
	var after settingsResponse
	decode(t, w, &after)
	assert.Equal(t, "owner@kkmt.ph", after.Settings.StoreEmail)
	assert.Equal(t, "owner@kkmt.ph", after.Effective.StoreEmail)

	w = s.do(http.MethodPut, "/api/admin/settings", obj{"storeEmail": "not-an-email"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminCatalogAndBlogs(t *testing.T) {
	s := setupServer(t)
	admin := s.sessionCookie(t, "admin@test.com", models.RoleAdmin)

	w := s.do(http.MethodPost, "/api/admin/categories", obj{"name": "Engine"}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Category models.Category `json:"category"`
	}
	decode(t, w, &created)

	w = s.do(http.MethodPost, "/api/admin/categories", obj{"name": "Engine"}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/admin/categories/"+uintStr(created.Category.ID)+"/subcategories", obj{"name": "Pistons"}, admin)
	assert.Equal(t, http.StatusCreated, w.Code)
	w = s.do(http.MethodPost, "/api/admin/categories/9999/subcategories", obj{"name": "Pistons"}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Pistons")

	w = s.do(http.MethodPost, "/api/admin/blogs", obj{"title": "Riding season", "content": "Check your tires."}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	var blog struct {
		Blog BlogDTO `json:"blog"`
	}
	decode(t, w, &blog)

	w = s.do(http.MethodGet, "/api/blogs/"+uintStr(blog.Blog.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Check your tires.")

	w = s.do(http.MethodDelete, "/api/admin/blogs/"+uintStr(blog.Blog.ID), nil, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, "/api/blogs/"+uintStr(blog.Blog.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
