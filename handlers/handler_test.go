// handler_test.go - Shared setup for the HTTP handler tests
// Every test gets a fresh in-memory database and a fully mounted router.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gocloud.dev/blob"
	"gocloud.dev/blob/memblob"
	"gorm.io/gorm"

	"kkmt-store/auth"
	"kkmt-store/config"
	"kkmt-store/database/databasetest"
	"kkmt-store/models"
	"kkmt-store/settings"
	"kkmt-store/storage"
)

// placedOrder records one notifier call.
type placedOrder struct {
	code        string
	sendReceipt bool
}

type fakeNotifier struct {
	mu     sync.Mutex
	placed []placedOrder
}

func (f *fakeNotifier) OrderPlaced(_ context.Context, order *models.Order, sendReceipt bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, placedOrder{code: order.Code, sendReceipt: sendReceipt})
}

func (f *fakeNotifier) calls() []placedOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]placedOrder(nil), f.placed...)
}

type testServer struct {
	router   *gin.Engine
	h        *Handler
	db       *gorm.DB
	cfg      *config.Config
	notifier *fakeNotifier
	logs     *observer.ObservedLogs
	bucket   *blob.Bucket
}

// setupServer - Creates a router with every route mounted on a fresh database
func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := databasetest.Open(t)
	cfg := config.DefaultConfig()
	core, logs := observer.New(zap.DebugLevel)

	bucket := memblob.OpenBucket(nil)
	uploads := storage.New(bucket, "/uploads", 1<<20)
	t.Cleanup(func() { _ = uploads.Close() })

	settingsRepo := models.NewSettingsRepository(db)
	notifier := &fakeNotifier{}

	h := New(Deps{
		Products: models.NewProductsRepository(db),
		Orders:   models.NewOrdersRepository(db, cfg.Store.OrderPrefix),
		Users:    models.NewUsersRepository(db),
		Catalog:  models.NewCatalogRepository(db),
		Blogs:    models.NewBlogRepository(db),
		Settings: settingsRepo,
		Effective: settings.NewProvider(settingsRepo, settings.Defaults{
			StoreName: cfg.Store.Name,
			SMTPUser:  "orders@kkmt.ph",
		}, time.Minute),
		Issuer:   auth.NewIssuer("test-secret", time.Hour),
		Uploads:  uploads,
		Notifier: notifier,
		Store:    cfg.Store,
		Auth:     cfg.Auth,
		Log:      zap.New(core),
	})

	r := gin.New()
	h.Mount(r)

	return &testServer{router: r, h: h, db: db, cfg: cfg, notifier: notifier, logs: logs, bucket: bucket}
}

// do - Serves one request and returns the recorder
func (s *testServer) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// sessionCookie - Creates a user with the role and returns a signed session cookie
func (s *testServer) sessionCookie(t *testing.T, email, role string) *http.Cookie {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	user := models.User{Name: "Test " + role, Email: email, Password: hash, Role: role}
	require.NoError(t, s.h.Users.Create(context.Background(), &user))
	token, err := s.h.Issuer.Issue(&user)
	require.NoError(t, err)
	return &http.Cookie{Name: s.cfg.Auth.CookieName, Value: token}
}

// createProduct - Adds a catalog product with one image
func (s *testServer) createProduct(t *testing.T, name, sku, price string) *models.Product {
	t.Helper()
	p, err := s.h.Products.Create(context.Background(), models.ProductInput{
		Name:      name,
		BrandName: "Honda",
		Price:     decimal.RequireFromString(price),
		Stock:     20,
		SKU:       &sku,
	}, []models.NewImage{{URL: "https://cdn.kkmt.ph/" + sku + ".jpg"}})
	require.NoError(t, err)
	return p
}

// responseCookie - Finds a cookie set by the response
func responseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func uintStr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
