// auth_test.go - Tests for session handling and the admin gate

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"kkmt-store/auth"
	"kkmt-store/models"
)

const testCookie = "kkmt_session"

// setupGateRouter - Creates a router with one admin page and one admin API
func setupGateRouter(issuer *auth.Issuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(issuer, testCookie))

	admin := r.Group("/admin", RequireAdmin())
	admin.GET("/orders", func(c *gin.Context) { c.String(http.StatusOK, "orders page") })

	api := r.Group("/api/admin", RequireAdmin())
	api.GET("/stats", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	r.GET("/api/me", RequireUser(), func(c *gin.Context) {
		claims, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"email": claims.Email})
	})
	return r
}

func issue(t *testing.T, issuer *auth.Issuer, role string) string {
	t.Helper()
	token, err := issuer.Issue(&models.User{ID: 1, Email: "someone@kkmt.ph", Role: role})
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestAdminPageRedirects(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	r := setupGateRouter(issuer)

	// Anonymous: login with callback including the query string
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin/orders?page=2", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?callbackUrl=%2Fadmin%2Forders%3Fpage%3D2", w.Header().Get("Location"))

	// Signed in as a customer: forbidden page
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: issue(t, issuer, models.RoleUser)})
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/forbidden?from=%2Fadmin%2Forders", w.Header().Get("Location"))

	// Admin: through
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: issue(t, issuer, models.RoleAdmin)})
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "orders page", w.Body.String())
}

func TestAdminAPIStatusCodes(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	r := setupGateRouter(issuer)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"anonymous", "", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"bad token", "Bearer nope", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"customer", "Bearer " + issue(t, issuer, models.RoleUser), http.StatusForbidden, `{"error":"Forbidden"}`},
		{"admin", "Bearer " + issue(t, issuer, models.RoleAdmin), http.StatusOK, `{"ok":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/api/admin/stats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestRequireUser(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	r := setupGateRouter(issuer)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/me", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: issue(t, issuer, models.RoleUser)})
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"someone@kkmt.ph"}`, w.Body.String())
}

func TestRecoveryLogsPanic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	r := gin.New()
	r.Use(Logger(log), Recovery(log))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	assert.Equal(t, 1, logs.FilterMessage("request").Len())
}
