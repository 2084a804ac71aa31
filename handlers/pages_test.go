// pages_test.go - Tests for the server-rendered storefront and back-office pages

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kkmt-store/models"
)

// postForm - Submits a urlencoded form
func (s *testServer) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// TestAdminPagesRequireLogin tests the redirects of the back-office gate
func TestAdminPagesRequireLogin(t *testing.T) {
	s := setupServer(t)

	w := s.do(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?callbackUrl=%2Fadmin", w.Header().Get("Location"))

	user := s.sessionCookie(t, "user@test.com", models.RoleUser)
	w = s.do(http.MethodGet, "/admin/products", nil, user)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/forbidden?from=%2Fadmin%2Fproducts", w.Header().Get("Location"))

	w = s.do(http.MethodGet, "/forbidden?from=%2Fadmin%2Fproducts", nil, user)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// TestAdminPagesRender tests that each back-office page renders for an admin
func TestAdminPagesRender(t *testing.T) {
	s := setupServer(t)
	admin := s.sessionCookie(t, "admin@test.com", models.RoleAdmin)
	s.createProduct(t, "Racing Piston Kit", "HP-PST-001", "2500")

	for _, path := range []string{"/admin", "/admin/products?status=active&sort=price-asc", "/admin/orders"} {
		w := s.do(http.MethodGet, path, nil, admin)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html", path)
	}

	w := s.do(http.MethodGet, "/admin/products", nil, admin)
	assert.Contains(t, w.Body.String(), "Racing Piston Kit")
}

func TestHomePageShowsFeatured(t *testing.T) {
	s := setupServer(t)
	p := s.createProduct(t, "Racing Piston Kit", "HP-PST-001", "2500")
	s.createProduct(t, "Bar End Mirror", "CSM-MIR-004", "1200")
	require.NoError(t, s.h.Products.SetFeatured(context.Background(), p.ID, true))

	w := s.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Racing Piston Kit")
	assert.Contains(t, body, "₱2,500.00")
	assert.NotContains(t, body, "Bar End Mirror")
}

func TestNotFoundPages(t *testing.T) {
	s := setupServer(t)

	w := s.do(http.MethodGet, "/products/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found")

	w = s.do(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = s.do(http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Not found"}`, w.Body.String())
}

func TestSafeCallback(t *testing.T) {
	tests := map[string]string{
		"":                  "/",
		"/admin":            "/admin",
		"/admin?tab=orders": "/admin?tab=orders",
		"//evil.com":        "/",
		"/\\evil.com":       "/",
		"https://evil.com":  "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeCallback(in), in)
	}
}

// TestLoginForm tests the HTML sign in flow
func TestLoginForm(t *testing.T) {
	s := setupServer(t)
	s.sessionCookie(t, "admin@test.com", models.RoleAdmin)

	w := s.do(http.MethodGet, "/login?callbackUrl=%2Fadmin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="/admin"`)

	w = s.postForm("/login", url.Values{"email": {"admin@test.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password.")

	// Off-site callbacks fall back to the home page
	w = s.postForm("/login", url.Values{
		"email":       {"admin@test.com"},
		"password":    {"password123"},
		"callbackUrl": {"//evil.com"},
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	session := responseCookie(w, s.cfg.Auth.CookieName)
	require.NotNil(t, session)

	w = s.postForm("/login", url.Values{
		"email":       {"admin@test.com"},
		"password":    {"password123"},
		"callbackUrl": {"/admin"},
	})
	assert.Equal(t, "/admin", w.Header().Get("Location"))

	w = s.do(http.MethodGet, "/admin", nil, session)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/logout", nil, session)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Negative(t, responseCookie(w, s.cfg.Auth.CookieName).MaxAge)
}

// TestFormCheckoutFlow tests add to cart, checkout and the confirmation page
func TestFormCheckoutFlow(t *testing.T) {
	s := setupServer(t)
	p := s.createProduct(t, "Racing Piston Kit", "HP-PST-001", "2500")

	w := s.postForm("/cart", url.Values{"productId": {uintStr(p.ID)}, "quantity": {"2"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/cart", w.Header().Get("Location"))
	jar := responseCookie(w, cartCookie)
	require.NotNil(t, jar)

	w = s.do(http.MethodGet, "/cart", nil, jar)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Racing Piston Kit")

	form := url.Values{
		"fullName": {"Juan Dela Cruz"},
		"phone":    {"09171234567"},
		"province": {"Laguna"},
		"city":     {"Calamba"},
		"barangay": {"Real"},
	}

	// Missing street re-renders the cart with the entered values
	w = s.postForm("/checkout", form, jar)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), checkoutInvalidMessage)
	assert.Contains(t, w.Body.String(), "Juan Dela Cruz")
	assert.Zero(t, countOrders(t, s))

	form.Set("street", "123 Rizal St")
	w = s.postForm("/checkout", form, jar)
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	location := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/order-confirmation/"), location)
	assert.Empty(t, responseCookie(w, cartCookie).Value)

	// No email means no receipt
	calls := s.notifier.calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].sendReceipt)

	code := strings.TrimPrefix(location, "/order-confirmation/")
	w = s.do(http.MethodGet, location, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), code)
	assert.Contains(t, w.Body.String(), "₱5,000.00")

	w = s.do(http.MethodGet, "/order-confirmation/KKMTZZZ999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutFormWithEmptyCart(t *testing.T) {
	s := setupServer(t)

	w := s.postForm("/checkout", url.Values{
		"fullName": {"Juan Dela Cruz"},
		"phone":    {"09171234567"},
		"province": {"Laguna"},
		"city":     {"Calamba"},
		"barangay": {"Real"},
		"street":   {"123 Rizal St"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, countOrders(t, s))
}
