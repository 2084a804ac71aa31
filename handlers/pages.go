// pages.go - Server-rendered storefront and back-office pages

package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kkmt-store/cart"
	"kkmt-store/middleware"
	"kkmt-store/models"
)

const (
	homeFeatured = 8
	homeBlogs    = 3
)

// render adds the layout data every page needs.
func (h *Handler) render(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["StoreName"] = h.Store.Name
	data["CartCount"] = h.loadCart(c).Count()
	if claims, ok := middleware.CurrentUser(c); ok {
		data["User"] = claims
	}
	c.HTML(status, name, data)
}

// renderError shows the not-found page for missing records and a generic
// error page otherwise.
func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrProductNotFound), errors.Is(err, models.ErrOrderNotFound):
		h.render(c, http.StatusNotFound, "not_found.html", "Not found", nil)
	default:
		_ = c.Error(err)
		h.Log.Error("page failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		h.render(c, http.StatusInternalServerError, "error.html", "Something went wrong", nil)
	}
}

func (h *Handler) notFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
		return
	}
	h.render(c, http.StatusNotFound, "not_found.html", "Not found", nil)
}

func (h *Handler) HomePage(c *gin.Context) {
	ctx := c.Request.Context()
	featured, err := h.Products.Featured(ctx, homeFeatured)
	if err != nil {
		h.renderError(c, err)
		return
	}
	blogs, err := h.Blogs.Latest(ctx, homeBlogs)
	if err != nil {
		h.renderError(c, err)
		return
	}
	posts := make([]BlogDTO, len(blogs))
	for i := range blogs {
		posts[i] = toBlogDTO(&blogs[i], false)
	}
	h.render(c, http.StatusOK, "home.html", h.Store.Name, gin.H{
		"Featured": toProductDTOs(featured),
		"Blogs":    posts,
	})
}

func (h *Handler) ProductPage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.renderError(c, models.ErrProductNotFound)
		return
	}
	p, err := h.Products.GetByID(c.Request.Context(), id)
	if err == nil && !p.IsActive {
		err = models.ErrProductNotFound
	}
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "product.html", p.Name, gin.H{"Product": toProductDTO(p)})
}

func (h *Handler) CartPage(c *gin.Context) {
	h.renderCart(c, http.StatusOK, h.loadCart(c), nil, "")
}

func (h *Handler) renderCart(c *gin.Context, status int, crt *cart.Cart, form *checkoutForm, message string) {
	view, err := h.priceCart(c, crt)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if form == nil {
		form = &checkoutForm{}
	}
	h.render(c, status, "cart.html", "Your cart", gin.H{
		"Cart":  view,
		"Form":  form,
		"Error": message,
	})
}

// CartFormAdd handles the "Add to cart" button.
func (h *Handler) CartFormAdd(c *gin.Context) {
	id, err := strconv.ParseUint(c.PostForm("productId"), 10, 64)
	if err != nil || id == 0 {
		h.renderError(c, models.ErrProductNotFound)
		return
	}
	qty, err := strconv.Atoi(c.DefaultPostForm("quantity", "1"))
	if err != nil || qty < 1 {
		qty = 1
	}
	if _, err := h.lookupActive(c, uint(id)); err != nil {
		h.renderError(c, err)
		return
	}
	crt := h.loadCart(c)
	crt.Add(uint(id), qty)
	h.saveCart(c, crt)
	c.Redirect(http.StatusSeeOther, "/cart")
}

// checkoutForm is the HTML checkout form.
type checkoutForm struct {
	FullName    string `form:"fullName"`
	Email       string `form:"email"`
	Phone       string `form:"phone"`
	Province    string `form:"province"`
	City        string `form:"city"`
	Barangay    string `form:"barangay"`
	Street      string `form:"street"`
	SendReceipt string `form:"sendReceipt"`
}

func (f *checkoutForm) customer() (CustomerInfo, bool) {
	info := CustomerInfo{
		FullName:    strings.TrimSpace(f.FullName),
		Email:       strings.TrimSpace(f.Email),
		Phone:       strings.TrimSpace(f.Phone),
		Province:    strings.TrimSpace(f.Province),
		City:        strings.TrimSpace(f.City),
		Barangay:    strings.TrimSpace(f.Barangay),
		Street:      strings.TrimSpace(f.Street),
		SendReceipt: parseCheckbox(f.SendReceipt),
	}
	for _, v := range []string{info.FullName, info.Phone, info.Province, info.City, info.Barangay, info.Street} {
		if v == "" {
			return info, false
		}
	}
	return info, true
}

// CheckoutForm places an order from the cart cookie and redirects to the
// confirmation page.
func (h *Handler) CheckoutForm(c *gin.Context) {
	var form checkoutForm
	crt := h.loadCart(c)
	if err := c.ShouldBind(&form); err != nil {
		h.renderCart(c, http.StatusBadRequest, crt, &form, checkoutInvalidMessage)
		return
	}
	info, ok := form.customer()
	if !ok {
		h.renderCart(c, http.StatusBadRequest, crt, &form, checkoutInvalidMessage)
		return
	}

	order, err := h.placeOrder(c, info, crt.Lines(), nil)
	switch {
	case errors.Is(err, models.ErrInvalidCart):
		h.renderCart(c, http.StatusBadRequest, crt, &form, checkoutInvalidMessage)
		return
	case err != nil:
		_ = c.Error(err)
		h.Log.Error("failed to create order", zap.Error(err))
		h.renderCart(c, http.StatusInternalServerError, crt, &form, checkoutFailedMessage)
		return
	}

	h.saveCart(c, cart.New())
	c.Redirect(http.StatusSeeOther, "/order-confirmation/"+url.PathEscape(order.Code))
}

func (h *Handler) OrderConfirmationPage(c *gin.Context) {
	order, err := h.Orders.GetByCode(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "order_confirmation.html", "Order "+order.Code, gin.H{"Order": toOrderDTO(order)})
}

// safeCallback keeps redirects on this site.
func safeCallback(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}

func (h *Handler) LoginPage(c *gin.Context) {
	if _, ok := middleware.CurrentUser(c); ok {
		c.Redirect(http.StatusSeeOther, safeCallback(c.Query("callbackUrl")))
		return
	}
	h.render(c, http.StatusOK, "login.html", "Sign in", gin.H{
		"CallbackURL": safeCallback(c.Query("callbackUrl")),
		"Email":       "",
		"Error":       "",
	})
}

func (h *Handler) LoginForm(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	callback := safeCallback(c.PostForm("callbackUrl"))

	_, _, err := h.signIn(c, email, c.PostForm("password"))
	if err != nil {
		status, message := http.StatusUnauthorized, "Invalid email or password."
		if !errors.Is(err, errInvalidCredentials) {
			_ = c.Error(err)
			h.Log.Error("sign in failed", zap.Error(err))
			status, message = http.StatusInternalServerError, "Sign in is unavailable right now."
		}
		h.render(c, status, "login.html", "Sign in", gin.H{
			"CallbackURL": callback,
			"Email":       email,
			"Error":       message,
		})
		return
	}
	c.Redirect(http.StatusSeeOther, callback)
}

func (h *Handler) LogoutPage(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) ForbiddenPage(c *gin.Context) {
	h.render(c, http.StatusForbidden, "forbidden.html", "Access denied", gin.H{
		"From": safeCallback(c.Query("from")),
	})
}

func (h *Handler) AdminDashboardPage(c *gin.Context) {
	d, err := h.dashboard(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "admin_dashboard.html", "Dashboard", gin.H{"Dashboard": d})
}

func (h *Handler) AdminProductsPage(c *gin.Context) {
	res, err := h.listProducts(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "admin_products.html", "Products", gin.H{
		"Result": mapRows(res, toProductDTO),
		"Query":  pageQuery(c, "q", "brand", "status", "sort", "perPage"),
		"Search": c.Query("q"),
		"Brand":  c.Query("brand"),
		"Status": c.DefaultQuery("status", "all"),
		"Sort":   c.DefaultQuery("sort", "created-desc"),
	})
}

func (h *Handler) AdminOrdersPage(c *gin.Context) {
	res, err := h.listOrders(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "admin_orders.html", "Orders", gin.H{
		"Result": mapRows(res, toOrderDTO),
		"Query":  pageQuery(c, "q", "sort", "perPage"),
		"Search": c.Query("q"),
		"Sort":   c.DefaultQuery("sort", "created-desc"),
	})
}

// pageQuery keeps the listed parameters for pagination links.
func pageQuery(c *gin.Context, keys ...string) string {
	v := url.Values{}
	for _, k := range keys {
		if s := c.Query(k); s != "" {
			v.Set(k, s)
		}
	}
	return v.Encode()
}
