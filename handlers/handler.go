// handler.go - Wires the storefront, admin API and pages onto a Gin router

package handlers // Declares the package name

import ( // Import required packages
	"context" // Upload and notifier signatures
	"io"      // Upload bodies

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Shipping amounts
	"go.uber.org/zap"               // Structured logging

	"kkmt-store/auth"       // Session tokens
	"kkmt-store/config"     // Store and cookie settings
	"kkmt-store/middleware" // Session and admin gate
	"kkmt-store/models"     // Repositories
	"kkmt-store/settings"   // Effective settings cache
	"kkmt-store/web"        // Embedded HTML templates
)

// Uploader stores an uploaded image and returns its public URL. Delete
// removes an object by that URL.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// OrderNotifier runs the post-checkout side effects. It must not fail the
// request.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, order *models.Order, sendReceipt bool)
}

// Deps are the collaborators shared by every handler.
type Deps struct {
	Products *models.ProductsRepository
	Orders   *models.OrdersRepository
	Users    *models.UsersRepository
	Catalog  *models.CatalogRepository
	Blogs    *models.BlogRepository
	Settings *models.SettingsRepository

	Effective *settings.Provider
	Issuer    *auth.Issuer
	Uploads   Uploader
	Notifier  OrderNotifier

	Store config.StoreConfig
	Auth  config.AuthConfig
	Log   *zap.Logger
}

// Handler serves every route.
type Handler struct {
	Deps
	shippingFee decimal.Decimal
	freeOver    decimal.Decimal
}

func New(d Deps) *Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Handler{
		Deps:        d,
		shippingFee: d.Store.ShippingFeeAmount(),
		freeOver:    d.Store.FreeShippingThreshold(),
	}
}

// Mount registers all routes on r.
func (h *Handler) Mount(r *gin.Engine) {
	r.SetHTMLTemplate(web.Templates())
	r.Use(middleware.Authenticate(h.Issuer, h.Auth.CookieName))
	r.NoRoute(h.notFound)

	// Public API (no authentication required)
	api := r.Group("/api")
	{
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/categories", h.ListCategories)
		api.GET("/blogs", h.ListBlogs)
		api.GET("/blogs/:id", h.GetBlog)

		api.GET("/cart", h.GetCart)
		api.POST("/cart/items", h.AddCartItem)
		api.PATCH("/cart/items/:id", h.UpdateCartItem)
		api.DELETE("/cart/items/:id", h.RemoveCartItem)

		api.POST("/checkout", h.Checkout)
		api.GET("/orders/:orderId", h.GetOrder)

		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/logout", h.Logout)
		api.GET("/me", middleware.RequireUser(), h.Me)
	}

	// Admin API (ADMIN role required)
	admin := api.Group("/admin", middleware.RequireAdmin())
	{
		admin.GET("/stats", h.AdminStats)

		admin.GET("/products", h.AdminListProducts)
		admin.POST("/products", h.AdminCreateProduct)
		admin.GET("/products/:id", h.AdminGetProduct)
		admin.PATCH("/products/:id", h.AdminUpdateProduct)
		admin.DELETE("/products/:id", h.AdminDeleteProduct)
		admin.POST("/products/:id/active", h.AdminSetActive)
		admin.POST("/products/:id/featured", h.AdminSetFeatured)
		admin.POST("/products/:id/primary-image", h.AdminSetPrimaryImage)
		admin.POST("/uploads", h.AdminUpload)

		admin.GET("/orders", h.AdminListOrders)
		admin.GET("/orders/:orderId", h.AdminGetOrder)

		admin.GET("/settings", h.AdminGetSettings)
		admin.PUT("/settings", h.AdminSaveSettings)
		admin.POST("/categories", h.AdminCreateCategory)
		admin.POST("/categories/:id/subcategories", h.AdminCreateSubcategory)
		admin.POST("/blogs", h.AdminCreateBlog)
		admin.DELETE("/blogs/:id", h.AdminDeleteBlog)
	}

	// Server-rendered pages
	r.GET("/", h.HomePage)
	r.GET("/products/:id", h.ProductPage)
	r.GET("/cart", h.CartPage)
	r.POST("/cart", h.CartFormAdd)
	r.POST("/checkout", h.CheckoutForm)
	r.GET("/order-confirmation/:orderId", h.OrderConfirmationPage)
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.LoginForm)
	r.GET("/logout", h.LogoutPage)
	r.GET("/forbidden", h.ForbiddenPage)

	pages := r.Group("/admin", middleware.RequireAdmin())
	{
		pages.GET("", h.AdminDashboardPage)
		pages.GET("/products", h.AdminProductsPage)
		pages.GET("/orders", h.AdminOrdersPage)
	}
}
