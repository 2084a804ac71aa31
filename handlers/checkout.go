// checkout.go - Turns a cart into an order and hands it to the notifier

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"kkmt-store/cart"
	"kkmt-store/middleware"
	"kkmt-store/models"
)

const (
	checkoutInvalidMessage = "Invalid checkout request. Missing required data."
	checkoutFailedMessage  = "An unexpected error occurred while creating the order."
)

// CustomerInfo is the contact and shipping block of a checkout.
type CustomerInfo struct {
	FullName    string `json:"fullName" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone" binding:"required"`
	Province    string `json:"province" binding:"required"`
	City        string `json:"city" binding:"required"`
	Barangay    string `json:"barangay" binding:"required"`
	Street      string `json:"street" binding:"required"`
	SendReceipt bool   `json:"sendReceipt"`
}

// CheckoutItem is one line sent by the client. Name and price are accepted
// for compatibility but the catalog price is always used.
type CheckoutItem struct {
	ID       uint     `json:"id" binding:"required"`
	Quantity int      `json:"quantity" binding:"required,min=1,max=999"`
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
}

// CheckoutRequest is the JSON checkout body.
type CheckoutRequest struct {
	CustomerInfo *CustomerInfo  `json:"customerInfo" binding:"required"`
	CartItems    []CheckoutItem `json:"cartItems" binding:"dive"`
	Total        *float64       `json:"total" binding:"required,min=0"`
}

// Checkout creates an order from the JSON body, or from the cart cookie when
// the body carries no items.
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, checkoutInvalidMessage, err)
		return
	}

	fromCookie := len(req.CartItems) == 0
	var lines []cart.Line
	if fromCookie {
		lines = h.loadCart(c).Lines()
	} else {
		for _, it := range req.CartItems {
			lines = append(lines, cart.Line{ProductID: it.ID, Quantity: it.Quantity})
		}
	}

	clientTotal := decimal.NewFromFloat(*req.Total)

	order, err := h.placeOrder(c, *req.CustomerInfo, lines, &clientTotal)
	if err != nil {
		h.checkoutError(c, err)
		return
	}
	if fromCookie {
		h.saveCart(c, cart.New())
	}
	c.JSON(http.StatusCreated, gin.H{"orderId": order.Code})
}

func (h *Handler) checkoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidCart):
		c.JSON(http.StatusBadRequest, gin.H{"message": checkoutInvalidMessage})
	case errors.Is(err, models.ErrTotalMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Order total does not match the cart. Please review your cart and try again."})
	default:
		h.Log.Error("failed to create order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": checkoutFailedMessage})
	}
}

// placeOrder prices lines from the catalog, writes the order and runs the
// notifications. Every line must name an active product.
func (h *Handler) placeOrder(c *gin.Context, info CustomerInfo, lines []cart.Line, clientTotal *decimal.Decimal) (*models.Order, error) {
	ctx := c.Request.Context()

	merged, err := cart.Merge(lines...)
	if err != nil {
		h.Log.Info("checkout rejected quantity", zap.Error(err))
		return nil, models.ErrInvalidCart
	}
	if merged.Empty() {
		return nil, models.ErrInvalidCart
	}

	products, err := h.Products.GetActiveByIDs(ctx, merged.ProductIDs())
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerName:  strings.TrimSpace(info.FullName),
		CustomerEmail: models.NormalizeEmail(info.Email),
		CustomerPhone: strings.TrimSpace(info.Phone),
		ShippingAddress: datatypes.NewJSONType(models.ShippingAddress{
			Province: strings.TrimSpace(info.Province),
			City:     strings.TrimSpace(info.City),
			Barangay: strings.TrimSpace(info.Barangay),
			Street:   strings.TrimSpace(info.Street),
		}),
	}

	priced := make([]models.Line, 0, len(merged.Lines()))
	for _, l := range merged.Lines() {
		p, ok := products[l.ProductID]
		if !ok {
			h.Log.Info("checkout rejected unavailable product", zap.Uint("product_id", l.ProductID))
			return nil, models.ErrInvalidCart
		}
		priced = append(priced, models.Line{Price: p.Price, Quantity: l.Quantity})
		order.Items = append(order.Items, models.OrderItem{
			ProductID: p.ID,
			Product:   p,
			Quantity:  l.Quantity,
			Price:     p.Price,
		})
	}

	order.Subtotal = models.Subtotal(priced)
	order.ShippingFee = models.ShippingFee(order.Subtotal, h.shippingFee, h.freeOver)
	order.Total = order.Subtotal.Add(order.ShippingFee)

	if clientTotal != nil && !clientTotal.Round(2).Equal(order.Total.Round(2)) {
		return nil, models.ErrTotalMismatch
	}

	if claims, ok := middleware.CurrentUser(c); ok {
		uid := claims.UserID
		order.UserID = &uid
	}

	if err := h.Orders.Create(ctx, order); err != nil {
		return nil, err
	}

	h.Log.Info("order created",
		zap.String("order_id", order.Code),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)

	if h.Notifier != nil {
		h.Notifier.OrderPlaced(ctx, order, info.SendReceipt && order.CustomerEmail != "")
	}
	return order, nil
}

// GetOrder returns the confirmation summary for an order code.
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.Orders.GetByCode(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrderDTO(order)})
}
