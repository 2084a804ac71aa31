package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kkmt-store/cart"
	"kkmt-store/models"
)

const (
	cartCookie    = "kkmt_cart"
	cartCookieAge = 30 * 24 * 60 * 60
)

// CartLineView is a priced cart line.
type CartLineView struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	ImageURL  string  `json:"imageUrl"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"lineTotal"`
}

// CartView is the cart priced against the current catalog.
type CartView struct {
	Items       []CartLineView `json:"items"`
	Count       int            `json:"count"`
	Subtotal    float64        `json:"subtotal"`
	ShippingFee float64        `json:"shippingFee"`
	Total       float64        `json:"total"`
}

// loadCart reads the cart cookie. A corrupt cookie is treated as empty.
func (h *Handler) loadCart(c *gin.Context) *cart.Cart {
	raw, _ := c.Cookie(cartCookie)
	crt, err := cart.Decode(raw)
	if err != nil {
		h.Log.Debug("discarding unreadable cart cookie", zap.Error(err))
		return cart.New()
	}
	return crt
}

func (h *Handler) saveCart(c *gin.Context, crt *cart.Cart) {
	value, err := cart.Encode(crt)
	if err != nil {
		h.Log.Warn("failed to encode cart", zap.Error(err))
		return
	}
	maxAge := cartCookieAge
	if value == "" {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cartCookie, value, maxAge, "/", "", h.Auth.SecureCookie, true)
}

// priceCart joins the cart with active products. Lines for products that are
// gone or inactive are dropped from the view.
func (h *Handler) priceCart(c *gin.Context, crt *cart.Cart) (CartView, error) {
	view := CartView{Items: []CartLineView{}}
	if crt.Empty() {
		view.setTotals(decimal.Zero, decimal.Zero)
		return view, nil
	}
	products, err := h.Products.GetActiveByIDs(c.Request.Context(), crt.ProductIDs())
	if err != nil {
		return view, err
	}
	prices := make(map[uint]decimal.Decimal, len(products))
	for _, l := range crt.Lines() {
		p, ok := products[l.ProductID]
		if !ok {
			continue
		}
		prices[p.ID] = p.Price
		view.Items = append(view.Items, CartLineView{
			ID:        p.ID,
			Name:      p.Name,
			ImageURL:  p.PrimaryImageURL(),
			Price:     p.Price.InexactFloat64(),
			Quantity:  l.Quantity,
			LineTotal: p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))).InexactFloat64(),
		})
		view.Count += l.Quantity
	}
	subtotal := crt.Subtotal(prices)
	view.setTotals(subtotal, models.ShippingFee(subtotal, h.shippingFee, h.freeOver))
	return view, nil
}

func (v *CartView) setTotals(subtotal, shipping decimal.Decimal) {
	if subtotal.IsZero() {
		shipping = decimal.Zero
	}
	v.Subtotal = subtotal.InexactFloat64()
	v.ShippingFee = shipping.InexactFloat64()
	v.Total = subtotal.Add(shipping).InexactFloat64()
}

func (h *Handler) respondCart(c *gin.Context, crt *cart.Cart) {
	view, err := h.priceCart(c, crt)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetCart returns the priced cart.
func (h *Handler) GetCart(c *gin.Context) {
	h.respondCart(c, h.loadCart(c))
}

// CartItemInput adds units of a product to the cart.
type CartItemInput struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1,max=999"`
}

// AddCartItem merges a product into the cart. Unknown or inactive products
// are rejected.
func (h *Handler) AddCartItem(c *gin.Context) {
	var input CartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid cart item", err)
		return
	}
	if _, err := h.lookupActive(c, input.ProductID); err != nil {
		h.respondError(c, err)
		return
	}
	crt := h.loadCart(c)
	crt.Add(input.ProductID, input.Quantity)
	h.saveCart(c, crt)
	h.respondCart(c, crt)
}

// CartQuantityInput sets the quantity of a cart line; zero removes it.
type CartQuantityInput struct {
	Quantity *int `json:"quantity" binding:"required,min=0,max=999"`
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, models.ErrProductNotFound)
		return
	}
	var input CartQuantityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid quantity", err)
		return
	}
	crt := h.loadCart(c)
	if !crt.Update(id, *input.Quantity) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Item is not in the cart"})
		return
	}
	h.saveCart(c, crt)
	h.respondCart(c, crt)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, models.ErrProductNotFound)
		return
	}
	crt := h.loadCart(c)
	crt.Remove(id)
	h.saveCart(c, crt)
	h.respondCart(c, crt)
}

func (h *Handler) lookupActive(c *gin.Context, id uint) (*models.Product, error) {
	products, err := h.Products.GetActiveByIDs(c.Request.Context(), []uint{id})
	if err != nil {
		return nil, err
	}
	p, ok := products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return p, nil
}
