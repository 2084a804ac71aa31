package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"kkmt-store/models"
	"kkmt-store/table"
)

const (
	recentOrders = 5
	weekWindow   = 7 * 24 * time.Hour
)

var orderTable = table.Table[models.Order]{
	Columns: []table.Column[models.Order]{
		{Key: "orderId", Header: "Order", Sortable: true, Value: func(o models.Order) any { return o.Code }},
		{Key: "customerName", Header: "Customer", Sortable: true, Value: func(o models.Order) any { return o.CustomerName }},
		{Key: "customerEmail", Header: "Email", Sortable: true, Value: func(o models.Order) any { return o.CustomerEmail }},
		{Key: "items", Header: "Items", Sortable: true, Value: func(o models.Order) any { return o.ItemCount() }},
		{Key: "total", Header: "Total", Sortable: true, Value: func(o models.Order) any { return o.Total }},
		{Key: "createdAt", Header: "Placed", Sortable: true, Value: func(o models.Order) any { return o.CreatedAt }},
	},
	SearchKeys: []string{"orderId", "customerName", "customerEmail"},
}

var orderSortPresets = map[string]table.Sort{
	"created-desc": {Key: "createdAt", Desc: true},
	"created-asc":  {Key: "createdAt"},
	"total-desc":   {Key: "total", Desc: true},
	"total-asc":    {Key: "total"},
}

func (h *Handler) listOrders(c *gin.Context) (table.Result[models.Order], error) {
	orders, err := h.Orders.All(c.Request.Context())
	if err != nil {
		return table.Result[models.Order]{}, err
	}
	return orderTable.Apply(orders, tableQuery(c, orderSortPresets, "created-desc")), nil
}

func (h *Handler) AdminListOrders(c *gin.Context) {
	res, err := h.listOrders(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapRows(res, toOrderDTO))
}

func (h *Handler) AdminGetOrder(c *gin.Context) {
	order, err := h.Orders.GetByCode(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrderDTO(order)})
}

// Dashboard is the back-office summary.
type Dashboard struct {
	Products       models.ProductCounts `json:"products"`
	Orders         int64                `json:"orders"`
	Revenue        float64              `json:"revenue"`
	OrdersThisWeek int                  `json:"ordersThisWeek"`
	RevenueWeek    float64              `json:"revenueThisWeek"`
	Recent         []OrderDTO           `json:"recentOrders"`
}

// dashboard runs the independent summary queries together.
func (h *Handler) dashboard(ctx context.Context) (Dashboard, error) {
	var (
		counts models.ProductCounts
		stats  models.OrderStats
		week   []models.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = h.Products.Counts(gctx, h.Store.LowStockThreshold)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = h.Orders.Stats(gctx, recentOrders)
		return err
	})
	g.Go(func() error {
		var err error
		week, err = h.Orders.Since(gctx, time.Now().Add(-weekWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	weekRevenue := decimal.Zero
	for _, o := range week {
		weekRevenue = weekRevenue.Add(o.Total)
	}
	d := Dashboard{
		Products:       counts,
		Orders:         stats.Count,
		Revenue:        stats.Revenue.InexactFloat64(),
		OrdersThisWeek: len(week),
		RevenueWeek:    weekRevenue.InexactFloat64(),
		Recent:         make([]OrderDTO, len(stats.Recent)),
	}
	for i := range stats.Recent {
		d.Recent[i] = toOrderDTO(&stats.Recent[i])
	}
	return d, nil
}

func (h *Handler) AdminStats(c *gin.Context) {
	d, err := h.dashboard(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
