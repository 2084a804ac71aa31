package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxCodeAttempts bounds retries when a generated order code collides.
const maxCodeAttempts = 5

type OrdersRepository struct {
	db     *gorm.DB
	prefix string
	intn   func(n int) int
}

// OrderStats feeds the admin dashboard.
type OrderStats struct {
	Count   int64
	Revenue decimal.Decimal
	Recent  []Order
}

func NewOrdersRepository(db *gorm.DB, prefix string) *OrdersRepository {
	if prefix == "" {
		prefix = DefaultOrderPrefix
	}
	return &OrdersRepository{
		db:     db,
		prefix: prefix,
	}
}

// WithRand replaces the random source used for order codes.
func (r *OrdersRepository) WithRand(intn func(n int) int) *OrdersRepository {
	r.intn = intn
	return r
}

// Create writes the order and its items in one transaction, assigning a fresh
// order code. A colliding code is regenerated.
func (r *OrdersRepository) Create(ctx context.Context, order *Order) error {
	if len(order.Items) == 0 {
		return ErrInvalidCart
	}
	for attempt := 1; ; attempt++ {
		order.ID = 0
		for i := range order.Items {
			order.Items[i].ID = 0
			order.Items[i].OrderID = 0
		}
		order.Code = GenerateOrderCode(r.prefix, r.intn)

		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
				return err
			}
			for i := range order.Items {
				order.Items[i].OrderID = order.ID
			}
			return tx.Omit(clause.Associations).Create(&order.Items).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt >= maxCodeAttempts {
			return fmt.Errorf("create order: %w", err)
		}
	}
}

// GetByCode loads an order by its public code with items and products.
func (r *OrdersRepository) GetByCode(ctx context.Context, code string) (*Order, error) {
	var order Order
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Items.Product").
		Where("order_id = ?", code).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// All returns every order, newest first, with item quantities loaded.
func (r *OrdersRepository) All(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Since returns orders created at or after t, newest first.
func (r *OrdersRepository) Since(ctx context.Context, t time.Time) ([]Order, error) {
	var orders []Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("created_at >= ?", t).
		Order("created_at DESC, id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Stats counts orders, sums revenue and returns the recent ones.
func (r *OrdersRepository) Stats(ctx context.Context, recent int) (OrderStats, error) {
	stats := OrderStats{Revenue: decimal.Zero}
	if err := r.db.WithContext(ctx).Model(&Order{}).Count(&stats.Count).Error; err != nil {
		return stats, err
	}

	// Summed in Go so decimal precision does not depend on the driver
	var totals []decimal.Decimal
	if err := r.db.WithContext(ctx).Model(&Order{}).Pluck("total", &totals).Error; err != nil {
		return stats, err
	}
	for _, t := range totals {
		stats.Revenue = stats.Revenue.Add(t)
	}

	if recent > 0 {
		if err := r.db.WithContext(ctx).
			Preload("Items").
			Order("created_at DESC, id DESC").
			Limit(recent).
			Find(&stats.Recent).Error; err != nil {
			return stats, err
		}
	}
	return stats, nil
}
