package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ShippingAddress is copied onto the order at checkout.
type ShippingAddress struct {
	Province string `json:"province"`
	City     string `json:"city"`
	Barangay string `json:"barangay"`
	Street   string `json:"street"`
}

// Order is written once at checkout and never modified afterwards.
// Code is the human-facing order number, e.g. KKMTQWE123.
type Order struct {
	ID              uint            `gorm:"primaryKey"`
	Code            string          `gorm:"column:order_id;size:16;uniqueIndex;not null"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ShippingFee     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CustomerName    string          `gorm:"not null"`
	CustomerEmail   string          `gorm:"not null"`
	CustomerPhone   string
	ShippingAddress datatypes.JSONType[ShippingAddress]
	UserID          *uint       `gorm:"index"`
	User            *User       `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time   `gorm:"index"`
}

func (o *Order) TableName() string {
	return "orders"
}

// ItemCount sums the quantities of all lines.
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// OrderItem keeps the unit price the customer paid, independent of later
// catalog changes.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"not null;index"`
	ProductID uint            `gorm:"not null;index"`
	Product   *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Quantity  int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

func (i *OrderItem) TableName() string {
	return "order_items"
}

// LineTotal is price times quantity.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
