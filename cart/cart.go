// Package cart holds the shopper's cart as an explicit value. The server keeps
// it in a cookie; only product ids and quantities are stored, prices are
// always read from the catalog.
package cart

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// maxLines bounds the cookie size.
const maxLines = 50

// MaxQuantity is the most units of one product a cart or order may hold.
const MaxQuantity = 999

// ErrQuantity reports a line outside 1..MaxQuantity after merging.
var ErrQuantity = errors.New("cart: quantity out of range")

// Line is one product in the cart.
type Line struct {
	ProductID uint `json:"id"`
	Quantity  int  `json:"qty"`
}

// Cart keeps lines in insertion order.
type Cart struct {
	lines []Line
}

// New builds a cart from lines, merging duplicates and dropping
// non-positive quantities. Merged quantities saturate at MaxQuantity.
func New(lines ...Line) *Cart {
	c := &Cart{}
	for _, l := range lines {
		c.Add(l.ProductID, l.Quantity)
	}
	return c
}

// Merge is the strict form of New used for orders: any line outside
// 1..MaxQuantity, before or after merging duplicates, fails with ErrQuantity.
func Merge(lines ...Line) (*Cart, error) {
	c := &Cart{}
	for _, l := range lines {
		if l.Quantity < 1 || l.Quantity > MaxQuantity {
			return nil, fmt.Errorf("%w: product %d quantity %d", ErrQuantity, l.ProductID, l.Quantity)
		}
		if i := c.index(l.ProductID); i >= 0 && c.lines[i].Quantity > MaxQuantity-l.Quantity {
			return nil, fmt.Errorf("%w: product %d exceeds %d units", ErrQuantity, l.ProductID, MaxQuantity)
		}
		c.Add(l.ProductID, l.Quantity)
	}
	return c, nil
}

func (c *Cart) index(productID uint) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add merges qty into an existing line or appends a new one. A line never
// holds more than MaxQuantity units.
func (c *Cart) Add(productID uint, qty int) {
	if productID == 0 || qty <= 0 {
		return
	}
	if i := c.index(productID); i >= 0 {
		// compare before adding so huge inputs cannot wrap
		if qty > MaxQuantity-c.lines[i].Quantity {
			c.lines[i].Quantity = MaxQuantity
		} else {
			c.lines[i].Quantity += qty
		}
		return
	}
	if len(c.lines) >= maxLines {
		return
	}
	c.lines = append(c.lines, Line{ProductID: productID, Quantity: min(qty, MaxQuantity)})
}

// Update sets the quantity; zero or less removes the line. It reports whether
// the product was in the cart.
func (c *Cart) Update(productID uint, qty int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	if qty <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return true
	}
	c.lines[i].Quantity = min(qty, MaxQuantity)
	return true
}

// Remove drops the line for productID.
func (c *Cart) Remove(productID uint) bool {
	return c.Update(productID, 0)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// ProductIDs lists the products in the cart.
func (c *Cart) ProductIDs() []uint {
	ids := make([]uint, len(c.lines))
	for i, l := range c.lines {
		ids[i] = l.ProductID
	}
	return ids
}

// Count is the total number of units.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Subtotal prices the cart. Lines without a known price are skipped.
func (c *Cart) Subtotal(prices map[uint]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		if p, ok := prices[l.ProductID]; ok {
			total = total.Add(p.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
	}
	return total
}

// Encode serializes the cart for a cookie value.
func Encode(c *Cart) (string, error) {
	if c == nil || c.Empty() {
		return "", nil
	}
	data, err := json.Marshal(c.lines)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode parses a cookie value. An empty value is an empty cart.
func Decode(value string) (*Cart, error) {
	if value == "" {
		return New(), nil
	}
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return New(lines...), nil
}
