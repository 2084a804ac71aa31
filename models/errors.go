package models

import "errors"

var (
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrImageNotFound is returned when an image does not belong to the product.
	ErrImageNotFound = errors.New("image not found")
	// ErrProductHasOrders blocks deleting a product referenced by an order.
	ErrProductHasOrders = errors.New("product is referenced by existing orders")
	ErrSKUTaken         = errors.New("sku already in use")

	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidCart covers empty carts and unavailable products at checkout.
	ErrInvalidCart   = errors.New("invalid cart")
	ErrTotalMismatch = errors.New("order total does not match cart")

	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("user with this email already exists")

	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrBlogNotFound     = errors.New("blog post not found")

	ErrInvalidPrice = errors.New("invalid price")
)
