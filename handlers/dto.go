package handlers

import (
	"time"

	"kkmt-store/models"
)

// ImageDTO is a product image as sent to clients.
type ImageDTO struct {
	ID        uint    `json:"id"`
	URL       string  `json:"url"`
	Alt       *string `json:"alt"`
	SortOrder int     `json:"sortOrder"`
	IsPrimary bool    `json:"isPrimary"`
}

// SubcategoryDTO names a product's subcategory.
type SubcategoryDTO struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	CategoryID uint   `json:"categoryId"`
}

// ProductDTO is a product as sent to clients.
type ProductDTO struct {
	ID              uint            `json:"id"`
	Name            string          `json:"name"`
	BrandName       string          `json:"brandName"`
	Price           float64         `json:"price"`
	Stock           int             `json:"stock"`
	SKU             *string         `json:"sku"`
	Model           string          `json:"model"`
	Size            string          `json:"size"`
	IsFeatured      bool            `json:"isFeatured"`
	IsActive        bool            `json:"isActive"`
	PrimaryImageID  *uint           `json:"primaryImageId"`
	PrimaryImageURL string          `json:"primaryImageUrl"`
	Subcategory     *SubcategoryDTO `json:"subcategory,omitempty"`
	Images          []ImageDTO      `json:"images"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func toProductDTO(p *models.Product) ProductDTO {
	images := make([]ImageDTO, len(p.Images))
	for i, img := range p.Images {
		images[i] = ImageDTO{
			ID:        img.ID,
			URL:       img.URL,
			Alt:       img.Alt,
			SortOrder: img.SortOrder,
			IsPrimary: p.PrimaryImageID != nil && *p.PrimaryImageID == img.ID,
		}
	}
	dto := ProductDTO{
		ID:              p.ID,
		Name:            p.Name,
		BrandName:       p.BrandName,
		Price:           p.Price.InexactFloat64(),
		Stock:           p.Stock,
		SKU:             p.SKU,
		Model:           p.Model,
		Size:            p.Size,
		IsFeatured:      p.IsFeatured,
		IsActive:        p.IsActive,
		PrimaryImageID:  p.PrimaryImageID,
		PrimaryImageURL: p.PrimaryImageURL(),
		Images:          images,
		CreatedAt:       p.CreatedAt,
	}
	if p.Subcategory != nil {
		dto.Subcategory = &SubcategoryDTO{ID: p.Subcategory.ID, Name: p.Subcategory.Name, CategoryID: p.Subcategory.CategoryID}
	}
	return dto
}

func toProductDTOs(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, len(products))
	for i := range products {
		out[i] = toProductDTO(&products[i])
	}
	return out
}

// OrderItemDTO is one line of an order.
type OrderItemDTO struct {
	ProductID   uint    `json:"productId"`
	ProductName string  `json:"productName"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	LineTotal   float64 `json:"lineTotal"`
}

// OrderDTO is an order summary for confirmation pages and the back-office.
type OrderDTO struct {
	OrderID         string                 `json:"orderId"`
	CustomerName    string                 `json:"customerName"`
	CustomerEmail   string                 `json:"customerEmail"`
	CustomerPhone   string                 `json:"customerPhone"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	Subtotal        float64                `json:"subtotal"`
	ShippingFee     float64                `json:"shippingFee"`
	Total           float64                `json:"total"`
	ItemCount       int                    `json:"itemCount"`
	Items           []OrderItemDTO         `json:"items"`
	CreatedAt       time.Time              `json:"createdAt"`
}

func toOrderDTO(o *models.Order) OrderDTO {
	items := make([]OrderItemDTO, len(o.Items))
	for i := range o.Items {
		it := &o.Items[i]
		items[i] = OrderItemDTO{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.InexactFloat64(),
			LineTotal: it.LineTotal().InexactFloat64(),
		}
		if it.Product != nil {
			items[i].ProductName = it.Product.Name
			items[i].ImageURL = it.Product.PrimaryImageURL()
		}
	}
	return OrderDTO{
		OrderID:         o.Code,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		ShippingAddress: o.ShippingAddress.Data(),
		Subtotal:        o.Subtotal.InexactFloat64(),
		ShippingFee:     o.ShippingFee.InexactFloat64(),
		Total:           o.Total.InexactFloat64(),
		ItemCount:       o.ItemCount(),
		Items:           items,
		CreatedAt:       o.CreatedAt,
	}
}

// UserDTO never carries the password hash.
type UserDTO struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserDTO(u *models.User) UserDTO {
	return UserDTO{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Image: u.Image, CreatedAt: u.CreatedAt}
}
