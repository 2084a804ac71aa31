package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a part in the catalog.
// PrimaryImageID is a plain column rather than an association so that the
// products/product_images pair has no foreign key cycle; it always points at
// one of the product's own images or is nil.
type Product struct {
	ID             uint            `gorm:"primaryKey"`
	Name           string          `gorm:"not null"`
	BrandName      string          `gorm:"index"`
	Price          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock          int             `gorm:"not null"`
	SKU            *string         `gorm:"uniqueIndex"`
	Model          string
	Size           string
	IsFeatured     bool         `gorm:"not null;index"`
	IsActive       bool         `gorm:"not null;index"`
	SubcategoryID  *uint        `gorm:"index"`
	Subcategory    *Subcategory `gorm:"foreignKey:SubcategoryID;constraint:OnDelete:SET NULL"`
	PrimaryImageID *uint
	Images         []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (p *Product) TableName() string {
	return "products"
}

// PrimaryImage returns the designated primary image when it is loaded.
func (p *Product) PrimaryImage() *ProductImage {
	if p.PrimaryImageID == nil {
		return nil
	}
	for i := range p.Images {
		if p.Images[i].ID == *p.PrimaryImageID {
			return &p.Images[i]
		}
	}
	return nil
}

// PrimaryImageURL falls back to the first loaded image.
func (p *Product) PrimaryImageURL() string {
	if img := p.PrimaryImage(); img != nil {
		return img.URL
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// ProductImage belongs to exactly one product.
type ProductImage struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID uint   `gorm:"not null;index"`
	URL       string `gorm:"not null"`
	SortOrder int    `gorm:"not null"`
	Alt       *string
	CreatedAt time.Time
}

func (i *ProductImage) TableName() string {
	return "product_images"
}
