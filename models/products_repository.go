package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

// ProductFilters narrows the storefront listing. Inactive products are never
// listed.
type ProductFilters struct {
	Search        string
	CategoryID    *uint
	SubcategoryID *uint
	FeaturedOnly  bool
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name          string
	BrandName     string
	Price         decimal.Decimal
	Stock         int
	SKU           *string
	Model         string
	Size          string
	IsFeatured    bool
	SubcategoryID *uint
}

// ProductUpdate is a partial update; nil fields are left untouched.
type ProductUpdate struct {
	Name          *string
	BrandName     *string
	Price         *decimal.Decimal
	Stock         *int
	SKU           *string
	Model         *string
	Size          *string
	IsFeatured    *bool
	IsActive      *bool
	// SubcategoryID of zero detaches the product from its subcategory.
	SubcategoryID *uint

	PrimaryImageID  *uint
	RemovedImageIDs []uint
	AddImages       []NewImage
}

// ProductCounts feeds the admin dashboard.
type ProductCounts struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	LowStock int64 `json:"lowStock"`
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

func imagesByOrder(db *gorm.DB) *gorm.DB {
	return db.Order("product_images.sort_order ASC, product_images.id ASC")
}

func (r *ProductsRepository) List(ctx context.Context, offset, limit int, filters ProductFilters) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&Product{}).Where("products.is_active = ?", true)
		if filters.CategoryID != nil {
			q = q.Joins("JOIN subcategories ON subcategories.id = products.subcategory_id").
				Where("subcategories.category_id = ?", *filters.CategoryID)
		}
		if filters.SubcategoryID != nil {
			q = q.Where("products.subcategory_id = ?", *filters.SubcategoryID)
		}
		if filters.FeaturedOnly {
			q = q.Where("products.is_featured = ?", true)
		}
		if s := strings.TrimSpace(filters.Search); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			q = q.Where("(LOWER(products.name) LIKE ? OR LOWER(products.brand_name) LIKE ? OR LOWER(COALESCE(products.sku, '')) LIKE ?)", like, like, like)
		}
		return q
	}

	// Count total after filtering
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination
	if err := query().
		Preload("Images", imagesByOrder).
		Order("products.created_at DESC, products.id DESC").
		Offset(offset).Limit(limit).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// Featured returns the newest featured, active products.
func (r *ProductsRepository) Featured(ctx context.Context, n int) ([]Product, error) {
	products, _, err := r.List(ctx, 0, n, ProductFilters{FeaturedOnly: true})
	return products, err
}

// All returns every product, active or not, for the back-office table.
func (r *ProductsRepository) All(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).
		Preload("Images", imagesByOrder).
		Preload("Subcategory").
		Order("created_at DESC, id DESC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductsRepository) GetByID(ctx context.Context, id uint) (*Product, error) {
	return getProduct(r.db.WithContext(ctx), id)
}

// GetActiveByIDs loads the active products among ids, keyed by ID.
func (r *ProductsRepository) GetActiveByIDs(ctx context.Context, ids []uint) (map[uint]*Product, error) {
	out := make(map[uint]*Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []Product
	if err := r.db.WithContext(ctx).
		Preload("Images", imagesByOrder).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&products).Error; err != nil {
		return nil, err
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func getProduct(db *gorm.DB, id uint) (*Product, error) {
	var product Product
	if err := db.
		Preload("Images", imagesByOrder).
		Preload("Subcategory").
		First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err // Other DB error
	}
	return &product, nil
}

// Create inserts the product, its images and the primary image pointer in a
// single transaction.
func (r *ProductsRepository) Create(ctx context.Context, in ProductInput, images []NewImage) (*Product, error) {
	if in.SKU != nil && *in.SKU == "" {
		in.SKU = nil
	}
	if in.SubcategoryID != nil && *in.SubcategoryID == 0 {
		in.SubcategoryID = nil
	}
	var id uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.SubcategoryID != nil {
			if err := subcategoryExists(tx, *in.SubcategoryID); err != nil {
				return err
			}
		}
		product := Product{
			Name:          in.Name,
			BrandName:     in.BrandName,
			Price:         in.Price,
			Stock:         in.Stock,
			SKU:           in.SKU,
			Model:         in.Model,
			Size:          in.Size,
			IsFeatured:    in.IsFeatured,
			IsActive:      true,
			SubcategoryID: in.SubcategoryID,
		}
		if err := tx.Create(&product).Error; err != nil {
			return translateProductErr(err)
		}
		id = product.ID

		if len(images) == 0 {
			return nil
		}
		rows := make([]ProductImage, len(images))
		for i, img := range images {
			rows[i] = ProductImage{ProductID: product.ID, URL: img.URL, Alt: img.Alt, SortOrder: i}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		primary := rows[PrimaryIndex(images)].ID
		return tx.Model(&Product{}).Where("id = ?", product.ID).Update("primary_image_id", primary).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Update applies a partial update. Removing the primary image, or leaving a
// product with images but no primary, promotes the image with the lowest sort
// order.
func (r *ProductsRepository) Update(ctx context.Context, id uint, upd ProductUpdate) (*Product, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := getProduct(tx, id)
		if err != nil {
			return err
		}

		fields := map[string]any{}
		if upd.Name != nil {
			fields["name"] = *upd.Name
		}
		if upd.BrandName != nil {
			fields["brand_name"] = *upd.BrandName
		}
		if upd.Price != nil {
			fields["price"] = *upd.Price
		}
		if upd.Stock != nil {
			fields["stock"] = *upd.Stock
		}
		if upd.SKU != nil {
			if *upd.SKU == "" {
				fields["sku"] = nil
			} else {
				fields["sku"] = *upd.SKU
			}
		}
		if upd.Model != nil {
			fields["model"] = *upd.Model
		}
		if upd.Size != nil {
			fields["size"] = *upd.Size
		}
		if upd.IsFeatured != nil {
			fields["is_featured"] = *upd.IsFeatured
		}
		if upd.IsActive != nil {
			fields["is_active"] = *upd.IsActive
		}
		if upd.SubcategoryID != nil {
			if *upd.SubcategoryID == 0 {
				fields["subcategory_id"] = nil
			} else {
				if err := subcategoryExists(tx, *upd.SubcategoryID); err != nil {
					return err
				}
				fields["subcategory_id"] = *upd.SubcategoryID
			}
		}
		if len(fields) > 0 {
			if err := tx.Model(&Product{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return translateProductErr(err)
			}
		}

		if len(upd.RemovedImageIDs) > 0 {
			if err := tx.Where("product_id = ? AND id IN ?", id, upd.RemovedImageIDs).
				Delete(&ProductImage{}).Error; err != nil {
				return err
			}
		}

		var flagged *uint
		if len(upd.AddImages) > 0 {
			next := 0
			for _, img := range product.Images {
				if img.SortOrder >= next {
					next = img.SortOrder + 1
				}
			}
			rows := make([]ProductImage, len(upd.AddImages))
			for i, img := range upd.AddImages {
				rows[i] = ProductImage{ProductID: id, URL: img.URL, Alt: img.Alt, SortOrder: next + i}
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
			for i, img := range upd.AddImages {
				if img.IsPrimary {
					flagged = &rows[i].ID
					break
				}
			}
		}

		var images []ProductImage
		if err := imagesByOrder(tx).Where("product_id = ?", id).Find(&images).Error; err != nil {
			return err
		}

		primary := product.PrimaryImageID
		switch {
		case upd.PrimaryImageID != nil:
			if !containsImage(images, *upd.PrimaryImageID) {
				return ErrImageNotFound
			}
			primary = upd.PrimaryImageID
		case flagged != nil:
			primary = flagged
		}
		if primary == nil || !containsImage(images, *primary) {
			primary = nil
			if img := LowestSortOrder(images); img != nil {
				primary = &img.ID
			}
		}

		if !sameID(primary, product.PrimaryImageID) {
			return tx.Model(&Product{}).Where("id = ?", id).Update("primary_image_id", primary).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete refuses to remove a product that any order line references.
func (r *ProductsRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getProduct(tx, id); err != nil {
			return err
		}

		var used int64
		if err := tx.Model(&OrderItem{}).Where("product_id = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return ErrProductHasOrders
		}

		if err := tx.Where("product_id = ?", id).Delete(&ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Product{}, id).Error
	})
}

func (r *ProductsRepository) SetActive(ctx context.Context, id uint, value bool) error {
	return r.setFlag(ctx, id, "is_active", value)
}

func (r *ProductsRepository) SetFeatured(ctx context.Context, id uint, value bool) error {
	return r.setFlag(ctx, id, "is_featured", value)
}

func (r *ProductsRepository) setFlag(ctx context.Context, id uint, column string, value bool) error {
	res := r.db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// SetPrimaryImage points the product at one of its own images.
func (r *ProductsRepository) SetPrimaryImage(ctx context.Context, productID, imageID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getProduct(tx, productID); err != nil {
			return err
		}
		var image ProductImage
		if err := tx.Where("id = ? AND product_id = ?", imageID, productID).First(&image).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrImageNotFound
			}
			return err
		}
		return tx.Model(&Product{}).Where("id = ?", productID).Update("primary_image_id", image.ID).Error
	})
}

// MarkFeatured clears every featured flag and flags the newest n active
// products.
func (r *ProductsRepository) MarkFeatured(ctx context.Context, n int) ([]Product, error) {
	var picks []Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("is_active = ?", true).
			Order("created_at DESC, id DESC").
			Limit(n).
			Find(&picks).Error; err != nil {
			return err
		}
		if len(picks) == 0 {
			return nil
		}
		if err := tx.Model(&Product{}).Where("is_featured = ?", true).Update("is_featured", false).Error; err != nil {
			return err
		}
		ids := make([]uint, len(picks))
		for i := range picks {
			ids[i] = picks[i].ID
			picks[i].IsFeatured = true
		}
		return tx.Model(&Product{}).Where("id IN ?", ids).Update("is_featured", true).Error
	})
	if err != nil {
		return nil, err
	}
	return picks, nil
}

// Counts returns totals for the dashboard. lowStock is inclusive.
func (r *ProductsRepository) Counts(ctx context.Context, lowStock int) (ProductCounts, error) {
	var c ProductCounts
	db := r.db.WithContext(ctx).Model(&Product{})
	if err := db.Count(&c.Total).Error; err != nil {
		return c, err
	}
	if err := r.db.WithContext(ctx).Model(&Product{}).Where("is_active = ?", true).Count(&c.Active).Error; err != nil {
		return c, err
	}
	if err := r.db.WithContext(ctx).Model(&Product{}).Where("stock <= ?", lowStock).Count(&c.LowStock).Error; err != nil {
		return c, err
	}
	return c, nil
}

// UpsertBySKU creates the product or refreshes the catalog fields of the one
// holding the same SKU. Used by seeding.
func (r *ProductsRepository) UpsertBySKU(ctx context.Context, in ProductInput) (*Product, error) {
	if in.SKU == nil || *in.SKU == "" {
		return nil, fmt.Errorf("upsert requires a sku")
	}
	var existing Product
	err := r.db.WithContext(ctx).Where("sku = ?", *in.SKU).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.Create(ctx, in, nil)
	case err != nil:
		return nil, err
	}
	upd := ProductUpdate{
		Name:          &in.Name,
		BrandName:     &in.BrandName,
		Price:         &in.Price,
		Stock:         &in.Stock,
		Model:         &in.Model,
		Size:          &in.Size,
		IsFeatured:    &in.IsFeatured,
		SubcategoryID: in.SubcategoryID,
	}
	return r.Update(ctx, existing.ID, upd)
}

func translateProductErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrSKUTaken
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		// only subcategory_id references another table on insert and update
		return ErrCategoryNotFound
	}
	return err
}

func subcategoryExists(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&Subcategory{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func containsImage(images []ProductImage, id uint) bool {
	for _, img := range images {
		if img.ID == id {
			return true
		}
	}
	return false
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
