package models

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// CatalogRepository manages the two-level category taxonomy.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{
		db: db,
	}
}

// Tree returns every category with its subcategories, alphabetically.
func (r *CatalogRepository) Tree(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := r.db.WithContext(ctx).
		Preload("Subcategories", func(db *gorm.DB) *gorm.DB { return db.Order("subcategories.name ASC") }).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, name string) (*Category, error) {
	category := Category{Name: strings.TrimSpace(name)}
	if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}
	return &category, nil
}

func (r *CatalogRepository) CreateSubcategory(ctx context.Context, categoryID uint, name string) (*Subcategory, error) {
	var parent Category
	if err := r.db.WithContext(ctx).First(&parent, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	sub := Subcategory{Name: strings.TrimSpace(name), CategoryID: categoryID}
	if err := r.db.WithContext(ctx).Create(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}
	return &sub, nil
}

// EnsureSubcategory finds or creates category/subcategory by name.
func (r *CatalogRepository) EnsureSubcategory(ctx context.Context, category, subcategory string) (*Subcategory, error) {
	var sub Subcategory
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent Category
		if err := tx.Where(Category{Name: category}).FirstOrCreate(&parent).Error; err != nil {
			return err
		}
		return tx.Where(Subcategory{Name: subcategory, CategoryID: parent.ID}).FirstOrCreate(&sub).Error
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
