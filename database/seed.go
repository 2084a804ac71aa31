// seed.go - Demo taxonomy and products for development databases

package database

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kkmt-store/models"
)

// Taxonomy is the demo category tree, category -> subcategories.
var Taxonomy = []struct {
	Category      string
	Subcategories []string
}{
	{"Engine", []string{"Pistons", "Exhaust"}},
	{"Body", []string{"Mirrors", "Aerodynamics"}},
}

type demoProduct struct {
	name, brand, model, size, sku string
	price                         int64
	stock                         int
	category, subcategory         string
}

var demoProducts = []demoProduct{
	{"High-Performance Piston Kit", "Brand A", "CBR150/CBR250", "Standard", "HP-PST-001", 2500, 15, "Engine", "Pistons"},
	{"Racing Brake Caliper Set", "Brand B", "Universal Sport", "Large", "RB-CLP-002", 3800, 8, "Body", "Aerodynamics"},
	{"Titanium Full Exhaust System", "Brand C", "YZF-R3", "Long", "TF-EXH-003", 7950, 5, "Engine", "Exhaust"},
	{"Custom CNC Side Mirrors", "Brand D", "Naked/Street", "Pair", "CSM-MIR-004", 1200, 20, "Body", "Mirrors"},
}

// Seed upserts the taxonomy and the demo products. Running it twice leaves the
// same rows behind.
func Seed(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	catalog := models.NewCatalogRepository(db)
	products := models.NewProductsRepository(db)

	subs := map[string]uint{} // "Category:Sub" -> id
	for _, c := range Taxonomy {
		for _, s := range c.Subcategories {
			sub, err := catalog.EnsureSubcategory(ctx, c.Category, s)
			if err != nil {
				return fmt.Errorf("seed %s/%s: %w", c.Category, s, err)
			}
			subs[c.Category+":"+s] = sub.ID
		}
	}

	for _, p := range demoProducts {
		sku := p.sku
		subID := subs[p.category+":"+p.subcategory]
		product, err := products.UpsertBySKU(ctx, models.ProductInput{
			Name:          p.name,
			BrandName:     p.brand,
			Price:         decimal.NewFromInt(p.price),
			Stock:         p.stock,
			SKU:           &sku,
			Model:         p.model,
			Size:          p.size,
			IsFeatured:    true,
			SubcategoryID: &subID,
		})
		if err != nil {
			return fmt.Errorf("seed product %s: %w", p.sku, err)
		}
		if log != nil {
			log.Info("seeded product", zap.Uint("id", product.ID), zap.String("sku", sku))
		}
	}
	return nil
}
