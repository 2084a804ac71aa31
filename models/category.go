package models

// Category is the top level of the two-level product taxonomy.
type Category struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Name          string        `gorm:"uniqueIndex;not null" json:"name"`
	Subcategories []Subcategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"subcategories"`
}

func (c *Category) TableName() string {
	return "categories"
}

// Subcategory names are unique within their category.
type Subcategory struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"not null;uniqueIndex:idx_subcategory_category_name" json:"name"`
	CategoryID uint   `gorm:"not null;uniqueIndex:idx_subcategory_category_name" json:"categoryId"`
}

func (s *Subcategory) TableName() string {
	return "subcategories"
}
