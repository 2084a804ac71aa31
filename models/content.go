package models

import "time"

// Blog is an editorial post shown in the storefront news section.
type Blog struct {
	ID        uint   `gorm:"primaryKey"`
	Title     string `gorm:"not null"`
	Excerpt   string
	Content   string `gorm:"type:text"`
	Category  string
	ImageURL  string
	CreatedAt time.Time `gorm:"index"`
}

func (b *Blog) TableName() string {
	return "blogs"
}

// Settings is a single-row table of store-wide options editable from the
// back-office.
type Settings struct {
	ID         uint `gorm:"primaryKey"`
	StoreEmail string
	UpdatedAt  time.Time
}

func (s *Settings) TableName() string {
	return "settings"
}
