package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type BlogRepository struct {
	db *gorm.DB
}

func NewBlogRepository(db *gorm.DB) *BlogRepository {
	return &BlogRepository{
		db: db,
	}
}

// Latest returns the newest n posts.
func (r *BlogRepository) Latest(ctx context.Context, n int) ([]Blog, error) {
	var blogs []Blog
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(n).Find(&blogs).Error; err != nil {
		return nil, err
	}
	return blogs, nil
}

func (r *BlogRepository) GetByID(ctx context.Context, id uint) (*Blog, error) {
	var blog Blog
	if err := r.db.WithContext(ctx).First(&blog, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	return &blog, nil
}

func (r *BlogRepository) Create(ctx context.Context, blog *Blog) error {
	return r.db.WithContext(ctx).Create(blog).Error
}

func (r *BlogRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Blog{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBlogNotFound
	}
	return nil
}

// SettingsRepository reads and writes the singleton settings row.
type SettingsRepository struct {
	db *gorm.DB
}

const settingsRowID = 1

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{
		db: db,
	}
}

// Get returns the stored settings, or a zero value when none were saved.
func (r *SettingsRepository) Get(ctx context.Context) (Settings, error) {
	var s Settings
	err := r.db.WithContext(ctx).Where("id = ?", settingsRowID).Limit(1).Find(&s).Error
	return s, err
}

func (r *SettingsRepository) Save(ctx context.Context, s Settings) (Settings, error) {
	s.ID = settingsRowID
	if err := r.db.WithContext(ctx).Save(&s).Error; err != nil {
		return Settings{}, err
	}
	return s, nil
}
