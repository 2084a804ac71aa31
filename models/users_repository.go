package models

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type UsersRepository struct {
	db *gorm.DB
}

func NewUsersRepository(db *gorm.DB) *UsersRepository {
	return &UsersRepository{
		db: db,
	}
}

// NormalizeEmail lowercases and trims an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores a user whose password is already hashed.
func (r *UsersRepository) Create(ctx context.Context, user *User) error {
	user.Email = NormalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = RoleUser
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UsersRepository) GetByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpsertAdmin creates an administrator, or promotes the existing account and
// replaces its password hash. It reports whether a new row was created.
func (r *UsersRepository) UpsertAdmin(ctx context.Context, name, email, passwordHash string) (*User, bool, error) {
	existing, err := r.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		user := &User{Name: name, Email: email, Password: passwordHash, Role: RoleAdmin}
		if err := r.Create(ctx, user); err != nil {
			return nil, false, err
		}
		return user, true, nil
	case err != nil:
		return nil, false, err
	}

	fields := map[string]any{"role": RoleAdmin, "password": passwordHash}
	if name != "" {
		fields["name"] = name
	}
	if err := r.db.WithContext(ctx).Model(existing).Updates(fields).Error; err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// CountAdmins reports how many administrator accounts exist.
func (r *UsersRepository) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&User{}).Where("role = ?", RoleAdmin).Count(&n).Error
	return n, err
}
