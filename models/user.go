// user.go - Defines the User model for the database

package models // Declares the package name

import "time"

// Roles stored in User.Role and carried in session tokens.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct { // User struct represents a customer or staff account
	ID        uint      `gorm:"primaryKey" json:"id"`                // Unique user ID (primary key)
	Name      string    `json:"name"`                                // Display name
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`   // Login email (must be unique)
	Password  string    `gorm:"not null" json:"-"`                   // bcrypt hash, never serialized
	Role      string    `gorm:"not null;default:'USER'" json:"role"` // USER or ADMIN
	Image     *string   `json:"image"`                               // Avatar URL
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user may open the back-office.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
