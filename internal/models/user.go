package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole distinguishes regular artisans from back-office accounts.
type UserRole string

const (
	RoleArtisan UserRole = "artisan"
	RoleAdmin   UserRole = "admin"
)

// User represents an authenticated artisan account.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email    string   `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string   `gorm:"size:255;not null" json:"-"` // bcrypt hash, never exposed in JSON
	Role     UserRole `gorm:"size:20;not null;default:'artisan'" json:"role"`

	// Shown on quotes, emails and SMS sent on behalf of the artisan.
	CompanyName string `gorm:"size:255" json:"company_name,omitempty"`
	Phone       string `gorm:"size:50" json:"phone,omitempty"`
}

// DisplayName returns the company name, falling back to the product name.
func (u *User) DisplayName() string {
	if u == nil || u.CompanyName == "" {
		return "FaciliDevis"
	}
	return u.CompanyName
}
