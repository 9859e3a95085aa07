package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account in the system.
type User struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Email         string         `json:"email" gorm:"size:255;not null;index"`
	PasswordHash  string         `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	FullName      string         `json:"full_name" gorm:"size:255;not null"`
	Phone         *string        `json:"phone,omitempty" gorm:"size:20"`
	IsActive      bool           `json:"is_active" gorm:"default:true;index"`
	EmailVerified bool           `json:"email_verified" gorm:"default:false"`
	LastLogin     *time.Time     `json:"last_login,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Routes []Route `json:"routes,omitempty" gorm:"foreignKey:UserID"`
}

// UserPublic is the projection of a user exposed to callers.
type UserPublic struct {
	ID            uint       `json:"id"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name"`
	Phone         *string    `json:"phone,omitempty"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Public returns the caller-visible projection, with the password digest
// stripped.
func (u *User) Public() UserPublic {
	return UserPublic{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		Phone:         u.Phone,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
	}
}
