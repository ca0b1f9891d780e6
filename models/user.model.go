package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin  = "ADMIN"
	RoleEditor = "EDITOR"
)

// AdminUser is an account allowed into the admin console.
type AdminUser struct {
	gorm.Model
	Name      string     `json:"name" gorm:"default:''"`
	Email     string     `json:"email" gorm:"unique;not null"`
	Role      string     `json:"role" gorm:"default:'ADMIN'"`
	Password  string     `json:"-" gorm:"not null"`
	LastLogin *time.Time `json:"last_login"`
	IsBlocked bool       `json:"is_blocked" gorm:"default:false"`

	FailedLoginAttempts int        `json:"-" gorm:"default:0"`
	LastFailedLogin     *time.Time `json:"-"`
	LockedUntil         *time.Time `json:"-"`
}
