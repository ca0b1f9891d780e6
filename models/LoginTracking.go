package models

import (
	"time"

	"gorm.io/gorm"
)

// LoginTracking records one successful admin login.
type LoginTracking struct {
	gorm.Model
	AdminID   uint      `json:"admin_id" gorm:"index"`
	IPAddress string    `json:"ip_address"`
	Device    string    `json:"device"`
	Timestamp time.Time `json:"timestamp"`
}
