package models

import "gorm.io/gorm"

// Role values assigned to users. Admins own a business and review
// submissions; staff submit logs, orders and reports.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User represents an application account that can authenticate with the platform.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Name         string
	Role         string `gorm:"type:varchar(16);not null;default:admin"`
	BusinessID   *uint  `gorm:"index"`
}
