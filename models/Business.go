package models

import "gorm.io/gorm"

// Business is the tenant boundary. Every operational record carries a
// BusinessID and queries are always scoped to the session's business.
type Business struct {
	gorm.Model
	Name            string `gorm:"not null" json:"name"`
	Address         string `json:"address"`
	OwnerID         uint   `gorm:"not null" json:"owner_id"`
	ManagerPasscode string `gorm:"type:varchar(6);not null" json:"-"`
}
