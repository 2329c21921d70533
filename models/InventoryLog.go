package models

import "gorm.io/gorm"

// InventoryLog is one day's recorded usage for an item. Logs are an
// append-only audit trail and never mutate the item's stock level; the only
// stock mutation in the system is order approval.
type InventoryLog struct {
	gorm.Model
	BusinessID uint     `gorm:"not null;index" json:"business_id"`
	UserID     uint     `gorm:"not null" json:"user_id"`
	ItemID     uint     `gorm:"not null;index" json:"item_id"`
	Date       string   `gorm:"type:varchar(10);not null;index" json:"date"`
	StartQty   float64  `gorm:"not null" json:"start_qty"`
	UsedQty    float64  `gorm:"not null" json:"used_qty"`
	Price      *float64 `json:"price,omitempty"`
	Note       *string  `json:"note,omitempty"`
	Approved   bool     `gorm:"not null;default:false" json:"approved"`
	ReviewedBy *uint    `json:"reviewed_by,omitempty"`

	Item *InventoryItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	User *User          `gorm:"foreignKey:UserID" json:"-"`
}
