package models

import "gorm.io/gorm"

// ShoppingListEntry is a manually maintained purchase suggestion for an item.
type ShoppingListEntry struct {
	gorm.Model
	BusinessID        uint    `gorm:"not null;index" json:"business_id"`
	ItemID            uint    `gorm:"not null" json:"item_id"`
	SuggestedQuantity float64 `gorm:"not null;default:0" json:"suggested_quantity"`

	Item *InventoryItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}
