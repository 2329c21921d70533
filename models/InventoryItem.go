package models

import "gorm.io/gorm"

// InventoryItem is the mutable stock level for one tracked item. Quantity is
// the only frequently written field: order approvals decrement it by template
// line totals. No floor is applied, so a shortfall shows up as negative stock.
type InventoryItem struct {
	gorm.Model
	BusinessID uint    `gorm:"not null;index" json:"business_id"`
	Name       string  `gorm:"not null" json:"name"`
	Unit       string  `gorm:"not null" json:"unit"`
	Quantity   float64 `gorm:"not null" json:"quantity"`
	Threshold  float64 `gorm:"not null;default:0" json:"threshold"`
}
