package models

import "gorm.io/gorm"

// Template types supported by the order registry.
const (
	TemplateTypeDish      = "dish"
	TemplateTypeHairstyle = "hairstyle"
)

// PredefinedOrder is a named product or dish definition: a header with a list
// of ingredient lines. Templates are immutable once created.
type PredefinedOrder struct {
	gorm.Model
	BusinessID uint           `gorm:"not null;index" json:"business_id"`
	Name       string         `gorm:"not null" json:"name"`
	Type       string         `gorm:"type:varchar(16);not null;default:dish" json:"type"`
	Lines      []TemplateLine `gorm:"foreignKey:OrderID" json:"lines"`
}

// TemplateLine binds one inventory item to a template with a per-unit
// quantity. An item appears at most once per template.
type TemplateLine struct {
	gorm.Model
	OrderID          uint    `gorm:"not null;index:idx_template_line_item,unique" json:"order_id"`
	ItemID           uint    `gorm:"not null;index:idx_template_line_item,unique" json:"item_id"`
	QuantityPerOrder float64 `gorm:"not null" json:"quantity_per_order"`

	Item *InventoryItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}
