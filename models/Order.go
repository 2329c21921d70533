package models

import "gorm.io/gorm"

// Order is a request to produce Quantity units of a template. It is created
// pending and transitions once to approved; approval deducts stock. Declined
// orders are deleted rather than kept in a third state.
type Order struct {
	gorm.Model
	BusinessID      uint `gorm:"not null;index" json:"business_id"`
	UserID          uint `gorm:"not null" json:"user_id"`
	OrderTemplateID uint `gorm:"not null" json:"order_template_id"`
	Quantity        int  `gorm:"not null;default:1" json:"quantity"`
	Approved        bool `gorm:"not null;default:false" json:"approved"`

	Template *PredefinedOrder `gorm:"foreignKey:OrderTemplateID" json:"template,omitempty"`
}
