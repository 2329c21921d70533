package models

import "gorm.io/gorm"

// DailyReport is one user's end-of-day summary. The unique index on
// (submitted_by, date) backs the duplicate guard so two concurrent
// submissions cannot both land.
type DailyReport struct {
	gorm.Model
	BusinessID  uint   `gorm:"not null;index" json:"business_id"`
	SubmittedBy uint   `gorm:"not null;uniqueIndex:idx_report_user_date" json:"submitted_by"`
	Date        string `gorm:"type:varchar(10);not null;uniqueIndex:idx_report_user_date" json:"date"`
	Reason      string `gorm:"type:text;not null" json:"reason"`
	Approved    bool   `gorm:"not null;default:false" json:"approved"`

	User *User `gorm:"foreignKey:SubmittedBy" json:"-"`
}
