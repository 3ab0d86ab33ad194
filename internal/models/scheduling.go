package models

import "time"

// Scheduling represents a claimed slot: a booking made by a requester
// against a user's calendar. Date is always aligned to a whole hour and
// unique per user, so two requesters cannot claim the same slot.
type Scheduling struct {
	ID           string    `gorm:"column:id;primaryKey"`
	UserID       string    `gorm:"column:user_id;index:idx_schedulings_user_date,unique"`
	Date         time.Time `gorm:"column:date;index:idx_schedulings_user_date,unique"`
	Name         string    `gorm:"column:name"`
	Email        string    `gorm:"column:email"`
	Observations *string   `gorm:"column:observations"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Scheduling) TableName() string {
	return "schedulings"
}
