package models

// UserTimeInterval represents a user's recurring weekly availability
// window. WeekDay is 0 (Sunday) through 6 (Saturday); at most one row
// exists per user per weekday.
type UserTimeInterval struct {
	ID                 string `gorm:"column:id;primaryKey"`
	UserID             string `gorm:"column:user_id;index:idx_intervals_user_weekday,unique"`
	WeekDay            int    `gorm:"column:week_day;index:idx_intervals_user_weekday,unique"`
	TimeStartInMinutes int    `gorm:"column:time_start_in_minutes"`
	TimeEndInMinutes   int    `gorm:"column:time_end_in_minutes"`
}

// TableName specifies the table name for GORM
func (UserTimeInterval) TableName() string {
	return "user_time_intervals"
}
