package report

import "time"

// ScheduledDay is the persisted form of a work report: one row per
// installer and calendar date.
type ScheduledDay struct {
	ID        int64         `gorm:"primaryKey"`
	UserID    int64         `gorm:"column:user_id;not null;uniqueIndex:idx_schedule_user_date"`
	Date      string        `gorm:"column:date;size:10;not null;uniqueIndex:idx_schedule_user_date"`
	ObjectID  *int64        `gorm:"column:object_id"`
	Completed bool          `gorm:"column:completed;default:false"`
	Status    string        `gorm:"column:status;size:50;default:draft"`
	Earnings  int64         `gorm:"column:earnings;default:0"`
	WorkLog   []WorkLogItem `gorm:"foreignKey:ScheduledDayID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (ScheduledDay) TableName() string {
	return "scheduled_days"
}

// WorkLogItem is one billed line of a report. Coefficient zero means the
// line never had one set; the catalog value applies.
type WorkLogItem struct {
	ID             int64   `gorm:"primaryKey"`
	ScheduledDayID int64   `gorm:"column:scheduled_day_id;not null;index"`
	PriceItemID    int64   `gorm:"column:price_item_id;not null;index"`
	Quantity       int     `gorm:"column:quantity;not null;default:1"`
	Coefficient    float64 `gorm:"column:coefficient;not null;default:0"`
}

func (WorkLogItem) TableName() string {
	return "work_log_items"
}
