package site

import "time"

// ClientObject is one installation site reports can reference.
type ClientObject struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;size:255;not null"`
	Address   string    `gorm:"column:address;size:500;not null"`
	Status    string    `gorm:"column:status;size:50;default:active;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ClientObject) TableName() string {
	return "client_objects"
}
