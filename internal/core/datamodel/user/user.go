package user

import "time"

// User is one registered installer or admin. Telegram id is the login
// identity; rows are provisioned by admins, never self-registered.
type User struct {
	ID         int64     `gorm:"primaryKey"`
	TelegramID int64     `gorm:"column:telegram_id;not null;uniqueIndex"`
	Name       string    `gorm:"column:name;size:255;not null"`
	Role       string    `gorm:"column:role;size:50;default:installer"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}
