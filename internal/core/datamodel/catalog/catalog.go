package catalog

import "time"

// PriceItem is one billable service in the price list. Price is whole
// currency units; coefficient is the default multiplier for the item.
type PriceItem struct {
	ID          int64     `gorm:"primaryKey"`
	Category    string    `gorm:"column:category;size:255;not null"`
	Name        string    `gorm:"column:name;size:255;not null"`
	Price       int64     `gorm:"column:price;not null;default:0"`
	Coefficient float64   `gorm:"column:coefficient;not null;default:1"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (PriceItem) TableName() string {
	return "price_items"
}
