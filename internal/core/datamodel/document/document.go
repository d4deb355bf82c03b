package document

import "time"

// DocItem is one reference document: a file, a link or an inline text
// note. ObjectID nil means the document is general.
type DocItem struct {
	ID        int64     `gorm:"primaryKey"`
	Title     string    `gorm:"column:title;size:255;not null"`
	Type      string    `gorm:"column:type;size:50;not null"`
	URL       *string   `gorm:"column:url;size:500"`
	Content   *string   `gorm:"column:content;type:text"`
	ObjectID  *int64    `gorm:"column:object_id;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (DocItem) TableName() string {
	return "doc_items"
}
