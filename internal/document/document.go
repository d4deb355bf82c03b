package document

import (
	"time"

	documentDatamodel "github.com/smartinstall/field-reports/internal/core/datamodel/document"
)

const (
	TypePDF  = "pdf"
	TypeImg  = "img"
	TypeText = "text"
	TypeLink = "link"
	TypeDocx = "docx"
	TypeFile = "file"
)

func IsValidType(docType string) bool {
	switch docType {
	case TypePDF, TypeImg, TypeText, TypeLink, TypeDocx, TypeFile:
		return true
	}
	return false
}

// DocItem represents one reference document.
type DocItem struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	URL       *string   `json:"url"`
	Content   *string   `json:"content"`
	ObjectID  *int64    `json:"objectId"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToDataModel(d *DocItem) *documentDatamodel.DocItem {
	return &documentDatamodel.DocItem{
		ID:        d.ID,
		Title:     d.Title,
		Type:      d.Type,
		URL:       d.URL,
		Content:   d.Content,
		ObjectID:  d.ObjectID,
		CreatedAt: d.CreatedAt,
	}
}

func FromDataModel(row *documentDatamodel.DocItem) *DocItem {
	return &DocItem{
		ID:        row.ID,
		Title:     row.Title,
		Type:      row.Type,
		URL:       row.URL,
		Content:   row.Content,
		ObjectID:  row.ObjectID,
		CreatedAt: row.CreatedAt,
	}
}

func FromDataModelSlice(rows []*documentDatamodel.DocItem) []*DocItem {
	docs := make([]*DocItem, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, FromDataModel(row))
	}
	return docs
}
