package catalog

import (
	"time"

	catalogDatamodel "github.com/smartinstall/field-reports/internal/core/datamodel/catalog"
)

// PriceItem represents one billable service in the price list.
type PriceItem struct {
	ID          int64     `json:"id"`
	Category    string    `json:"category"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	Coefficient float64   `json:"coefficient"`
	CreatedAt   time.Time `json:"createdAt"`
}

func ToDataModel(p *PriceItem) *catalogDatamodel.PriceItem {
	return &catalogDatamodel.PriceItem{
		ID:          p.ID,
		Category:    p.Category,
		Name:        p.Name,
		Price:       p.Price,
		Coefficient: p.Coefficient,
		CreatedAt:   p.CreatedAt,
	}
}

func FromDataModel(row *catalogDatamodel.PriceItem) *PriceItem {
	return &PriceItem{
		ID:          row.ID,
		Category:    row.Category,
		Name:        row.Name,
		Price:       row.Price,
		Coefficient: row.Coefficient,
		CreatedAt:   row.CreatedAt,
	}
}

func FromDataModelSlice(rows []*catalogDatamodel.PriceItem) []*PriceItem {
	items := make([]*PriceItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromDataModel(row))
	}
	return items
}
