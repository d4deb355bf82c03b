package postgres

import (
	"errors"

	"github.com/smartinstall/field-reports/internal/catalog"
	catalogDatamodel "github.com/smartinstall/field-reports/internal/core/datamodel/catalog"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) catalog.Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(id int64) (*catalog.PriceItem, error) {
	var row catalogDatamodel.PriceItem
	err := r.db.First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return catalog.FromDataModel(&row), nil
}

func (r *Repository) List() ([]*catalog.PriceItem, error) {
	var rows []*catalogDatamodel.PriceItem
	if err := r.db.Order("category, name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return catalog.FromDataModelSlice(rows), nil
}

func (r *Repository) Create(item *catalog.PriceItem) error {
	row := catalog.ToDataModel(item)
	if err := r.db.Create(row).Error; err != nil {
		return err
	}
	item.ID = row.ID
	item.CreatedAt = row.CreatedAt
	return nil
}

func (r *Repository) Update(item *catalog.PriceItem) error {
	return r.db.Model(&catalogDatamodel.PriceItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"category":    item.Category,
			"name":        item.Name,
			"price":       item.Price,
			"coefficient": item.Coefficient,
		}).Error
}

func (r *Repository) Delete(id int64) error {
	return r.db.Delete(&catalogDatamodel.PriceItem{}, id).Error
}
