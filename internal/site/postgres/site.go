package postgres

import (
	"errors"

	siteDatamodel "github.com/smartinstall/field-reports/internal/core/datamodel/site"
	"github.com/smartinstall/field-reports/internal/site"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) site.Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(id int64) (*site.ClientObject, error) {
	var row siteDatamodel.ClientObject
	err := r.db.First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return site.FromDataModel(&row), nil
}

func (r *Repository) List(status string) ([]*site.ClientObject, error) {
	query := r.db.Order("name")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var rows []*siteDatamodel.ClientObject
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return site.FromDataModelSlice(rows), nil
}

func (r *Repository) Create(o *site.ClientObject) error {
	row := site.ToDataModel(o)
	if err := r.db.Create(row).Error; err != nil {
		return err
	}
	o.ID = row.ID
	o.CreatedAt = row.CreatedAt
	return nil
}

func (r *Repository) Update(o *site.ClientObject) error {
	return r.db.Model(&siteDatamodel.ClientObject{}).
		Where("id = ?", o.ID).
		Updates(map[string]interface{}{
			"name":    o.Name,
			"address": o.Address,
			"status":  o.Status,
		}).Error
}

func (r *Repository) Delete(id int64) error {
	return r.db.Delete(&siteDatamodel.ClientObject{}, id).Error
}
