package postgres

import (
	"errors"

	documentDatamodel "github.com/smartinstall/field-reports/internal/core/datamodel/document"
	"github.com/smartinstall/field-reports/internal/document"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) document.Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(id int64) (*document.DocItem, error) {
	var row documentDatamodel.DocItem
	err := r.db.First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return document.FromDataModel(&row), nil
}

func (r *Repository) List(objectID *int64, generalOnly bool) ([]*document.DocItem, error) {
	query := r.db.Order("id")
	if generalOnly {
		query = query.Where("object_id IS NULL")
	} else if objectID != nil {
		query = query.Where("object_id = ?", *objectID)
	}

	var rows []*documentDatamodel.DocItem
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return document.FromDataModelSlice(rows), nil
}

func (r *Repository) Create(d *document.DocItem) error {
	row := document.ToDataModel(d)
	if err := r.db.Create(row).Error; err != nil {
		return err
	}
	d.ID = row.ID
	d.CreatedAt = row.CreatedAt
	return nil
}

func (r *Repository) Update(d *document.DocItem) error {
	return r.db.Model(&documentDatamodel.DocItem{}).
		Where("id = ?", d.ID).
		Updates(map[string]interface{}{
			"title":     d.Title,
			"type":      d.Type,
			"url":       d.URL,
			"content":   d.Content,
			"object_id": d.ObjectID,
		}).Error
}

func (r *Repository) Delete(id int64) error {
	return r.db.Delete(&documentDatamodel.DocItem{}, id).Error
}
