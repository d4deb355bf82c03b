package postgres

import (
	"errors"

	userDatamodel "github.com/smartinstall/field-reports/internal/core/datamodel/user"
	"github.com/smartinstall/field-reports/internal/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) user.Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(userID int64) (*user.User, error) {
	var row userDatamodel.User
	err := r.db.First(&row, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user.FromDataModel(&row), nil
}

func (r *Repository) GetByTelegramID(telegramID int64) (*user.User, error) {
	var row userDatamodel.User
	err := r.db.Where("telegram_id = ?", telegramID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user.FromDataModel(&row), nil
}

func (r *Repository) List() ([]*user.User, error) {
	var rows []*userDatamodel.User
	if err := r.db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return user.FromDataModelSlice(rows), nil
}

func (r *Repository) Create(u *user.User) error {
	row := user.ToDataModel(u)
	if err := r.db.Create(row).Error; err != nil {
		return err
	}
	u.ID = row.ID
	u.CreatedAt = row.CreatedAt
	return nil
}

func (r *Repository) Update(u *user.User) error {
	return r.db.Model(&userDatamodel.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"name": u.Name,
			"role": u.Role,
		}).Error
}
