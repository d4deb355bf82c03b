package postgres

import (
	"errors"

	"github.com/smartinstall/field-reports/internal/auth"
	userDatamodel "github.com/smartinstall/field-reports/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByTelegramID(telegramID int64) (*auth.User, error) {
	var row userDatamodel.User
	err := r.db.Where("telegram_id = ?", telegramID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toAuthUser(&row), nil
}

func (r *Repository) GetByID(userID int64) (*auth.User, error) {
	var row userDatamodel.User
	err := r.db.First(&row, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toAuthUser(&row), nil
}

func toAuthUser(row *userDatamodel.User) *auth.User {
	return &auth.User{
		ID:         row.ID,
		TelegramID: row.TelegramID,
		Name:       row.Name,
		Role:       row.Role,
	}
}
