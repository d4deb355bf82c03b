package user

import (
	"time"

	"github.com/smartinstall/field-reports/internal/auth"
	userDatamodel "github.com/smartinstall/field-reports/internal/core/datamodel/user"
)

// User represents the internal user model
type User struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegramId"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == auth.RoleAdmin
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:         u.ID,
		TelegramID: u.TelegramID,
		Name:       u.Name,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt,
	}
}

func FromDataModel(row *userDatamodel.User) *User {
	return &User{
		ID:         row.ID,
		TelegramID: row.TelegramID,
		Name:       row.Name,
		Role:       row.Role,
		CreatedAt:  row.CreatedAt,
	}
}

func FromDataModelSlice(rows []*userDatamodel.User) []*User {
	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return users
}
