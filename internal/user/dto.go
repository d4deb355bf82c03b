package user

import (
	"strings"

	"github.com/smartinstall/field-reports/internal/auth"
)

// CreateUserDTO is the registration payload. Role other than installer
// only sticks when an admin sends it.
type CreateUserDTO struct {
	TelegramID int64  `json:"telegramId"`
	Name       string `json:"name"`
	Role       string `json:"role"`
}

// UpdateUserDTO carries the admin-editable fields. Nil means unchanged.
type UpdateUserDTO struct {
	Name *string `json:"name"`
	Role *string `json:"role"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d *CreateUserDTO) Validate() error {
	if d.TelegramID <= 0 {
		return ValidationError{Msg: "telegramId must be a positive integer"}
	}
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return ValidationError{Msg: "name is required"}
	}
	if d.Role == "" {
		d.Role = auth.RoleInstaller
	}
	if d.Role != auth.RoleAdmin && d.Role != auth.RoleInstaller {
		return ValidationError{Msg: "role must be admin or installer"}
	}
	return nil
}

func (d *UpdateUserDTO) Validate() error {
	if d.Name == nil && d.Role == nil {
		return ValidationError{Msg: "no fields to update"}
	}
	if d.Name != nil {
		trimmed := strings.TrimSpace(*d.Name)
		if trimmed == "" {
			return ValidationError{Msg: "name cannot be empty"}
		}
		d.Name = &trimmed
	}
	if d.Role != nil && *d.Role != auth.RoleAdmin && *d.Role != auth.RoleInstaller {
		return ValidationError{Msg: "role must be admin or installer"}
	}
	return nil
}
