package site

import "strings"

// CreateObjectDTO is the admin payload for a new site.
type CreateObjectDTO struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Status  string `json:"status"`
}

// UpdateObjectDTO carries partial updates. Nil means unchanged.
type UpdateObjectDTO struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Status  *string `json:"status"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d *CreateObjectDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Address = strings.TrimSpace(d.Address)
	if d.Name == "" || d.Address == "" {
		return ValidationError{Msg: "name and address are required"}
	}
	if d.Status == "" {
		d.Status = StatusActive
	}
	if !IsValidStatus(d.Status) {
		return ValidationError{Msg: "status must be active, completed or maintenance"}
	}
	return nil
}

func (d *UpdateObjectDTO) Validate() error {
	if d.Name == nil && d.Address == nil && d.Status == nil {
		return ValidationError{Msg: "no fields to update"}
	}
	if d.Name != nil {
		trimmed := strings.TrimSpace(*d.Name)
		if trimmed == "" {
			return ValidationError{Msg: "name cannot be empty"}
		}
		d.Name = &trimmed
	}
	if d.Address != nil {
		trimmed := strings.TrimSpace(*d.Address)
		if trimmed == "" {
			return ValidationError{Msg: "address cannot be empty"}
		}
		d.Address = &trimmed
	}
	if d.Status != nil && !IsValidStatus(*d.Status) {
		return ValidationError{Msg: "status must be active, completed or maintenance"}
	}
	return nil
}
