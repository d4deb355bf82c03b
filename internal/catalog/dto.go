package catalog

import "strings"

// CreatePriceItemDTO is the admin payload for a new price item.
type CreatePriceItemDTO struct {
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Coefficient *float64 `json:"coefficient"`
}

// UpdatePriceItemDTO carries partial updates. Nil means unchanged.
type UpdatePriceItemDTO struct {
	Category    *string  `json:"category"`
	Name        *string  `json:"name"`
	Price       *int64   `json:"price"`
	Coefficient *float64 `json:"coefficient"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d *CreatePriceItemDTO) Validate() error {
	d.Category = strings.TrimSpace(d.Category)
	d.Name = strings.TrimSpace(d.Name)
	if d.Category == "" || d.Name == "" {
		return ValidationError{Msg: "category and name are required"}
	}
	if d.Price < 0 {
		return ValidationError{Msg: "price cannot be negative"}
	}
	if d.Coefficient != nil && *d.Coefficient <= 0 {
		return ValidationError{Msg: "coefficient must be greater than 0"}
	}
	return nil
}

func (d *UpdatePriceItemDTO) Validate() error {
	if d.Category == nil && d.Name == nil && d.Price == nil && d.Coefficient == nil {
		return ValidationError{Msg: "no fields to update"}
	}
	if d.Category != nil {
		trimmed := strings.TrimSpace(*d.Category)
		if trimmed == "" {
			return ValidationError{Msg: "category cannot be empty"}
		}
		d.Category = &trimmed
	}
	if d.Name != nil {
		trimmed := strings.TrimSpace(*d.Name)
		if trimmed == "" {
			return ValidationError{Msg: "name cannot be empty"}
		}
		d.Name = &trimmed
	}
	if d.Price != nil && *d.Price < 0 {
		return ValidationError{Msg: "price cannot be negative"}
	}
	if d.Coefficient != nil && *d.Coefficient <= 0 {
		return ValidationError{Msg: "coefficient must be greater than 0"}
	}
	return nil
}
