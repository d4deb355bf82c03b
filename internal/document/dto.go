package document

import "strings"

const maxContentLength = 50000

// CreateDocDTO is the admin payload for a link or text document.
type CreateDocDTO struct {
	Title    string  `json:"title"`
	Type     string  `json:"type"`
	URL      *string `json:"url"`
	Content  *string `json:"content"`
	ObjectID *int64  `json:"objectId"`
}

// UpdateDocDTO carries partial updates. Nil means unchanged.
type UpdateDocDTO struct {
	Title    *string `json:"title"`
	Type     *string `json:"type"`
	URL      *string `json:"url"`
	Content  *string `json:"content"`
	ObjectID *int64  `json:"objectId"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func validURL(url string) bool {
	return strings.HasPrefix(url, "http://") ||
		strings.HasPrefix(url, "https://") ||
		strings.HasPrefix(url, "/api/files/")
}

func (d *CreateDocDTO) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	d.Type = strings.TrimSpace(d.Type)
	if d.Title == "" || d.Type == "" {
		return ValidationError{Msg: "title and type are required"}
	}
	if !IsValidType(d.Type) {
		return ValidationError{Msg: "invalid document type"}
	}
	if len(d.Title) > 255 {
		d.Title = d.Title[:255]
	}
	if d.ObjectID != nil && *d.ObjectID <= 0 {
		return ValidationError{Msg: "invalid objectId"}
	}
	if d.URL != nil {
		trimmed := strings.TrimSpace(*d.URL)
		if trimmed != "" && !validURL(trimmed) {
			return ValidationError{Msg: "invalid URL format"}
		}
		d.URL = &trimmed
	}
	if d.Content != nil && len(*d.Content) > maxContentLength {
		return ValidationError{Msg: "content too large"}
	}
	return nil
}

func (d *UpdateDocDTO) Validate() error {
	if d.Title == nil && d.Type == nil && d.URL == nil && d.Content == nil && d.ObjectID == nil {
		return ValidationError{Msg: "no fields to update"}
	}
	if d.Title != nil {
		trimmed := strings.TrimSpace(*d.Title)
		if trimmed == "" {
			return ValidationError{Msg: "title cannot be empty"}
		}
		if len(trimmed) > 255 {
			trimmed = trimmed[:255]
		}
		d.Title = &trimmed
	}
	if d.Type != nil && !IsValidType(*d.Type) {
		return ValidationError{Msg: "invalid document type"}
	}
	if d.ObjectID != nil && *d.ObjectID <= 0 {
		return ValidationError{Msg: "invalid objectId"}
	}
	if d.URL != nil {
		trimmed := strings.TrimSpace(*d.URL)
		if trimmed != "" && !validURL(trimmed) {
			return ValidationError{Msg: "invalid URL format"}
		}
		d.URL = &trimmed
	}
	if d.Content != nil && len(*d.Content) > maxContentLength {
		return ValidationError{Msg: "content too large"}
	}
	return nil
}
