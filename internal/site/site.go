package site

import (
	"time"

	siteDatamodel "github.com/smartinstall/field-reports/internal/core/datamodel/site"
)

const (
	StatusActive      = "active"
	StatusCompleted   = "completed"
	StatusMaintenance = "maintenance"
)

func IsValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusCompleted, StatusMaintenance:
		return true
	}
	return false
}

// ClientObject represents one installation site.
type ClientObject struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToDataModel(o *ClientObject) *siteDatamodel.ClientObject {
	return &siteDatamodel.ClientObject{
		ID:        o.ID,
		Name:      o.Name,
		Address:   o.Address,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
}

func FromDataModel(row *siteDatamodel.ClientObject) *ClientObject {
	return &ClientObject{
		ID:        row.ID,
		Name:      row.Name,
		Address:   row.Address,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
	}
}

func FromDataModelSlice(rows []*siteDatamodel.ClientObject) []*ClientObject {
	objects := make([]*ClientObject, 0, len(rows))
	for _, row := range rows {
		objects = append(objects, FromDataModel(row))
	}
	return objects
}
