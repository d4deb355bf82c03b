package site

import (
	"fmt"

	"github.com/smartinstall/field-reports/internal"
	"github.com/smartinstall/field-reports/internal/report"
)

var ErrObjectNotFound = internal.NewNotFoundError("object not found", internal.ErrCodeObjectNotFound)

// Repository stores client objects. Get returns (nil, nil) when the id
// is unknown.
type Repository interface {
	Get(id int64) (*ClientObject, error)
	List(status string) ([]*ClientObject, error)
	Create(o *ClientObject) error
	Update(o *ClientObject) error
	Delete(id int64) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns objects, optionally filtered by status.
func (s *Service) List(status string) ([]*ClientObject, error) {
	if status != "" && !IsValidStatus(status) {
		return nil, ValidationError{Msg: "status must be active, completed or maintenance"}
	}
	objects, err := s.repo.List(status)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	return objects, nil
}

func (s *Service) Get(id int64) (*ClientObject, error) {
	o, err := s.repo.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	if o == nil {
		return nil, ErrObjectNotFound
	}
	return o, nil
}

func (s *Service) Create(dto CreateObjectDTO) (*ClientObject, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	o := &ClientObject{
		Name:    dto.Name,
		Address: dto.Address,
		Status:  dto.Status,
	}
	if err := s.repo.Create(o); err != nil {
		return nil, fmt.Errorf("failed to create object: %w", err)
	}
	return o, nil
}

func (s *Service) Update(id int64, dto UpdateObjectDTO) (*ClientObject, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	o, err := s.repo.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	if o == nil {
		return nil, ErrObjectNotFound
	}

	if dto.Name != nil {
		o.Name = *dto.Name
	}
	if dto.Address != nil {
		o.Address = *dto.Address
	}
	if dto.Status != nil {
		o.Status = *dto.Status
	}

	if err := s.repo.Update(o); err != nil {
		return nil, fmt.Errorf("failed to update object: %w", err)
	}
	return o, nil
}

func (s *Service) Delete(id int64) error {
	o, err := s.repo.Get(id)
	if err != nil {
		return fmt.Errorf("failed to get object: %w", err)
	}
	if o == nil {
		return ErrObjectNotFound
	}
	return s.repo.Delete(id)
}

// SiteInfo adapts the repository for the export directory lookup.
func (s *Service) SiteInfo(id int64) (*report.SiteInfo, error) {
	o, err := s.repo.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	if o == nil {
		return nil, nil
	}
	return &report.SiteInfo{Name: o.Name, Address: o.Address}, nil
}
