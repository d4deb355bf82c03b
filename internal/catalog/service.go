package catalog

import (
	"fmt"

	"github.com/smartinstall/field-reports/internal"
	"github.com/smartinstall/field-reports/internal/report"
)

var ErrPriceItemNotFound = internal.NewNotFoundError("price item not found", internal.ErrCodePriceNotFound)

// Repository stores price items. Get returns (nil, nil) when the id is
// unknown.
type Repository interface {
	Get(id int64) (*PriceItem, error)
	List() ([]*PriceItem, error)
	Create(item *PriceItem) error
	Update(item *PriceItem) error
	Delete(id int64) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List() ([]*PriceItem, error) {
	items, err := s.repo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list price items: %w", err)
	}
	return items, nil
}

func (s *Service) Get(id int64) (*PriceItem, error) {
	item, err := s.repo.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get price item: %w", err)
	}
	if item == nil {
		return nil, ErrPriceItemNotFound
	}
	return item, nil
}

func (s *Service) Create(dto CreatePriceItemDTO) (*PriceItem, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	coefficient := 1.0
	if dto.Coefficient != nil {
		coefficient = *dto.Coefficient
	}

	item := &PriceItem{
		Category:    dto.Category,
		Name:        dto.Name,
		Price:       dto.Price,
		Coefficient: coefficient,
	}
	if err := s.repo.Create(item); err != nil {
		return nil, fmt.Errorf("failed to create price item: %w", err)
	}
	return item, nil
}

func (s *Service) Update(id int64, dto UpdatePriceItemDTO) (*PriceItem, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	item, err := s.repo.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get price item: %w", err)
	}
	if item == nil {
		return nil, ErrPriceItemNotFound
	}

	if dto.Category != nil {
		item.Category = *dto.Category
	}
	if dto.Name != nil {
		item.Name = *dto.Name
	}
	if dto.Price != nil {
		item.Price = *dto.Price
	}
	if dto.Coefficient != nil {
		item.Coefficient = *dto.Coefficient
	}

	if err := s.repo.Update(item); err != nil {
		return nil, fmt.Errorf("failed to update price item: %w", err)
	}
	return item, nil
}

func (s *Service) Delete(id int64) error {
	item, err := s.repo.Get(id)
	if err != nil {
		return fmt.Errorf("failed to get price item: %w", err)
	}
	if item == nil {
		return ErrPriceItemNotFound
	}
	return s.repo.Delete(id)
}

// PriceTable snapshots the catalog for earnings computation.
func (s *Service) PriceTable() (report.PriceTable, error) {
	items, err := s.repo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load price table: %w", err)
	}

	table := make(report.PriceTable, len(items))
	for _, item := range items {
		table[item.ID] = report.PriceInfo{
			Price:       item.Price,
			Coefficient: item.Coefficient,
		}
	}
	return table, nil
}

// ItemNames maps price item ids to display names for exports.
func (s *Service) ItemNames() (map[int64]string, error) {
	items, err := s.repo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load item names: %w", err)
	}

	names := make(map[int64]string, len(items))
	for _, item := range items {
		names[item.ID] = item.Name
	}
	return names, nil
}
