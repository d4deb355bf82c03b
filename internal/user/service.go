package user

import (
	"fmt"

	"github.com/smartinstall/field-reports/internal"
	"github.com/smartinstall/field-reports/internal/auth"
)

var (
	ErrUserNotFound      = internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	ErrUserAlreadyExists = internal.NewValidationError("user already exists", internal.ErrCodeValidationFailed)
)

// Repository stores users. GetByTelegramID returns (nil, nil) when no
// row carries that Telegram id.
type Repository interface {
	GetByID(userID int64) (*User, error)
	GetByTelegramID(telegramID int64) (*User, error)
	List() ([]*User, error)
	Create(u *User) error
	Update(u *User) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(userID int64) (*User, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) List() ([]*User, error) {
	users, err := s.repo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// TelegramIDFor resolves the Telegram chat for a user, 0 when the
// user is gone.
func (s *Service) TelegramIDFor(userID int64) (int64, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user by id: %w", err)
	}
	if u == nil {
		return 0, nil
	}
	return u.TelegramID, nil
}

// Register creates a user. Non-admin callers cannot grant roles, so
// their requested role collapses to installer.
func (s *Service) Register(actorIsAdmin bool, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if dto.Role != auth.RoleInstaller && !actorIsAdmin {
		dto.Role = auth.RoleInstaller
	}

	existing, err := s.repo.GetByTelegramID(dto.TelegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return existing, ErrUserAlreadyExists
	}

	u := &User{
		TelegramID: dto.TelegramID,
		Name:       dto.Name,
		Role:       dto.Role,
	}
	if err := s.repo.Create(u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// Update changes name or role of an existing user. Admin only.
func (s *Service) Update(userID int64, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	if dto.Name != nil {
		u.Name = *dto.Name
	}
	if dto.Role != nil {
		u.Role = *dto.Role
	}

	if err := s.repo.Update(u); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}
