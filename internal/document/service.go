package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/smartinstall/field-reports/internal"
)

var ErrDocNotFound = internal.NewNotFoundError("document not found", internal.ErrCodeDocNotFound)

// Repository stores documents. Get returns (nil, nil) when the id is
// unknown.
type Repository interface {
	Get(id int64) (*DocItem, error)
	List(objectID *int64, generalOnly bool) ([]*DocItem, error)
	Create(d *DocItem) error
	Update(d *DocItem) error
	Delete(id int64) error
}

type Service struct {
	repo     Repository
	uploader *Uploader
}

func NewService(repo Repository, uploader *Uploader) *Service {
	return &Service{repo: repo, uploader: uploader}
}

// List returns documents filtered by object, or only general ones.
func (s *Service) List(objectID *int64, generalOnly bool) ([]*DocItem, error) {
	if objectID != nil && *objectID <= 0 {
		return nil, ValidationError{Msg: "invalid objectId"}
	}
	docs, err := s.repo.List(objectID, generalOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

func (s *Service) Get(id int64) (*DocItem, error) {
	d, err := s.repo.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if d == nil {
		return nil, ErrDocNotFound
	}
	return d, nil
}

func (s *Service) Create(dto CreateDocDTO) (*DocItem, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	d := &DocItem{
		Title:    dto.Title,
		Type:     dto.Type,
		URL:      dto.URL,
		Content:  dto.Content,
		ObjectID: dto.ObjectID,
	}
	if err := s.repo.Create(d); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return d, nil
}

// Upload validates and stores a file, then records it as a document.
// Title falls back to the original filename.
func (s *Service) Upload(originalName, title string, objectID *int64, file io.Reader) (*DocItem, error) {
	if objectID != nil && *objectID <= 0 {
		return nil, ValidationError{Msg: "invalid objectId"}
	}

	storedName, docType, err := s.uploader.Save(originalName, file)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = originalName
	}
	if len(title) > 255 {
		title = title[:255]
	}

	url := "/api/files/" + storedName
	d := &DocItem{
		Title:    title,
		Type:     docType,
		URL:      &url,
		ObjectID: objectID,
	}
	if err := s.repo.Create(d); err != nil {
		// Roll the file back so failed inserts do not leak uploads.
		_ = s.uploader.Delete(storedName)
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return d, nil
}

func (s *Service) Update(id int64, dto UpdateDocDTO) (*DocItem, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	d, err := s.repo.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if d == nil {
		return nil, ErrDocNotFound
	}

	if dto.Title != nil {
		d.Title = *dto.Title
	}
	if dto.Type != nil {
		d.Type = *dto.Type
	}
	if dto.URL != nil {
		d.URL = dto.URL
	}
	if dto.Content != nil {
		d.Content = dto.Content
	}
	if dto.ObjectID != nil {
		d.ObjectID = dto.ObjectID
	}

	if err := s.repo.Update(d); err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	return d, nil
}

// Delete removes the document and, for uploaded files, its stored file.
func (s *Service) Delete(id int64) error {
	d, err := s.repo.Get(id)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if d == nil {
		return ErrDocNotFound
	}

	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if d.URL != nil {
		if storedName, ok := strings.CutPrefix(*d.URL, "/api/files/"); ok {
			_ = s.uploader.Delete(storedName)
		}
	}
	return nil
}
