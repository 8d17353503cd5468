package employee

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/core/common/validation"
	"github.com/frahmantamala/employee-directory/internal/core/events"
	"github.com/frahmantamala/employee-directory/internal/storage"
	"github.com/google/uuid"
)

type RepositoryAPI interface {
	List(ctx context.Context, department string) ([]*Employee, error)
	GetByID(ctx context.Context, id string) (*Employee, error)
	GetByEmail(ctx context.Context, email string) (*Employee, error)
	Create(ctx context.Context, e *Employee) error
	Update(ctx context.Context, e *Employee) error
	Delete(ctx context.Context, id string) error
}

// Publisher receives lifecycle events after a change is persisted.
type Publisher interface {
	Publish(ctx context.Context, event events.Event)
}

type Service struct {
	repo          RepositoryAPI
	images        storage.ImageStore
	maxImageBytes int64
	now           func() time.Time
	logger        *slog.Logger
	publisher     Publisher
}

func NewService(repo RepositoryAPI, images storage.ImageStore, maxImageBytes int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:          repo,
		images:        images,
		maxImageBytes: maxImageBytes,
		now:           time.Now,
		logger:        logger,
	}
}

// SetPublisher enables lifecycle events. A nil publisher disables them.
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

func (s *Service) publish(ctx context.Context, eventType string, e *Employee) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, events.NewEmployeeEvent(eventType, e.ID, e.Department))
}

// Create validates the record and the optional image, stores the image, then
// persists the employee.
func (s *Service) Create(ctx context.Context, dto CreateEmployeeDTO, img *storage.Image) (*Employee, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if img != nil {
		if err := storage.ValidateImage(*img, s.maxImageBytes); err != nil {
			return nil, err
		}
	}

	e := &Employee{
		ID:         uuid.NewString(),
		FullName:   strings.TrimSpace(dto.FullName),
		Position:   strings.TrimSpace(dto.Position),
		Department: dto.Department,
		Email:      validation.NormalizeEmail(dto.Email),
	}

	if err := s.ensureEmailFree(ctx, e.Email, ""); err != nil {
		return nil, err
	}

	if img != nil {
		ref, err := s.saveImage(ctx, img)
		if err != nil {
			return nil, err
		}
		e.Image = &ref
	}

	if err := s.repo.Create(ctx, e); err != nil {
		s.discardImage(ctx, e.Image)
		if errors.Is(err, ErrDuplicate) {
			return nil, internal.ErrDuplicateEmployee
		}
		s.logger.Error("failed to create employee", "error", err)
		return nil, internal.NewPersistenceError(err)
	}

	s.logger.Info("employee created", "employee_id", e.ID, "department", e.Department)
	s.publish(ctx, events.EmployeeCreated, e)
	return e, nil
}

// List never returns a nil slice.
func (s *Service) List(ctx context.Context, department string) ([]*Employee, error) {
	employees, err := s.repo.List(ctx, department)
	if err != nil {
		s.logger.Error("failed to list employees", "error", err)
		return nil, internal.NewPersistenceError(err)
	}
	if employees == nil {
		employees = []*Employee{}
	}
	return employees, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Employee, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, internal.NewPersistenceError(err)
	}
	return e, nil
}

// Update applies the present fields. A new image replaces the old reference.
func (s *Service) Update(ctx context.Context, id string, dto UpdateEmployeeDTO, img *storage.Image) (*Employee, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if img != nil {
		if err := storage.ValidateImage(*img, s.maxImageBytes); err != nil {
			return nil, err
		}
	}

	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previousEmail := e.Email
	dto.apply(e)
	if e.Email != previousEmail {
		if err := s.ensureEmailFree(ctx, e.Email, e.ID); err != nil {
			return nil, err
		}
	}

	if img != nil {
		ref, err := s.saveImage(ctx, img)
		if err != nil {
			return nil, err
		}
		e.Image = &ref
	}

	if err := s.repo.Update(ctx, e); err != nil {
		if img != nil {
			s.discardImage(ctx, e.Image)
		}
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, internal.ErrEmployeeNotFound
		case errors.Is(err, ErrDuplicate):
			return nil, internal.ErrDuplicateEmployee
		}
		s.logger.Error("failed to update employee", "employee_id", id, "error", err)
		return nil, internal.NewPersistenceError(err)
	}

	s.publish(ctx, events.EmployeeUpdated, e)
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.ErrEmployeeNotFound
		}
		s.logger.Error("failed to delete employee", "employee_id", id, "error", err)
		return internal.NewPersistenceError(err)
	}
	s.logger.Info("employee deleted", "employee_id", id)
	s.publish(ctx, events.EmployeeDeleted, &Employee{ID: id})
	return nil
}

// ensureEmailFree is advisory; the unique index is authoritative.
func (s *Service) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return internal.ErrDuplicateEmployee
		}
		return nil
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return internal.NewPersistenceError(err)
	}
}

func (s *Service) saveImage(ctx context.Context, img *storage.Image) (string, error) {
	if s.images == nil {
		return "", internal.NewInternalError("image storage is not configured", nil)
	}
	name := storage.ObjectName(s.now(), img.Filename)
	ref, err := s.images.Save(ctx, name, img.ContentType, img.Body)
	if err != nil {
		s.logger.Error("failed to store image", "name", name, "error", err)
		return "", internal.NewInternalError("Server error", err)
	}
	return ref, nil
}

// discardImage removes an image whose record was never written.
func (s *Service) discardImage(ctx context.Context, ref *string) {
	if ref == nil || s.images == nil {
		return
	}
	if err := s.images.Remove(context.WithoutCancel(ctx), *ref); err != nil {
		s.logger.Warn("failed to remove orphaned image", "ref", *ref, "error", err)
	}
}
