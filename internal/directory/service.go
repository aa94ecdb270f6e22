package directory

import (
	"context"
	"correspondence-tracker/internal/access"
	"correspondence-tracker/internal/domain"
	"correspondence-tracker/internal/errors"
	defError "errors"

	"gorm.io/gorm"
)

// Service manages the organizational unit directory. No state machine
// here, only admin-gated CRUD.
type Service interface {
	List(ctx context.Context) ([]domain.Service, error)
	Create(ctx context.Context, actor *domain.User, name string) (*domain.Service, error)
	Rename(ctx context.Context, actor *domain.User, id uint64, name string) (*domain.Service, error)
	Delete(ctx context.Context, actor *domain.User, id uint64) error
	ListMembers(ctx context.Context, id uint64) ([]domain.SafeUser, error)
}

type DefaultService struct {
	repository ServiceRepository
}

func NewService(repository ServiceRepository) Service {
	return &DefaultService{repository: repository}
}

func (s *DefaultService) List(ctx context.Context) ([]domain.Service, error) {
	return s.repository.List(ctx)
}

func (s *DefaultService) Create(ctx context.Context, actor *domain.User, name string) (*domain.Service, error) {
	if !access.CanManageDirectory(actor) {
		return nil, errors.Forbidden("Only admins can manage services", nil)
	}
	if name == "" {
		return nil, errors.BadRequest("Service name is required", nil)
	}

	if _, err := s.repository.FindByName(ctx, name); err == nil {
		return nil, errors.Conflict("A service with this name already exists", nil)
	}

	svc := &domain.Service{Name: name}
	if err := s.repository.Create(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *DefaultService) Rename(ctx context.Context, actor *domain.User, id uint64, name string) (*domain.Service, error) {
	if !access.CanManageDirectory(actor) {
		return nil, errors.Forbidden("Only admins can manage services", nil)
	}
	if name == "" {
		return nil, errors.BadRequest("Service name is required", nil)
	}

	svc, err := s.repository.FindByID(ctx, id)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Service not found", err)
		}
		return nil, err
	}

	svc.Name = name
	if err := s.repository.Update(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *DefaultService) Delete(ctx context.Context, actor *domain.User, id uint64) error {
	if !access.CanManageDirectory(actor) {
		return errors.Forbidden("Only admins can manage services", nil)
	}

	if _, err := s.repository.FindByID(ctx, id); err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Service not found", err)
		}
		return err
	}

	count, err := s.repository.CountUsers(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.Conflict("Service still has attached users", nil)
	}

	return s.repository.Delete(ctx, id)
}

func (s *DefaultService) ListMembers(ctx context.Context, id uint64) ([]domain.SafeUser, error) {
	if _, err := s.repository.FindByID(ctx, id); err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Service not found", err)
		}
		return nil, err
	}

	users, err := s.repository.ListUsers(ctx, id)
	if err != nil {
		return nil, err
	}

	members := make([]domain.SafeUser, 0, len(users))
	for _, u := range users {
		members = append(members, u.ToSafeUser())
	}
	return members, nil
}
