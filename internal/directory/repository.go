package directory

import (
	"context"
	"correspondence-tracker/internal/domain"
	"time"

	"gorm.io/gorm"
)

type ServiceRepository interface {
	Create(ctx context.Context, svc *domain.Service) error
	FindByID(ctx context.Context, id uint64) (*domain.Service, error)
	FindByName(ctx context.Context, name string) (*domain.Service, error)
	List(ctx context.Context) ([]domain.Service, error)
	Update(ctx context.Context, svc *domain.Service) error
	Delete(ctx context.Context, id uint64) error
	CountUsers(ctx context.Context, id uint64) (int64, error)
	ListUsers(ctx context.Context, id uint64) ([]domain.User, error)
}

type ServiceRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new service directory repository
func NewRepository(db *gorm.DB) ServiceRepository {
	return &ServiceRepositoryImpl{db: db}
}

func (r *ServiceRepositoryImpl) Create(ctx context.Context, svc *domain.Service) error {
	now := time.Now().UTC()
	svc.CreatedAt = now
	svc.UpdatedAt = now
	return r.db.WithContext(ctx).Create(svc).Error
}

func (r *ServiceRepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Service, error) {
	var svc domain.Service
	err := r.db.WithContext(ctx).First(&svc, id).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *ServiceRepositoryImpl) FindByName(ctx context.Context, name string) (*domain.Service, error) {
	var svc domain.Service
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&svc).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *ServiceRepositoryImpl) List(ctx context.Context) ([]domain.Service, error) {
	var services []domain.Service
	err := r.db.WithContext(ctx).Order("name ASC").Find(&services).Error
	return services, err
}

func (r *ServiceRepositoryImpl) Update(ctx context.Context, svc *domain.Service) error {
	svc.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(svc).Error
}

func (r *ServiceRepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&domain.Service{}, id).Error
}

func (r *ServiceRepositoryImpl) CountUsers(ctx context.Context, id uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("service_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *ServiceRepositoryImpl) ListUsers(ctx context.Context, id uint64) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).
		Where("service_id = ?", id).
		Order("name ASC").
		Find(&users).Error
	return users, err
}
