package user

import (
	"context"
	"correspondence-tracker/internal/access"
	"correspondence-tracker/internal/domain"
	"correspondence-tracker/internal/errors"
	defError "errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service defines the interface for user business logic
type Service interface {
	Register(ctx context.Context, user *domain.User) error
	Login(ctx context.Context, email, password string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uint64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.SafeUser, error)
	AdminCreate(ctx context.Context, actor *domain.User, user *domain.User) error
	AdminUpdate(ctx context.Context, actor *domain.User, id uint64, input AdminUpdateInput) (*domain.User, error)
	AdminDelete(ctx context.Context, actor *domain.User, id uint64) error
}

// AdminUpdateInput holds partial user updates; nil fields stay untouched.
type AdminUpdateInput struct {
	Name      *string
	Position  *string
	Role      *domain.Role
	ServiceID *uint64
	IsActive  *bool
}

// DefaultService implements Service
type DefaultService struct {
	repository UserRepository
}

// NewService creates a new user service
func NewService(repository UserRepository) Service {
	return &DefaultService{repository: repository}
}

// Register registers a new user
func (s *DefaultService) Register(ctx context.Context, user *domain.User) error {
	// Check if user with email already exists
	_, err := s.repository.FindByEmail(ctx, user.Email)
	if err != nil && !defError.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil {
		return errors.UnprocessableEntity("User already registered", nil)
	}

	// Hash the password before saving
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.UnprocessableEntity("Could not hash password", err)
	}
	user.PasswordHash = string(hashedPassword)
	user.IsActive = true
	if user.Role == "" {
		user.Role = domain.RoleUser
	}

	return s.repository.Create(ctx, user)
}

// Login authenticates a user
func (s *DefaultService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.repository.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.Unauthorized("User not found", err)
	}

	if !user.IsActive {
		return nil, errors.Unauthorized("User is not active", nil)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return nil, errors.Unauthorized("Wrong password", err)
	}

	return user, nil
}

// GetUserByID gets a user by ID
func (s *DefaultService) GetUserByID(ctx context.Context, id uint64) (*domain.User, error) {
	user, err := s.repository.FindByID(ctx, id)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("User not found", err)
		}
		return nil, err
	}
	return user, nil
}

// ListUsers returns the user directory joined with services.
func (s *DefaultService) ListUsers(ctx context.Context) ([]domain.SafeUser, error) {
	users, err := s.repository.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.SafeUser, 0, len(users))
	for _, u := range users {
		result = append(result, u.ToSafeUser())
	}
	return result, nil
}

func (s *DefaultService) AdminCreate(ctx context.Context, actor *domain.User, user *domain.User) error {
	if !access.CanManageDirectory(actor) {
		return errors.Forbidden("Only admins can manage users", nil)
	}
	return s.Register(ctx, user)
}

func (s *DefaultService) AdminUpdate(ctx context.Context, actor *domain.User, id uint64, input AdminUpdateInput) (*domain.User, error) {
	if !access.CanManageDirectory(actor) {
		return nil, errors.Forbidden("Only admins can manage users", nil)
	}

	user, err := s.repository.FindByID(ctx, id)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("User not found", err)
		}
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Position != nil {
		user.Position = *input.Position
	}
	if input.Role != nil {
		if *input.Role != domain.RoleUser && *input.Role != domain.RoleAdmin {
			return nil, errors.BadRequest("Unknown role", nil)
		}
		user.Role = *input.Role
	}
	if input.ServiceID != nil {
		user.ServiceID = input.ServiceID
		user.Service = nil
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.repository.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *DefaultService) AdminDelete(ctx context.Context, actor *domain.User, id uint64) error {
	if !access.CanManageDirectory(actor) {
		return errors.Forbidden("Only admins can manage users", nil)
	}

	if _, err := s.repository.FindByID(ctx, id); err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("User not found", err)
		}
		return err
	}

	return s.repository.Delete(ctx, id)
}
