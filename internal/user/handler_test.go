package user

import (
	"bytes"
	"context"
	"correspondence-tracker/internal/config"
	"correspondence-tracker/internal/domain"
	"correspondence-tracker/internal/errors"
	"correspondence-tracker/internal/middleware"
	"correspondence-tracker/redis"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	redisLib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

var miniRedis *miniredis.Miniredis

// MockService is a mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockService) GetUserByID(ctx context.Context, id uint64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockService) ListUsers(ctx context.Context) ([]domain.SafeUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return []domain.SafeUser{}, args.Error(1)
	}
	return args.Get(0).([]domain.SafeUser), args.Error(1)
}

func (m *MockService) AdminCreate(ctx context.Context, actor *domain.User, user *domain.User) error {
	args := m.Called(ctx, actor, user)
	return args.Error(0)
}

func (m *MockService) AdminUpdate(ctx context.Context, actor *domain.User, id uint64, input AdminUpdateInput) (*domain.User, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockService) AdminDelete(ctx context.Context, actor *domain.User, id uint64) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler(zap.NewNop()))

	if config.AppConfig.JWTSecret == "" {
		config.AppConfig.JWTSecret = "test-secret"
	}

	// Initialize miniredis for testing if not already done
	if miniRedis == nil {
		var err error
		miniRedis, err = miniredis.Run()
		if err != nil {
			panic(err)
		}
	}

	if redis.RedisClient == nil {
		redis.RedisClient = redisLib.NewClient(&redisLib.Options{
			Addr: miniRedis.Addr(),
		})
	}

	return router
}

func TestRegister_Success(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	mockService.On("Register", mock.Anything, mock.MatchedBy(func(user *domain.User) bool {
		return user.Name == "John Doe" &&
			user.Email == "john@example.com" &&
			user.Password == "password123" &&
			user.Role == domain.RoleUser
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.User).ID = 1
	})

	router.POST("/register", handler.Register)

	payload := FormRegister{
		Name:     "John Doe",
		Email:    "john@example.com",
		Password: "password123",
		Position: "Archivist",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.NotNil(t, response["user"])
	mockService.AssertExpectations(t)
}

func TestRegister_ShortPassword(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	router.POST("/register", handler.Register)

	payload := FormRegister{
		Name:     "John Doe",
		Email:    "john@example.com",
		Password: "123",
		Position: "Archivist",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Register")
}

func TestRegister_InvalidEmail(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	router.POST("/register", handler.Register)

	payload := FormRegister{
		Name:     "John Doe",
		Email:    "invalid-email",
		Password: "password123",
		Position: "Archivist",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_Success(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	user := &domain.User{
		ID:       1,
		Name:     "John Doe",
		Email:    "john@example.com",
		IsActive: true,
	}

	mockService.On("Login", mock.Anything, "john@example.com", "password123").Return(user, nil)

	router.POST("/login", handler.Login)

	payload := FormLogin{
		Email:    "john@example.com",
		Password: "password123",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.NotNil(t, response["access_token"])
	assert.NotNil(t, response["user"])
	mockService.AssertExpectations(t)
}

func TestLogin_WrongCredentials(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	mockService.On("Login", mock.Anything, "john@example.com", "wrong").
		Return(nil, errors.Unauthorized("Wrong password", nil))

	router.POST("/login", handler.Login)

	payload := FormLogin{
		Email:    "john@example.com",
		Password: "wrong",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertExpectations(t)
}

func TestLogout_Success(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	router.POST("/logout", func(c *gin.Context) {
		c.Set("jwt_token", "some_token")
		handler.Logout(c)
	})

	req := httptest.NewRequest("POST", "/logout", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGetProfile_Success(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	user := &domain.User{
		ID:       1,
		Name:     "John Doe",
		Email:    "john@example.com",
		Position: "Archivist",
		IsActive: true,
	}

	mockService.On("GetUserByID", mock.Anything, uint64(1)).Return(user, nil)

	router.GET("/profile", func(c *gin.Context) {
		c.Set("user_id", uint64(1))
		handler.GetProfile(c)
	})

	req := httptest.NewRequest("GET", "/profile", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response domain.SafeUser
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "John Doe", response.Name)
	mockService.AssertExpectations(t)
}

func TestGetProfile_NoUserID(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	router.GET("/profile", handler.GetProfile)

	req := httptest.NewRequest("GET", "/profile", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminUpdate_Success(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	admin := &domain.User{ID: 1, Role: domain.RoleAdmin}
	updated := &domain.User{ID: 2, Name: "Renamed", Role: domain.RoleUser}

	mockService.On("AdminUpdate", mock.Anything, admin, uint64(2), mock.MatchedBy(func(input AdminUpdateInput) bool {
		return input.Name != nil && *input.Name == "Renamed"
	})).Return(updated, nil)

	router.PUT("/admin/users/:id", func(c *gin.Context) {
		c.Set("current_user", admin)
		handler.AdminUpdate(c)
	})

	body, _ := json.Marshal(map[string]any{"name": "Renamed"})
	req := httptest.NewRequest("PUT", "/admin/users/2", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestAdminUpdate_UnknownRoleRejected(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	router.PUT("/admin/users/:id", func(c *gin.Context) {
		c.Set("current_user", &domain.User{ID: 1, Role: domain.RoleAdmin})
		handler.AdminUpdate(c)
	})

	body, _ := json.Marshal(map[string]any{"role": "superuser"})
	req := httptest.NewRequest("PUT", "/admin/users/2", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "AdminUpdate")
}
