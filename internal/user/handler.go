package user

import (
	"correspondence-tracker/internal/auth"
	"correspondence-tracker/internal/domain"
	"correspondence-tracker/internal/errors"
	"correspondence-tracker/redis"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for users
type Handler struct {
	service Service
}

// NewHandler creates a new user handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// FormLogin represents login form data
type FormLogin struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// FormRegister represents registration form data
type FormRegister struct {
	Name      string  `json:"name" binding:"required"`
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=8"`
	Position  string  `json:"position" binding:"required"`
	ServiceID *uint64 `json:"service_id"`
}

// Register handles user registration
func (h *Handler) Register(c *gin.Context) {
	var form FormRegister
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	user := &domain.User{
		Name:      form.Name,
		Email:     form.Email,
		Password:  form.Password,
		Position:  form.Position,
		ServiceID: form.ServiceID,
		Role:      domain.RoleUser,
	}

	if err := h.service.Register(c.Request.Context(), user); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.ToSafeUser()})
}

// Login handles user login
func (h *Handler) Login(c *gin.Context) {
	var form FormLogin
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	user, err := h.service.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		c.Error(err)
		return
	}

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}

	if err := redis.StoreSession(c.Request.Context(), token, user.ID); err != nil {
		c.Error(errors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"user":         user.ToSafeUser(),
	})
}

// Logout revokes the caller's session token.
func (h *Handler) Logout(c *gin.Context) {
	token, _ := c.Get("jwt_token")
	if tokenStr, ok := token.(string); ok {
		redis.DeleteSession(c.Request.Context(), tokenStr)
	}
	c.Status(http.StatusNoContent)
}

// GetProfile handles getting the current user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.Error(errors.Unauthorized("user not found", nil))
		return
	}

	user, err := h.service.GetUserByID(c.Request.Context(), userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user.ToSafeUser())
}

// ListUsers returns the full directory for routing pickers.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *Handler) AdminCreate(c *gin.Context) {
	var form FormRegister
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	user := &domain.User{
		Name:      form.Name,
		Email:     form.Email,
		Password:  form.Password,
		Position:  form.Position,
		ServiceID: form.ServiceID,
		Role:      domain.RoleUser,
	}

	if err := h.service.AdminCreate(c.Request.Context(), currentUser(c), user); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.ToSafeUser()})
}

type AdminUpdateForm struct {
	Name      *string `json:"name"`
	Position  *string `json:"position"`
	Role      *string `json:"role" binding:"omitempty,oneof=user admin"`
	ServiceID *uint64 `json:"service_id"`
	IsActive  *bool   `json:"is_active"`
}

func (h *Handler) AdminUpdate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid user id", err))
		return
	}

	var form AdminUpdateForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	input := AdminUpdateInput{
		Name:      form.Name,
		Position:  form.Position,
		ServiceID: form.ServiceID,
		IsActive:  form.IsActive,
	}
	if form.Role != nil {
		role := domain.Role(*form.Role)
		input.Role = &role
	}

	user, err := h.service.AdminUpdate(c.Request.Context(), currentUser(c), id, input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user.ToSafeUser())
}

func (h *Handler) AdminDelete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid user id", err))
		return
	}

	if err := h.service.AdminDelete(c.Request.Context(), currentUser(c), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

func currentUser(c *gin.Context) *domain.User {
	if v, exists := c.Get("current_user"); exists {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
