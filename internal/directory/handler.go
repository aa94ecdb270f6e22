package directory

import (
	"correspondence-tracker/internal/domain"
	"correspondence-tracker/internal/errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type ServiceForm struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

func (h *Handler) List(c *gin.Context) {
	services, err := h.service.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, services)
}

func (h *Handler) Create(c *gin.Context) {
	var form ServiceForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	svc, err := h.service.Create(c.Request.Context(), currentUser(c), form.Name)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, svc)
}

func (h *Handler) Rename(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid service id", err))
		return
	}

	var form ServiceForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	svc, err := h.service.Rename(c.Request.Context(), currentUser(c), id, form.Name)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, svc)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid service id", err))
		return
	}

	if err := h.service.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "service deleted"})
}

func (h *Handler) ListMembers(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid service id", err))
		return
	}

	members, err := h.service.ListMembers(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, members)
}

func currentUser(c *gin.Context) *domain.User {
	if v, exists := c.Get("current_user"); exists {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
