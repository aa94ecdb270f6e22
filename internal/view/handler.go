package view

import (
	"correspondence-tracker/internal/domain"
	"correspondence-tracker/internal/errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Inbox(c *gin.Context) {
	userID, _ := c.Get("user_id")

	items, err := h.service.Inbox(c.Request.Context(), userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *Handler) Outbox(c *gin.Context) {
	userID, _ := c.Get("user_id")

	items, err := h.service.Outbox(c.Request.Context(), userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *Handler) Drafts(c *gin.Context) {
	userID, _ := c.Get("user_id")

	items, err := h.service.Drafts(c.Request.Context(), userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, items)
}

// AcknowledgedByService serves the dashboard for the caller's own service.
func (h *Handler) AcknowledgedByService(c *gin.Context) {
	actor := currentUser(c)
	if actor == nil || actor.ServiceID == nil {
		c.Error(errors.Forbidden("You are not attached to a service", nil))
		return
	}

	items, err := h.service.AcknowledgedByService(c.Request.Context(), *actor.ServiceID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *Handler) AcknowledgedBySender(c *gin.Context) {
	userID, _ := c.Get("user_id")

	items, err := h.service.AcknowledgedBySender(c.Request.Context(), userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func currentUser(c *gin.Context) *domain.User {
	if v, exists := c.Get("current_user"); exists {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
