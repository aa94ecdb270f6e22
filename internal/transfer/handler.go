package transfer

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

type RouteRequestForm struct {
	RecipientIDs []uint64 `json:"recipient_ids" binding:"required,min=1"`
	Status       string   `json:"status" binding:"omitempty,oneof=sent acknowledged closed"`
	Note         *string  `json:"note"`
	Signature    *string  `json:"signature"`
}

// RouteDocument fans a document out to a set of recipients in one call.
// Partial failures come back in the response body, never as a rollback.
func (h *Handler) RouteDocument(c *gin.Context) {
	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid document id", err))
		return
	}

	var form RouteRequestForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	result, err := h.service.Route(c.Request.Context(), docID, userID.(uint64), RouteRequest{
		RecipientIDs: form.RecipientIDs,
		Status:       domain.TransferStatus(form.Status),
		Note:         form.Note,
		Signature:    form.Signature,
	})
	if err != nil {
		c.Error(err)
		return
	}

	status := http.StatusCreated
	if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

type AcknowledgeRequest struct {
	Signature string `json:"signature" binding:"required,min=1"`
}

func (h *Handler) Acknowledge(c *gin.Context) {
	transferID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid transfer id", err))
		return
	}

	var form AcknowledgeRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	t, err := h.service.Acknowledge(c.Request.Context(), transferID, userID.(uint64), form.Signature)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, t)
}

func (h *Handler) Close(c *gin.Context) {
	transferID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid transfer id", err))
		return
	}

	userID, _ := c.Get("user_id")

	t, err := h.service.Close(c.Request.Context(), transferID, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, t)
}

func (h *Handler) Delete(c *gin.Context) {
	transferID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid transfer id", err))
		return
	}

	userID, _ := c.Get("user_id")

	if err := h.service.Delete(c.Request.Context(), transferID, userID.(uint64)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "transfer deleted"})
}
