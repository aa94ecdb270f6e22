package document

import (
	"correspondence-tracker/internal/blob"
	"correspondence-tracker/internal/domain"
	"correspondence-tracker/internal/errors"
	"correspondence-tracker/internal/transfer"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const maxAttachmentSize = 5 << 20 // 5 MB

var allowedAttachmentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

type Handler struct {
	service Service
	blobs   blob.Store
}

func NewHandler(service Service, blobs blob.Store) *Handler {
	return &Handler{service: service, blobs: blobs}
}

// Create handles both draft and routed creation from one multipart form.
// Presence of recipient_ids selects the routed path.
func (h *Handler) Create(c *gin.Context) {
	userID, _ := c.Get("user_id")

	input, apiErr := h.bindDocumentForm(c)
	if apiErr != nil {
		c.Error(apiErr)
		return
	}

	recipientIDs, err := parseRecipientIDs(c.PostForm("recipient_ids"))
	if err != nil {
		c.Error(errors.BadRequest("Invalid recipient_ids", err))
		return
	}

	if len(recipientIDs) == 0 {
		doc, err := h.service.CreateDraft(c.Request.Context(), userID.(uint64), *input)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, doc)
		return
	}

	var note *string
	if v, ok := c.GetPostForm("transfer_note"); ok {
		note = &v
	}

	result, err := h.service.CreateRouted(c.Request.Context(), userID.(uint64), *input, transfer.RouteRequest{
		RecipientIDs: recipientIDs,
		Note:         note,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) Update(c *gin.Context) {
	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid document id", err))
		return
	}

	userID, _ := c.Get("user_id")

	var input UpdateInput
	if v, ok := c.GetPostForm("subject"); ok {
		input.Subject = &v
	}
	if v, ok := c.GetPostForm("kind"); ok {
		kind := domain.DocumentKind(v)
		if kind != domain.KindIncoming && kind != domain.KindOutgoing {
			c.Error(errors.BadRequest(fmt.Sprintf("Unknown kind %q", v), nil))
			return
		}
		input.Kind = &kind
	}
	if v, ok := c.GetPostForm("received_date"); ok {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.Error(errors.BadRequest("Invalid received_date, expected YYYY-MM-DD", err))
			return
		}
		input.ReceivedDate = &d
	}
	if v, ok := c.GetPostForm("external_sender_name"); ok {
		input.ExternalSenderName = &v
	}
	if v, ok := c.GetPostForm("target_service_id"); ok {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.Error(errors.BadRequest("Invalid target_service_id", err))
			return
		}
		input.TargetServiceID = &id
	}
	if v, ok := c.GetPostForm("urgent"); ok {
		urgent := v == "true" || v == "1"
		input.Urgent = &urgent
	}
	if v, ok := c.GetPostForm("note"); ok {
		input.Note = &v
	}

	if file, err := c.FormFile("attachment"); err == nil {
		handle, apiErr := h.saveAttachment(c, file)
		if apiErr != nil {
			c.Error(apiErr)
			return
		}
		input.Attachment = &handle
	}

	doc, err := h.service.Update(c.Request.Context(), docID, userID.(uint64), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Delete(c *gin.Context) {
	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid document id", err))
		return
	}

	userID, _ := c.Get("user_id")

	if err := h.service.Delete(c.Request.Context(), docID, userID.(uint64)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "document deleted"})
}

func (h *Handler) Show(c *gin.Context) {
	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid document id", err))
		return
	}

	actor := currentUser(c)

	doc, err := h.service.Get(c.Request.Context(), docID, actor)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Download(c *gin.Context) {
	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid document id", err))
		return
	}

	actor := currentUser(c)

	rc, name, err := h.service.Download(c.Request.Context(), docID, actor)
	if err != nil {
		c.Error(err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	io.Copy(c.Writer, rc)
}

func (h *Handler) bindDocumentForm(c *gin.Context) (*DocumentInput, *errors.APIError) {
	subject := c.PostForm("subject")
	if subject == "" {
		return nil, errors.BadRequest("Subject is required", nil)
	}

	input := DocumentInput{
		Subject: subject,
		Kind:    domain.DocumentKind(c.DefaultPostForm("kind", string(domain.KindIncoming))),
		Urgent:  c.PostForm("urgent") == "true" || c.PostForm("urgent") == "1",
	}

	if input.Kind != domain.KindIncoming && input.Kind != domain.KindOutgoing {
		return nil, errors.BadRequest(fmt.Sprintf("Unknown kind %q", input.Kind), nil)
	}

	if v := c.PostForm("received_date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, errors.BadRequest("Invalid received_date, expected YYYY-MM-DD", err)
		}
		input.ReceivedDate = d
	}
	if v, ok := c.GetPostForm("external_sender_name"); ok && v != "" {
		input.ExternalSenderName = &v
	}
	if v := c.PostForm("target_service_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, errors.BadRequest("Invalid target_service_id", err)
		}
		input.TargetServiceID = &id
	}
	if v, ok := c.GetPostForm("note"); ok && v != "" {
		input.Note = &v
	}

	if file, err := c.FormFile("attachment"); err == nil {
		handle, apiErr := h.saveAttachment(c, file)
		if apiErr != nil {
			return nil, apiErr
		}
		input.Attachment = &handle
	}

	return &input, nil
}

// saveAttachment enforces the content-type/size allow-list and stores the
// blob. A failed store is retried once before surfacing a StorageError;
// nothing is written to the database until the blob is durable.
func (h *Handler) saveAttachment(c *gin.Context, file *multipart.FileHeader) (string, *errors.APIError) {
	if file.Size > maxAttachmentSize {
		return "", errors.BadRequest("Attachment exceeds the 5 MB limit", nil)
	}

	contentType := file.Header.Get("Content-Type")
	if !allowedAttachmentTypes[contentType] {
		return "", errors.BadRequest(
			fmt.Sprintf("Unsupported attachment type %q, allowed: PDF, JPEG, PNG", contentType), nil)
	}

	var handle string
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		src, err := file.Open()
		if err != nil {
			lastErr = err
			continue
		}
		handle, err = h.blobs.Store(c.Request.Context(), file.Filename, src)
		src.Close()
		if err == nil {
			return handle, nil
		}
		lastErr = err
	}

	return "", errors.Storage("Failed to store attachment", lastErr)
}

func currentUser(c *gin.Context) *domain.User {
	if v, exists := c.Get("current_user"); exists {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

func parseRecipientIDs(raw string) ([]uint64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
