package document

import (
	"context"
	"correspondence-tracker/internal/access"
	"correspondence-tracker/internal/blob"
	"correspondence-tracker/internal/domain"
	"correspondence-tracker/internal/errors"
	"correspondence-tracker/internal/transfer"
	defError "errors"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	CreateDraft(ctx context.Context, authorID uint64, input DocumentInput) (*DocumentResponse, error)
	CreateRouted(ctx context.Context, authorID uint64, input DocumentInput, route transfer.RouteRequest) (*CreateRoutedResult, error)
	Update(ctx context.Context, docID uint64, actorID uint64, input UpdateInput) (*DocumentResponse, error)
	Delete(ctx context.Context, docID uint64, actorID uint64) error
	Get(ctx context.Context, docID uint64, actor *domain.User) (*DocumentResponse, error)
	Download(ctx context.Context, docID uint64, actor *domain.User) (io.ReadCloser, string, error)
	FindByID(ctx context.Context, id uint64) (*domain.Document, error)
}

// Router is the slice of the routing ledger the document store needs for
// the create-and-route operation.
type Router interface {
	Route(ctx context.Context, docID uint64, senderID uint64, req transfer.RouteRequest) (*transfer.RouteResult, error)
}

// TransferLister resolves the transfers referencing a document, used for
// read authorization and the derived draft flag.
type TransferLister interface {
	ListByDocument(ctx context.Context, documentID uint64) ([]domain.Transfer, error)
}

type DefaultService struct {
	repository DocumentRepository
	transfers  TransferLister
	router     Router
	blobs      blob.Store
	logger     *zap.Logger
}

func NewService(
	repository DocumentRepository,
	transfers TransferLister,
	router Router,
	blobs blob.Store,
	logger *zap.Logger,
) *DefaultService {
	return &DefaultService{
		repository: repository,
		transfers:  transfers,
		router:     router,
		blobs:      blobs,
		logger:     logger,
	}
}

// DocumentInput carries the writable fields of a document. Attachment is a
// blob handle already persisted by the boundary layer.
type DocumentInput struct {
	Subject            string
	Kind               domain.DocumentKind
	ReceivedDate       time.Time
	Attachment         *string
	ExternalSenderName *string
	TargetServiceID    *uint64
	Urgent             bool
	Note               *string
}

// UpdateInput holds partial document updates; nil fields stay untouched.
type UpdateInput struct {
	Subject            *string
	Kind               *domain.DocumentKind
	ReceivedDate       *time.Time
	Attachment         *string
	ExternalSenderName *string
	TargetServiceID    *uint64
	Urgent             *bool
	Note               *string
}

// DocumentResponse is a document plus its derived draft flag.
type DocumentResponse struct {
	domain.Document
	Draft bool `json:"draft"`
}

// CreateRoutedResult reports the created document together with the
// fan-out outcome. A document that was stored but could not be routed is a
// partial success, surfaced via RouteError.
type CreateRoutedResult struct {
	Document   DocumentResponse      `json:"document"`
	Route      *transfer.RouteResult `json:"route,omitempty"`
	RouteError string                `json:"route_error,omitempty"`
}

func (s *DefaultService) CreateDraft(ctx context.Context, authorID uint64, input DocumentInput) (*DocumentResponse, error) {
	if input.Subject == "" {
		return nil, errors.BadRequest("Subject is required", nil)
	}

	doc := s.toDocument(authorID, input)
	if err := s.repository.Create(ctx, doc); err != nil {
		return nil, err
	}

	return &DocumentResponse{Document: *doc, Draft: true}, nil
}

func (s *DefaultService) CreateRouted(ctx context.Context, authorID uint64, input DocumentInput, route transfer.RouteRequest) (*CreateRoutedResult, error) {
	if input.Subject == "" {
		return nil, errors.BadRequest("Subject is required", nil)
	}
	if input.TargetServiceID == nil {
		return nil, errors.BadRequest("Target service is required for a routed document", nil)
	}
	if input.Attachment == nil || *input.Attachment == "" {
		return nil, errors.BadRequest("Attachment is required for a routed document", nil)
	}
	if len(route.RecipientIDs) == 0 {
		return nil, errors.BadRequest("Recipient list cannot be empty", nil)
	}

	doc := s.toDocument(authorID, input)
	if err := s.repository.Create(ctx, doc); err != nil {
		return nil, err
	}

	result := &CreateRoutedResult{}
	routed, err := s.router.Route(ctx, doc.ID, authorID, route)
	if err != nil {
		// The document exists; report the failed fan-out instead of hiding it.
		result.RouteError = err.Error()
	} else {
		result.Route = routed
	}

	result.Document = DocumentResponse{Document: *doc, Draft: result.Route == nil || len(result.Route.Created) == 0}
	return result, nil
}

func (s *DefaultService) Update(ctx context.Context, docID uint64, actorID uint64, input UpdateInput) (*DocumentResponse, error) {
	doc, err := s.repository.FindByID(ctx, docID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Document not found", err)
		}
		return nil, err
	}

	if !access.CanMutateDocument(actorID, doc) {
		return nil, errors.Forbidden("Only the author can update a document", nil)
	}

	var previousAttachment *string
	if input.Subject != nil {
		if *input.Subject == "" {
			return nil, errors.BadRequest("Subject cannot be empty", nil)
		}
		doc.Subject = *input.Subject
	}
	if input.Kind != nil {
		doc.Kind = *input.Kind
	}
	if input.ReceivedDate != nil {
		doc.ReceivedDate = *input.ReceivedDate
	}
	if input.Attachment != nil {
		// The new blob is already durably stored by the boundary layer;
		// the old handle is only released after the metadata write lands.
		previousAttachment = doc.Attachment
		doc.Attachment = input.Attachment
	}
	if input.ExternalSenderName != nil {
		doc.ExternalSenderName = input.ExternalSenderName
	}
	if input.TargetServiceID != nil {
		doc.TargetServiceID = input.TargetServiceID
	}
	if input.Urgent != nil {
		doc.Urgent = *input.Urgent
	}
	if input.Note != nil {
		doc.Note = input.Note
	}

	if err := s.repository.Update(ctx, doc); err != nil {
		return nil, err
	}

	if previousAttachment != nil && *previousAttachment != "" {
		if err := s.blobs.Delete(ctx, *previousAttachment); err != nil {
			s.logger.Warn("failed to release replaced attachment",
				zap.String("handle", *previousAttachment), zap.Error(err))
		}
	}

	hasTransfers, err := s.repository.HasTransfers(ctx, docID)
	if err != nil {
		return nil, err
	}
	return &DocumentResponse{Document: *doc, Draft: !hasTransfers}, nil
}

func (s *DefaultService) Delete(ctx context.Context, docID uint64, actorID uint64) error {
	doc, err := s.repository.FindByID(ctx, docID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Document not found", err)
		}
		return err
	}

	if !access.CanMutateDocument(actorID, doc) {
		return errors.Forbidden("Only the author can delete a document", nil)
	}

	if err := s.repository.DeleteIfTransfersClosed(ctx, docID); err != nil {
		if defError.Is(err, ErrOpenTransfers) {
			return errors.Conflict("Document still has non-closed transfers", err)
		}
		return err
	}

	if doc.Attachment != nil && *doc.Attachment != "" {
		if err := s.blobs.Delete(ctx, *doc.Attachment); err != nil {
			s.logger.Warn("failed to release attachment of deleted document",
				zap.String("handle", *doc.Attachment), zap.Error(err))
		}
	}

	return nil
}

func (s *DefaultService) Get(ctx context.Context, docID uint64, actor *domain.User) (*DocumentResponse, error) {
	doc, err := s.repository.FindByID(ctx, docID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Document not found", err)
		}
		return nil, err
	}

	transfers, err := s.transfers.ListByDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	if !access.CanReadDocument(actor, doc, transfers) {
		return nil, errors.Forbidden("You are not allowed to read this document", nil)
	}

	return &DocumentResponse{Document: *doc, Draft: len(transfers) == 0}, nil
}

// Download resolves the attachment stream for a readable document. Returns
// the reader together with the blob handle (used as the download name).
func (s *DefaultService) Download(ctx context.Context, docID uint64, actor *domain.User) (io.ReadCloser, string, error) {
	resp, err := s.Get(ctx, docID, actor)
	if err != nil {
		return nil, "", err
	}

	if resp.Attachment == nil || *resp.Attachment == "" {
		return nil, "", errors.NotFound("Document has no attachment", nil)
	}

	if !s.blobs.Exists(ctx, *resp.Attachment) {
		return nil, "", errors.NotFound("Attachment blob is missing", nil)
	}

	rc, err := s.blobs.Read(ctx, *resp.Attachment)
	if err != nil {
		return nil, "", errors.Storage("Blob backend unavailable", err)
	}

	return rc, *resp.Attachment, nil
}

// FindByID implements transfer.DocumentFinder.
func (s *DefaultService) FindByID(ctx context.Context, id uint64) (*domain.Document, error) {
	return s.repository.FindByID(ctx, id)
}

func (s *DefaultService) toDocument(authorID uint64, input DocumentInput) *domain.Document {
	kind := input.Kind
	if kind == "" {
		kind = domain.KindIncoming
	}
	received := input.ReceivedDate
	if received.IsZero() {
		received = time.Now().UTC()
	}
	return &domain.Document{
		Subject:            input.Subject,
		Kind:               kind,
		ReceivedDate:       received,
		Attachment:         input.Attachment,
		ExternalSenderName: input.ExternalSenderName,
		TargetServiceID:    input.TargetServiceID,
		AuthorID:           authorID,
		Urgent:             input.Urgent,
		Note:               input.Note,
	}
}
