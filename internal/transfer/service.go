package transfer

import (
	"context"
	"correspondence-tracker/internal/access"
	"correspondence-tracker/internal/domain"
	"correspondence-tracker/internal/errors"
	"correspondence-tracker/internal/notify"
	"correspondence-tracker/internal/worker"
	defError "errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Service interface {
	Route(ctx context.Context, docID uint64, senderID uint64, req RouteRequest) (*RouteResult, error)
	Acknowledge(ctx context.Context, transferID uint64, actorID uint64, signature string) (*domain.Transfer, error)
	Close(ctx context.Context, transferID uint64, actorID uint64) (*domain.Transfer, error)
	Delete(ctx context.Context, transferID uint64, actorID uint64) error
	ListForRecipient(ctx context.Context, userID uint64) ([]domain.Transfer, error)
	ListForSender(ctx context.Context, userID uint64) ([]domain.Transfer, error)
}

// DocumentFinder is the slice of the document store the ledger needs.
type DocumentFinder interface {
	FindByID(ctx context.Context, id uint64) (*domain.Document, error)
}

type DefaultService struct {
	repository        TransferRepository
	documents         DocumentFinder
	pool              *worker.WorkerPool
	notifier          notify.Notifier
	requireAckToClose bool
}

func NewService(
	repository TransferRepository,
	documents DocumentFinder,
	pool *worker.WorkerPool,
	notifier notify.Notifier,
	requireAckToClose bool,
) Service {
	return &DefaultService{
		repository:        repository,
		documents:         documents,
		pool:              pool,
		notifier:          notifier,
		requireAckToClose: requireAckToClose,
	}
}

// RouteRequest describes one fan-out. Status defaults to sent; bulk imports
// may force a later reachable state, which still has to carry whatever the
// skipped transitions would have required (a signature for acknowledged).
type RouteRequest struct {
	RecipientIDs []uint64
	Status       domain.TransferStatus
	Note         *string
	Signature    *string
}

// RouteFailure reports one recipient whose transfer could not be created.
// Sibling transfers are never rolled back.
type RouteFailure struct {
	RecipientID uint64 `json:"recipient_id"`
	Reason      string `json:"reason"`
}

// RouteResult is a partial-success report: every created transfer plus
// every recipient that failed.
type RouteResult struct {
	Created []domain.Transfer `json:"created"`
	Failed  []RouteFailure    `json:"failed"`
}

func (s *DefaultService) Route(ctx context.Context, docID uint64, senderID uint64, req RouteRequest) (*RouteResult, error) {
	if len(req.RecipientIDs) == 0 {
		return nil, errors.BadRequest("Recipient list cannot be empty", nil)
	}

	doc, err := s.documents.FindByID(ctx, docID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Document not found", err)
		}
		return nil, err
	}

	if !access.CanMutateDocument(senderID, doc) {
		return nil, errors.Forbidden("Only the author can route a document", nil)
	}

	status := req.Status
	if status == "" {
		status = domain.StatusSent
	}
	if !status.Valid() {
		return nil, errors.BadRequest(fmt.Sprintf("Unknown status %q", status), nil)
	}

	var acknowledgedAt *time.Time
	var signature *string
	if status != domain.StatusSent {
		// Forced past sent: the acknowledge hop requires a signature.
		if req.Signature == nil || *req.Signature == "" {
			return nil, errors.BadRequest("Signature required when importing past sent", nil)
		}
		now := time.Now().UTC()
		acknowledgedAt = &now
		signature = req.Signature
	}

	result := &RouteResult{}
	for _, recipientID := range req.RecipientIDs {
		t := domain.Transfer{
			DocumentID:     docID,
			SenderID:       senderID,
			RecipientID:    recipientID,
			Status:         status,
			AcknowledgedAt: acknowledgedAt,
			Signature:      signature,
			Note:           req.Note,
		}

		// Each transfer is its own unit of work; a failed sibling does not
		// undo the ones already created.
		if err := s.repository.Create(ctx, &t); err != nil {
			result.Failed = append(result.Failed, RouteFailure{
				RecipientID: recipientID,
				Reason:      err.Error(),
			})
			continue
		}
		result.Created = append(result.Created, t)
		s.dispatch(t, s.notifierCreated)
	}

	if len(result.Created) == 0 {
		return nil, errors.UnprocessableEntity("No transfer could be created", nil)
	}
	return result, nil
}

func (s *DefaultService) Acknowledge(ctx context.Context, transferID uint64, actorID uint64, signature string) (*domain.Transfer, error) {
	if signature == "" {
		return nil, errors.BadRequest("Signature is required", nil)
	}

	t, err := s.repository.FindByID(ctx, transferID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Transfer not found", err)
		}
		return nil, err
	}

	if !access.CanAcknowledge(actorID, t) {
		return nil, errors.Forbidden("Only the recipient can acknowledge", nil)
	}

	ok, err := s.repository.Acknowledge(ctx, transferID, time.Now().UTC(), signature)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Conflict("Transfer is not in sent state", nil)
	}

	t, err = s.repository.FindByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	s.dispatch(*t, s.notifierAcknowledged)
	return t, nil
}

func (s *DefaultService) Close(ctx context.Context, transferID uint64, actorID uint64) (*domain.Transfer, error) {
	t, err := s.repository.FindByID(ctx, transferID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Transfer not found", err)
		}
		return nil, err
	}

	if !access.CanClose(actorID, t) {
		return nil, errors.Forbidden("Only the sender can close a transfer", nil)
	}

	if t.Status == domain.StatusClosed {
		return nil, errors.Conflict("Transfer is already closed", nil)
	}

	from := []domain.TransferStatus{domain.StatusSent, domain.StatusAcknowledged}
	if s.requireAckToClose {
		if t.Status == domain.StatusSent {
			return nil, errors.Conflict("Transfer has not been acknowledged yet", nil)
		}
		from = []domain.TransferStatus{domain.StatusAcknowledged}
	}

	ok, err := s.repository.Close(ctx, transferID, from)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with a concurrent transition.
		return nil, errors.Conflict("Transfer state changed concurrently", nil)
	}

	return s.repository.FindByID(ctx, transferID)
}

func (s *DefaultService) Delete(ctx context.Context, transferID uint64, actorID uint64) error {
	t, err := s.repository.FindByID(ctx, transferID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Transfer not found", err)
		}
		return err
	}

	if !access.CanDeleteTransfer(actorID, t) {
		return errors.Forbidden("Only sender or recipient can delete a transfer", nil)
	}

	ok, err := s.repository.DeleteClosed(ctx, transferID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Conflict("Only closed transfers can be deleted", nil)
	}
	return nil
}

func (s *DefaultService) ListForRecipient(ctx context.Context, userID uint64) ([]domain.Transfer, error) {
	return s.repository.ListByRecipient(ctx, userID)
}

func (s *DefaultService) ListForSender(ctx context.Context, userID uint64) ([]domain.Transfer, error) {
	return s.repository.ListBySender(ctx, userID)
}

func (s *DefaultService) notifierCreated(ctx context.Context, t *domain.Transfer) error {
	return s.notifier.TransferCreated(ctx, t)
}

func (s *DefaultService) notifierAcknowledged(ctx context.Context, t *domain.Transfer) error {
	return s.notifier.TransferAcknowledged(ctx, t)
}

func (s *DefaultService) dispatch(t domain.Transfer, fn func(context.Context, *domain.Transfer) error) {
	if s.pool == nil || s.notifier == nil {
		return
	}
	s.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return fn(ctx, &t)
	})
}
