// Package view builds the user-facing read models. Every query is a fresh
// join across the document store, the routing ledger and the directory;
// nothing here mutates state and nothing is cached.
package view

import (
	"context"
	"correspondence-tracker/internal/document"
	"correspondence-tracker/internal/domain"
	"correspondence-tracker/internal/transfer"
	"time"
)

// UnknownLabel substitutes missing joined data. The projector never fails
// an entire listing because one association is gone.
const UnknownLabel = "unknown"

type Service interface {
	Inbox(ctx context.Context, userID uint64) ([]ReceivedItem, error)
	Outbox(ctx context.Context, userID uint64) ([]SentItem, error)
	Drafts(ctx context.Context, authorID uint64) ([]document.DocumentResponse, error)
	AcknowledgedByService(ctx context.Context, serviceID uint64) ([]AcknowledgedItem, error)
	AcknowledgedBySender(ctx context.Context, senderID uint64) ([]AcknowledgedItem, error)
}

type Projector struct {
	transfers transfer.TransferRepository
	documents document.DocumentRepository
}

func NewProjector(transfers transfer.TransferRepository, documents document.DocumentRepository) *Projector {
	return &Projector{transfers: transfers, documents: documents}
}

// ReceivedItem is one inbox row: a transfer joined to its document and
// sender. Missing associations surface as the unknown sentinel.
type ReceivedItem struct {
	TransferID    uint64                `json:"transfer_id"`
	DocumentID    uint64                `json:"document_id"`
	Subject       string                `json:"subject"`
	SenderName    string                `json:"sender_name"`
	SenderService string                `json:"sender_service"`
	Status        domain.TransferStatus `json:"status"`
	Urgent        bool                  `json:"urgent"`
	Note          string                `json:"note"`
	Attachment    *string               `json:"attachment"`
	ReceivedAt    time.Time             `json:"received_at"`
}

// SentItem is one outbox row: a transfer joined to its recipient and the
// recipient's service.
type SentItem struct {
	TransferID       uint64                `json:"transfer_id"`
	DocumentID       uint64                `json:"document_id"`
	Subject          string                `json:"subject"`
	RecipientName    string                `json:"recipient_name"`
	RecipientService string                `json:"recipient_service"`
	Status           domain.TransferStatus `json:"status"`
	Note             string                `json:"note"`
	Attachment       *string               `json:"attachment"`
	SentAt           time.Time             `json:"sent_at"`
}

// AcknowledgedItem is a dashboard row for signed-but-not-closed mail.
type AcknowledgedItem struct {
	TransferID     uint64                `json:"transfer_id"`
	DocumentID     uint64                `json:"document_id"`
	Subject        string                `json:"subject"`
	SenderName     string                `json:"sender_name"`
	RecipientName  string                `json:"recipient_name"`
	Status         domain.TransferStatus `json:"status"`
	Signature      *string               `json:"signature"`
	AcknowledgedAt *time.Time            `json:"acknowledged_at"`
	CanClose       bool                  `json:"can_close"`
}

func (p *Projector) Inbox(ctx context.Context, userID uint64) ([]ReceivedItem, error) {
	transfers, err := p.transfers.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]ReceivedItem, 0, len(transfers))
	for _, t := range transfers {
		item := ReceivedItem{
			TransferID:    t.ID,
			DocumentID:    t.DocumentID,
			Subject:       UnknownLabel,
			SenderName:    UnknownLabel,
			SenderService: UnknownLabel,
			Status:        t.Status,
			ReceivedAt:    t.CreatedAt,
		}

		if t.Document != nil {
			item.Subject = t.Document.Subject
			item.Urgent = t.Document.Urgent
			item.Attachment = t.Document.Attachment
			if t.Document.TargetService != nil {
				item.SenderService = t.Document.TargetService.Name
			}
			if t.Document.Note != nil {
				item.Note = *t.Document.Note
			}
		}
		// A note on the transfer itself wins over the document note.
		if t.Note != nil {
			item.Note = *t.Note
		}
		if t.Sender != nil {
			item.SenderName = t.Sender.Name
		}

		items = append(items, item)
	}
	return items, nil
}

func (p *Projector) Outbox(ctx context.Context, userID uint64) ([]SentItem, error) {
	transfers, err := p.transfers.ListBySender(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]SentItem, 0, len(transfers))
	for _, t := range transfers {
		item := SentItem{
			TransferID:       t.ID,
			DocumentID:       t.DocumentID,
			Subject:          UnknownLabel,
			RecipientName:    UnknownLabel,
			RecipientService: UnknownLabel,
			Status:           t.Status,
			SentAt:           t.CreatedAt,
		}

		if t.Document != nil {
			item.Subject = t.Document.Subject
			item.Attachment = t.Document.Attachment
		}
		if t.Note != nil {
			item.Note = *t.Note
		}
		if t.Recipient != nil {
			item.RecipientName = t.Recipient.Name
			if t.Recipient.Service != nil {
				item.RecipientService = t.Recipient.Service.Name
			}
		}

		items = append(items, item)
	}
	return items, nil
}

func (p *Projector) Drafts(ctx context.Context, authorID uint64) ([]document.DocumentResponse, error) {
	docs, err := p.documents.ListDraftsByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}

	items := make([]document.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		items = append(items, document.DocumentResponse{Document: d, Draft: true})
	}
	return items, nil
}

func (p *Projector) AcknowledgedByService(ctx context.Context, serviceID uint64) ([]AcknowledgedItem, error) {
	transfers, err := p.transfers.ListAcknowledgedByService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	return p.toAcknowledgedItems(transfers, 0), nil
}

func (p *Projector) AcknowledgedBySender(ctx context.Context, senderID uint64) ([]AcknowledgedItem, error) {
	transfers, err := p.transfers.ListAcknowledgedBySender(ctx, senderID)
	if err != nil {
		return nil, err
	}
	return p.toAcknowledgedItems(transfers, senderID), nil
}

// toAcknowledgedItems flags rows the viewer may close. Entitlement is
// sender identity, so for a sender's own dashboard it is always true.
func (p *Projector) toAcknowledgedItems(transfers []domain.Transfer, viewerID uint64) []AcknowledgedItem {
	items := make([]AcknowledgedItem, 0, len(transfers))
	for _, t := range transfers {
		item := AcknowledgedItem{
			TransferID:     t.ID,
			DocumentID:     t.DocumentID,
			Subject:        UnknownLabel,
			SenderName:     UnknownLabel,
			RecipientName:  UnknownLabel,
			Status:         t.Status,
			Signature:      t.Signature,
			AcknowledgedAt: t.AcknowledgedAt,
			CanClose:       viewerID != 0 && t.SenderID == viewerID,
		}
		if t.Document != nil {
			item.Subject = t.Document.Subject
		}
		if t.Sender != nil {
			item.SenderName = t.Sender.Name
		}
		if t.Recipient != nil {
			item.RecipientName = t.Recipient.Name
		}
		items = append(items, item)
	}
	return items
}
