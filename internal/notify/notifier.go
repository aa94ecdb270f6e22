// Package notify carries transfer events out of the core. Actual delivery
// (email, push) lives outside this service; the default sink is either a
// webhook or the log.
package notify

import (
	"context"
	"correspondence-tracker/internal/domain"

	"go.uber.org/zap"
)

// Event names sent to the notification sink.
const (
	EventTransferCreated      = "transfer.created"
	EventTransferAcknowledged = "transfer.acknowledged"
)

type Notifier interface {
	TransferCreated(ctx context.Context, t *domain.Transfer) error
	TransferAcknowledged(ctx context.Context, t *domain.Transfer) error
}

// LogNotifier only records events. Used when no webhook is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) TransferCreated(ctx context.Context, t *domain.Transfer) error {
	n.logger.Info("transfer created",
		zap.Uint64("transfer_id", t.ID),
		zap.Uint64("document_id", t.DocumentID),
		zap.Uint64("recipient_id", t.RecipientID),
	)
	return nil
}

func (n *LogNotifier) TransferAcknowledged(ctx context.Context, t *domain.Transfer) error {
	n.logger.Info("transfer acknowledged",
		zap.Uint64("transfer_id", t.ID),
		zap.Uint64("sender_id", t.SenderID),
	)
	return nil
}
