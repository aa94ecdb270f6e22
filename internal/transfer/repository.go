package transfer

import (
	"context"
	"correspondence-tracker/internal/domain"
	"time"

	"gorm.io/gorm"
)

type TransferRepository interface {
	Create(ctx context.Context, t *domain.Transfer) error
	FindByID(ctx context.Context, id uint64) (*domain.Transfer, error)
	// Acknowledge flips sent -> acknowledged and stamps the signature in one
	// guarded update. Returns false when the transfer was not in sent state.
	Acknowledge(ctx context.Context, id uint64, at time.Time, signature string) (bool, error)
	// Close moves the transfer to closed. Only the statuses listed in `from`
	// qualify; returns false when the current status is not among them.
	Close(ctx context.Context, id uint64, from []domain.TransferStatus) (bool, error)
	// DeleteClosed removes the transfer only while its status is closed.
	DeleteClosed(ctx context.Context, id uint64) (bool, error)
	ListByRecipient(ctx context.Context, userID uint64) ([]domain.Transfer, error)
	ListBySender(ctx context.Context, userID uint64) ([]domain.Transfer, error)
	ListAcknowledgedByService(ctx context.Context, serviceID uint64) ([]domain.Transfer, error)
	ListAcknowledgedBySender(ctx context.Context, senderID uint64) ([]domain.Transfer, error)
	ListByDocument(ctx context.Context, documentID uint64) ([]domain.Transfer, error)
}

type TransferRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new transfer repository
func NewRepository(db *gorm.DB) TransferRepository {
	return &TransferRepositoryImpl{db: db}
}

func (r *TransferRepositoryImpl) Create(ctx context.Context, t *domain.Transfer) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TransferRepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Transfer, error) {
	var t domain.Transfer
	err := r.db.WithContext(ctx).First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Acknowledge is a single compare-and-swap: two concurrent calls on the
// same transfer cannot both match the status guard, so the second observes
// zero rows affected.
func (r *TransferRepositoryImpl) Acknowledge(ctx context.Context, id uint64, at time.Time, signature string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Transfer{}).
		Where("id = ? AND status = ?", id, domain.StatusSent).
		Updates(map[string]interface{}{
			"status":          domain.StatusAcknowledged,
			"acknowledged_at": at,
			"signature":       signature,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *TransferRepositoryImpl) Close(ctx context.Context, id uint64, from []domain.TransferStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Transfer{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":     domain.StatusClosed,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *TransferRepositoryImpl) DeleteClosed(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, domain.StatusClosed).
		Delete(&domain.Transfer{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *TransferRepositoryImpl) ListByRecipient(ctx context.Context, userID uint64) ([]domain.Transfer, error) {
	var transfers []domain.Transfer
	err := r.db.WithContext(ctx).
		Preload("Document").
		Preload("Document.TargetService").
		Preload("Sender").
		Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Find(&transfers).Error
	return transfers, err
}

func (r *TransferRepositoryImpl) ListBySender(ctx context.Context, userID uint64) ([]domain.Transfer, error) {
	var transfers []domain.Transfer
	err := r.db.WithContext(ctx).
		Preload("Document").
		Preload("Recipient").
		Preload("Recipient.Service").
		Where("sender_id = ?", userID).
		Order("created_at DESC").
		Find(&transfers).Error
	return transfers, err
}

func (r *TransferRepositoryImpl) ListAcknowledgedByService(ctx context.Context, serviceID uint64) ([]domain.Transfer, error) {
	var transfers []domain.Transfer
	err := r.db.WithContext(ctx).
		Preload("Document").
		Preload("Sender").
		Preload("Recipient").
		Joins("JOIN documents ON documents.id = transfers.document_id").
		Where("transfers.status = ? AND documents.target_service_id = ?", domain.StatusAcknowledged, serviceID).
		Order("transfers.created_at DESC").
		Find(&transfers).Error
	return transfers, err
}

func (r *TransferRepositoryImpl) ListAcknowledgedBySender(ctx context.Context, senderID uint64) ([]domain.Transfer, error) {
	var transfers []domain.Transfer
	err := r.db.WithContext(ctx).
		Preload("Document").
		Preload("Recipient").
		Preload("Recipient.Service").
		Where("sender_id = ? AND status = ?", senderID, domain.StatusAcknowledged).
		Order("created_at DESC").
		Find(&transfers).Error
	return transfers, err
}

func (r *TransferRepositoryImpl) ListByDocument(ctx context.Context, documentID uint64) ([]domain.Transfer, error) {
	var transfers []domain.Transfer
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Find(&transfers).Error
	return transfers, err
}
