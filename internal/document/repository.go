package document

import (
	"context"
	"correspondence-tracker/internal/domain"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrOpenTransfers is returned when a delete is attempted while transfers
// of the document are still in a non-closed state.
var ErrOpenTransfers = errors.New("document has non-closed transfers")

type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	FindByID(ctx context.Context, id uint64) (*domain.Document, error)
	Update(ctx context.Context, doc *domain.Document) error
	// DeleteIfTransfersClosed removes the document together with its closed
	// transfers inside one transaction. Fails with ErrOpenTransfers when any
	// transfer has not reached the closed state.
	DeleteIfTransfersClosed(ctx context.Context, id uint64) error
	ListDraftsByAuthor(ctx context.Context, authorID uint64) ([]domain.Document, error)
	HasTransfers(ctx context.Context, id uint64) (bool, error)
}

type DocumentRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new document repository
func NewRepository(db *gorm.DB) DocumentRepository {
	return &DocumentRepositoryImpl{db: db}
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).Preload("TargetService").First(&doc, id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepositoryImpl) Update(ctx context.Context, doc *domain.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(doc).Error
}

func (r *DocumentRepositoryImpl) DeleteIfTransfersClosed(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&domain.Transfer{}).
			Where("document_id = ? AND status <> ?", id, domain.StatusClosed).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrOpenTransfers
		}

		if err := tx.Where("document_id = ?", id).
			Delete(&domain.Transfer{}).Error; err != nil {
			return err
		}

		return tx.Delete(&domain.Document{}, id).Error
	})
}

// ListDraftsByAuthor returns authored documents no transfer references,
// newest first. Draft state is derived here, never stored.
func (r *DocumentRepositoryImpl) ListDraftsByAuthor(ctx context.Context, authorID uint64) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.WithContext(ctx).
		Preload("TargetService").
		Where("author_id = ?", authorID).
		Where("id NOT IN (?)", r.db.Model(&domain.Transfer{}).Select("document_id")).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

func (r *DocumentRepositoryImpl) HasTransfers(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Transfer{}).
		Where("document_id = ?", id).
		Count(&count).Error
	return count > 0, err
}
