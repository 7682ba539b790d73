package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/relrag-api/apperr"
	"github.com/relrag-api/models"
)

type documentRepository struct {
	db *gorm.DB
}

// Create inserts the document. A unique violation on the live source_hash
// index surfaces as KindDuplicateDocument so the ingest pipeline can re-run
// its dedup probe; requires the gorm TranslateError option.
func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Wrap(apperr.KindDuplicateDocument, "create document", err)
		}
		return translate("create document", err)
	}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Document, error) {
	var doc models.Document
	q := r.db.WithContext(ctx).Where("id = ?", id)
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	if err := q.First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate("get document", err)
	}
	return &doc, nil
}

func (r *documentRepository) GetBySourceHash(ctx context.Context, hash []byte) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).
		Where("source_hash = ? AND deleted_at IS NULL", hash).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate("get document by source hash", err)
	}
	return &doc, nil
}

func (r *documentRepository) List(ctx context.Context, cursor *string, limit int, includeDeleted bool) ([]models.Document, *string, error) {
	after, err := parseCursor(cursor)
	if err != nil {
		return nil, nil, err
	}
	q := r.db.WithContext(ctx).Order("id").Limit(limit + 1)
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	if after != "" {
		q = q.Where("id > ?", after)
	}
	var docs []models.Document
	if err := q.Find(&docs).Error; err != nil {
		return nil, nil, translate("list documents", err)
	}
	docs, next := nextCursorFor(docs, limit, func(d models.Document) uuid.UUID { return d.ID })
	return docs, next, nil
}

func (r *documentRepository) Update(ctx context.Context, doc *models.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	if err := r.db.WithContext(ctx).Save(doc).Error; err != nil {
		return translate("update document", err)
	}
	return nil
}

func (r *documentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", id).
		Update("deleted_at", time.Now().UTC()).Error
	if err != nil {
		return translate("soft delete document", err)
	}
	return nil
}

func (r *documentRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Document{}, "id = ?", id).Error; err != nil {
		return translate("hard delete document", err)
	}
	return nil
}
