package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

type packRepository struct {
	db *gorm.DB
}

func (r *packRepository) Create(ctx context.Context, pack *models.Pack) error {
	if err := r.db.WithContext(ctx).Create(pack).Error; err != nil {
		return translate("create pack", err)
	}
	return nil
}

func (r *packRepository) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Pack, error) {
	var pack models.Pack
	q := r.db.WithContext(ctx).Where("id = ?", id)
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	if err := q.First(&pack).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate("get pack", err)
	}
	return &pack, nil
}

func (r *packRepository) List(ctx context.Context, filter services.PackFilter) ([]models.Pack, *string, error) {
	after, err := parseCursor(filter.Cursor)
	if err != nil {
		return nil, nil, err
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	q := r.db.WithContext(ctx).Order("id").Limit(limit + 1)
	if !filter.IncludeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	if filter.DocumentID != nil {
		q = q.Where("document_id = ?", *filter.DocumentID)
	}
	if filter.CollectionID != nil {
		q = q.Where(
			"EXISTS (SELECT 1 FROM pack_collection pc WHERE pc.pack_id = pack.id AND pc.collection_id = ?)",
			*filter.CollectionID,
		)
	}
	if after != "" {
		q = q.Where("id > ?", after)
	}
	var packs []models.Pack
	if err := q.Find(&packs).Error; err != nil {
		return nil, nil, translate("list packs", err)
	}
	packs, next := nextCursorFor(packs, limit, func(p models.Pack) uuid.UUID { return p.ID })
	return packs, next, nil
}

// AddToCollection upserts the membership edge; re-attaching an already
// attached pack is a no-op.
func (r *packRepository) AddToCollection(ctx context.Context, packID, collectionID uuid.UUID) error {
	edge := models.PackCollection{PackID: packID, CollectionID: collectionID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge).Error
	if err != nil {
		return translate("attach pack to collection", err)
	}
	return nil
}

func (r *packRepository) RemoveFromCollection(ctx context.Context, packID, collectionID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Delete(&models.PackCollection{}, "pack_id = ? AND collection_id = ?", packID, collectionID).Error
	if err != nil {
		return translate("detach pack from collection", err)
	}
	return nil
}

func (r *packRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.Pack{}).
		Where("id = ?", id).
		Update("deleted_at", time.Now().UTC()).Error
	if err != nil {
		return translate("soft delete pack", err)
	}
	return nil
}
