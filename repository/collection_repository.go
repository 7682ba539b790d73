package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/relrag-api/models"
)

type collectionRepository struct {
	db *gorm.DB
}

func (r *collectionRepository) Create(ctx context.Context, coll *models.Collection) error {
	if err := r.db.WithContext(ctx).Create(coll).Error; err != nil {
		return translate("create collection", err)
	}
	return nil
}

func (r *collectionRepository) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Collection, error) {
	var coll models.Collection
	q := r.db.WithContext(ctx).Where("id = ?", id)
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	if err := q.First(&coll).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate("get collection", err)
	}
	return &coll, nil
}

func (r *collectionRepository) List(ctx context.Context, cursor *string, limit int, includeDeleted bool) ([]models.Collection, *string, error) {
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
	var colls []models.Collection
	if err := q.Find(&colls).Error; err != nil {
		return nil, nil, translate("list collections", err)
	}
	colls, next := nextCursorFor(colls, limit, func(c models.Collection) uuid.UUID { return c.ID })
	return colls, next, nil
}

func (r *collectionRepository) ListBySubject(ctx context.Context, subject string, cursor *string, limit int) ([]models.Collection, *string, error) {
	after, err := parseCursor(cursor)
	if err != nil {
		return nil, nil, err
	}
	q := r.db.WithContext(ctx).
		Distinct("collection.*").
		Joins("JOIN permission ON permission.collection_id = collection.id").
		Where("permission.subject = ? AND collection.deleted_at IS NULL", subject).
		Order("collection.id").
		Limit(limit + 1)
	if after != "" {
		q = q.Where("collection.id > ?", after)
	}
	var colls []models.Collection
	if err := q.Find(&colls).Error; err != nil {
		return nil, nil, translate("list collections by subject", err)
	}
	colls, next := nextCursorFor(colls, limit, func(c models.Collection) uuid.UUID { return c.ID })
	return colls, next, nil
}

func (r *collectionRepository) Update(ctx context.Context, coll *models.Collection) error {
	coll.UpdatedAt = time.Now().UTC()
	if err := r.db.WithContext(ctx).Save(coll).Error; err != nil {
		return translate("update collection", err)
	}
	return nil
}

func (r *collectionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.Collection{}).
		Where("id = ?", id).
		Update("deleted_at", time.Now().UTC()).Error
	if err != nil {
		return translate("soft delete collection", err)
	}
	return nil
}
