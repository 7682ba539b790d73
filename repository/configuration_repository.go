package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/relrag-api/models"
)

type configurationRepository struct {
	db *gorm.DB
}

func (r *configurationRepository) Create(ctx context.Context, cfg *models.Configuration) error {
	if err := r.db.WithContext(ctx).Create(cfg).Error; err != nil {
		return translate("create configuration", err)
	}
	return nil
}

func (r *configurationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Configuration, error) {
	var cfg models.Configuration
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate("get configuration", err)
	}
	return &cfg, nil
}

func (r *configurationRepository) GetByCollectionID(ctx context.Context, collectionID uuid.UUID) (*models.Configuration, error) {
	var cfg models.Configuration
	err := r.db.WithContext(ctx).
		Joins("JOIN collection ON collection.configuration_id = configuration.id").
		Where("collection.id = ?", collectionID).
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate("get configuration by collection", err)
	}
	return &cfg, nil
}

func (r *configurationRepository) List(ctx context.Context, cursor *string, limit int) ([]models.Configuration, *string, error) {
	after, err := parseCursor(cursor)
	if err != nil {
		return nil, nil, err
	}
	q := r.db.WithContext(ctx).Order("id").Limit(limit + 1)
	if after != "" {
		q = q.Where("id > ?", after)
	}
	var cfgs []models.Configuration
	if err := q.Find(&cfgs).Error; err != nil {
		return nil, nil, translate("list configurations", err)
	}
	cfgs, next := nextCursorFor(cfgs, limit, func(c models.Configuration) uuid.UUID { return c.ID })
	return cfgs, next, nil
}
