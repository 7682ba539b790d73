package impl

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/relrag-api/apperr"
	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

const defaultListLimit = 50

type configurationServiceImpl struct {
	uowFactory services.UnitOfWorkFactory
	embedder   services.EmbeddingService
}

func NewConfigurationService(uowFactory services.UnitOfWorkFactory, embedder services.EmbeddingService) services.ConfigurationService {
	return &configurationServiceImpl{uowFactory: uowFactory, embedder: embedder}
}

// Create validates and persists an immutable configuration. Dimensions
// default from the model catalog when omitted and are always checked against
// the model's actual output.
func (s *configurationServiceImpl) Create(ctx context.Context, req models.CreateConfigurationRequest) (*models.Configuration, error) {
	strategy := req.ChunkingStrategy
	if strategy == "" {
		strategy = models.ChunkingStrategyRecursive
	}
	if !strategy.Valid() {
		return nil, apperr.Validationf("unknown chunking strategy %q", strategy)
	}
	if req.ChunkSize <= 0 {
		return nil, apperr.Validation("chunk_size must be positive")
	}
	if req.ChunkOverlap < 0 {
		return nil, apperr.Validation("chunk_overlap must not be negative")
	}
	if req.ChunkOverlap >= req.ChunkSize {
		return nil, apperr.Validation("chunk_overlap must be smaller than chunk_size")
	}

	dimensions := req.EmbeddingDimensions
	if dimensions == 0 {
		catalog, err := s.embedder.ListModels(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range catalog {
			if m.ID == req.EmbeddingModel {
				dimensions = m.Dimensions
				break
			}
		}
		if dimensions == 0 {
			return nil, apperr.Validationf("embedding_dimensions is required for model %q", req.EmbeddingModel)
		}
	}
	if err := s.embedder.ValidateDimensions(ctx, req.EmbeddingModel, dimensions); err != nil {
		return nil, err
	}

	cfg := &models.Configuration{
		ChunkingStrategy:    strategy,
		EmbeddingModel:      req.EmbeddingModel,
		EmbeddingDimensions: dimensions,
		ChunkSize:           req.ChunkSize,
		ChunkOverlap:        req.ChunkOverlap,
		Name:                req.Name,
	}
	err := s.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		return uow.Configurations().Create(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("configuration_id", cfg.ID.String()).
		Str("model", cfg.EmbeddingModel).
		Int("chunk_size", cfg.ChunkSize).
		Msg("configuration created")
	return cfg, nil
}

func (s *configurationServiceImpl) List(ctx context.Context, cursor *string, limit int) ([]models.Configuration, *string, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var (
		items []models.Configuration
		next  *string
	)
	err := s.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		var err error
		items, next, err = uow.Configurations().List(ctx, cursor, limit)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return items, next, nil
}
