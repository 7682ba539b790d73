package impl

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"

	"github.com/relrag-api/apperr"
	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

// migrationBatchSize bounds how many packs one cursor page of the migration
// loop holds in memory.
const migrationBatchSize = 500

type collectionServiceImpl struct {
	uowFactory services.UnitOfWorkFactory
	checker    services.PermissionChecker
	chunker    services.Chunker
	embedder   services.EmbeddingService
	cache      services.CacheService
}

func NewCollectionService(
	uowFactory services.UnitOfWorkFactory,
	checker services.PermissionChecker,
	chunker services.Chunker,
	embedder services.EmbeddingService,
	cache services.CacheService,
) services.CollectionService {
	return &collectionServiceImpl{
		uowFactory: uowFactory,
		checker:    checker,
		chunker:    chunker,
		embedder:   embedder,
		cache:      cache,
	}
}

// Create makes a collection under an existing configuration and grants the
// creator the admin role on it in the same transaction.
func (s *collectionServiceImpl) Create(ctx context.Context, subject string, req models.CreateCollectionRequest) (*models.Collection, error) {
	var coll *models.Collection
	err := s.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		cfg, err := uow.Configurations().GetByID(ctx, req.ConfigurationID)
		if err != nil {
			return err
		}
		if cfg == nil {
			return apperr.NotFound("configuration", req.ConfigurationID.String())
		}

		coll = &models.Collection{
			ConfigurationID: req.ConfigurationID,
			Name:            req.Name,
		}
		if err := uow.Collections().Create(ctx, coll); err != nil {
			return err
		}

		adminRole, err := uow.Roles().GetByName(ctx, "admin")
		if err != nil {
			return err
		}
		if adminRole == nil {
			return apperr.Internal("admin role is not seeded", nil)
		}
		return uow.Permissions().Create(ctx, &models.Permission{
			CollectionID: coll.ID,
			Subject:      subject,
			RoleID:       adminRole.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("collection_id", coll.ID.String()).
		Str("subject", subject).
		Msg("collection created")
	return coll, nil
}

func (s *collectionServiceImpl) Get(ctx context.Context, subject string, id uuid.UUID) (*models.Collection, error) {
	allowed, err := s.checker.Check(ctx, subject, id, models.ActionRead)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.PermissionDenied(string(models.ActionRead))
	}

	var coll *models.Collection
	err = s.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		coll, err = uow.Collections().GetByID(ctx, id, false)
		if err != nil {
			return err
		}
		if coll == nil {
			return apperr.NotFound("collection", id.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return coll, nil
}

func (s *collectionServiceImpl) ListBySubject(ctx context.Context, subject string, cursor *string, limit int) ([]models.Collection, *string, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	var (
		items []models.Collection
		next  *string
	)
	err := s.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		var err error
		items, next, err = uow.Collections().ListBySubject(ctx, subject, cursor, limit)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return items, next, nil
}

// Migrate re-chunks and re-embeds every pack of the collection under the new
// configuration. Targeting the current configuration re-indexes the
// collection in place. The whole migration runs in one transaction, so
// readers see either the old index or the new one, never a mixture.
func (s *collectionServiceImpl) Migrate(ctx context.Context, subject string, collectionID, newConfigurationID uuid.UUID) (int, error) {
	allowed, err := s.checker.Check(ctx, subject, collectionID, models.ActionMigrate)
	if err != nil {
		return 0, err
	}
	if !allowed {
		return 0, apperr.PermissionDenied(string(models.ActionMigrate))
	}

	migrated := 0
	err = s.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		coll, err := uow.Collections().GetByID(ctx, collectionID, false)
		if err != nil {
			return err
		}
		if coll == nil {
			return apperr.NotFound("collection", collectionID.String())
		}

		newCfg, err := uow.Configurations().GetByID(ctx, newConfigurationID)
		if err != nil {
			return err
		}
		if newCfg == nil {
			return apperr.NotFound("configuration", newConfigurationID.String())
		}
		var cursor *string
		for {
			packs, next, err := uow.Packs().List(ctx, services.PackFilter{
				CollectionID: &collectionID,
				Cursor:       cursor,
				Limit:        migrationBatchSize,
			})
			if err != nil {
				return err
			}
			for i := range packs {
				ok, err := s.migratePack(ctx, uow, &packs[i], newCfg)
				if err != nil {
					return err
				}
				if ok {
					migrated++
				}
			}
			if next == nil {
				break
			}
			cursor = next
		}

		coll.ConfigurationID = newConfigurationID
		coll.UpdatedAt = time.Now().UTC()
		return uow.Collections().Update(ctx, coll)
	})
	if err != nil {
		return 0, err
	}

	s.cache.InvalidatePropertySchema(ctx, collectionID)
	log.Info().Str("collection_id", collectionID.String()).
		Str("configuration_id", newConfigurationID.String()).
		Int("migrated", migrated).
		Msg("collection migrated")
	return migrated, nil
}

// migratePack rebuilds one pack's chunks under cfg. Packs whose document is
// gone or empty are skipped, not failed.
func (s *collectionServiceImpl) migratePack(ctx context.Context, uow services.UnitOfWork, pack *models.Pack, cfg *models.Configuration) (bool, error) {
	doc, err := uow.Documents().GetByID(ctx, pack.DocumentID, false)
	if err != nil {
		return false, err
	}
	if doc == nil || strings.TrimSpace(doc.Content) == "" {
		return false, nil
	}

	chunkTexts, err := s.chunker.Chunk(doc.Content, cfg.ChunkingConfig())
	if err != nil {
		return false, err
	}
	vectors, err := s.embedder.Embed(ctx, chunkTexts)
	if err != nil {
		return false, err
	}
	if len(vectors) != len(chunkTexts) {
		return false, apperr.Upstream("embedding count does not match chunk count", nil)
	}

	if err := uow.Chunks().DeleteByPackID(ctx, pack.ID); err != nil {
		return false, err
	}
	chunks := make([]models.Chunk, len(chunkTexts))
	for i, text := range chunkTexts {
		chunks[i] = models.Chunk{
			ID:        uuid.New(),
			PackID:    pack.ID,
			Content:   text,
			Embedding: pgvector.NewVector(vectors[i]),
			Position:  i,
		}
	}
	if len(chunks) > 0 {
		if err := uow.Chunks().CreateBatch(ctx, chunks); err != nil {
			return false, err
		}
	}
	return true, nil
}

// PropertySchema returns the distinct property keys over the collection,
// served from cache when warm.
func (s *collectionServiceImpl) PropertySchema(ctx context.Context, subject string, collectionID uuid.UUID) ([]models.PropertySchemaItem, error) {
	allowed, err := s.checker.Check(ctx, subject, collectionID, models.ActionRead)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.PermissionDenied(string(models.ActionRead))
	}

	if items, ok := s.cache.GetPropertySchema(ctx, collectionID); ok {
		return items, nil
	}

	var items []models.PropertySchemaItem
	err = s.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		coll, err := uow.Collections().GetByID(ctx, collectionID, false)
		if err != nil {
			return err
		}
		if coll == nil {
			return apperr.NotFound("collection", collectionID.String())
		}
		items, err = uow.Properties().ListSchemaByCollection(ctx, collectionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.SetPropertySchema(ctx, collectionID, items)
	return items, nil
}
