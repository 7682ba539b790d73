package impl

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/relrag-api/apperr"
	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

const (
	defaultVectorWeight = 0.7
	defaultFTSWeight    = 0.3
	defaultSearchLimit  = 10
	maxSearchLimit      = 100
)

type searchServiceImpl struct {
	uowFactory services.UnitOfWorkFactory
	checker    services.PermissionChecker
	embedder   services.EmbeddingService
}

func NewSearchService(
	uowFactory services.UnitOfWorkFactory,
	checker services.PermissionChecker,
	embedder services.EmbeddingService,
) services.SearchService {
	return &searchServiceImpl{
		uowFactory: uowFactory,
		checker:    checker,
		embedder:   embedder,
	}
}

// Search runs the hybrid ranking over a collection. An empty query skips the
// embedding call and degrades to lexical-only scoring; filters are validated
// before any work happens.
func (s *searchServiceImpl) Search(ctx context.Context, subject string, collectionID uuid.UUID, req models.SearchRequest) ([]models.SearchResult, error) {
	allowed, err := s.checker.Check(ctx, subject, collectionID, models.ActionRead)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.PermissionDenied(string(models.ActionRead))
	}

	vectorWeight := defaultVectorWeight
	if req.VectorWeight != nil {
		vectorWeight = *req.VectorWeight
	}
	ftsWeight := defaultFTSWeight
	if req.FTSWeight != nil {
		ftsWeight = *req.FTSWeight
	}
	if vectorWeight < 0 || ftsWeight < 0 {
		return nil, apperr.Validation("weights must not be negative")
	}
	if vectorWeight == 0 && ftsWeight == 0 {
		return nil, apperr.Validation("at least one weight must be positive")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	filters := make(map[string]models.PropertyFilter, len(req.Filters))
	for key, f := range req.Filters {
		if f.Kind() == models.FilterNone {
			continue
		}
		if f.Kind() == models.FilterRange && f.Gte != nil && f.Lte != nil && *f.Gte > *f.Lte {
			return nil, apperr.Validationf("filter %q has gte greater than lte", key)
		}
		filters[key] = f
	}

	query := strings.TrimSpace(req.Query)
	var embedding []float32
	if query != "" && vectorWeight > 0 {
		vectors, err := s.embedder.Embed(ctx, []string{query})
		if err != nil {
			return nil, err
		}
		if len(vectors) != 1 {
			return nil, apperr.Upstream("query embedding returned no vector", nil)
		}
		embedding = vectors[0]
	}

	var results []models.SearchResult
	err = s.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		coll, err := uow.Collections().GetByID(ctx, collectionID, false)
		if err != nil {
			return err
		}
		if coll == nil {
			return apperr.NotFound("collection", collectionID.String())
		}
		results, err = uow.Chunks().Search(ctx, services.ChunkSearchParams{
			CollectionID:    collectionID,
			QueryEmbedding:  embedding,
			QueryFTS:        query,
			VectorWeight:    vectorWeight,
			FTSWeight:       ftsWeight,
			Limit:           limit,
			PropertyFilters: filters,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Str("collection_id", collectionID.String()).
		Int("results", len(results)).
		Int("filters", len(filters)).
		Msg("search executed")
	return results, nil
}
