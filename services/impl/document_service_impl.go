package impl

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"

	"github.com/relrag-api/apperr"
	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

type documentServiceImpl struct {
	uowFactory services.UnitOfWorkFactory
	checker    services.PermissionChecker
	chunker    services.Chunker
	embedder   services.EmbeddingService
	cache      services.CacheService
}

func NewDocumentService(
	uowFactory services.UnitOfWorkFactory,
	checker services.PermissionChecker,
	chunker services.Chunker,
	embedder services.EmbeddingService,
	cache services.CacheService,
) services.DocumentService {
	return &documentServiceImpl{
		uowFactory: uowFactory,
		checker:    checker,
		chunker:    chunker,
		embedder:   embedder,
		cache:      cache,
	}
}

// LoadDocument runs the ingestion pipeline. Identical content (by MD5 of the
// raw text) short-circuits to the existing document and attaches its first
// pack to the target collection; nothing is re-chunked or re-embedded.
func (s *documentServiceImpl) LoadDocument(ctx context.Context, subject string, req models.CreateDocumentRequest) (*models.DocumentResponse, error) {
	allowed, err := s.checker.Check(ctx, subject, req.CollectionID, models.ActionWrite)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.PermissionDenied(string(models.ActionWrite))
	}

	if strings.TrimSpace(req.Content) == "" {
		return nil, apperr.Validation("content must not be empty")
	}
	if err := validateProperties(req.Properties); err != nil {
		return nil, err
	}

	hash := models.HashContent(req.Content)

	resp, err := s.ingest(ctx, hash, req)
	if apperr.IsKind(err, apperr.KindDuplicateDocument) {
		// Lost a race with a concurrent ingest of the same content. The
		// winner's row is committed now, so the dedup probe takes the fast
		// path on retry.
		log.Debug().Str("collection_id", req.CollectionID.String()).
			Msg("duplicate hash race during ingest, retrying")
		resp, err = s.ingest(ctx, hash, req)
		if apperr.IsKind(err, apperr.KindDuplicateDocument) {
			return nil, apperr.Unavailable("document ingest kept losing the dedup race", err)
		}
	}
	if err != nil {
		return nil, err
	}

	s.cache.InvalidatePropertySchema(ctx, req.CollectionID)
	return resp, nil
}

// ingest is one attempt at the pipeline. The embedding call happens before
// the transaction opens so the remote round trip never holds row locks.
func (s *documentServiceImpl) ingest(ctx context.Context, hash []byte, req models.CreateDocumentRequest) (*models.DocumentResponse, error) {
	// Dedup probe outside the write path: if the content already exists the
	// pipeline ends here without touching the embedding endpoint.
	var existing *models.Document
	err := s.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		coll, err := uow.Collections().GetByID(ctx, req.CollectionID, false)
		if err != nil {
			return err
		}
		if coll == nil {
			return apperr.NotFound("collection", req.CollectionID.String())
		}
		existing, err = uow.Documents().GetBySourceHash(ctx, hash)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		return s.attachExisting(ctx, uow, existing, req.CollectionID)
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return models.NewDocumentResponse(existing), nil
	}

	var chunkTexts []string
	var vectors [][]float32
	err = s.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		cfg, err := uow.Configurations().GetByCollectionID(ctx, req.CollectionID)
		if err != nil {
			return err
		}
		if cfg == nil {
			return apperr.Validation("collection has no configuration")
		}
		chunkTexts, err = s.chunker.Chunk(req.Content, cfg.ChunkingConfig())
		return err
	})
	if err != nil {
		return nil, err
	}

	vectors, err = s.embedder.Embed(ctx, chunkTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunkTexts) {
		return nil, apperr.Upstream("embedding count does not match chunk count", nil)
	}

	doc := &models.Document{Content: req.Content, SourceHash: hash}
	err = s.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		if err := uow.Documents().Create(ctx, doc); err != nil {
			return err
		}

		pack := &models.Pack{DocumentID: doc.ID}
		if err := uow.Packs().Create(ctx, pack); err != nil {
			return err
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
				return err
			}
		}

		if len(req.Properties) > 0 {
			properties := make([]models.Property, 0, len(req.Properties))
			for key, input := range req.Properties {
				properties = append(properties, models.Property{
					DocumentID:   doc.ID,
					Key:          key,
					Value:        input.Value,
					PropertyType: input.Type,
				})
			}
			if err := uow.Properties().CreateBatch(ctx, properties); err != nil {
				return err
			}
		}

		return uow.Packs().AddToCollection(ctx, pack.ID, req.CollectionID)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("document_id", doc.ID.String()).
		Str("collection_id", req.CollectionID.String()).
		Int("chunks", len(chunkTexts)).
		Msg("document ingested")
	return models.NewDocumentResponse(doc), nil
}

// attachExisting ensures the deduplicated document's first pack is a member
// of the target collection.
func (s *documentServiceImpl) attachExisting(ctx context.Context, uow services.UnitOfWork, doc *models.Document, collectionID uuid.UUID) error {
	packs, _, err := uow.Packs().List(ctx, services.PackFilter{
		DocumentID: &doc.ID,
		Limit:      1,
	})
	if err != nil {
		return err
	}
	if len(packs) == 0 {
		return apperr.Internal("deduplicated document has no pack", nil)
	}
	return uow.Packs().AddToCollection(ctx, packs[0].ID, collectionID)
}

func (s *documentServiceImpl) GetDocument(ctx context.Context, subject string, documentID, collectionID uuid.UUID) (*models.DocumentResponse, error) {
	allowed, err := s.checker.Check(ctx, subject, collectionID, models.ActionRead)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.PermissionDenied(string(models.ActionRead))
	}

	var doc *models.Document
	err = s.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		d, err := uow.Documents().GetByID(ctx, documentID, false)
		if err != nil {
			return err
		}
		if d == nil {
			return apperr.NotFound("document", documentID.String())
		}
		// The document must be reachable through the collection the caller
		// was authorized against.
		packs, _, err := uow.Packs().List(ctx, services.PackFilter{
			DocumentID:   &d.ID,
			CollectionID: &collectionID,
			Limit:        1,
		})
		if err != nil {
			return err
		}
		if len(packs) == 0 {
			return apperr.NotFound("document", documentID.String())
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return models.NewDocumentResponse(doc), nil
}

// validateProperties checks keys and declared types before anything is
// persisted.
func validateProperties(props map[string]models.PropertyInput) error {
	for key, input := range props {
		if strings.TrimSpace(key) == "" {
			return apperr.Validation("property keys must not be empty")
		}
		if !input.Type.Valid() {
			return apperr.Validationf("property %q has unknown type %q", key, input.Type)
		}
	}
	return nil
}
