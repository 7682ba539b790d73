package repository

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

type chunkRepository struct {
	db *gorm.DB
}

func (r *chunkRepository) CreateBatch(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&chunks).Error; err != nil {
		return translate("create chunks", err)
	}
	return nil
}

func (r *chunkRepository) GetByPackID(ctx context.Context, packID uuid.UUID) ([]models.Chunk, error) {
	var chunks []models.Chunk
	err := r.db.WithContext(ctx).
		Where("pack_id = ?", packID).
		Order("position").
		Find(&chunks).Error
	if err != nil {
		return nil, translate("get chunks by pack", err)
	}
	return chunks, nil
}

func (r *chunkRepository) DeleteByPackID(ctx context.Context, packID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Chunk{}, "pack_id = ?", packID).Error; err != nil {
		return translate("delete chunks by pack", err)
	}
	return nil
}

// searchRow is the scan target of the hybrid-rank statement.
type searchRow struct {
	ChunkID       uuid.UUID      `gorm:"column:chunk_id"`
	PackID        uuid.UUID      `gorm:"column:pack_id"`
	DocumentID    uuid.UUID      `gorm:"column:document_id"`
	Content       string         `gorm:"column:content"`
	VectorScore   float64        `gorm:"column:vector_score"`
	FTSScore      float64        `gorm:"column:fts_score"`
	CombinedScore float64        `gorm:"column:combined_score"`
	DocProperties datatypes.JSON `gorm:"column:doc_properties"`
}

// Search issues the single hybrid-rank statement: vector similarity fused
// with full-text rank over the collection's live packs, filtered by
// per-document property predicates, ordered by the weighted combination.
func (r *chunkRepository) Search(ctx context.Context, params services.ChunkSearchParams) ([]models.SearchResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}

	var sb strings.Builder
	var args []any

	vectorExpr := "0::float8"
	if len(params.QueryEmbedding) > 0 {
		vectorExpr = "(1 - (c.embedding <=> ?::vector))"
	}
	ftsExpr := "0::float8"
	if params.QueryFTS != "" {
		ftsExpr = "ts_rank(to_tsvector('simple', c.content), plainto_tsquery('simple', ?))"
	}

	sb.WriteString("SELECT ranked.*, (ranked.vector_score * ? + ranked.fts_score * ?) AS combined_score FROM (")
	args = append(args, params.VectorWeight, params.FTSWeight)

	sb.WriteString("SELECT c.id AS chunk_id, c.pack_id, p.document_id, c.content, ")
	sb.WriteString(vectorExpr)
	sb.WriteString(" AS vector_score, ")
	if len(params.QueryEmbedding) > 0 {
		args = append(args, pgvector.NewVector(params.QueryEmbedding))
	}
	sb.WriteString(ftsExpr)
	sb.WriteString(" AS fts_score, ")
	if params.QueryFTS != "" {
		args = append(args, params.QueryFTS)
	}
	sb.WriteString("(SELECT COALESCE(json_object_agg(pr.key, json_build_object('value', pr.value, 'type', pr.property_type)), '{}'::json) " +
		"FROM property pr WHERE pr.document_id = p.document_id) AS doc_properties ")
	sb.WriteString("FROM chunk c " +
		"JOIN pack p ON p.id = c.pack_id " +
		"JOIN document d ON d.id = p.document_id " +
		"JOIN pack_collection pc ON pc.pack_id = p.id AND pc.collection_id = ? ")
	args = append(args, params.CollectionID)
	sb.WriteString("WHERE p.deleted_at IS NULL AND d.deleted_at IS NULL")

	filterSQL, filterArgs := buildPropertyFilterSQL(params.PropertyFilters)
	sb.WriteString(filterSQL)
	args = append(args, filterArgs...)

	sb.WriteString(") ranked ORDER BY combined_score DESC LIMIT ?")
	args = append(args, limit)

	var rows []searchRow
	if err := r.db.WithContext(ctx).Raw(sb.String(), args...).Scan(&rows).Error; err != nil {
		return nil, translate("hybrid search", err)
	}

	results := make([]models.SearchResult, 0, len(rows))
	for _, row := range rows {
		title, metadata := splitDocProperties(row.DocProperties)
		results = append(results, models.SearchResult{
			ChunkID:       row.ChunkID,
			PackID:        row.PackID,
			DocumentID:    row.DocumentID,
			Content:       row.Content,
			VectorScore:   row.VectorScore,
			FTSScore:      row.FTSScore,
			Score:         row.CombinedScore,
			DocumentTitle: title,
			Metadata:      metadata,
		})
	}
	return results, nil
}

// buildPropertyFilterSQL renders each filter as an EXISTS subquery over the
// property table, ANDed together. Keys are sorted so the statement shape is
// deterministic for a given filter set.
func buildPropertyFilterSQL(filters map[string]models.PropertyFilter) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	var args []any
	for _, key := range keys {
		f := filters[key]
		switch f.Kind() {
		case models.FilterEq:
			sb.WriteString(" AND EXISTS (SELECT 1 FROM property pr WHERE pr.document_id = p.document_id AND pr.key = ? AND pr.value = ?)")
			args = append(args, key, *f.Eq)
		case models.FilterOneOf:
			sb.WriteString(" AND EXISTS (SELECT 1 FROM property pr WHERE pr.document_id = p.document_id AND pr.key = ? AND pr.value IN ?)")
			args = append(args, key, f.OneOf)
		case models.FilterRange:
			cast := rangeCast(f)
			sb.WriteString(" AND EXISTS (SELECT 1 FROM property pr WHERE pr.document_id = p.document_id AND pr.key = ?")
			args = append(args, key)
			if f.Gte != nil {
				sb.WriteString(" AND (pr.value)::" + cast + " >= (?)::" + cast)
				args = append(args, *f.Gte)
			}
			if f.Lte != nil {
				sb.WriteString(" AND (pr.value)::" + cast + " <= (?)::" + cast)
				args = append(args, *f.Lte)
			}
			sb.WriteString(")")
		default:
			// FilterNone: ignored (e.g. empty one_of list).
		}
	}
	return sb.String(), args
}

// rangeCast picks the comparison cast for a range filter: numeric when both
// present endpoints parse as numbers, otherwise date.
func rangeCast(f models.PropertyFilter) string {
	numeric := true
	for _, v := range []*string{f.Gte, f.Lte} {
		if v == nil {
			continue
		}
		if _, err := strconv.ParseFloat(*v, 64); err != nil {
			numeric = false
		}
	}
	if numeric {
		return "float8"
	}
	return "date"
}

// splitDocProperties separates the aggregated document properties into the
// title and the remaining metadata map.
func splitDocProperties(raw datatypes.JSON) (string, map[string]string) {
	if len(raw) == 0 {
		return "", nil
	}
	var props map[string]struct {
		Value string `json:"value"`
		Type  string `json:"type"`
	}
	if err := json.Unmarshal(raw, &props); err != nil || len(props) == 0 {
		return "", nil
	}
	title := ""
	metadata := make(map[string]string, len(props))
	for k, v := range props {
		if k == "title" {
			title = v.Value
			continue
		}
		metadata[k] = v.Value
	}
	if len(metadata) == 0 {
		metadata = nil
	}
	return title, metadata
}
