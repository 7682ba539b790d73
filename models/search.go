package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// FilterKind discriminates the tagged property-filter variant.
type FilterKind int

const (
	FilterNone FilterKind = iota // ignored (e.g. empty one_of)
	FilterEq
	FilterOneOf
	FilterRange
)

// PropertyFilter is the decoded form of one entry in a search request's
// filters map: {eq}, {one_of}, {gte/lte}, or a bare primitive meaning eq.
type PropertyFilter struct {
	Eq    *string  `json:"eq,omitempty"`
	OneOf []string `json:"one_of,omitempty"`
	Gte   *string  `json:"gte,omitempty"`
	Lte   *string  `json:"lte,omitempty"`
}

// Kind returns which variant the filter encodes. Precedence follows the
// request shape: eq, then one_of, then range.
func (f *PropertyFilter) Kind() FilterKind {
	switch {
	case f.Eq != nil:
		return FilterEq
	case f.OneOf != nil:
		if len(f.OneOf) == 0 {
			return FilterNone
		}
		return FilterOneOf
	case f.Gte != nil || f.Lte != nil:
		return FilterRange
	default:
		return FilterNone
	}
}

// UnmarshalJSON accepts either a filter object or a bare primitive, which is
// shorthand for {eq: value}. Booleans stringify as "true"/"false"; numbers
// keep their literal form. Malformed specs are rejected.
func (f *PropertyFilter) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty filter spec")
	}
	if trimmed[0] != '{' {
		v, err := decodeFilterScalar(trimmed)
		if err != nil {
			return err
		}
		*f = PropertyFilter{Eq: &v}
		return nil
	}

	var raw struct {
		Eq    json.RawMessage   `json:"eq"`
		OneOf []json.RawMessage `json:"one_of"`
		Gte   json.RawMessage   `json:"gte"`
		Lte   json.RawMessage   `json:"lte"`
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("invalid filter spec: %w", err)
	}

	out := PropertyFilter{}
	if raw.Eq != nil {
		v, err := decodeFilterScalar(raw.Eq)
		if err != nil {
			return err
		}
		out.Eq = &v
	}
	if raw.OneOf != nil {
		out.OneOf = make([]string, 0, len(raw.OneOf))
		for _, m := range raw.OneOf {
			v, err := decodeFilterScalar(m)
			if err != nil {
				return err
			}
			out.OneOf = append(out.OneOf, v)
		}
	}
	if raw.Gte != nil {
		v, err := decodeFilterScalar(raw.Gte)
		if err != nil {
			return err
		}
		out.Gte = &v
	}
	if raw.Lte != nil {
		v, err := decodeFilterScalar(raw.Lte)
		if err != nil {
			return err
		}
		out.Lte = &v
	}
	*f = out
	return nil
}

// decodeFilterScalar normalizes a JSON scalar to its stored string form.
func decodeFilterScalar(data json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("invalid filter value: %w", err)
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	default:
		return "", fmt.Errorf("filter value must be a scalar, got %T", v)
	}
}

// SearchRequest is the body of POST /v1/collections/{id}/search.
type SearchRequest struct {
	Query        string                    `json:"query"`
	VectorWeight *float64                  `json:"vector_weight,omitempty"`
	FTSWeight    *float64                  `json:"fts_weight,omitempty"`
	Limit        int                       `json:"limit,omitempty"`
	Filters      map[string]PropertyFilter `json:"filters,omitempty"`
}

// SearchResult is one ranked hit.
type SearchResult struct {
	ChunkID       uuid.UUID         `json:"chunk_id"`
	PackID        uuid.UUID         `json:"pack_id"`
	DocumentID    uuid.UUID         `json:"document_id"`
	Content       string            `json:"content"`
	VectorScore   float64           `json:"vector_score"`
	FTSScore      float64           `json:"fts_score"`
	Score         float64           `json:"score"`
	DocumentTitle string            `json:"document_title,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// PropertySchemaItem describes one distinct (key, type) over a collection's
// documents, with sample values for string/bool keys so filter UIs can offer
// choices.
type PropertySchemaItem struct {
	Key    string       `json:"key"`
	Label  string       `json:"label"`
	Type   PropertyType `json:"type"`
	Values []string     `json:"values"`
}

type PropertySchemaResponse struct {
	Properties []PropertySchemaItem `json:"properties"`
}

// EmbeddingModelInfo describes one model served by GET /v1/models.
type EmbeddingModelInfo struct {
	ID         string `json:"id"`
	Dimensions int    `json:"dimensions"`
}

type EmbeddingModelListResponse struct {
	Items []EmbeddingModelInfo `json:"items"`
}
