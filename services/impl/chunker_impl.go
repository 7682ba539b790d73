package impl

import (
	"strings"

	"github.com/relrag-api/apperr"
	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

type recursiveChunker struct{}

// NewChunker returns the sliding-window chunker. Only the recursive strategy
// is implemented; fixed and semantic are declared strategies and fail loudly
// rather than falling back.
func NewChunker() services.Chunker {
	return &recursiveChunker{}
}

// Chunk splits text into windows of ChunkSize runes advancing by
// max(1, ChunkSize-ChunkOverlap). The input and every window are trimmed;
// empty windows are dropped. Output is byte-identical for identical inputs.
func (c *recursiveChunker) Chunk(text string, cfg models.ChunkingConfig) ([]string, error) {
	if cfg.Strategy != models.ChunkingStrategyRecursive {
		if cfg.Strategy.Valid() {
			return nil, apperr.Validationf("chunking strategy %q is not implemented", cfg.Strategy)
		}
		return nil, apperr.Validationf("unsupported chunking strategy %q", cfg.Strategy)
	}
	if cfg.ChunkSize <= 0 {
		return nil, apperr.Validation("chunk_size must be positive")
	}
	if cfg.ChunkOverlap < 0 {
		return nil, apperr.Validation("chunk_overlap must not be negative")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}, nil
	}

	step := cfg.ChunkSize - cfg.ChunkOverlap
	if step < 1 {
		step = 1
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + cfg.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}
