package providers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

var ErrEmptyQuery = errors.New("empty query text")

// EmbeddingCache stores query embeddings keyed by model and text.
type EmbeddingCache interface {
	Lookup(ctx context.Context, model, text string) ([]float32, bool, error)
	Store(ctx context.Context, model, text string, vec []float32) error
}

// QueryEmbedder turns search text into a vector of the table's width,
// consulting the cache before the provider. Cache failures are logged and
// otherwise ignored.
type QueryEmbedder struct {
	provider EmbeddingProvider
	cache    EmbeddingCache
	key      string
	dim      int
}

// NewQueryEmbedder wraps provider. cache may be nil.
func NewQueryEmbedder(provider EmbeddingProvider, info ProviderInfo, cache EmbeddingCache, dim int) *QueryEmbedder {
	return &QueryEmbedder{
		provider: provider,
		cache:    cache,
		key:      fmt.Sprintf("%s:%s:%d", info.Name, info.Model, dim),
		dim:      dim,
	}
}

func (q *QueryEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyQuery
	}
	if q.cache != nil {
		vec, ok, err := q.cache.Lookup(ctx, q.key, text)
		if err != nil {
			log.Printf("embedding cache lookup failed: %v", err)
		}
		if ok && len(vec) == q.dim {
			return vec, nil
		}
	}

	vecs, info, err := q.provider.Embed(ctx, EmbedRequest{Inputs: []string{text}, Dimension: q.dim})
	if err != nil {
		return nil, fmt.Errorf("embed query with %s: %w", info.Name, err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("embed query with %s: empty result", info.Name)
	}
	vec := matchDimension(vecs[0], q.dim)

	if q.cache != nil {
		if err := q.cache.Store(ctx, q.key, text, vec); err != nil {
			log.Printf("embedding cache store failed: %v", err)
		}
	}
	return vec, nil
}
