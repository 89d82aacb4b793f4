package storage

import (
	"context"
	"errors"
	"fmt"

	"felixplore/internal/vector"

	"github.com/jackc/pgx/v5"
)

const DefaultEmbeddingCacheTable = "query_embedding_cache"

// EmbeddingCache keeps query embeddings so repeated searches skip the
// embedding provider. Rows are keyed by (model, query_text).
type EmbeddingCache struct {
	db    *DB
	table string
}

func NewEmbeddingCache(db *DB) *EmbeddingCache {
	return &EmbeddingCache{db: db, table: DefaultEmbeddingCacheTable}
}

func (c *EmbeddingCache) ident() string {
	return pgx.Identifier{c.table}.Sanitize()
}

func (c *EmbeddingCache) EnsureSchema(ctx context.Context) error {
	_, err := c.db.Pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS `+c.ident()+` (
  id           BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
  model        TEXT NOT NULL,
  query_text   TEXT NOT NULL,
  embedding    vector NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  last_used_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  usage_count  INTEGER NOT NULL DEFAULT 1,
  UNIQUE (model, query_text)
)`)
	if err != nil {
		return fmt.Errorf("ensure embedding cache schema: %w", err)
	}
	return nil
}

// Lookup returns the cached embedding and bumps its usage counters.
func (c *EmbeddingCache) Lookup(ctx context.Context, model, text string) ([]float32, bool, error) {
	var lit string
	err := c.db.Pool.QueryRow(ctx, `
UPDATE `+c.ident()+`
SET last_used_at = now(), usage_count = usage_count + 1
WHERE model = $1 AND query_text = $2
RETURNING embedding::text`, model, text).Scan(&lit)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup cached embedding: %w", err)
	}
	vec, err := vector.ParseLiteral(lit)
	if err != nil {
		return nil, false, fmt.Errorf("parse cached embedding: %w", err)
	}
	return vec, true, nil
}

// Store saves vec. A concurrent insert of the same key wins silently.
func (c *EmbeddingCache) Store(ctx context.Context, model, text string, vec []float32) error {
	lit, err := vector.NullableLiteral(vec)
	if err != nil {
		return fmt.Errorf("cache embedding: %w", err)
	}
	if lit == nil {
		return nil
	}
	_, err = c.db.Pool.Exec(ctx, `
INSERT INTO `+c.ident()+` (model, query_text, embedding)
VALUES ($1, $2, $3::text::vector)
ON CONFLICT (model, query_text) DO NOTHING`, model, text, *lit)
	if err != nil {
		return fmt.Errorf("store cached embedding: %w", err)
	}
	return nil
}
