package storage

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
)

const DefaultEmbedDim = 768

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidTableName reports whether name is a plain lower-case identifier short
// enough to leave room for the index name suffixes.
func ValidTableName(name string) bool {
	return len(name) <= 40 && tableNamePattern.MatchString(name)
}

func schemaStatements(table string, dim int) []string {
	if dim <= 0 {
		dim = DefaultEmbedDim
	}
	t := pgx.Identifier{table}.Sanitize()
	idx := pgx.Identifier{table + "_publication_issue_idx"}.Sanitize()
	searchIdx := pgx.Identifier{table + "_search_idx"}.Sanitize()
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id           BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
  publication  TEXT,
  issue_no     SMALLINT,
  page_no      SMALLINT,
  headline     TEXT,
  txt          TEXT,
  strapline    TEXT,
  author       TEXT,
  category     TEXT,
  vector       vector(%d),
  article_date DATE
)`, t, dim),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (publication, issue_no, page_no)`, idx, t),
		fmt.Sprintf(`
ALTER TABLE %s ADD COLUMN IF NOT EXISTS search_vector tsvector
  GENERATED ALWAYS AS (
    to_tsvector('english', coalesce(headline, '') || ' ' || coalesce(strapline, '') || ' ' || coalesce(txt, ''))
  ) STORED`, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (search_vector)`, searchIdx, t),
	}
}

// EnsureSchema creates the vector extension, the table, its lookup index and
// the generated full-text column when missing. Safe to run any number of times.
func (r *ArticleRepo) EnsureSchema(ctx context.Context, dim int) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx ensure schema: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, stmt := range schemaStatements(r.table, dim) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema for %s: %w", r.table, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
