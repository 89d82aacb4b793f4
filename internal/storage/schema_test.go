package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaStatementsAreConditional(t *testing.T) {
	stmts := schemaStatements("articles", 768)
	require.Len(t, stmts, 5)
	for _, s := range stmts {
		require.Contains(t, s, "IF NOT EXISTS")
	}
	require.Contains(t, stmts[1], `CREATE TABLE IF NOT EXISTS "articles"`)
	require.Contains(t, stmts[1], "vector(768)")
	require.Contains(t, stmts[1], "article_date DATE")
	require.Contains(t, stmts[2], `"articles_publication_issue_idx" ON "articles"`)
	require.Contains(t, stmts[3], `ALTER TABLE "articles" ADD COLUMN IF NOT EXISTS search_vector tsvector`)
	require.Contains(t, stmts[3], "to_tsvector('english'")
	require.Contains(t, stmts[4], `"articles_search_idx" ON "articles" USING GIN (search_vector)`)
}

func TestValidTableName(t *testing.T) {
	for _, name := range []string{"articles", "_staging", "articles_2024"} {
		require.True(t, ValidTableName(name), name)
	}
	for _, name := range []string{"", "Articles", "1articles", "articles;drop", `weird"name`, "a-b", strings.Repeat("a", 41)} {
		require.False(t, ValidTableName(name), name)
	}
}

func TestSchemaStatementsQuoteTableAndDefaultDim(t *testing.T) {
	stmts := schemaStatements(`weird"name`, 0)
	require.True(t, strings.Contains(stmts[1], `"weird""name"`))
	require.Contains(t, stmts[1], "vector(768)")
}
