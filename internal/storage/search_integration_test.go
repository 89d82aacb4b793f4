package storage

import (
	"context"
	"testing"
	"time"

	"felixplore/internal/models"

	"github.com/stretchr/testify/require"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func seedSearch(t *testing.T, table string) *ArticleRepo {
	t.Helper()
	repo := newTestRepo(t, table)
	ctx := context.Background()
	require.NoError(t, repo.EnsureSchema(ctx, 3))
	_, err := repo.InsertArticles(ctx, []models.Article{
		{Headline: strPtr("Union elections open"), Txt: strPtr("Voting for union officers starts Monday."), Vector: []float32{1, 0, 0}, ArticleDate: datePtr(2010, 3, 1)},
		{Headline: strPtr("Election results"), Txt: strPtr("The union election count finished late."), Vector: []float32{0.9, 0.1, 0}, ArticleDate: datePtr(2011, 3, 1)},
		{Headline: strPtr("Rowing club wins"), Txt: strPtr("A strong season on the river."), Vector: []float32{0, 0, 1}, ArticleDate: datePtr(2011, 5, 1)},
		{Headline: strPtr("Library hours"), Txt: strPtr("Opening times change next week."), ArticleDate: datePtr(2012, 1, 1)},
	}, 500)
	require.NoError(t, err)
	return repo
}

func TestSearchKeyword(t *testing.T) {
	repo := seedSearch(t, "articles_search_kw")
	ctx := context.Background()

	page, err := repo.Search(ctx, SearchParams{Query: "union election", Mode: SearchKeyword, PerPage: 10})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Len(t, page.Hits, 2)
	for _, h := range page.Hits {
		require.Contains(t, *h.Article.Txt, "union")
		require.Greater(t, h.Score, 0.0)
	}

	page, err = repo.Search(ctx, SearchParams{Query: "union election", PerPage: 1, Page: 2})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Len(t, page.Hits, 1)

	page, err = repo.Search(ctx, SearchParams{Query: "union", Since: datePtr(2011, 1, 1)})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "Election results", *page.Hits[0].Article.Headline)

	page, err = repo.Search(ctx, SearchParams{Query: "zeppelin"})
	require.NoError(t, err)
	require.Zero(t, page.Total)
	require.Empty(t, page.Hits)
}

func TestSearchSemanticAndHybrid(t *testing.T) {
	repo := seedSearch(t, "articles_search_vec")
	ctx := context.Background()

	page, err := repo.Search(ctx, SearchParams{Embedding: []float32{1, 0, 0}, Mode: SearchSemantic, Threshold: 0.65})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Equal(t, "Union elections open", *page.Hits[0].Article.Headline)
	require.InDelta(t, 1.0, page.Hits[0].Score, 1e-6)

	page, err = repo.Search(ctx, SearchParams{Query: "rowing", Embedding: []float32{1, 0, 0}, Mode: SearchHybrid, Threshold: 0.65})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Hits, 3)

	_, err = repo.Search(ctx, SearchParams{Query: "x", Mode: SearchSemantic})
	require.ErrorContains(t, err, "search query vector is empty")
}

func TestYearTrends(t *testing.T) {
	repo := seedSearch(t, "articles_trends")
	ctx := context.Background()

	trends, err := repo.YearTrends(ctx, []float32{1, 0, 0}, 0.65, 0)
	require.NoError(t, err)
	require.Equal(t, []models.YearTrend{
		{Year: 2010, Popularity: 1},
		{Year: 2011, Popularity: 0.5},
		{Year: 2012, Popularity: 0},
	}, trends)

	trends, err = repo.YearTrends(ctx, []float32{1, 0, 0}, 0.65, 1)
	require.NoError(t, err)
	require.Equal(t, []models.YearTrend{{Year: 2011, Popularity: 0.5}}, trends)
}

func TestEmbeddingCache(t *testing.T) {
	repo := newTestRepo(t, "articles_cache_unused")
	ctx := context.Background()
	require.NoError(t, repo.EnsureSchema(ctx, 3))

	cache := NewEmbeddingCache(repo.db)
	require.NoError(t, cache.EnsureSchema(ctx))
	require.NoError(t, cache.EnsureSchema(ctx))

	_, ok, err := cache.Lookup(ctx, "mock:m:3", "union")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Store(ctx, "mock:m:3", "union", []float32{0.5, 0.25, 1}))
	require.NoError(t, cache.Store(ctx, "mock:m:3", "union", []float32{9, 9, 9}))

	vec, ok, err := cache.Lookup(ctx, "mock:m:3", "union")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float32{0.5, 0.25, 1}, vec)

	_, ok, err = cache.Lookup(ctx, "ollama:other:3", "union")
	require.NoError(t, err)
	require.False(t, ok)
}
