package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"path/filepath"
	"testing"
	"time"

	"felixplore/internal/columnar"
	"felixplore/internal/config"
	"felixplore/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Table() string { return "articles" }

func (m *mockStore) EnsureSchema(ctx context.Context, dim int) error {
	return m.Called(ctx, dim).Error(0)
}

func (m *mockStore) InsertArticles(ctx context.Context, rows []models.Article, batchSize int) (int64, error) {
	args := m.Called(ctx, rows, batchSize)
	return args.Get(0).(int64), args.Error(1)
}

func TestLoadInsertsEveryRowInOneCall(t *testing.T) {
	store := &mockStore{}
	store.On("EnsureSchema", mock.Anything, 768).Return(nil)
	store.On("InsertArticles", mock.Anything, mock.MatchedBy(func(rows []models.Article) bool {
		return len(rows) == 3 && rows[1].Vector == nil
	}), 500).Return(int64(3), nil)

	var buf bytes.Buffer
	src := []columnar.SourceRow{
		{Headline: strPtr("a"), Vector: []float32{1, 2}},
		{Headline: strPtr("b"), Vector: []float32{float32(math.Inf(1))}},
		{Headline: strPtr("c"), Vector: []float32{3, 4}},
	}
	res, err := Load(context.Background(), store, src, Options{BatchSize: 500, EmbedDim: 768}, log.New(&buf, "", 0))
	require.NoError(t, err)
	require.Equal(t, models.LoadResult{Read: 3, Inserted: 3, NullVectors: 1, Warnings: 1}, res)
	require.Contains(t, buf.String(), "Warning: row 1: could not convert vector data")
	require.Contains(t, buf.String(), "Successfully inserted 3 rows into 'articles'.")
	store.AssertExpectations(t)
}

func TestLoadSchemaFailureSkipsInsert(t *testing.T) {
	store := &mockStore{}
	store.On("EnsureSchema", mock.Anything, 768).Return(errors.New("permission denied to create extension"))

	var buf bytes.Buffer
	_, err := Load(context.Background(), store, []columnar.SourceRow{{}}, Options{EmbedDim: 768}, log.New(&buf, "", 0))
	require.Error(t, err)
	require.Contains(t, buf.String(), "Error creating table or enabling extension")
	store.AssertNotCalled(t, "InsertArticles", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoadInsertFailureIsReturned(t *testing.T) {
	store := &mockStore{}
	store.On("EnsureSchema", mock.Anything, 768).Return(nil)
	store.On("InsertArticles", mock.Anything, mock.Anything, 500).Return(int64(0), fmt.Errorf("insert article row 4: boom"))

	var buf bytes.Buffer
	res, err := Load(context.Background(), store, make([]columnar.SourceRow, 5), Options{BatchSize: 500, EmbedDim: 768}, log.New(&buf, "", 0))
	require.Error(t, err)
	require.Contains(t, err.Error(), "load into articles")
	require.Equal(t, int64(0), res.Inserted)
	require.Contains(t, buf.String(), "Error inserting data")
}

func TestRunFileErrorBeforeConnecting(t *testing.T) {
	cfg := config.Config{
		ParquetPath:  filepath.Join(t.TempDir(), "missing.parquet"),
		Table:        "articles",
		PostgresHost: "db.invalid",
		PostgresPort: 1,
	}
	var buf bytes.Buffer
	_, err := Run(context.Background(), cfg, log.New(&buf, "", 0))
	require.Error(t, err)
	require.True(t, errors.Is(err, columnar.ErrRead))
	require.NotContains(t, buf.String(), "connected")
}

func TestLoadFromParquetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.parquet")
	vec := make([]float32, 768)
	for i := range vec {
		vec[i] = 0.25
	}
	published := time.Date(2011, 1, 14, 11, 45, 30, 0, time.UTC)
	require.NoError(t, columnar.WriteArticles(path, []columnar.SourceRow{
		{
			Publication: strPtr("Felix"),
			IssueNo:     i64Ptr(1480),
			PageNo:      i64Ptr(2),
			Headline:    strPtr("Title"),
			Txt:         strPtr("Body\fpage"),
			Strapline:   strPtr("Strap"),
			Author:      strPtr("Editor"),
			Category:    strPtr("News"),
			Vector:      vec,
			Date:        &published,
		},
		{
			Publication: strPtr("Felix"),
			IssueNo:     i64Ptr(1480),
			PageNo:      i64Ptr(3),
			Vector:      []float32{0.1, float32(math.NaN())},
		},
	}))
	src, err := columnar.ReadArticles(path)
	require.NoError(t, err)

	var got []models.Article
	store := &mockStore{}
	store.On("EnsureSchema", mock.Anything, 768).Return(nil)
	store.On("InsertArticles", mock.Anything, mock.Anything, 500).
		Run(func(args mock.Arguments) { got = args.Get(1).([]models.Article) }).
		Return(int64(2), nil)

	var buf bytes.Buffer
	res, err := Load(context.Background(), store, src, Options{BatchSize: 500, EmbedDim: 768}, log.New(&buf, "", 0))
	require.NoError(t, err)
	require.Equal(t, models.LoadResult{Read: 2, Inserted: 2, NullVectors: 1, Warnings: 1}, res)
	require.Contains(t, buf.String(), "Warning: row 1: could not convert vector data")

	require.Len(t, got, 2)
	first := got[0]
	require.Equal(t, "Felix", *first.Publication)
	require.Equal(t, int16(1480), *first.IssueNo)
	require.Equal(t, int16(2), *first.PageNo)
	require.Equal(t, "Title", *first.Headline)
	require.Equal(t, "Body\fpage", *first.Txt)
	require.Equal(t, "Strap", *first.Strapline)
	require.Equal(t, "Editor", *first.Author)
	require.Equal(t, "News", *first.Category)
	require.Equal(t, vec, first.Vector)
	require.Equal(t, time.Date(2011, 1, 14, 0, 0, 0, 0, time.UTC), *first.ArticleDate)

	require.Nil(t, got[1].Vector)
	require.Nil(t, got[1].Headline)
	require.Nil(t, got[1].ArticleDate)
	require.Equal(t, int16(3), *got[1].PageNo)
	store.AssertExpectations(t)
}
