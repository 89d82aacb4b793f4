// Package loader bulk-loads the Parquet article dump into Postgres.
package loader

import (
	"context"
	"fmt"

	"felixplore/internal/columnar"
	"felixplore/internal/config"
	"felixplore/internal/models"
	"felixplore/internal/storage"
)

// Logger receives progress lines and per-row warnings. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

// Store is the part of storage.ArticleRepo the loader needs.
type Store interface {
	Table() string
	EnsureSchema(ctx context.Context, dim int) error
	InsertArticles(ctx context.Context, rows []models.Article, batchSize int) (int64, error)
}

// Run reads cfg.ParquetPath, then connects, ensures the schema and inserts
// every row into cfg.Table. File errors are returned before any connection is
// attempted. The pool is closed on every path.
func Run(ctx context.Context, cfg config.Config, logger Logger) (models.LoadResult, error) {
	logger.Printf("Reading Parquet file: %s", cfg.ParquetPath)
	src, err := columnar.ReadArticles(cfg.ParquetPath)
	if err != nil {
		return models.LoadResult{}, err
	}

	db, err := storage.NewDB(ctx, cfg.PostgresURL())
	if err != nil {
		return models.LoadResult{Read: len(src)}, err
	}
	defer func() {
		db.Close()
		logger.Printf("PostgreSQL connection closed.")
	}()
	logger.Printf("Successfully connected to PostgreSQL.")

	return Load(ctx, storage.NewArticleRepo(db, cfg.Table), src, Options{
		BatchSize: cfg.BatchSize,
		EmbedDim:  cfg.EmbedDim,
	}, logger)
}

type Options struct {
	BatchSize int
	EmbedDim  int
}

// Load transforms src and writes it through store in a single transaction.
func Load(ctx context.Context, store Store, src []columnar.SourceRow, opts Options, logger Logger) (models.LoadResult, error) {
	res := models.LoadResult{Read: len(src)}

	if err := store.EnsureSchema(ctx, opts.EmbedDim); err != nil {
		logger.Printf("Error creating table or enabling extension: %v", err)
		return res, err
	}
	logger.Printf("Ensured pgvector extension is enabled and table '%s' exists.", store.Table())

	rows := make([]models.Article, 0, len(src))
	for i, r := range src {
		a, warnings := Transform(r)
		for _, w := range warnings {
			logger.Printf("Warning: row %d: %s", i, w)
		}
		res.Warnings += len(warnings)
		if a.Vector == nil {
			res.NullVectors++
		}
		rows = append(rows, a)
	}

	logger.Printf("Preparing to insert %d rows into table '%s'.", len(rows), store.Table())
	n, err := store.InsertArticles(ctx, rows, opts.BatchSize)
	if err != nil {
		logger.Printf("Error inserting data: %v", err)
		return res, fmt.Errorf("load into %s: %w", store.Table(), err)
	}
	res.Inserted = n
	logger.Printf("Successfully inserted %d rows into '%s'.", n, store.Table())
	return res, nil
}
