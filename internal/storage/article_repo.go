package storage

import (
	"context"
	"errors"
	"fmt"

	"felixplore/internal/models"
	"felixplore/internal/vector"

	"github.com/jackc/pgx/v5"
)

const DefaultBatchSize = 500

type ArticleRepo struct {
	db    *DB
	table string
}

func NewArticleRepo(db *DB, table string) *ArticleRepo {
	return &ArticleRepo{db: db, table: table}
}

func (r *ArticleRepo) Table() string {
	return r.table
}

func (r *ArticleRepo) ident() string {
	return pgx.Identifier{r.table}.Sanitize()
}

// InsertArticles writes rows in one transaction, sending batchSize inserts per
// round trip. Any failure rolls back every row of the call.
func (r *ArticleRepo) InsertArticles(ctx context.Context, rows []models.Article, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx insert articles: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	insertSQL := `
INSERT INTO ` + r.ident() + ` (publication, issue_no, page_no, headline, txt, strapline, author, category, vector, article_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::text::vector, $10)`

	var inserted int64
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := &pgx.Batch{}
		for i, a := range rows[start:end] {
			lit, err := vector.NullableLiteral(a.Vector)
			if err != nil {
				return 0, fmt.Errorf("article row %d: %w", start+i, err)
			}
			batch.Queue(insertSQL,
				a.Publication, a.IssueNo, a.PageNo, a.Headline, a.Txt,
				a.Strapline, a.Author, a.Category, lit, a.ArticleDate,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for i := 0; i < end-start; i++ {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return 0, fmt.Errorf("insert article row %d: %w", start+i, err)
			}
			inserted += tag.RowsAffected()
		}
		if err := br.Close(); err != nil {
			return 0, fmt.Errorf("close insert batch at row %d: %w", start, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit articles tx: %w", err)
	}
	return inserted, nil
}

// IssueArticles lists the articles of one issue by ascending page number.
func (r *ArticleRepo) IssueArticles(ctx context.Context, publication string, issueNo int) ([]models.IssueArticle, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT id, page_no, headline, strapline, txt
FROM `+r.ident()+`
WHERE publication = $1 AND issue_no = $2
ORDER BY page_no`, publication, issueNo)
	if err != nil {
		return nil, fmt.Errorf("list issue articles: %w", err)
	}
	defer rows.Close()

	out := make([]models.IssueArticle, 0, 32)
	for rows.Next() {
		var a models.IssueArticle
		if err := rows.Scan(&a.ID, &a.PageNo, &a.Headline, &a.Strapline, &a.Txt); err != nil {
			return nil, fmt.Errorf("scan issue article: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issue articles: %w", err)
	}
	return out, nil
}

const articleColumns = `id, publication, issue_no, page_no, headline, txt, strapline, author, category, vector::text, article_date`

func scanArticle(row pgx.Row) (models.Article, error) {
	var (
		a   models.Article
		vec *string
	)
	if err := row.Scan(&a.ID, &a.Publication, &a.IssueNo, &a.PageNo, &a.Headline, &a.Txt,
		&a.Strapline, &a.Author, &a.Category, &vec, &a.ArticleDate); err != nil {
		return models.Article{}, err
	}
	if vec != nil {
		v, err := vector.ParseLiteral(*vec)
		if err != nil {
			return models.Article{}, err
		}
		a.Vector = v
	}
	return a, nil
}

func (r *ArticleRepo) GetArticle(ctx context.Context, id int64) (models.Article, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+articleColumns+` FROM `+r.ident()+` WHERE id = $1`, id)
	a, err := scanArticle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Article{}, ErrNotFound
	}
	if err != nil {
		return models.Article{}, fmt.Errorf("get article %d: %w", id, err)
	}
	return a, nil
}

// GetArticles loads the given ids, returned in the order of ids. Ids with no
// row are skipped.
func (r *ArticleRepo) GetArticles(ctx context.Context, ids []int64) ([]models.Article, error) {
	if len(ids) == 0 {
		return []models.Article{}, nil
	}
	rows, err := r.db.Pool.Query(ctx, `SELECT `+articleColumns+` FROM `+r.ident()+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list articles by ids: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]models.Article, len(ids))
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article by id: %w", err)
		}
		byID[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles by ids: %w", err)
	}
	out := make([]models.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// RandomArticleID picks an article with a headline. A 1% table sample is
// tried first; small tables fall back to a full random ordering.
func (r *ArticleRepo) RandomArticleID(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx, `
SELECT id FROM `+r.ident()+` TABLESAMPLE SYSTEM (1)
WHERE headline IS NOT NULL
LIMIT 1`).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("sample random article: %w", err)
	}
	err = r.db.Pool.QueryRow(ctx, `
SELECT id FROM `+r.ident()+`
WHERE headline IS NOT NULL
ORDER BY random()
LIMIT 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("pick random article: %w", err)
	}
	return id, nil
}

func (r *ArticleRepo) Searcher() *vector.Searcher {
	return vector.NewSearcher(r.db.Pool, r.table)
}
