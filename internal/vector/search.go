package vector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Neighbor is one nearest-neighbour hit by cosine distance.
type Neighbor struct {
	ID       int64   `json:"id"`
	Distance float64 `json:"distance"`
}

type Searcher struct {
	q     Queryer
	table string
}

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func NewSearcher(q Queryer, table string) *Searcher {
	return &Searcher{q: q, table: table}
}

// Nearest returns up to limit rows closest to queryVec, skipping excludeID
// (pass 0 to keep every row).
func (s *Searcher) Nearest(ctx context.Context, queryVec []float32, excludeID int64, limit int) ([]Neighbor, error) {
	if limit <= 0 {
		limit = 8
	}
	if len(queryVec) == 0 {
		return []Neighbor{}, nil
	}
	lit, err := NullableLiteral(queryVec)
	if err != nil {
		return nil, fmt.Errorf("nearest query vector: %w", err)
	}

	query := `
SELECT id, vector <=> $1::vector AS distance
FROM ` + pgx.Identifier{s.table}.Sanitize() + `
WHERE vector IS NOT NULL
  AND id <> $2
ORDER BY vector <=> $1::vector
LIMIT $3`

	rows, err := s.q.Query(ctx, query, *lit, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("query nearest articles: %w", err)
	}
	defer rows.Close()

	out := make([]Neighbor, 0, limit)
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.ID, &n.Distance); err != nil {
			return nil, fmt.Errorf("scan nearest article: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nearest articles: %w", err)
	}
	return out, nil
}
