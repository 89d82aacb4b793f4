package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"felixplore/internal/models"
	"felixplore/internal/vector"
)

type SearchMode string

const (
	SearchKeyword  SearchMode = "keyword"
	SearchSemantic SearchMode = "vector"
	SearchHybrid   SearchMode = "rrf"
)

func ParseSearchMode(s string) (SearchMode, bool) {
	switch m := SearchMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SearchKeyword, SearchSemantic, SearchHybrid:
		return m, true
	}
	return "", false
}

const (
	DefaultRRFK                 = 60
	DefaultSimilarityThreshold  = 0.65
	DefaultTrendMinYearArticles = 300
)

// SearchParams describes one page of a search. Embedding is required for
// the semantic and hybrid modes. Since and Until bound article_date
// inclusively when set.
type SearchParams struct {
	Query     string
	Embedding []float32
	Mode      SearchMode
	Page      int
	PerPage   int
	Since     *time.Time
	Until     *time.Time
	Threshold float64
	RRFK      int
}

type scoredID struct {
	id    int64
	score float64
}

// sqlArgs collects positional parameters while a query is assembled.
type sqlArgs struct {
	vals []any
}

func (a *sqlArgs) add(v any) string {
	a.vals = append(a.vals, v)
	return "$" + strconv.Itoa(len(a.vals))
}

func dateFilters(args *sqlArgs, since, until *time.Time) []string {
	var conds []string
	if since != nil {
		conds = append(conds, "a.article_date >= "+args.add(*since)+"::date")
	}
	if until != nil {
		conds = append(conds, "a.article_date <= "+args.add(*until)+"::date")
	}
	return conds
}

func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conds, " AND ")
}

// Search runs one page of a keyword, semantic or hybrid (reciprocal rank
// fusion) search and reports the total number of matches.
func (r *ArticleRepo) Search(ctx context.Context, p SearchParams) (models.SearchPage, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = 10
	}
	if p.Threshold <= 0 {
		p.Threshold = DefaultSimilarityThreshold
	}
	if p.RRFK <= 0 {
		p.RRFK = DefaultRRFK
	}
	if p.Mode == "" {
		p.Mode = SearchKeyword
	}

	var (
		idSQL, countSQL string
		args            *sqlArgs
		countArgs       []any
		err             error
	)
	switch p.Mode {
	case SearchKeyword:
		idSQL, countSQL, args, countArgs = r.keywordSQL(p)
	case SearchSemantic:
		idSQL, countSQL, args, countArgs, err = r.semanticSQL(p)
	case SearchHybrid:
		idSQL, countSQL, args, countArgs, err = r.hybridSQL(p)
	default:
		return models.SearchPage{}, fmt.Errorf("unknown search mode %q", p.Mode)
	}
	if err != nil {
		return models.SearchPage{}, err
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return models.SearchPage{}, fmt.Errorf("count %s search: %w", p.Mode, err)
	}
	page := models.SearchPage{Hits: []models.SearchHit{}, Total: total}
	if total == 0 {
		return page, nil
	}

	rows, err := r.db.Pool.Query(ctx, idSQL, args.vals...)
	if err != nil {
		return models.SearchPage{}, fmt.Errorf("%s search: %w", p.Mode, err)
	}
	defer rows.Close()

	scored := make([]scoredID, 0, p.PerPage)
	for rows.Next() {
		var s scoredID
		if err := rows.Scan(&s.id, &s.score); err != nil {
			return models.SearchPage{}, fmt.Errorf("scan %s search hit: %w", p.Mode, err)
		}
		scored = append(scored, s)
	}
	if err := rows.Err(); err != nil {
		return models.SearchPage{}, fmt.Errorf("iterate %s search hits: %w", p.Mode, err)
	}

	ids := make([]int64, 0, len(scored))
	for _, s := range scored {
		ids = append(ids, s.id)
	}
	articles, err := r.GetArticles(ctx, ids)
	if err != nil {
		return models.SearchPage{}, err
	}
	byID := make(map[int64]models.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}
	for _, s := range scored {
		if a, ok := byID[s.id]; ok {
			page.Hits = append(page.Hits, models.SearchHit{Article: a, Score: s.score})
		}
	}
	return page, nil
}

func paginate(args *sqlArgs, p SearchParams) string {
	return " LIMIT " + args.add(p.PerPage) + " OFFSET " + args.add((p.Page-1)*p.PerPage)
}

func (r *ArticleRepo) keywordSQL(p SearchParams) (string, string, *sqlArgs, []any) {
	args := &sqlArgs{}
	q := args.add(p.Query)
	conds := append([]string{"a.search_vector @@ sq.query"}, dateFilters(args, p.Since, p.Until)...)
	from := `
WITH sq AS (SELECT websearch_to_tsquery('english', ` + q + `) AS query)
SELECT %s
FROM ` + r.ident() + ` a, sq
` + where(conds)

	countSQL := fmt.Sprintf(from, "count(*)")
	countArgs := append([]any(nil), args.vals...)
	idSQL := fmt.Sprintf(from, "a.id, ts_rank_cd(a.search_vector, sq.query)::float8 AS score") + `
ORDER BY score DESC, a.article_date DESC NULLS LAST, a.id` + paginate(args, p)
	return idSQL, countSQL, args, countArgs
}

func (r *ArticleRepo) semanticSQL(p SearchParams) (string, string, *sqlArgs, []any, error) {
	lit, err := queryLiteral(p.Embedding)
	if err != nil {
		return "", "", nil, nil, err
	}
	args := &sqlArgs{}
	v := args.add(lit)
	th := args.add(p.Threshold)
	conds := append([]string{
		"a.vector IS NOT NULL",
		"a.vector <=> " + v + "::text::vector < 1 - " + th + "::float8",
	}, dateFilters(args, p.Since, p.Until)...)
	from := `
SELECT %s
FROM ` + r.ident() + ` a
` + where(conds)

	countSQL := fmt.Sprintf(from, "count(*)")
	countArgs := append([]any(nil), args.vals...)
	idSQL := fmt.Sprintf(from, "a.id, (1 - (a.vector <=> "+v+"::text::vector))::float8 AS score") + `
ORDER BY score DESC, a.article_date DESC NULLS LAST, a.id` + paginate(args, p)
	return idSQL, countSQL, args, countArgs, nil
}

func (r *ArticleRepo) hybridSQL(p SearchParams) (string, string, *sqlArgs, []any, error) {
	lit, err := queryLiteral(p.Embedding)
	if err != nil {
		return "", "", nil, nil, err
	}
	args := &sqlArgs{}
	q := args.add(p.Query)
	v := args.add(lit)
	th := args.add(p.Threshold)
	dates := dateFilters(args, p.Since, p.Until)
	k := args.add(p.RRFK)
	pool := args.add(max(50, p.PerPage*3))

	keywordConds := append([]string{"a.search_vector @@ websearch_to_tsquery('english', " + q + ")"}, dates...)
	semanticConds := append([]string{
		"a.vector IS NOT NULL",
		"a.vector <=> " + v + "::text::vector < 1 - " + th + "::float8",
	}, dates...)

	fused := `
WITH keyword AS (
  SELECT a.id, RANK() OVER (ORDER BY ts_rank_cd(a.search_vector, websearch_to_tsquery('english', ` + q + `)) DESC) AS rank
  FROM ` + r.ident() + ` a
  ` + where(keywordConds) + `
  ORDER BY rank
  LIMIT ` + pool + `
), semantic AS (
  SELECT a.id, RANK() OVER (ORDER BY a.vector <=> ` + v + `::text::vector) AS rank
  FROM ` + r.ident() + ` a
  ` + where(semanticConds) + `
  ORDER BY rank
  LIMIT ` + pool + `
), fused AS (
  SELECT COALESCE(k.id, s.id) AS id,
         COALESCE(1.0 / (` + k + `::int + k.rank), 0.0) + COALESCE(1.0 / (` + k + `::int + s.rank), 0.0) AS score
  FROM keyword k
  FULL OUTER JOIN semantic s ON k.id = s.id
)`

	countSQL := fused + `
SELECT count(*) FROM fused`
	countArgs := append([]any(nil), args.vals...)
	idSQL := fused + `
SELECT f.id, f.score::float8
FROM fused f
JOIN ` + r.ident() + ` a ON a.id = f.id
ORDER BY f.score DESC, a.article_date DESC NULLS LAST, a.id` + paginate(args, p)
	return idSQL, countSQL, args, countArgs, nil
}

func queryLiteral(vec []float32) (string, error) {
	lit, err := vector.NullableLiteral(vec)
	if err != nil {
		return "", fmt.Errorf("search query vector: %w", err)
	}
	if lit == nil {
		return "", fmt.Errorf("search query vector is empty")
	}
	return *lit, nil
}

// YearTrends reports, for every year with more than minPerYear dated
// articles, the share of that year's articles whose cosine similarity to
// queryVec exceeds threshold.
func (r *ArticleRepo) YearTrends(ctx context.Context, queryVec []float32, threshold float64, minPerYear int) ([]models.YearTrend, error) {
	lit, err := queryLiteral(queryVec)
	if err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	rows, err := r.db.Pool.Query(ctx, `
WITH totals AS (
  SELECT EXTRACT(YEAR FROM article_date)::int AS year, count(*) AS total
  FROM `+r.ident()+`
  WHERE article_date IS NOT NULL
  GROUP BY 1
  HAVING count(*) > $3
), relevant AS (
  SELECT EXTRACT(YEAR FROM article_date)::int AS year, count(*) AS hits
  FROM `+r.ident()+`
  WHERE article_date IS NOT NULL
    AND vector IS NOT NULL
    AND 1 - (vector <=> $1::text::vector) > $2::float8
  GROUP BY 1
)
SELECT t.year, COALESCE(rel.hits::float8 / t.total::float8, 0)::float8
FROM totals t
LEFT JOIN relevant rel ON rel.year = t.year
ORDER BY t.year`, lit, threshold, minPerYear)
	if err != nil {
		return nil, fmt.Errorf("query year trends: %w", err)
	}
	defer rows.Close()

	out := make([]models.YearTrend, 0, 32)
	for rows.Next() {
		var t models.YearTrend
		if err := rows.Scan(&t.Year, &t.Popularity); err != nil {
			return nil, fmt.Errorf("scan year trend: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate year trends: %w", err)
	}
	return out, nil
}
