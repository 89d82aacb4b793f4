package models

import "time"

// Article is one row of the articles table. Nil pointers and a nil Vector
// are stored as NULL.
type Article struct {
	ID          int64      `json:"id,omitempty"`
	Publication *string    `json:"publication,omitempty"`
	IssueNo     *int16     `json:"issue_no,omitempty"`
	PageNo      *int16     `json:"page_no,omitempty"`
	Headline    *string    `json:"headline,omitempty"`
	Txt         *string    `json:"txt,omitempty"`
	Strapline   *string    `json:"strapline,omitempty"`
	Author      *string    `json:"author,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Vector      []float32  `json:"-"`
	ArticleDate *time.Time `json:"article_date,omitempty"`
}

// IssueArticle is the projection read when rendering a whole issue.
type IssueArticle struct {
	ID        int64
	PageNo    *int16
	Headline  *string
	Strapline *string
	Txt       *string
}

type LoadResult struct {
	Read        int   `json:"read"`
	Inserted    int64 `json:"inserted"`
	NullVectors int   `json:"null_vectors"`
	Warnings    int   `json:"warnings"`
}

// SearchHit is one ranked search result. Score is the keyword rank, the
// cosine similarity or the fused reciprocal rank, depending on the mode.
type SearchHit struct {
	Article Article `json:"article"`
	Score   float64 `json:"score"`
}

type SearchPage struct {
	Hits  []SearchHit `json:"hits"`
	Total int         `json:"total"`
}

// YearTrend is the share of one year's articles that match a query.
type YearTrend struct {
	Year       int     `json:"year"`
	Popularity float64 `json:"popularity"`
}
