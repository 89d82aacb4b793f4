// Package fetcher renders every article of one publication issue as Markdown.
package fetcher

import (
	"context"
	"fmt"
	"io"

	"felixplore/internal/config"
	"felixplore/internal/models"
	"felixplore/internal/storage"
)

type IssueQuerier interface {
	IssueArticles(ctx context.Context, publication string, issueNo int) ([]models.IssueArticle, error)
}

// Fetch returns the issue's articles. A query error is reported on stderr and
// yields no articles, so callers handle it the same way as an empty issue.
func Fetch(ctx context.Context, q IssueQuerier, publication string, issueNo int, stderr io.Writer) []models.IssueArticle {
	articles, err := q.IssueArticles(ctx, publication, issueNo)
	if err != nil {
		fmt.Fprintf(stderr, "Database error: %v\n", err)
		return nil
	}
	return articles
}

// Write prints the rendered issue to stdout, or a diagnostic to stderr when
// there is nothing to print.
func Write(stdout, stderr io.Writer, publication string, issueNo int, articles []models.IssueArticle) error {
	if len(articles) == 0 {
		fmt.Fprintf(stderr, "No articles found for publication '%s', issue %d.\n", publication, issueNo)
		return nil
	}
	out, err := Render(articles)
	if err != nil {
		return fmt.Errorf("render issue: %w", err)
	}
	if _, err := fmt.Fprintln(stdout, out); err != nil {
		return fmt.Errorf("write issue: %w", err)
	}
	return nil
}

// Run connects using cfg, fetches the issue from cfg.Table and writes it.
// Connection failures are treated like query failures.
func Run(ctx context.Context, cfg config.Config, publication string, issueNo int, stdout, stderr io.Writer) error {
	var articles []models.IssueArticle
	db, err := storage.NewDB(ctx, cfg.PostgresURL())
	if err != nil {
		fmt.Fprintf(stderr, "Database error: %v\n", err)
	} else {
		defer db.Close()
		articles = Fetch(ctx, storage.NewArticleRepo(db, cfg.Table), publication, issueNo, stderr)
	}
	return Write(stdout, stderr, publication, issueNo, articles)
}
