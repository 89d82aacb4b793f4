package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"felixplore/internal/config"
	"felixplore/internal/fetcher"
	"felixplore/internal/models"
	"felixplore/internal/providers"
	"felixplore/internal/storage"
	"felixplore/internal/vector"
	"felixplore/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	tclient "go.temporal.io/sdk/client"
)

const (
	defaultRelatedLimit = 8
	maxRelatedLimit     = 50
)

type ArticleStore interface {
	IssueArticles(ctx context.Context, publication string, issueNo int) ([]models.IssueArticle, error)
	GetArticle(ctx context.Context, id int64) (models.Article, error)
	GetArticles(ctx context.Context, ids []int64) ([]models.Article, error)
	RandomArticleID(ctx context.Context) (int64, error)
	Search(ctx context.Context, p storage.SearchParams) (models.SearchPage, error)
	YearTrends(ctx context.Context, queryVec []float32, threshold float64, minPerYear int) ([]models.YearTrend, error)
}

type NeighborFinder interface {
	Nearest(ctx context.Context, queryVec []float32, excludeID int64, limit int) ([]vector.Neighbor, error)
}

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type Server struct {
	cfg      config.Config
	articles ArticleStore
	searcher NeighborFinder
	embedder QueryEmbedder
	temporal tclient.Client
}

// NewServer wires handlers to their dependencies. embedder may be nil, in
// which case semantic search and trends answer 503. temporal may be nil, in
// which case the load endpoints answer 503.
func NewServer(cfg config.Config, articles ArticleStore, searcher NeighborFinder, embedder QueryEmbedder, temporal tclient.Client) *Server {
	return &Server{
		cfg:      cfg,
		articles: articles,
		searcher: searcher,
		embedder: embedder,
		temporal: temporal,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /issues/{publication}/{issue}", s.handleIssue)
	mux.HandleFunc("GET /articles/{id}", s.handleArticle)
	mux.HandleFunc("GET /articles/{id}/related", s.handleRelated)
	mux.HandleFunc("GET /random", s.handleRandom)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /trends", s.handleTrends)
	mux.Handle("POST /loads", s.requireToken(http.HandlerFunc(s.handleStartLoad)))
	mux.Handle("GET /loads/{id}", s.requireToken(http.HandlerFunc(s.handleLoadProgress)))
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	publication := r.PathValue("publication")
	issueNo, err := strconv.Atoi(r.PathValue("issue"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid issue number: %w", err))
		return
	}
	articles, err := s.articles.IssueArticles(r.Context(), publication, issueNo)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if len(articles) == 0 {
		writeErr(w, http.StatusNotFound, fmt.Errorf("no articles found for publication %q, issue %d", publication, issueNo))
		return
	}
	out, err := fetcher.Render(articles)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintln(w, out)
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}
	a, err := s.articles.GetArticle(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"article": a})
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}
	limit := defaultRelatedLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = min(n, maxRelatedLimit)
	}

	a, err := s.articles.GetArticle(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if len(a.Vector) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"articles": []models.Article{}, "reason": "article has no vector"})
		return
	}

	hits, err := s.searcher.Nearest(r.Context(), a.Vector, id, limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	ids := make([]int64, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	related, err := s.articles.GetArticles(r.Context(), ids)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": related, "neighbors": hits})
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	id, err := s.articles.RandomArticleID(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		writeErr(w, http.StatusNotFound, fmt.Errorf("no articles in the archive"))
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	http.Redirect(w, r, "/articles/"+strconv.FormatInt(id, 10), http.StatusFound)
}

func (s *Server) handleStartLoad(w http.ResponseWriter, r *http.Request) {
	if s.temporal == nil {
		writeErr(w, http.StatusServiceUnavailable, errWorkflowsDisabled)
		return
	}
	var req workflows.LoadInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Table = strings.TrimSpace(req.Table)
	if req.Table != "" && !storage.ValidTableName(req.Table) {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid table name %q", req.Table))
		return
	}
	req.Path = strings.TrimSpace(req.Path)
	if req.Path != "" {
		resolved, err := resolveDataPath(s.cfg.DataInRoot, req.Path)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		req.Path = resolved
	}

	wfID := "load-" + uuid.NewString()
	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                                       wfID,
		TaskQueue:                                s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.ArticleLoadWorkflow, req)
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"workflow_id": we.GetID(), "run_id": we.GetRunID()})
}

func (s *Server) handleLoadProgress(w http.ResponseWriter, r *http.Request) {
	if s.temporal == nil {
		writeErr(w, http.StatusServiceUnavailable, errWorkflowsDisabled)
		return
	}
	wfID := r.PathValue("id")
	resp, err := s.temporal.QueryWorkflow(r.Context(), wfID, "", workflows.QueryGetLoadProgress)
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	var progress workflows.LoadProgress
	if err := resp.Get(&progress); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflow_id": wfID, "progress": progress})
}

func articleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid article id %q", r.PathValue("id")))
		return 0, false
	}
	return id, true
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("query"))
	if query == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("missing query"))
		return
	}
	page := 1
	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid page %q", raw))
			return
		}
		page = n
	}
	mode := storage.SearchKeyword
	if s.embedder != nil {
		mode = storage.SearchHybrid
	}
	if raw := q.Get("sort"); raw != "" {
		m, ok := storage.ParseSearchMode(raw)
		if !ok {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid sort %q", raw))
			return
		}
		mode = m
	}
	since, err := parseDateParam(q.Get("start"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	until, err := parseDateParam(q.Get("end"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	params := storage.SearchParams{
		Query:     query,
		Mode:      mode,
		Page:      page,
		PerPage:   s.perPage(),
		Since:     since,
		Until:     until,
		Threshold: s.cfg.SimilarityThreshold,
	}
	if mode != storage.SearchKeyword {
		vec, err := s.embedQuery(w, r, query)
		if err != nil {
			return
		}
		params.Embedding = vec
	}

	res, err := s.articles.Search(r.Context(), params)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":       query,
		"sort":        mode,
		"page":        page,
		"per_page":    params.PerPage,
		"total":       res.Total,
		"total_pages": int(math.Ceil(float64(res.Total) / float64(params.PerPage))),
		"hits":        res.Hits,
	})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("missing query"))
		return
	}
	vec, err := s.embedQuery(w, r, query)
	if err != nil {
		return
	}
	trends, err := s.articles.YearTrends(r.Context(), vec, s.cfg.SimilarityThreshold, storage.DefaultTrendMinYearArticles)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "trends": trends})
}

// embedQuery writes the error response itself when it fails.
func (s *Server) embedQuery(w http.ResponseWriter, r *http.Request, query string) ([]float32, error) {
	if s.embedder == nil {
		writeErr(w, http.StatusServiceUnavailable, errEmbeddingsDisabled)
		return nil, errEmbeddingsDisabled
	}
	vec, err := s.embedder.EmbedQuery(r.Context(), query)
	if err != nil {
		status := http.StatusServiceUnavailable
		if providers.ClassifyError(err) == providers.ErrorPermanent {
			status = http.StatusBadGateway
		}
		writeErr(w, status, fmt.Errorf("%w: %w", errEmbeddingFailed, err))
		return nil, err
	}
	return vec, nil
}

func (s *Server) perPage() int {
	if s.cfg.SearchPageSize > 0 {
		return s.cfg.SearchPageSize
	}
	return 10
}

// requireToken guards the load endpoints with a bearer token. Without a
// configured token they stay closed.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIToken == "" {
			writeErr(w, http.StatusServiceUnavailable, errWorkflowsDisabled)
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.APIToken)) != 1 {
			writeErr(w, http.StatusUnauthorized, fmt.Errorf("missing or invalid bearer token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolveDataPath places p under root and rejects anything that would leave
// it. Relative paths are taken from root.
func resolveDataPath(root, p string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", fmt.Errorf("%w: no data directory configured", errPathOutsideRoot)
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errPathOutsideRoot, err)
	}
	target := p
	if !filepath.IsAbs(target) {
		target = filepath.Join(rootAbs, target)
	}
	target = filepath.Clean(target)
	rel, err := filepath.Rel(rootAbs, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", errPathOutsideRoot, p)
	}
	return target, nil
}

func parseDateParam(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", raw)
	}
	return &t, nil
}
