package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

var (
	errWorkflowsDisabled  = errors.New("load workflows not configured")
	errEmbeddingsDisabled = errors.New("query embeddings not configured")
	errEmbeddingFailed    = errors.New("embed query")
	errPathOutsideRoot    = errors.New("load path outside data directory")
)

type apiError struct {
	Code    string
	Message string
}

// Postgres SQLSTATE for a missing table.
const undefinedTable = "42P01"

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "FX-API-4000"

	switch {
	case status == http.StatusServiceUnavailable && errors.Is(err, errEmbeddingsDisabled):
		return apiError{Code: "FX-EMB-5031", Message: "Semantic search is not configured on this server. Use sort=keyword."}
	case status == http.StatusServiceUnavailable && errors.Is(err, errEmbeddingFailed):
		return apiError{Code: "FX-EMB-5032", Message: "Semantic search is temporarily unavailable. Retry or use sort=keyword."}
	case status == http.StatusServiceUnavailable:
		return apiError{Code: "FX-API-5030", Message: "Load workflows are not available on this server."}
	case status == http.StatusUnauthorized:
		return apiError{Code: "FX-API-4010", Message: "A valid bearer token is required."}
	case status == http.StatusBadGateway && errors.Is(err, errEmbeddingFailed):
		return apiError{Code: "FX-EMB-5021", Message: "Embedding provider rejected the query. Check the provider configuration."}
	case status == http.StatusBadGateway:
		return apiError{Code: "FX-API-5020", Message: "Workflow service unavailable. Retry shortly."}
	case status >= 500:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
			return apiError{
				Code:    "FX-DB-5001",
				Message: "Articles table does not exist. Run the loader first.",
			}
		}
		var connErr *pgconn.ConnectError
		if errors.As(err, &connErr) {
			return apiError{
				Code:    "FX-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		}
		return apiError{
			Code:    "FX-API-5000",
			Message: "Internal server error. Please retry or check service logs.",
		}
	case status == http.StatusBadRequest:
		code = "FX-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "FX-API-4004"
		msg = "Requested resource was not found."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "invalid issue number"):
			msg = "Issue number must be an integer."
		case strings.Contains(low, "invalid article id"):
			msg = "Article id must be a positive integer."
		case strings.Contains(low, "invalid limit"):
			msg = "Limit must be a positive integer."
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		case strings.Contains(low, "no articles found"):
			msg = "No articles found for that publication and issue."
		case errors.Is(err, errPathOutsideRoot):
			msg = "Load path must point inside the data directory."
		case strings.Contains(low, "invalid table name"):
			msg = "Table name must match ^[a-z_][a-z0-9_]*$."
		case strings.Contains(low, "missing query"):
			msg = "A search query is required."
		case strings.Contains(low, "invalid page"):
			msg = "Page must be a positive integer."
		case strings.Contains(low, "invalid sort"):
			msg = "Sort must be one of keyword, vector or rrf."
		case strings.Contains(low, "invalid date"):
			msg = "Dates must use YYYY-MM-DD."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
