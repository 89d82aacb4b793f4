package workflows

import "felixplore/internal/models"

const (
	LoadStateRunning   = "running"
	LoadStateCompleted = "completed"
	LoadStateFailed    = "failed"
)

type LoadInput struct {
	Path  string `json:"path,omitempty"`
	Table string `json:"table,omitempty"`
}

type LoadProgress struct {
	State  string            `json:"state"`
	Path   string            `json:"path,omitempty"`
	Table  string            `json:"table,omitempty"`
	Result models.LoadResult `json:"result"`
	Error  string            `json:"error,omitempty"`
}
