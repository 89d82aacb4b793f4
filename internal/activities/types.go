package activities

// LoadArticlesInput overrides the worker's configured file and table when set.
type LoadArticlesInput struct {
	Path  string `json:"path,omitempty"`
	Table string `json:"table,omitempty"`
}
