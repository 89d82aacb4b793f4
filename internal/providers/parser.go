package providers

import (
	"fmt"
	"strings"

	"felixplore/internal/config"
)

// ProviderRef is a parsed provider setting such as "ollama:nomic".
type ProviderRef struct {
	Raw   string
	Name  string
	Alias string
}

func ParseProviderRef(raw string) ProviderRef {
	raw = strings.TrimSpace(raw)
	ref := ProviderRef{Raw: raw, Name: raw}
	if name, alias, ok := strings.Cut(raw, ":"); ok {
		ref.Name = strings.TrimSpace(name)
		ref.Alias = strings.TrimSpace(alias)
	}
	return ref
}

// NewEmbeddingProvider builds the provider named by cfg.EmbedProvider. An
// empty setting returns a nil provider: query embeddings are disabled.
func NewEmbeddingProvider(cfg config.Config) (EmbeddingProvider, ProviderInfo, error) {
	ref := ParseProviderRef(cfg.EmbedProvider)
	switch strings.ToLower(ref.Name) {
	case "", "none":
		return nil, ProviderInfo{}, nil
	case "mock":
		p := NewMockProvider(cfg.EmbedDim)
		return p, p.Info(), nil
	case "ollama":
		p := NewOllamaEmbeddingProvider(cfg.OllamaBaseURL, resolveOllamaEmbedModel(ref.Alias, cfg.OllamaEmbedModel))
		return p, p.Info(), nil
	default:
		return nil, ProviderInfo{}, fmt.Errorf("unsupported embedding provider: %s", ref.Raw)
	}
}
