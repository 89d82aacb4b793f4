package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"felixplore/internal/api"
	"felixplore/internal/config"
	"felixplore/internal/providers"
	"felixplore/internal/storage"

	"github.com/joho/godotenv"
	tclient "go.temporal.io/sdk/client"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	repo := storage.NewArticleRepo(db, cfg.Table)

	var embedder api.QueryEmbedder
	provider, info, err := providers.NewEmbeddingProvider(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if provider != nil {
		cache := storage.NewEmbeddingCache(db)
		if err := cache.EnsureSchema(ctx); err != nil {
			log.Printf("embedding cache unavailable, embedding every query: %v", err)
			embedder = providers.NewQueryEmbedder(provider, info, nil, cfg.EmbedDim)
		} else {
			embedder = providers.NewQueryEmbedder(provider, info, cache, cfg.EmbedDim)
		}
		log.Printf("query embeddings via %s model=%s", info.Name, info.Model)
	} else {
		log.Printf("no embedding provider configured, semantic search and trends disabled")
	}

	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Printf("temporal unavailable at %s, load endpoints disabled: %v", cfg.TemporalAddress, err)
		tc = nil
	} else {
		defer tc.Close()
	}

	if cfg.APIToken == "" {
		log.Printf("FELIXPLORE_API_TOKEN unset, load endpoints disabled")
	}

	h := api.NewServer(cfg, repo, repo.Searcher(), embedder, tc)
	log.Printf("felixplore api listening on %s table=%q", cfg.APIAddr, cfg.Table)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}
