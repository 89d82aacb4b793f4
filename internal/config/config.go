package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
)

type Config struct {
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string

	ParquetPath string
	Table       string
	BatchSize   int
	EmbedDim    int

	APIAddr           string
	APIToken          string
	DataInRoot        string
	TemporalAddress   string
	TemporalTaskQueue string

	EmbedProvider       string
	OllamaBaseURL       string
	OllamaEmbedModel    string
	SimilarityThreshold float64
	SearchPageSize      int
}

func Load() Config {
	return Config{
		PostgresUser:      getenv("POSTGRES_USER", "felixplore"),
		PostgresPassword:  getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresHost:      getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:      getenvInt("POSTGRES_PORT", 5432),
		PostgresDB:        getenv("POSTGRES_DB", "felixplore"),
		ParquetPath:       getenv("FELIXPLORE_PARQUET_PATH", "../felixplore-poc/data/dataset.parquet"),
		Table:             getenv("FELIXPLORE_TABLE", "articles"),
		BatchSize:         getenvInt("FELIXPLORE_BATCH_SIZE", 500),
		EmbedDim:          getenvInt("FELIXPLORE_EMBED_DIM", 768),
		APIAddr:           getenv("FELIXPLORE_API_ADDR", ":8080"),
		APIToken:          getenv("FELIXPLORE_API_TOKEN", ""),
		DataInRoot:        getenv("FELIXPLORE_DATA_IN", "./data/in"),
		TemporalAddress:   getenv("FELIXPLORE_TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalTaskQueue: getenv("FELIXPLORE_TEMPORAL_TASK_QUEUE", "felixplore"),

		EmbedProvider:       getenv("FELIXPLORE_EMBED_PROVIDER", ""),
		OllamaBaseURL:       getenv("FELIXPLORE_OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaEmbedModel:    getenv("FELIXPLORE_OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		SimilarityThreshold: getenvFloat("FELIXPLORE_SIMILARITY_THRESHOLD", 0.65),
		SearchPageSize:      getenvInt("FELIXPLORE_SEARCH_PAGE_SIZE", 10),
	}
}

// PostgresURL builds a connection URL from the individual POSTGRES_* settings.
func (c Config) PostgresURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   net.JoinHostPort(c.PostgresHost, strconv.Itoa(c.PostgresPort)),
		Path:   "/" + c.PostgresDB,
	}
	return u.String()
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
