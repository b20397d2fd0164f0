package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Context key for the request trace id, set by the middleware.
type ctxKey string

const TraceIDKey ctxKey = "traceId"

// Values for query.empty_policy: return the marker answer without
// calling generation, or generate with an empty context.
const (
	EmptyRetrievalMarker   = "marker"
	EmptyRetrievalGenerate = "generate"
)

// Config is built once in main and passed by reference into every
// orchestrator. Every recognized option is enumerated and defaulted here;
// nothing reads the environment after construction.
type Config struct {
	Prod     bool
	LogLevel string

	// providers: "openai" or "gemini"
	Provider     string
	OpenAIAPIKey string
	GeminiAPIKey string

	EmbeddingModel     string
	EmbeddingDimension int
	EmbeddingBatchSize int
	EmbeddingWorkers   int

	LLMModel       string
	LLMTemperature float64
	SystemPrompt   string

	// vector store: "qdrant" or "memory"
	StoreBackend    string
	QdrantHost      string
	QdrantPort      int
	QdrantUseTLS    bool
	QdrantAPIKey    string
	CollectionName  string

	RerankEnabled bool
	RerankURL     string
	RerankModel   string

	ChunkSize    int
	ChunkOverlap int

	DefaultTopK    int
	MaxContextSize int
	// "marker" returns the no-context answer without calling generation,
	// "generate" invokes the model with an empty context.
	EmptyRetrievalPolicy string

	RedisAddr     string
	CacheEnabled  bool
	CacheTTL      time.Duration

	APIHost string
	APIPort int

	CallTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	RetryMaxAttempts int
	RetryBaseDelay   time.Duration

	RateLimitPerSecond int
	RateLimitBurst     int
}

// Load builds the configuration from defaults and RAGLINE_* environment
// variables. An optional config file (yaml) is honored when present.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("prod", false)
	v.SetDefault("log_level", "debug")

	v.SetDefault("provider", "openai")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("gemini_api_key", "")

	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimension", 1536)
	v.SetDefault("embedding.batch_size", 100)
	v.SetDefault("embedding.workers", 4)

	v.SetDefault("llm.model", "gpt-5")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.system_prompt", defaultSystemPrompt)

	v.SetDefault("store.backend", "qdrant")
	v.SetDefault("store.qdrant_host", "localhost")
	v.SetDefault("store.qdrant_port", 6334)
	v.SetDefault("store.qdrant_use_tls", false)
	v.SetDefault("store.qdrant_api_key", "")
	v.SetDefault("store.collection", "rag_documents")

	v.SetDefault("rerank.enabled", false)
	v.SetDefault("rerank.url", "")
	v.SetDefault("rerank.model", "mxbai-rerank-base-v2")

	v.SetDefault("chunk.size", 512)
	v.SetDefault("chunk.overlap", 50)

	v.SetDefault("query.top_k", 5)
	v.SetDefault("query.max_context_size", 8000)
	v.SetDefault("query.empty_policy", "marker")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.redis_addr", "127.0.0.1:6379")
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8000)

	v.SetDefault("timeouts.call", 30*time.Second)
	v.SetDefault("timeouts.read", 5*time.Second)
	v.SetDefault("timeouts.write", 60*time.Second)
	v.SetDefault("timeouts.idle", 120*time.Second)
	v.SetDefault("timeouts.shutdown", 10*time.Second)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", 500*time.Millisecond)

	v.SetDefault("rate_limit.per_second", 2)
	v.SetDefault("rate_limit.burst", 5)

	v.SetEnvPrefix("RAGLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Prod:     v.GetBool("prod"),
		LogLevel: v.GetString("log_level"),

		Provider:     v.GetString("provider"),
		OpenAIAPIKey: v.GetString("openai_api_key"),
		GeminiAPIKey: v.GetString("gemini_api_key"),

		EmbeddingModel:     v.GetString("embedding.model"),
		EmbeddingDimension: v.GetInt("embedding.dimension"),
		EmbeddingBatchSize: v.GetInt("embedding.batch_size"),
		EmbeddingWorkers:   v.GetInt("embedding.workers"),

		LLMModel:       v.GetString("llm.model"),
		LLMTemperature: v.GetFloat64("llm.temperature"),
		SystemPrompt:   v.GetString("llm.system_prompt"),

		StoreBackend:   v.GetString("store.backend"),
		QdrantHost:     v.GetString("store.qdrant_host"),
		QdrantPort:     v.GetInt("store.qdrant_port"),
		QdrantUseTLS:   v.GetBool("store.qdrant_use_tls"),
		QdrantAPIKey:   v.GetString("store.qdrant_api_key"),
		CollectionName: v.GetString("store.collection"),

		RerankEnabled: v.GetBool("rerank.enabled"),
		RerankURL:     v.GetString("rerank.url"),
		RerankModel:   v.GetString("rerank.model"),

		ChunkSize:    v.GetInt("chunk.size"),
		ChunkOverlap: v.GetInt("chunk.overlap"),

		DefaultTopK:          v.GetInt("query.top_k"),
		MaxContextSize:       v.GetInt("query.max_context_size"),
		EmptyRetrievalPolicy: v.GetString("query.empty_policy"),

		CacheEnabled: v.GetBool("cache.enabled"),
		RedisAddr:    v.GetString("cache.redis_addr"),
		CacheTTL:     v.GetDuration("cache.ttl"),

		APIHost: v.GetString("api.host"),
		APIPort: v.GetInt("api.port"),

		CallTimeout:     v.GetDuration("timeouts.call"),
		ReadTimeout:     v.GetDuration("timeouts.read"),
		WriteTimeout:    v.GetDuration("timeouts.write"),
		IdleTimeout:     v.GetDuration("timeouts.idle"),
		ShutdownTimeout: v.GetDuration("timeouts.shutdown"),

		RetryMaxAttempts: v.GetInt("retry.max_attempts"),
		RetryBaseDelay:   v.GetDuration("retry.base_delay"),

		RateLimitPerSecond: v.GetInt("rate_limit.per_second"),
		RateLimitBurst:     v.GetInt("rate_limit.burst"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", c.ChunkOverlap, c.ChunkSize)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbeddingDimension)
	}
	if c.DefaultTopK <= 0 {
		return fmt.Errorf("default top_k must be positive, got %d", c.DefaultTopK)
	}
	switch c.EmptyRetrievalPolicy {
	case EmptyRetrievalMarker, EmptyRetrievalGenerate:
	default:
		return fmt.Errorf("unknown empty retrieval policy %q", c.EmptyRetrievalPolicy)
	}
	switch c.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	switch c.StoreBackend {
	case "qdrant", "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.RerankEnabled && c.RerankURL == "" {
		return fmt.Errorf("rerank enabled but rerank url is empty")
	}
	return nil
}

// ListenAddr returns the host:port the API server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

// SlogLevel maps the configured log level onto slog. Unknown values
// fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const defaultSystemPrompt = "You are a question answering assistant. " +
	"Answer the user question using only the supplied context. " +
	"If the context does not contain the answer, or is insufficient, reply that you cannot answer the question. " +
	"Do not output information that is not present in the context."
