// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Feeds      []string         `mapstructure:"feeds"`
	Fetcher    FetcherConfig    `mapstructure:"fetcher"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Clusterer  ClustererConfig  `mapstructure:"clusterer"`
	Store      StoreConfig      `mapstructure:"store"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Blob       BlobConfig       `mapstructure:"blob"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// FetcherConfig governs feed polling and full-page fetching.
type FetcherConfig struct {
	UserAgent       string `mapstructure:"user_agent"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	MinContentWords int    `mapstructure:"min_content_words"`
}

// SummarizerConfig selects the summarization model.
type SummarizerConfig struct {
	Model     string `mapstructure:"model"`
	ServerURL string `mapstructure:"server_url"`
	MaxWords  int    `mapstructure:"max_words"`
}

// EmbeddingConfig selects the embedding model.
type EmbeddingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Model     string `mapstructure:"model"`
	ServerURL string `mapstructure:"server_url"`
}

// ClustererConfig tunes density clustering.
type ClustererConfig struct {
	MinClusterSize     int `mapstructure:"min_cluster_size"`
	MinSamples         int `mapstructure:"min_samples"`
	MaxClusterArticles int `mapstructure:"max_cluster_articles"`
}

// StoreConfig selects and configures article persistence.
type StoreConfig struct {
	// Backend is "memory" or "postgres".
	Backend  string `mapstructure:"backend"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// BlobConfig configures the raw-article archive.
type BlobConfig struct {
	// Backend is "memory", "gcs" or "none".
	Backend   string `mapstructure:"backend"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for run-completion notifications.
type PubSubConfig struct {
	// Backend is "memory", "gcp" or "none".
	Backend   string `mapstructure:"backend"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// PipelineConfig governs pipeline runs.
type PipelineConfig struct {
	DefaultArticleCount int `mapstructure:"default_article_count"`
	MaxArticleCount     int `mapstructure:"max_article_count"`
	TimeoutSeconds      int `mapstructure:"timeout_seconds"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NEWSTOPICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("fetcher.user_agent", "newstopics-bot/0.1")
	v.SetDefault("fetcher.timeout_seconds", 15)
	v.SetDefault("fetcher.min_content_words", 0)
	v.SetDefault("summarizer.max_words", 60)
	v.SetDefault("embedding.enabled", false)
	v.SetDefault("embedding.model", "all-minilm")
	v.SetDefault("clusterer.min_cluster_size", 5)
	v.SetDefault("clusterer.min_samples", 3)
	v.SetDefault("clusterer.max_cluster_articles", 50)
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.table", "articles")
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("blob.backend", "none")
	v.SetDefault("blob.prefix", "articles")
	v.SetDefault("pubsub.backend", "none")
	v.SetDefault("pubsub.topic_name", "pipeline-runs")
	v.SetDefault("pipeline.default_article_count", 20)
	v.SetDefault("pipeline.max_article_count", 200)
	v.SetDefault("pipeline.timeout_seconds", 300)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Fetcher.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetcher.timeout_seconds must be > 0")
	}
	if c.Clusterer.MinClusterSize < 2 {
		return fmt.Errorf("clusterer.min_cluster_size must be >= 2")
	}
	if c.Clusterer.MinSamples <= 0 {
		return fmt.Errorf("clusterer.min_samples must be > 0")
	}
	switch c.Store.Backend {
	case "memory":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set when store.backend is postgres")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	switch c.Blob.Backend {
	case "none", "memory":
	case "gcs":
		if c.Blob.GCSBucket == "" {
			return fmt.Errorf("blob.gcs_bucket must be set when blob.backend is gcs")
		}
	default:
		return fmt.Errorf("unknown blob.backend %q", c.Blob.Backend)
	}
	switch c.PubSub.Backend {
	case "none", "memory":
	case "gcp":
		if c.PubSub.ProjectID == "" {
			return fmt.Errorf("pubsub.project_id must be set when pubsub.backend is gcp")
		}
	default:
		return fmt.Errorf("unknown pubsub.backend %q", c.PubSub.Backend)
	}
	if c.Pipeline.DefaultArticleCount <= 0 {
		return fmt.Errorf("pipeline.default_article_count must be > 0")
	}
	if c.Pipeline.MaxArticleCount < c.Pipeline.DefaultArticleCount {
		return fmt.Errorf("pipeline.max_article_count must be >= pipeline.default_article_count")
	}
	return nil
}

// FetchTimeout converts the fetcher timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetcher.TimeoutSeconds) * time.Second
}

// CacheTTL converts the cache TTL config into a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// PipelineTimeout converts the pipeline timeout config into a duration.
func (c Config) PipelineTimeout() time.Duration {
	return time.Duration(c.Pipeline.TimeoutSeconds) * time.Second
}
