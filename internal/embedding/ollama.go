// Package embedding provides sentence embedding providers for clustering.
package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"

	"github.com/JakeFAU/newstopics/internal/news"
)

// DefaultModel is a small sentence-embedding model suitable for short
// title+lead texts.
const DefaultModel = "all-minilm"

// Config controls the Ollama embedding client.
type Config struct {
	Model     string
	ServerURL string
}

// Ollama embeds texts through a local Ollama server. The model is loaded
// lazily via Load; until then Ready reports false and callers fall back to
// keyword classification.
type Ollama struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.RWMutex
	embedder embeddings.Embedder
}

// NewOllama constructs an unloaded provider. Call Load before first use.
func NewOllama(cfg Config, logger *zap.Logger) *Ollama {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ollama{cfg: cfg, logger: logger}
}

// Load initializes the underlying model client. Safe to call more than once.
func (o *Ollama) Load() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.embedder != nil {
		return nil
	}

	opts := []ollama.Option{ollama.WithModel(o.cfg.Model)}
	if o.cfg.ServerURL != "" {
		opts = append(opts, ollama.WithServerURL(o.cfg.ServerURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return fmt.Errorf("create ollama client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return fmt.Errorf("create ollama embedder: %w", err)
	}

	o.embedder = embedder
	o.logger.Info("embedding model loaded", zap.String("model", o.cfg.Model))
	return nil
}

// Ready reports whether Load has succeeded.
func (o *Ollama) Ready() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.embedder != nil
}

// Embed returns one vector per input text, in input order.
func (o *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	o.mu.RLock()
	embedder := o.embedder
	o.mu.RUnlock()
	if embedder == nil {
		return nil, news.ErrEmbedderUnavailable
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(texts))
	}
	return vectors, nil
}

// Unavailable is the no-op provider used when no embedding backend is
// configured. Clustering degrades to the keyword path.
type Unavailable struct{}

// Ready always reports false.
func (Unavailable) Ready() bool { return false }

// Embed always fails with news.ErrEmbedderUnavailable.
func (Unavailable) Embed(context.Context, []string) ([][]float32, error) {
	return nil, news.ErrEmbedderUnavailable
}
