package news

import (
	"context"
	"time"
)

// Source fetches raw articles from an external feed.
type Source interface {
	Fetch(ctx context.Context, max int) ([]RawArticle, error)
}

// ArticleStore persists articles. Save upserts by URL or content hash and
// returns the article ID.
type ArticleStore interface {
	Save(ctx context.Context, article Article) (string, error)
	Get(ctx context.Context, id string) (Article, error)
	GetAll(ctx context.Context) ([]Article, error)
	ByCluster(ctx context.Context, clusterID int) ([]Article, error)
	Count(ctx context.Context) (int, error)
}

// Compressor encodes article bodies for storage. Decompress of bytes that
// were never compressed must degrade to passthrough rather than fail.
type Compressor interface {
	Compress(content string) ([]byte, error)
	Decompress(data []byte) (string, error)
}

// Summarizer condenses article content. May be slow and model-backed.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// Cache is the key/value layer invalidated after every pipeline run.
type Cache interface {
	Clear(ctx context.Context) error
	Size(ctx context.Context) (int, error)
}

// Embedder turns texts into fixed-size vectors. Ready reports whether the
// underlying model is loaded; callers must degrade gracefully when it is not.
type Embedder interface {
	Ready() bool
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// BlobStore archives raw artifacts and returns a URI.
type BlobStore interface {
	Put(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes run-completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes digests for deduplication/integrity.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces article IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
