package news

import (
	"errors"
	"fmt"
)

// ErrArticleNotFound is returned by ArticleStore.Get for unknown IDs.
var ErrArticleNotFound = errors.New("article not found")

// ErrEmbedderUnavailable signals that the embedding model is not loaded.
// It triggers the keyword fallback rather than surfacing to callers.
var ErrEmbedderUnavailable = errors.New("embedder unavailable")

// FetchError wraps a failure of the article source.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch: %v", e.Err) }

func (e *FetchError) Unwrap() error { return e.Err }

// StoreError wraps a per-item persistence failure.
type StoreError struct {
	Title string
	Err   error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %q: %v", e.Title, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// SummarizeError wraps a per-item summarization failure.
type SummarizeError struct {
	Title string
	Err   error
}

func (e *SummarizeError) Error() string { return fmt.Sprintf("summarize %q: %v", e.Title, e.Err) }

func (e *SummarizeError) Unwrap() error { return e.Err }

// ClusterError wraps a whole-stage clustering failure.
type ClusterError struct {
	Err error
}

func (e *ClusterError) Error() string { return fmt.Sprintf("clustering: %v", e.Err) }

func (e *ClusterError) Unwrap() error { return e.Err }
