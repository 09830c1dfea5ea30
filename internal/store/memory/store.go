// Package memory provides an in-process article store for development and
// tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/JakeFAU/newstopics/internal/news"
)

// ArticleStore keeps articles in a mutex-guarded map. Upserts match on URL
// first, then content hash, so refetching a feed never duplicates entries.
type ArticleStore struct {
	mu     sync.RWMutex
	byID   map[string]news.Article
	byURL  map[string]string
	byHash map[string]string
	order  []string
}

// New returns an empty store.
func New() *ArticleStore {
	return &ArticleStore{
		byID:   make(map[string]news.Article),
		byURL:  make(map[string]string),
		byHash: make(map[string]string),
	}
}

// Save upserts an article and returns its ID. When an existing article shares
// the URL or content hash, the existing identity wins and mutable fields are
// updated in place.
func (s *ArticleStore) Save(_ context.Context, a news.Article) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.existingID(a); ok {
		existing := s.byID[id]
		existing.Title = a.Title
		existing.CompressedContent = a.CompressedContent
		existing.Source = a.Source
		existing.Author = a.Author
		existing.PublishedAt = a.PublishedAt
		if a.Summary != nil {
			existing.Summary = a.Summary
		}
		if a.ClusterID != nil {
			existing.ClusterID = a.ClusterID
		}
		s.byID[id] = existing
		return id, nil
	}

	s.byID[a.ID] = a
	s.byURL[a.URL] = a.ID
	if a.ContentHash != "" {
		s.byHash[a.ContentHash] = a.ID
	}
	s.order = append(s.order, a.ID)
	return a.ID, nil
}

func (s *ArticleStore) existingID(a news.Article) (string, bool) {
	if id, ok := s.byID[a.ID]; ok {
		return id.ID, true
	}
	if id, ok := s.byURL[a.URL]; ok {
		return id, true
	}
	if a.ContentHash != "" {
		if id, ok := s.byHash[a.ContentHash]; ok {
			return id, true
		}
	}
	return "", false
}

// Get returns the article with the given ID.
func (s *ArticleStore) Get(_ context.Context, id string) (news.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return news.Article{}, news.ErrArticleNotFound
	}
	return a, nil
}

// GetAll returns every article in insertion order.
func (s *ArticleStore) GetAll(_ context.Context) ([]news.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]news.Article, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}

// ByCluster returns articles assigned to the given cluster, newest first.
func (s *ArticleStore) ByCluster(_ context.Context, clusterID int) ([]news.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []news.Article
	for _, id := range s.order {
		a := s.byID[id]
		if a.ClusterID != nil && *a.ClusterID == clusterID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out, nil
}

// Count returns the number of stored articles.
func (s *ArticleStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}
