// Package api exposes the HTTP interface for the news topics service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/JakeFAU/newstopics/internal/config"
	"github.com/JakeFAU/newstopics/internal/metrics"
	"github.com/JakeFAU/newstopics/internal/news"
)

// PipelineRunner triggers a full ingestion run.
type PipelineRunner interface {
	Run(ctx context.Context, targetCount int) news.Report
}

// ClusterDirectory exposes the clustering engine's registry.
type ClusterDirectory interface {
	Clusters() []news.Cluster
	Get(id int) (news.Cluster, bool)
}

// ResponseCache caches rendered listings between pipeline runs.
type ResponseCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Size(ctx context.Context) (int, error)
}

// Server wires HTTP handlers to the pipeline, stores and cluster registry.
type Server struct {
	router   chi.Router
	store    news.ArticleStore
	clusters ClusterDirectory
	runner   PipelineRunner
	cache    ResponseCache
	embedder news.Embedder
	cfg      config.Config
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	store news.ArticleStore,
	clusters ClusterDirectory,
	runner PipelineRunner,
	cache ResponseCache,
	embedder news.Embedder,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:    store,
		clusters: clusters,
		runner:   runner,
		cache:    cache,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(s.requestTimeout()))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/pipeline/run", s.runPipeline)
		r.Route("/articles", func(r chi.Router) {
			r.Get("/", s.listArticles)
			r.Get("/{article_id}", s.getArticle)
		})
		r.Route("/clusters", func(r chi.Router) {
			r.Get("/", s.listClusters)
			r.Get("/{cluster_id}", s.getCluster)
		})
		r.Get("/stats", s.stats)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestTimeout() time.Duration {
	// Pipeline runs are synchronous, so the request timeout must cover them.
	if t := s.cfg.PipelineTimeout(); t > 0 {
		return t + 10*time.Second
	}
	return 60 * time.Second
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Count(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	embedderReady := s.embedder != nil && s.embedder.Ready()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ready",
		"embedder_ready": embedderReady,
	})
}

type runRequest struct {
	Count *int `json:"count"`
}

func (s *Server) runPipeline(w http.ResponseWriter, r *http.Request) {
	count := s.cfg.Pipeline.DefaultArticleCount
	if r.Body != nil && r.ContentLength != 0 {
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		if req.Count != nil {
			count = *req.Count
		}
	}
	if count <= 0 {
		writeError(w, http.StatusBadRequest, "count must be > 0")
		return
	}
	if max := s.cfg.Pipeline.MaxArticleCount; max > 0 && count > max {
		count = max
	}

	ctx := r.Context()
	if t := s.cfg.PipelineTimeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	report := s.runner.Run(ctx, count)
	writeJSON(w, http.StatusOK, report)
}

type articleListResponse struct {
	Articles []news.Article `json:"articles"`
	Total    int            `json:"total"`
}

func (s *Server) listArticles(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := "articles:" + r.URL.RawQuery
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if resp, ok := cached.(articleListResponse); ok {
				writeJSON(w, http.StatusOK, resp)
				return
			}
		}
	}

	all, err := s.store.GetAll(r.Context())
	if err != nil {
		s.logger.Error("list articles failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list articles")
		return
	}

	matched := make([]news.Article, 0, len(all))
	for _, a := range all {
		if matchesFilters(a, filters) {
			matched = append(matched, a)
		}
	}
	resp := articleListResponse{Articles: matched, Total: len(matched)}
	if s.cache != nil {
		s.cache.Set(key, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseFilters(r *http.Request) (news.QueryFilters, error) {
	filters := news.QueryFilters{
		Source:     r.URL.Query().Get("source"),
		SearchText: r.URL.Query().Get("q"),
	}
	if raw := r.URL.Query().Get("cluster_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return news.QueryFilters{}, errors.New("cluster_id must be an integer")
		}
		filters.ClusterID = &id
	}
	return filters, nil
}

func matchesFilters(a news.Article, f news.QueryFilters) bool {
	if f.Source != "" && !strings.EqualFold(a.Source, f.Source) {
		return false
	}
	if f.ClusterID != nil {
		if a.ClusterID == nil || *a.ClusterID != *f.ClusterID {
			return false
		}
	}
	if f.SearchText != "" {
		needle := strings.ToLower(f.SearchText)
		title := strings.ToLower(a.Title)
		var summary string
		if a.Summary != nil {
			summary = strings.ToLower(*a.Summary)
		}
		if !strings.Contains(title, needle) && !strings.Contains(summary, needle) {
			return false
		}
	}
	return true
}

func (s *Server) getArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "article_id")
	article, err := s.store.Get(r.Context(), id)
	if errors.Is(err, news.ErrArticleNotFound) {
		writeError(w, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		s.logger.Error("get article failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch article")
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) listClusters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"clusters": s.clusters.Clusters()})
}

type clusterResponse struct {
	Cluster  news.Cluster   `json:"cluster"`
	Articles []news.Article `json:"articles"`
}

func (s *Server) getCluster(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "cluster_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cluster_id must be an integer")
		return
	}
	cluster, ok := s.clusters.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "cluster not found")
		return
	}
	articles, err := s.store.ByCluster(r.Context(), id)
	if err != nil {
		s.logger.Error("list cluster articles failed", zap.Int("cluster", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch cluster articles")
		return
	}
	writeJSON(w, http.StatusOK, clusterResponse{Cluster: cluster, Articles: articles})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	total, err := s.store.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count articles")
		return
	}
	cacheSize := 0
	if s.cache != nil {
		if n, err := s.cache.Size(r.Context()); err == nil {
			cacheSize = n
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_articles": total,
		"total_clusters": len(s.clusters.Clusters()),
		"cache_entries":  cacheSize,
	})
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
