// Package pipeline implements the batch processing orchestrator.
//
// A run sequences fetch, persist, summarize, cluster and cache invalidation,
// isolating failures per item and per stage. Callers always receive a
// Report; the orchestrator never propagates an error out of Run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/newstopics/internal/metrics"
	"github.com/JakeFAU/newstopics/internal/news"
)

// Clusterer is the slice of the clustering engine the orchestrator needs.
type Clusterer interface {
	Cluster(ctx context.Context, articles []*news.Article) (map[int][]string, error)
}

// Config controls Runner behavior.
type Config struct {
	// Topic is the destination for run-completion events.
	Topic string
	// BlobPrefix is the path prefix for archived raw content.
	BlobPrefix string
}

// Runner executes one end-to-end processing cycle per Run call.
type Runner struct {
	source     news.Source
	store      news.ArticleStore
	compressor news.Compressor
	summarizer news.Summarizer
	cache      news.Cache
	clusterer  Clusterer
	blobs      news.BlobStore
	publisher  news.Publisher
	hasher     news.Hasher
	idGen      news.IDGenerator
	clock      news.Clock
	cfg        Config
	logger     *zap.Logger
}

// New constructs a Runner. The blob store and publisher are optional;
// when nil the archive and event steps are skipped.
func New(
	source news.Source,
	store news.ArticleStore,
	compressor news.Compressor,
	summarizer news.Summarizer,
	cache news.Cache,
	clusterer Clusterer,
	blobs news.BlobStore,
	publisher news.Publisher,
	hasher news.Hasher,
	idGen news.IDGenerator,
	clock news.Clock,
	cfg Config,
	logger *zap.Logger,
) *Runner {
	if cfg.BlobPrefix == "" {
		cfg.BlobPrefix = "articles"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		source:     source,
		store:      store,
		compressor: compressor,
		summarizer: summarizer,
		cache:      cache,
		clusterer:  clusterer,
		blobs:      blobs,
		publisher:  publisher,
		hasher:     hasher,
		idGen:      idGen,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes fetch, persist, summarize, cluster and cache invalidation in
// order. Per-item failures in persist/summarize and a whole-stage clustering
// failure are recorded in the report's Errors list; only a fetch failure or
// an empty fetch short-circuits the remaining stages. Run is safe to
// re-invoke but not idempotent in effect: each run can add articles and
// always recomputes clustering over the full known article set.
func (r *Runner) Run(ctx context.Context, targetCount int) news.Report {
	report := news.Report{Errors: []string{}}

	r.logger.Info("pipeline run starting", zap.Int("target_count", targetCount))

	start := time.Now()
	raw, err := r.source.Fetch(ctx, targetCount)
	metrics.ObserveStage("fetch", time.Since(start))
	if err != nil {
		r.logger.Error("fetch stage failed", zap.Error(err))
		report.Errors = append(report.Errors, reportEntry(err))
		metrics.IncStageError("fetch")
		metrics.IncRun("failed")
		return report
	}
	report.Fetched = len(raw)
	metrics.AddArticles("fetched", len(raw))
	if len(raw) == 0 {
		r.logger.Warn("no articles fetched, skipping remaining stages")
		metrics.IncRun("empty")
		return report
	}
	r.logger.Info("fetch stage complete", zap.Int("fetched", len(raw)))

	stored := r.persistStage(ctx, raw, &report)
	r.summarizeStage(ctx, stored, &report)
	r.clusterStage(ctx, &report)

	// Aggregate views (article lists, cluster lists, counts) are cached;
	// a run that changed anything must never leave them stale.
	if err := r.cache.Clear(ctx); err != nil {
		r.logger.Warn("cache clear failed", zap.Error(err))
	} else {
		r.logger.Info("cache cleared after run")
	}

	r.publishReport(ctx, report)

	if len(report.Errors) > 0 {
		metrics.IncRun("partial")
	} else {
		metrics.IncRun("ok")
	}
	r.logger.Info("pipeline run finished",
		zap.Int("fetched", report.Fetched),
		zap.Int("stored", report.Stored),
		zap.Int("summarized", report.Summarized),
		zap.Int("clustered", report.Clustered),
		zap.Int("errors", len(report.Errors)))
	return report
}

// persistStage compresses and saves each fetched article independently. A
// failing item is recorded and skipped; the rest of the batch continues.
func (r *Runner) persistStage(ctx context.Context, raw []news.RawArticle, report *news.Report) []*news.Article {
	start := time.Now()
	defer func() { metrics.ObserveStage("persist", time.Since(start)) }()

	stored := make([]*news.Article, 0, len(raw))
	for _, item := range raw {
		article, err := r.buildArticle(item)
		if err == nil {
			var id string
			id, err = r.store.Save(ctx, *article)
			if err == nil {
				article.ID = id
			}
		}
		if err != nil {
			storeErr := &news.StoreError{Title: item.Title, Err: err}
			r.logger.Error("store failed",
				zap.String("title", item.Title), zap.Error(storeErr))
			report.Errors = append(report.Errors, reportEntry(storeErr))
			metrics.IncStageError("store")
			continue
		}
		r.archiveRaw(ctx, article.ID, item)
		stored = append(stored, article)
		report.Stored++
	}
	metrics.AddArticles("stored", report.Stored)
	r.logger.Info("persist stage complete", zap.Int("stored", report.Stored))
	return stored
}

// buildArticle converts a raw article into its persisted form.
func (r *Runner) buildArticle(raw news.RawArticle) (*news.Article, error) {
	id, err := r.idGen.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}
	compressed, err := r.compressor.Compress(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("compress content: %w", err)
	}
	hash := raw.ContentHash
	if hash == "" && r.hasher != nil {
		if hash, err = r.hasher.Hash([]byte(raw.Content)); err != nil {
			return nil, fmt.Errorf("hash content: %w", err)
		}
	}
	return &news.Article{
		ID:                id,
		URL:               raw.URL,
		Title:             raw.Title,
		CompressedContent: compressed,
		Source:            raw.Source,
		Author:            raw.Author,
		PublishedAt:       raw.PublishedAt,
		FetchedAt:         r.clock.Now(),
		ContentHash:       hash,
	}, nil
}

// archiveRaw writes the raw content to the blob store, best effort.
func (r *Runner) archiveRaw(ctx context.Context, id string, raw news.RawArticle) {
	if r.blobs == nil {
		return
	}
	path := fmt.Sprintf("%s/%s.txt", r.cfg.BlobPrefix, id)
	uri, err := r.blobs.Put(ctx, path, "text/plain; charset=utf-8", []byte(raw.Content))
	if err != nil {
		r.logger.Warn("raw content archive failed",
			zap.String("article_id", id), zap.Error(err))
		return
	}
	r.logger.Debug("raw content archived", zap.String("uri", uri))
}

// summarizeStage decompresses, summarizes and re-saves each stored article.
// A failing item keeps its Summary unset; there are no placeholders.
func (r *Runner) summarizeStage(ctx context.Context, stored []*news.Article, report *news.Report) {
	start := time.Now()
	defer func() { metrics.ObserveStage("summarize", time.Since(start)) }()

	for _, article := range stored {
		content, err := r.compressor.Decompress(article.CompressedContent)
		if err == nil {
			var summary string
			summary, err = r.summarizer.Summarize(ctx, content)
			if err == nil {
				article.Summary = &summary
				_, err = r.store.Save(ctx, *article)
			}
		}
		if err != nil {
			article.Summary = nil
			sumErr := &news.SummarizeError{Title: article.Title, Err: err}
			r.logger.Error("summarization failed",
				zap.String("title", article.Title), zap.Error(sumErr))
			report.Errors = append(report.Errors, reportEntry(sumErr))
			metrics.IncStageError("summarize")
			continue
		}
		report.Summarized++
	}
	metrics.AddArticles("summarized", report.Summarized)
	r.logger.Info("summarize stage complete", zap.Int("summarized", report.Summarized))
}

// clusterStage recomputes assignments over the entire known article set.
// Clustering is authoritative and non-incremental; failure here is recorded
// at the whole-stage level.
func (r *Runner) clusterStage(ctx context.Context, report *news.Report) {
	start := time.Now()
	defer func() { metrics.ObserveStage("cluster", time.Since(start)) }()

	all, err := r.store.GetAll(ctx)
	if err == nil && len(all) > 0 {
		articles := make([]*news.Article, len(all))
		for i := range all {
			articles[i] = &all[i]
		}
		var clusterMap map[int][]string
		clusterMap, err = r.clusterer.Cluster(ctx, articles)
		if err == nil {
			report.Clustered = len(clusterMap)
			metrics.SetClusters(len(clusterMap))
			for _, article := range articles {
				if article.ClusterID == nil {
					continue
				}
				if _, saveErr := r.store.Save(ctx, *article); saveErr != nil {
					r.logger.Warn("cluster assignment save failed",
						zap.String("article_id", article.ID), zap.Error(saveErr))
				}
			}
			r.logger.Info("cluster stage complete", zap.Int("clusters", report.Clustered))
		}
	}
	if err != nil {
		clusterErr := &news.ClusterError{Err: err}
		r.logger.Error("clustering failed", zap.Error(clusterErr))
		report.Errors = append(report.Errors, reportEntry(clusterErr))
		metrics.IncStageError("cluster")
	}
}

// reportEntry renders a stage error into the report's stable text form.
// Typed errors carry the item identity; anything else is a run-level
// failure reported under the Pipeline prefix.
func reportEntry(err error) string {
	var (
		storeErr     *news.StoreError
		summarizeErr *news.SummarizeError
		clusterErr   *news.ClusterError
	)
	switch {
	case errors.As(err, &storeErr):
		return fmt.Sprintf("Store: %s - %v", storeErr.Title, storeErr.Err)
	case errors.As(err, &summarizeErr):
		return fmt.Sprintf("Summary: %s - %v", summarizeErr.Title, summarizeErr.Err)
	case errors.As(err, &clusterErr):
		return fmt.Sprintf("Clustering: %v", clusterErr.Err)
	default:
		return fmt.Sprintf("Pipeline: %v", err)
	}
}

// publishReport emits a run-completion event, best effort.
func (r *Runner) publishReport(ctx context.Context, report news.Report) {
	if r.publisher == nil || r.cfg.Topic == "" {
		return
	}
	if _, err := r.publisher.Publish(ctx, r.cfg.Topic, report); err != nil {
		r.logger.Warn("run event publish failed", zap.Error(err))
	}
}
