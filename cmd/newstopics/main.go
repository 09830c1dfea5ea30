// Package main wires together the news topics service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/newstopics/internal/api"
	gcsblob "github.com/JakeFAU/newstopics/internal/blob/gcs"
	memoryblob "github.com/JakeFAU/newstopics/internal/blob/memory"
	"github.com/JakeFAU/newstopics/internal/cache"
	"github.com/JakeFAU/newstopics/internal/clock/system"
	"github.com/JakeFAU/newstopics/internal/cluster"
	"github.com/JakeFAU/newstopics/internal/compress"
	"github.com/JakeFAU/newstopics/internal/config"
	"github.com/JakeFAU/newstopics/internal/embedding"
	"github.com/JakeFAU/newstopics/internal/fetch"
	"github.com/JakeFAU/newstopics/internal/hash/sha256"
	iduuid "github.com/JakeFAU/newstopics/internal/id/uuid"
	"github.com/JakeFAU/newstopics/internal/logging"
	"github.com/JakeFAU/newstopics/internal/metrics"
	"github.com/JakeFAU/newstopics/internal/news"
	"github.com/JakeFAU/newstopics/internal/pipeline"
	memorypublisher "github.com/JakeFAU/newstopics/internal/publisher/memory"
	gcppubsub "github.com/JakeFAU/newstopics/internal/publisher/pubsub"
	"github.com/JakeFAU/newstopics/internal/store/memory"
	"github.com/JakeFAU/newstopics/internal/store/postgres"
	"github.com/JakeFAU/newstopics/internal/summarize"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	hasher := sha256.New()
	clock := system.New()
	idGen := iduuid.New()
	compressor := compress.NewZlib(compress.DefaultLevel)
	responseCache := cache.NewMemory(cfg.CacheTTL())

	store, cleanupStore, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}
	defer cleanupStore()

	blobs, cleanupBlobs, err := buildBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("blob store init failed", zap.Error(err))
	}
	defer cleanupBlobs()

	publisher, cleanupPublisher, err := buildPublisher(ctx, cfg)
	if err != nil {
		logger.Fatal("publisher init failed", zap.Error(err))
	}
	defer cleanupPublisher()

	embedder := buildEmbedder(cfg, logger)

	summarizer := summarize.New(summarize.Config{
		Model:     cfg.Summarizer.Model,
		ServerURL: cfg.Summarizer.ServerURL,
		MaxWords:  cfg.Summarizer.MaxWords,
	}, logger.Named("summarize"))

	engine := cluster.New(cluster.Config{
		MinClusterSize:     cfg.Clusterer.MinClusterSize,
		MinSamples:         cfg.Clusterer.MinSamples,
		MaxClusterArticles: cfg.Clusterer.MaxClusterArticles,
	}, embedder, compressor, clock, logger.Named("cluster"))

	source := fetch.NewRSS(fetch.Config{
		Feeds:           cfg.Feeds,
		UserAgent:       cfg.Fetcher.UserAgent,
		Timeout:         cfg.FetchTimeout(),
		MinContentWords: cfg.Fetcher.MinContentWords,
	}, hasher, clock, logger.Named("fetch"))

	runner := pipeline.New(
		source,
		store,
		compressor,
		summarizer,
		responseCache,
		engine,
		blobs,
		publisher,
		hasher,
		idGen,
		clock,
		pipeline.Config{
			Topic:      cfg.PubSub.TopicName,
			BlobPrefix: cfg.Blob.Prefix,
		},
		logger.Named("pipeline"),
	)

	apiServer := api.NewServer(store, engine, runner, responseCache, embedder, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
}

func buildStore(ctx context.Context, cfg config.Config) (news.ArticleStore, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:      cfg.Store.DSN,
			Table:    cfg.Store.Table,
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return memory.New(), func() {}, nil
	}
}

func buildBlobStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (news.BlobStore, func(), error) {
	switch cfg.Blob.Backend {
	case "gcs":
		store, err := gcsblob.New(ctx, gcsblob.Config{Bucket: cfg.Blob.GCSBucket})
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := store.Close(); err != nil {
				logger.Warn("gcs client close failed", zap.Error(err))
			}
		}
		return store, cleanup, nil
	case "memory":
		return memoryblob.New(), func() {}, nil
	default:
		return nil, func() {}, nil
	}
}

func buildPublisher(ctx context.Context, cfg config.Config) (news.Publisher, func(), error) {
	switch cfg.PubSub.Backend {
	case "gcp":
		pub, err := gcppubsub.New(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		return pub, func() { _ = pub.Close() }, nil
	case "memory":
		return memorypublisher.New(), func() {}, nil
	default:
		return nil, func() {}, nil
	}
}

func buildEmbedder(cfg config.Config, logger *zap.Logger) news.Embedder {
	if !cfg.Embedding.Enabled {
		return embedding.Unavailable{}
	}
	embedder := embedding.NewOllama(embedding.Config{
		Model:     cfg.Embedding.Model,
		ServerURL: cfg.Embedding.ServerURL,
	}, logger.Named("embedding"))
	if err := embedder.Load(); err != nil {
		logger.Warn("embedding model load failed, keyword fallback active", zap.Error(err))
	}
	return embedder
}
