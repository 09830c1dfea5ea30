// Package main hosts the news topics service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, article/cluster
//     browsing and a synchronous pipeline trigger. Listing responses are served
//     from a TTL cache that every pipeline run invalidates.
//   - Pipeline: internal/pipeline.Runner executes fetch, persist, summarize,
//     cluster and cache invalidation in order. Per-item failures are collected
//     into the run report instead of aborting the run; only a failed or empty
//     fetch short-circuits.
//   - Fetching: internal/fetch polls RSS/Atom feeds via gofeed, optionally
//     upgrading teaser entries to the full page text with a Colly fetch. Items
//     are deduplicated by content hash before entering the pipeline.
//   - Clustering: internal/cluster embeds title+lead texts (Ollama via
//     langchaingo) and groups them with density-based clustering; when the
//     model is unavailable or the batch is too small it falls back to keyword
//     buckets. Oversized clusters are split into sub-clusters and every cluster
//     gets a TF-IDF label from its member titles.
//   - Persistence & fanout: article bodies are zlib-compressed and stored in
//     memory or Postgres (pgx). Raw content can be archived to GCS and a run
//     report published to Pub/Sub when configured.
//   - Configuration & plumbing: Viper populates config from env/files (prefix
//     NEWSTOPICS); zap provides structured logging; Prometheus metrics are
//     exported via the metrics middleware and /metrics handler.
//
// Run locally: go run ./cmd/newstopics -config config.yaml (or rely solely on
// env overrides). The process reacts to SIGTERM for graceful shutdown.
package main
