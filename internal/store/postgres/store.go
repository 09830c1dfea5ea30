// Package postgres provides the Postgres-backed article store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/newstopics/internal/news"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for article rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// ArticleStore persists articles in Postgres. It implements news.ArticleStore.
type ArticleStore struct {
	pool  dbPool
	table string
}

// New creates a Postgres-backed ArticleStore using the provided config.
func New(ctx context.Context, cfg Config) (*ArticleStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "articles"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ArticleStore{pool: pool, table: table}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool dbPool, table string) (*ArticleStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "articles"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ArticleStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *ArticleStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the articles table if it does not exist.
func (s *ArticleStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	compressed_content BYTEA NOT NULL,
	summary TEXT,
	source TEXT NOT NULL DEFAULT '',
	author TEXT NOT NULL DEFAULT '',
	published_at TIMESTAMPTZ NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL,
	cluster_id INTEGER,
	content_hash TEXT NOT NULL DEFAULT ''
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create articles table: %w", err)
	}
	return nil
}

// Save upserts an article row keyed on URL and returns the article ID. A
// conflicting row keeps its identity; summary and cluster assignment are only
// overwritten when the incoming value is set.
func (s *ArticleStore) Save(ctx context.Context, a news.Article) (string, error) {
	if s == nil || s.pool == nil {
		return "", fmt.Errorf("article store is not configured")
	}
	if a.ID == "" {
		return "", fmt.Errorf("article id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, url, title, compressed_content, summary, source, author,
	published_at, fetched_at, cluster_id, content_hash
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
ON CONFLICT (url) DO UPDATE SET
	title = EXCLUDED.title,
	compressed_content = EXCLUDED.compressed_content,
	summary = COALESCE(EXCLUDED.summary, %s.summary),
	source = EXCLUDED.source,
	author = EXCLUDED.author,
	published_at = EXCLUDED.published_at,
	cluster_id = COALESCE(EXCLUDED.cluster_id, %s.cluster_id),
	content_hash = EXCLUDED.content_hash
RETURNING id`, s.table, s.table, s.table)

	var id string
	err := s.pool.QueryRow(ctx, query,
		a.ID,
		a.URL,
		a.Title,
		a.CompressedContent,
		a.Summary,
		a.Source,
		a.Author,
		a.PublishedAt,
		a.FetchedAt,
		a.ClusterID,
		a.ContentHash,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert article: %w", err)
	}
	return id, nil
}

const articleColumns = `id, url, title, compressed_content, summary, source, author, published_at, fetched_at, cluster_id, content_hash`

// Get returns the article with the given ID.
func (s *ArticleStore) Get(ctx context.Context, id string) (news.Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, articleColumns, s.table)
	a, err := scanArticle(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return news.Article{}, news.ErrArticleNotFound
	}
	if err != nil {
		return news.Article{}, fmt.Errorf("get article: %w", err)
	}
	return a, nil
}

// GetAll returns every article, newest first.
func (s *ArticleStore) GetAll(ctx context.Context) ([]news.Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY published_at DESC, id`, articleColumns, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return collectArticles(rows)
}

// ByCluster returns articles assigned to the given cluster, newest first.
func (s *ArticleStore) ByCluster(ctx context.Context, clusterID int) ([]news.Article, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE cluster_id = $1 ORDER BY published_at DESC, id`,
		articleColumns, s.table,
	)
	rows, err := s.pool.Query(ctx, query, clusterID)
	if err != nil {
		return nil, fmt.Errorf("list cluster articles: %w", err)
	}
	return collectArticles(rows)
}

// Count returns the number of stored articles.
func (s *ArticleStore) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)
	var n int
	if err := s.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

func scanArticle(row pgx.Row) (news.Article, error) {
	var a news.Article
	err := row.Scan(
		&a.ID,
		&a.URL,
		&a.Title,
		&a.CompressedContent,
		&a.Summary,
		&a.Source,
		&a.Author,
		&a.PublishedAt,
		&a.FetchedAt,
		&a.ClusterID,
		&a.ContentHash,
	)
	return a, err
}

func collectArticles(rows pgx.Rows) ([]news.Article, error) {
	defer rows.Close()
	var out []news.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate article rows: %w", err)
	}
	return out, nil
}
