// Package news defines core types shared across subsystems.
package news

import (
	"time"
)

// Reserved cluster identifiers. Top-level density clusters stay below
// MaxTopLevelClusterID so that the sub-cluster namespace parent*100+n can
// never collide with them.
const (
	// NoiseClusterID absorbs points the density algorithm labeled as noise.
	NoiseClusterID = 999

	// MiscKeywordClusterID is the miscellaneous bucket on the keyword
	// fallback path.
	MiscKeywordClusterID = 7

	// MaxTopLevelClusterID bounds density cluster IDs. Clusters past this
	// bound are clamped into the noise bucket.
	MaxTopLevelClusterID = 99

	// SubClusterBase is the multiplier for the sub-cluster ID namespace.
	SubClusterBase = 100
)

// RawArticle is an article as fetched from an external source, before
// compression and persistence.
type RawArticle struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Source      string    `json:"source"`
	Author      string    `json:"author,omitempty"`
	PublishedAt time.Time `json:"published_at"`

	// ContentHash is a deterministic fingerprint of Content used for
	// deduplication. Set once by the fetcher and never changed.
	ContentHash string `json:"content_hash"`
}

// Article is the persisted form of an article. Identity fields (ID, URL,
// ContentHash) are immutable after creation; Summary is written once by the
// summarization stage and ClusterID is overwritten by every clustering run.
type Article struct {
	ID                string    `json:"id"`
	URL               string    `json:"url"`
	Title             string    `json:"title"`
	CompressedContent []byte    `json:"-"`
	Summary           *string   `json:"summary,omitempty"`
	Source            string    `json:"source"`
	Author            string    `json:"author,omitempty"`
	PublishedAt       time.Time `json:"published_at"`
	FetchedAt         time.Time `json:"fetched_at"`
	ClusterID         *int      `json:"cluster_id,omitempty"`
	ContentHash       string    `json:"content_hash"`
}

// Cluster is a topic cluster. It is owned exclusively by the clustering
// engine's registry; articles hold only a ClusterID back-reference.
type Cluster struct {
	ID           int       `json:"id"`
	Label        string    `json:"label"`
	ArticleIDs   []string  `json:"article_ids"`
	Centroid     []float32 `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ArticleCount int       `json:"article_count"`
}

// NewCluster constructs a Cluster with the ArticleCount invariant satisfied.
func NewCluster(id int, label string, articleIDs []string, centroid []float32, now time.Time) Cluster {
	return Cluster{
		ID:           id,
		Label:        label,
		ArticleIDs:   articleIDs,
		Centroid:     centroid,
		CreatedAt:    now,
		UpdatedAt:    now,
		ArticleCount: len(articleIDs),
	}
}

// SetMembers replaces the membership list, keeping ArticleCount consistent.
func (c *Cluster) SetMembers(articleIDs []string) {
	c.ArticleIDs = articleIDs
	c.ArticleCount = len(articleIDs)
}

// QueryFilters narrows article listings.
type QueryFilters struct {
	Source     string
	ClusterID  *int
	SearchText string
}

// Report summarizes one pipeline run. Errors is the single channel for
// partial-failure visibility; entries read "<stage>: <item> - <reason>".
type Report struct {
	Fetched    int      `json:"fetched"`
	Stored     int      `json:"stored"`
	Summarized int      `json:"summarized"`
	Clustered  int      `json:"clustered"`
	Errors     []string `json:"errors"`
}
