package cluster

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/JakeFAU/newstopics/internal/news"
)

// textWordLimit bounds how much article body feeds the embedding text.
const textWordLimit = 200

// Config controls Engine behavior.
type Config struct {
	MinClusterSize     int
	MinSamples         int
	MaxClusterArticles int
}

// Engine assigns articles to topic clusters and owns the cluster registry.
// It is the single writer of Cluster entities and of each article's
// ClusterID back-reference.
type Engine struct {
	cfg        Config
	embedder   news.Embedder
	compressor news.Compressor
	clock      news.Clock
	logger     *zap.Logger

	mu       sync.RWMutex
	registry map[int]news.Cluster
}

// New constructs an Engine. The embedder may be nil, in which case every run
// takes the keyword fallback path.
func New(cfg Config, embedder news.Embedder, compressor news.Compressor, clock news.Clock, logger *zap.Logger) *Engine {
	if cfg.MinClusterSize <= 0 {
		cfg.MinClusterSize = 5
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = 3
	}
	if cfg.MaxClusterArticles <= 0 {
		cfg.MaxClusterArticles = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:        cfg,
		embedder:   embedder,
		compressor: compressor,
		clock:      clock,
		logger:     logger,
		registry:   make(map[int]news.Cluster),
	}
}

// Cluster assigns every article to exactly one cluster and returns the
// cluster-ID to member-ID view. Empty input returns an empty map. Each
// article's ClusterID is set in place and the registry is upserted. The
// embedding path is used when the provider is ready and the batch is large
// enough; any failure along the way degrades to the keyword path instead of
// aborting the run.
func (e *Engine) Cluster(ctx context.Context, articles []*news.Article) (map[int][]string, error) {
	if len(articles) == 0 {
		return map[int][]string{}, nil
	}
	e.logger.Info("clustering articles", zap.Int("count", len(articles)))

	if e.embedder == nil || !e.embedder.Ready() || len(articles) < e.cfg.MinClusterSize {
		return e.keywordCluster(articles), nil
	}

	texts := e.buildTexts(articles)
	embeddings, err := e.embedder.Embed(ctx, texts)
	if err != nil || len(embeddings) != len(articles) {
		e.logger.Warn("embedding generation failed, using keyword fallback", zap.Error(err))
		return e.keywordCluster(articles), nil
	}

	result, err := e.densityClusterArticles(articles, embeddings)
	if err != nil {
		e.logger.Error("density clustering failed, using keyword fallback", zap.Error(err))
		return e.keywordCluster(articles), nil
	}
	return result, nil
}

// buildTexts produces the embedding text per article: title plus the first
// textWordLimit words of the decompressed body. Decompression failures
// degrade to title-only text.
func (e *Engine) buildTexts(articles []*news.Article) []string {
	texts := make([]string, len(articles))
	for i, a := range articles {
		text := a.Title
		if e.compressor != nil && len(a.CompressedContent) > 0 {
			content, err := e.compressor.Decompress(a.CompressedContent)
			if err != nil {
				e.logger.Debug("decompress failed, using title only",
					zap.String("article_id", a.ID), zap.Error(err))
			} else {
				words := strings.Fields(content)
				if len(words) > textWordLimit {
					words = words[:textWordLimit]
				}
				text += " " + strings.Join(words, " ")
			}
		}
		texts[i] = text
	}
	return texts
}

func (e *Engine) densityClusterArticles(articles []*news.Article, embeddings [][]float32) (map[int][]string, error) {
	points := toFloat64(embeddings)

	effMinCluster := e.cfg.MinClusterSize
	if bound := max(2, len(articles)/3); effMinCluster > bound {
		effMinCluster = bound
	}
	effMinSamples := e.cfg.MinSamples
	if effMinSamples > effMinCluster {
		effMinSamples = effMinCluster
	}

	labels, err := densityCluster(points, effMinCluster, effMinSamples)
	if err != nil {
		return nil, err
	}

	result := make(map[int][]string)
	for i, a := range articles {
		id := labels[i]
		switch {
		case id == noiseLabel:
			id = news.NoiseClusterID
		case id > news.MaxTopLevelClusterID:
			// The sub-cluster namespace only stays collision-free while
			// top-level IDs are below 100; clamp the overflow into noise.
			e.logger.Warn("cluster id exceeds top-level bound, clamping to noise",
				zap.Int("cluster_id", id))
			id = news.NoiseClusterID
		}
		result[id] = append(result[id], a.ID)
		clusterID := id
		a.ClusterID = &clusterID
	}

	for id, memberIDs := range result {
		titles := e.memberTitles(articles, memberIDs)
		label := labelFromTitles(titles)
		centroid := meanEmbedding(articles, embeddings, memberIDs)
		e.upsert(id, label, memberIDs, centroid)
	}

	// Oversized clusters are split one level deep. Splitting is additive
	// bookkeeping: the parent keeps its full membership. See DESIGN.md.
	for id, memberIDs := range result {
		if len(memberIDs) > e.cfg.MaxClusterArticles {
			e.subCluster(id, articles, embeddings, memberIDs)
		}
	}

	e.logger.Info("density clustering complete", zap.Int("clusters", len(result)))
	return result, nil
}

// subCluster re-clusters one oversized cluster over its own members'
// embeddings. Sub-groups get IDs in the parent*100+n namespace and never
// shrink the parent's membership.
func (e *Engine) subCluster(parentID int, articles []*news.Article, embeddings [][]float32, memberIDs []string) {
	parent, ok := e.Get(parentID)
	if !ok {
		return
	}
	e.logger.Info("sub-clustering oversized cluster",
		zap.Int("cluster_id", parentID), zap.Int("members", len(memberIDs)))

	members := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}
	var subArticles []*news.Article
	var subPoints [][]float64
	for i, a := range articles {
		if _, ok := members[a.ID]; ok {
			subArticles = append(subArticles, a)
			subPoints = append(subPoints, toPoint(embeddings[i]))
		}
	}

	minSize := max(2, len(subArticles)/5)
	minSamples := e.cfg.MinSamples
	if minSamples > minSize {
		minSamples = minSize
	}
	labels, err := densityCluster(subPoints, minSize, minSamples)
	if err != nil {
		e.logger.Warn("sub-clustering failed", zap.Int("cluster_id", parentID), zap.Error(err))
		return
	}

	groups := make(map[int][]string)
	for i, label := range labels {
		if label == noiseLabel {
			continue
		}
		groups[label] = append(groups[label], subArticles[i].ID)
	}
	for sub, ids := range groups {
		newID := parentID*news.SubClusterBase + sub + 1
		if newID == news.NoiseClusterID {
			// 9*100+99 would collide with the reserved noise bucket.
			continue
		}
		label := fmt.Sprintf("%s (Sub-%d)", parent.Label, sub+1)
		e.upsert(newID, label, ids, nil)
	}
}

// keywordCluster is the deterministic fallback path: first-match-wins over
// the fixed bucket table, unmatched titles into the miscellaneous bucket.
func (e *Engine) keywordCluster(articles []*news.Article) map[int][]string {
	result := make(map[int][]string)
	for _, a := range articles {
		id, _ := classifyTitle(a.Title)
		result[id] = append(result[id], a.ID)
		clusterID := id
		a.ClusterID = &clusterID
	}
	for id, memberIDs := range result {
		e.upsert(id, bucketLabel(id), memberIDs, nil)
	}
	e.logger.Info("keyword clustering complete", zap.Int("clusters", len(result)))
	return result
}

// upsert replaces a registry entry, preserving CreatedAt for clusters seen
// in earlier runs and refreshing UpdatedAt.
func (e *Engine) upsert(id int, label string, memberIDs []string, centroid []float32) {
	now := e.clock.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	c := news.NewCluster(id, label, memberIDs, centroid, now)
	if prev, ok := e.registry[id]; ok {
		c.CreatedAt = prev.CreatedAt
	}
	e.registry[id] = c
}

// Get returns the registry entry for a cluster ID.
func (e *Engine) Get(id int) (news.Cluster, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.registry[id]
	return c, ok
}

// Clusters returns all registry entries sorted by ID.
func (e *Engine) Clusters() []news.Cluster {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]news.Cluster, 0, len(e.registry))
	for _, c := range e.registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of clusters in the registry.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.registry)
}

// Label returns the label for a cluster, or a generic name when unknown.
func (e *Engine) Label(id int) string {
	if c, ok := e.Get(id); ok {
		return c.Label
	}
	return fmt.Sprintf("Topic %d", id)
}

func (e *Engine) memberTitles(articles []*news.Article, memberIDs []string) []string {
	members := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}
	titles := make([]string, 0, len(memberIDs))
	for _, a := range articles {
		if _, ok := members[a.ID]; ok {
			titles = append(titles, a.Title)
		}
	}
	return titles
}

// meanEmbedding computes the arithmetic mean of member embeddings.
func meanEmbedding(articles []*news.Article, embeddings [][]float32, memberIDs []string) []float32 {
	members := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}
	var sum []float64
	count := 0
	for i, a := range articles {
		if _, ok := members[a.ID]; !ok {
			continue
		}
		p := toPoint(embeddings[i])
		if sum == nil {
			sum = make([]float64, len(p))
		}
		floats.Add(sum, p)
		count++
	}
	if count == 0 {
		return nil
	}
	floats.Scale(1/float64(count), sum)
	centroid := make([]float32, len(sum))
	for i, v := range sum {
		centroid[i] = float32(v)
	}
	return centroid
}

func toFloat64(embeddings [][]float32) [][]float64 {
	points := make([][]float64, len(embeddings))
	for i, e := range embeddings {
		points[i] = toPoint(e)
	}
	return points
}

func toPoint(embedding []float32) []float64 {
	p := make([]float64, len(embedding))
	for i, v := range embedding {
		p[i] = float64(v)
	}
	return p
}
