package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/newstopics/internal/cache"
	"github.com/JakeFAU/newstopics/internal/config"
	"github.com/JakeFAU/newstopics/internal/news"
	"github.com/JakeFAU/newstopics/internal/store/memory"
)

type fakeRunner struct {
	lastCount int
	report    news.Report
}

func (f *fakeRunner) Run(_ context.Context, targetCount int) news.Report {
	f.lastCount = targetCount
	return f.report
}

type fakeDirectory struct {
	clusters []news.Cluster
}

func (f *fakeDirectory) Clusters() []news.Cluster { return f.clusters }

func (f *fakeDirectory) Get(id int) (news.Cluster, bool) {
	for _, c := range f.clusters {
		if c.ID == id {
			return c, true
		}
	}
	return news.Cluster{}, false
}

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Port: 8080},
		Pipeline: config.PipelineConfig{
			DefaultArticleCount: 20,
			MaxArticleCount:     100,
			TimeoutSeconds:      30,
		},
	}
}

func seedStore(t *testing.T) *memory.ArticleStore {
	t.Helper()
	store := memory.New()
	cluster0, cluster1 := 0, 1
	summary := "rates went up"
	articles := []news.Article{
		{
			ID: "a1", URL: "https://example.com/1", Title: "Fed Raises Rates",
			Source: "wire", ClusterID: &cluster0, Summary: &summary,
			PublishedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "a2", URL: "https://example.com/2", Title: "Storm Hits Coast",
			Source: "local", ClusterID: &cluster1,
			PublishedAt: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "a3", URL: "https://example.com/3", Title: "Rates Analysis",
			Source: "wire", ClusterID: &cluster0,
			PublishedAt: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, a := range articles {
		_, err := store.Save(context.Background(), a)
		require.NoError(t, err)
	}
	return store
}

func newTestServer(t *testing.T, store news.ArticleStore, runner *fakeRunner, dir *fakeDirectory, cfg config.Config) *httptest.Server {
	t.Helper()
	if runner == nil {
		runner = &fakeRunner{}
	}
	if dir == nil {
		dir = &fakeDirectory{}
	}
	s := NewServer(store, dir, runner, cache.NewMemory(time.Minute), nil, cfg, nil)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, memory.New(), nil, nil, testConfig())

	var body map[string]string
	status := getJSON(t, srv.URL+"/healthz", &body)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", body["status"])
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, memory.New(), nil, nil, testConfig())

	var body map[string]any
	status := getJSON(t, srv.URL+"/readyz", &body)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ready", body["status"])
	require.Equal(t, false, body["embedder_ready"])
}

func TestRunPipelineDefaultCount(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{report: news.Report{Fetched: 5, Stored: 5}}
	srv := newTestServer(t, memory.New(), runner, nil, testConfig())

	resp, err := http.Post(srv.URL+"/v1/pipeline/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report news.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	require.Equal(t, 5, report.Fetched)
	require.Equal(t, 20, runner.lastCount, "default article count used")
}

func TestRunPipelineCustomAndClampedCount(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	srv := newTestServer(t, memory.New(), runner, nil, testConfig())

	resp, err := http.Post(srv.URL+"/v1/pipeline/run", "application/json",
		strings.NewReader(`{"count": 42}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 42, runner.lastCount)

	resp, err = http.Post(srv.URL+"/v1/pipeline/run", "application/json",
		strings.NewReader(`{"count": 5000}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 100, runner.lastCount, "count clamped to configured max")
}

func TestRunPipelineRejectsBadInput(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, memory.New(), nil, nil, testConfig())

	resp, err := http.Post(srv.URL+"/v1/pipeline/run", "application/json",
		strings.NewReader(`{not json`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/v1/pipeline/run", "application/json",
		strings.NewReader(`{"count": -1}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetArticle(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, seedStore(t), nil, nil, testConfig())

	var article news.Article
	status := getJSON(t, srv.URL+"/v1/articles/a1", &article)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Fed Raises Rates", article.Title)

	status = getJSON(t, srv.URL+"/v1/articles/missing", nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestListArticlesWithFilters(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, seedStore(t), nil, nil, testConfig())

	var resp articleListResponse
	status := getJSON(t, srv.URL+"/v1/articles?cluster_id=0", &resp)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 2, resp.Total)

	status = getJSON(t, srv.URL+"/v1/articles?source=local", &resp)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, resp.Total)
	require.Equal(t, "Storm Hits Coast", resp.Articles[0].Title)

	status = getJSON(t, srv.URL+"/v1/articles?q=rates", &resp)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 2, resp.Total, "search matches title and summary case-insensitively")

	status = getJSON(t, srv.URL+"/v1/articles?cluster_id=abc", nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestListArticlesServesCachedResponse(t *testing.T) {
	t.Parallel()

	store := seedStore(t)
	srv := newTestServer(t, store, nil, nil, testConfig())

	var first articleListResponse
	status := getJSON(t, srv.URL+"/v1/articles", &first)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 3, first.Total)

	_, err := store.Save(context.Background(), news.Article{
		ID: "a4", URL: "https://example.com/4", Title: "New Story",
	})
	require.NoError(t, err)

	var second articleListResponse
	status = getJSON(t, srv.URL+"/v1/articles", &second)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 3, second.Total, "stale view served until the cache is cleared")
}

func TestListClusters(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{clusters: []news.Cluster{
		news.NewCluster(0, "Rates & Fed", []string{"a1", "a3"}, nil, time.Now()),
		news.NewCluster(1, "Storms", []string{"a2"}, nil, time.Now()),
	}}
	srv := newTestServer(t, seedStore(t), nil, dir, testConfig())

	var body struct {
		Clusters []news.Cluster `json:"clusters"`
	}
	status := getJSON(t, srv.URL+"/v1/clusters", &body)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body.Clusters, 2)
	require.Equal(t, "Rates & Fed", body.Clusters[0].Label)
}

func TestGetCluster(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{clusters: []news.Cluster{
		news.NewCluster(0, "Rates & Fed", []string{"a1", "a3"}, nil, time.Now()),
	}}
	srv := newTestServer(t, seedStore(t), nil, dir, testConfig())

	var body clusterResponse
	status := getJSON(t, srv.URL+"/v1/clusters/0", &body)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 2, body.Cluster.ArticleCount)
	require.Len(t, body.Articles, 2)

	status = getJSON(t, srv.URL+"/v1/clusters/9", nil)
	require.Equal(t, http.StatusNotFound, status)

	status = getJSON(t, srv.URL+"/v1/clusters/abc", nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestStats(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{clusters: []news.Cluster{
		news.NewCluster(0, "Rates & Fed", []string{"a1", "a3"}, nil, time.Now()),
	}}
	srv := newTestServer(t, seedStore(t), nil, dir, testConfig())

	var body map[string]any
	status := getJSON(t, srv.URL+"/v1/stats", &body)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 3, body["total_articles"])
	require.EqualValues(t, 1, body["total_clusters"])
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKey: "secret"}
	srv := newTestServer(t, memory.New(), nil, nil, cfg)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/healthz?api_key=secret")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, memory.New(), nil, nil, testConfig())

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
