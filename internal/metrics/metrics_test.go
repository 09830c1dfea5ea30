package metrics

import (
	"testing"
	"time"
)

// TestHelpersSafeBeforeInit ensures the helpers are no-ops until Init runs,
// so library consumers that skip metrics never panic.
func TestHelpersSafeBeforeInit(t *testing.T) {
	IncRun("ok")
	AddArticles("stored", 3)
	IncStageError("summarize")
	ObserveStage("cluster", time.Second)
	SetClusters(4)
	ObserveHTTPRequest("GET", "/v1/articles", 200, time.Millisecond)
}

func TestInitIdempotent(t *testing.T) {
	Init()
	Init()

	IncRun("ok")
	AddArticles("fetched", 10)
	IncStageError("store")
	ObserveStage("fetch", 250*time.Millisecond)
	SetClusters(7)
	ObserveHTTPRequest("POST", "/v1/pipeline/run", 500, 2*time.Second)
}
