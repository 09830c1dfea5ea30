package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/newstopics/internal/news"
)

func TestClassifyTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		title     string
		wantID    int
		wantLabel string
	}{
		{"technology", "New AI model released", 0, "Technology & AI"},
		{"climate", "Climate summit reaches agreement", 1, "Climate & Environment"},
		{"politics", "Election results announced", 2, "Politics & Policy"},
		{"health", "Vaccine trial shows promise", 3, "Health & Science"},
		{"business", "Stock market rallies", 4, "Business & Economy"},
		{"sports", "Team wins championship", 5, "Sports & Entertainment"},
		{"world", "International crisis deepens", 6, "World News"},
		{"unmatched", "Football season kicks off", news.MiscKeywordClusterID, "Miscellaneous"},
		{"case insensitive", "TECHNOLOGY breakthrough", 0, "Technology & AI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			id, label := classifyTitle(tt.title)
			require.Equal(t, tt.wantID, id)
			require.Equal(t, tt.wantLabel, label)
		})
	}
}

// TestClassifyTitleFirstMatchWins pins the ordering guarantee: a title
// matching several buckets always lands in the earliest one.
func TestClassifyTitleFirstMatchWins(t *testing.T) {
	t.Parallel()

	id, label := classifyTitle("AI tools reshape climate research and election campaigns")
	require.Equal(t, 0, id)
	require.Equal(t, "Technology & AI", label)
}

// TestClassifyTitleMatchesSubstrings pins the containment rule: keywords
// match anywhere inside a word, not on word boundaries. "campaign" carries
// "ai", so it lands in the technology bucket even for an election title.
func TestClassifyTitleMatchesSubstrings(t *testing.T) {
	t.Parallel()

	id, label := classifyTitle("Election campaign enters final week")
	require.Equal(t, 0, id)
	require.Equal(t, "Technology & AI", label)

	id, label = classifyTitle("Election results spur vote recount")
	require.Equal(t, 2, id)
	require.Equal(t, "Politics & Policy", label)
}

func TestBucketLabelUnknownID(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Miscellaneous", bucketLabel(news.MiscKeywordClusterID))
	require.Equal(t, "Miscellaneous", bucketLabel(42))
}
