package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewClusterMaintainsArticleCount(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()
	c := NewCluster(3, "Technology & AI", []string{"a", "b", "c"}, nil, now)

	require.Equal(t, 3, c.ArticleCount)
	require.Equal(t, len(c.ArticleIDs), c.ArticleCount)
	require.Equal(t, now, c.CreatedAt)
	require.Equal(t, now, c.UpdatedAt)
}

func TestSetMembersRefreshesArticleCount(t *testing.T) {
	t.Parallel()

	c := NewCluster(1, "World News", []string{"a"}, nil, time.Now())
	c.SetMembers([]string{"a", "b", "c", "d"})
	require.Equal(t, 4, c.ArticleCount)

	c.SetMembers(nil)
	require.Equal(t, 0, c.ArticleCount)
}

func TestSubClusterNamespaceAboveTopLevelForNonzeroParents(t *testing.T) {
	t.Parallel()

	// Sub-IDs of parents 1..99 land strictly above the top-level namespace.
	// Parent 0 is the known exception: its sub-IDs 1..99 reuse top-level
	// values, and the registry upsert absorbs the overlap.
	for parent := 1; parent <= MaxTopLevelClusterID; parent++ {
		for n := 1; n <= 99; n++ {
			sub := parent*SubClusterBase + n
			require.Greater(t, sub, MaxTopLevelClusterID)
		}
	}

	require.Equal(t, 1, 0*SubClusterBase+1, "parent 0 overlaps the top-level range")
}
