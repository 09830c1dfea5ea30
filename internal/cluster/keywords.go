package cluster

import (
	"strings"

	"github.com/JakeFAU/newstopics/internal/news"
)

// miscLabel names the catch-all bucket on both fallback paths.
const miscLabel = "Miscellaneous"

type keywordBucket struct {
	id       int
	label    string
	keywords []string
}

// keywordBuckets is the fixed topic table for the keyword fallback path.
// Order matters: classification is first-match-wins, so changing the order
// changes assignments.
var keywordBuckets = []keywordBucket{
	{0, "Technology & AI", []string{"ai", "artificial", "technology", "tech", "software", "digital", "computer", "robot", "machine"}},
	{1, "Climate & Environment", []string{"climate", "environment", "green", "energy", "carbon", "warming", "pollution", "weather"}},
	{2, "Politics & Policy", []string{"politics", "policy", "government", "election", "president", "congress", "vote", "party"}},
	{3, "Health & Science", []string{"health", "science", "research", "medical", "disease", "vaccine", "hospital", "study"}},
	{4, "Business & Economy", []string{"business", "economy", "market", "finance", "stock", "trade", "company", "revenue"}},
	{5, "Sports & Entertainment", []string{"sports", "entertainment", "game", "movie", "music", "team", "player", "win"}},
	{6, "World News", []string{"world", "international", "war", "peace", "crisis", "nation", "country", "global"}},
}

// classifyTitle maps a title to a keyword bucket. Unmatched titles land in
// the miscellaneous bucket.
func classifyTitle(title string) (int, string) {
	lower := strings.ToLower(title)
	for _, b := range keywordBuckets {
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				return b.id, b.label
			}
		}
	}
	return news.MiscKeywordClusterID, miscLabel
}

// bucketLabel returns the fixed label for a keyword bucket ID.
func bucketLabel(id int) string {
	for _, b := range keywordBuckets {
		if b.id == id {
			return b.label
		}
	}
	return miscLabel
}
