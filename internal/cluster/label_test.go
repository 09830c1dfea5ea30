package cluster

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelFromTitlesPicksDominantTerms(t *testing.T) {
	t.Parallel()

	titles := []string{
		"quantum computing breakthrough announced",
		"quantum computing reaches milestone",
		"chipmakers race toward larger processors",
	}
	label := labelFromTitles(titles)
	require.Contains(t, label, "Quantum")
	require.NotEqual(t, miscLabel, label)
}

func TestLabelFromTitlesJoinsWithAmpersand(t *testing.T) {
	t.Parallel()

	label := labelFromTitles([]string{"solar panels power village"})
	parts := strings.Split(label, " & ")
	require.LessOrEqual(t, len(parts), maxLabelTerms)
	for _, p := range parts {
		require.Equal(t, strings.ToUpper(p[:1]), p[:1], "terms are title-cased")
	}
}

func TestLabelFromTitlesEmptyInput(t *testing.T) {
	t.Parallel()

	require.Equal(t, miscLabel, labelFromTitles(nil))
	require.Equal(t, miscLabel, labelFromTitles([]string{""}))
}

func TestLabelFromTitlesStopWordsOnly(t *testing.T) {
	t.Parallel()

	require.Equal(t, miscLabel, labelFromTitles([]string{"the and for", "this that"}))
}

func TestLabelFromTitlesDeterministic(t *testing.T) {
	t.Parallel()

	titles := []string{
		"markets rally on earnings",
		"earnings beat expectations",
		"rally continues into close",
	}
	first := labelFromTitles(titles)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, labelFromTitles(titles))
	}
}

func TestTokenizeFiltersShortAndStopWords(t *testing.T) {
	t.Parallel()

	terms := tokenize("The AI of war: a global study")
	require.NotContains(t, terms, "the")
	require.NotContains(t, terms, "ai") // below minimum length
	require.Contains(t, terms, "war")
	require.Contains(t, terms, "global")
	require.Contains(t, terms, "study")
}
