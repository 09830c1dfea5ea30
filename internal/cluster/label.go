package cluster

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// maxLabelTerms caps how many terms form a generated cluster label.
const maxLabelTerms = 3

// maxDocFrequency drops terms that appear in almost every title; they carry
// no discriminating weight.
const maxDocFrequency = 0.9

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "has": {}, "have": {},
	"her": {}, "his": {}, "its": {}, "our": {}, "out": {}, "she": {},
	"they": {}, "this": {}, "that": {}, "was": {}, "were": {}, "will": {},
	"with": {}, "what": {}, "when": {}, "where": {}, "who": {}, "why": {},
	"how": {}, "from": {}, "into": {}, "over": {}, "after": {}, "before": {},
	"about": {}, "above": {}, "under": {}, "between": {}, "new": {},
	"more": {}, "most": {}, "some": {}, "such": {}, "than": {}, "then": {},
	"there": {}, "these": {}, "your": {}, "their": {}, "them": {}, "been": {},
	"being": {}, "does": {}, "just": {}, "also": {}, "only": {}, "other": {},
	"could": {}, "would": {}, "should": {}, "says": {}, "say": {},
}

// labelFromTitles derives a short descriptive label from member titles by
// mean TF-IDF weight: the top terms are title-cased and joined with " & ".
// Returns the miscellaneous label when no term survives filtering.
func labelFromTitles(titles []string) string {
	docs := make([][]string, 0, len(titles))
	for _, title := range titles {
		terms := tokenize(title)
		if len(terms) > 0 {
			docs = append(docs, terms)
		}
	}
	if len(docs) == 0 {
		return miscLabel
	}

	// Document frequency per term.
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	n := float64(len(docs))
	meanWeight := make(map[string]float64)
	for _, doc := range docs {
		counts := make(map[string]int, len(doc))
		for _, term := range doc {
			counts[term]++
		}
		for term, count := range counts {
			if len(docs) > 1 && float64(df[term])/n > maxDocFrequency {
				continue
			}
			tf := float64(count) / float64(len(doc))
			idf := math.Log((1+n)/(1+float64(df[term]))) + 1
			meanWeight[term] += tf * idf / n
		}
	}
	if len(meanWeight) == 0 {
		return miscLabel
	}

	terms := make([]string, 0, len(meanWeight))
	for term := range meanWeight {
		terms = append(terms, term)
	}
	// Ties break alphabetically so labels are stable across runs.
	sort.Slice(terms, func(i, j int) bool {
		if meanWeight[terms[i]] != meanWeight[terms[j]] {
			return meanWeight[terms[i]] > meanWeight[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxLabelTerms {
		terms = terms[:maxLabelTerms]
	}

	parts := make([]string, len(terms))
	for i, term := range terms {
		parts[i] = titleCase(term)
	}
	return strings.Join(parts, " & ")
}

// tokenize lower-cases a title and keeps alphanumeric terms of length >= 3
// that are not stop words.
func tokenize(title string) []string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 {
			continue
		}
		if _, ok := stopWords[f]; ok {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

func titleCase(term string) string {
	if term == "" {
		return term
	}
	r := []rune(term)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
