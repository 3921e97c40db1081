package tui

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mmcdole/folio/internal/domain"
)

// filterItems narrows items to those whose title or author fuzzily match
// query, best match first. An empty query returns items unchanged.
func filterItems(items []domain.RecommendationItem, query string) []domain.RecommendationItem {
	if query == "" {
		return items
	}

	targets := make([]string, len(items))
	for i, item := range items {
		targets[i] = item.Title + " " + item.Author
	}

	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Stable(ranks)

	filtered := make([]domain.RecommendationItem, len(ranks))
	for i, r := range ranks {
		filtered[i] = items[r.OriginalIndex]
	}
	return filtered
}
