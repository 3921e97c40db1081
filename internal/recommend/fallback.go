package recommend

import (
	"slices"

	"github.com/mmcdole/folio/internal/domain"
)

// FallbackReason is attached to results synthesized after an upstream failure
const FallbackReason = "Could not retrieve recommendations. Using fallback data."

func year(y int) *int { return &y }

var demoCatalog = []domain.RecommendationItem{
	{
		ID:              1001,
		Title:           "The Great Adventure",
		Author:          "James Wilson",
		Genres:          []string{"Adventure", "Fiction"},
		AverageRating:   4.7,
		RatingCount:     230,
		PublicationYear: year(2023),
		RelevanceScore:  0.95,
		Reason:          "Highly rated adventure novel with compelling characters",
	},
	{
		ID:              1002,
		Title:           "Mystery of the Blue Lake",
		Author:          "Sarah Johnson",
		Genres:          []string{"Mystery", "Thriller"},
		AverageRating:   4.5,
		RatingCount:     187,
		PublicationYear: year(2024),
		RelevanceScore:  0.88,
		Reason:          "Engaging mystery that will keep you guessing",
	},
	{
		ID:              1003,
		Title:           "Digital Horizons",
		Author:          "Michael Chen",
		Genres:          []string{"Science Fiction", "Technology"},
		AverageRating:   4.8,
		RatingCount:     312,
		PublicationYear: year(2022),
		RelevanceScore:  0.92,
		Reason:          "Fascinating look at future technologies",
	},
	{
		ID:              1004,
		Title:           "The Hidden Path",
		Author:          "Elena Rodriguez",
		Genres:          []string{"Fantasy", "Adventure"},
		AverageRating:   4.6,
		RatingCount:     275,
		PublicationYear: year(2023),
		RelevanceScore:  0.85,
		Reason:          "Immersive fantasy world with rich character development",
	},
}

// DemoItems returns a deep copy of the fixed demo catalog
func DemoItems() []domain.RecommendationItem {
	items := make([]domain.RecommendationItem, len(demoCatalog))
	for i, item := range demoCatalog {
		item.Genres = slices.Clone(item.Genres)
		if item.PublicationYear != nil {
			item.PublicationYear = year(*item.PublicationYear)
		}
		items[i] = item
	}
	return items
}

// FallbackItems selects demo items tagged with genre, or the whole catalog
// when genre is empty or matches nothing, truncated to limit.
func FallbackItems(genre string, limit int) []domain.RecommendationItem {
	if limit <= 0 {
		limit = domain.DefaultLimit
	}

	items := DemoItems()
	if genre != "" {
		var matched []domain.RecommendationItem
		for _, item := range items {
			if item.HasGenre(genre) {
				matched = append(matched, item)
			}
		}
		if len(matched) > 0 {
			items = matched
		}
	}

	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// fallbackResult builds the result stored after an upstream failure
func fallbackResult(key domain.CacheKey) *domain.RecommendationResult {
	return &domain.RecommendationResult{
		Items:          FallbackItems(key.Genre, key.Limit),
		Strategy:       key.Strategy,
		Fallback:       true,
		FallbackReason: FallbackReason,
	}
}
