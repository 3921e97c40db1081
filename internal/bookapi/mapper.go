package bookapi

import (
	"github.com/mmcdole/folio/internal/domain"
)

// mapItem converts a response item. Missing required fields map to zero
// values and are rejected later by domain.RecommendationItem.Validate.
// A present but zero book_id or empty title is rejected the same way: book
// ids start at 1 and an untitled row cannot be listed, so presence alone is
// not enough to display a book.
func mapItem(dto recommendationItem) domain.RecommendationItem {
	item := domain.RecommendationItem{
		Author:          dto.Author,
		Genres:          dto.Genres,
		AverageRating:   dto.AverageRating,
		RatingCount:     dto.RatingCount,
		PublicationYear: dto.PublicationYear,
		RelevanceScore:  dto.RelevanceScore,
		Reason:          dto.RecommendationReason,
	}
	if dto.BookID != nil {
		item.ID = *dto.BookID
	}
	if dto.Title != nil {
		item.Title = *dto.Title
	}
	return item
}

func mapResponse(strategy domain.Strategy, resp *recommendationResponse) *domain.RecommendationResult {
	items := make([]domain.RecommendationItem, 0, len(resp.Recommendations))
	for _, dto := range resp.Recommendations {
		items = append(items, mapItem(dto))
	}
	return &domain.RecommendationResult{
		Items:                  items,
		Strategy:               strategy,
		UpstreamFallback:       resp.IsFallback,
		UpstreamFallbackReason: resp.FallbackReason,
	}
}

func mapUser(resp *userResponse) *domain.User {
	return &domain.User{ID: resp.ID, Name: resp.Name, Email: resp.Email}
}
