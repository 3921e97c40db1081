package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmcdole/folio/internal/domain"
)

func TestFilterItems(t *testing.T) {
	items := []domain.RecommendationItem{
		{ID: 1, Title: "The Hidden Path", Author: "Elena Rodriguez"},
		{ID: 2, Title: "Digital Horizons", Author: "Michael Chen"},
		{ID: 3, Title: "Mystery of the Blue Lake", Author: "Sarah Johnson"},
	}

	assert.Equal(t, items, filterItems(items, ""))

	got := filterItems(items, "HORIZ")
	if assert.Len(t, got, 1) {
		assert.Equal(t, int64(2), got[0].ID)
	}

	got = filterItems(items, "chen")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "Digital Horizons", got[0].Title)
	}

	assert.Empty(t, filterItems(items, "xyz"))
}
