package domain

import "time"

// RecommendationStore holds cache entries and refresh timestamps (BoltDB + memory).
// Entries are replaced wholesale on save; refresh timestamps never move backward.
type RecommendationStore interface {
	// === Cache entries ===
	GetEntry(key CacheKey) (CacheEntry, bool)
	SaveEntry(key CacheKey, entry CacheEntry) error

	// === Cooldown ===
	GetLastRefresh(key CacheKey) (time.Time, bool)
	SaveLastRefresh(key CacheKey, at time.Time) error

	// === Invalidation ===
	InvalidateAll()

	Close() error
}
