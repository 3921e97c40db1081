package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultLimit is the number of recommendations requested when no limit is given
const DefaultLimit = 10

// Strategy identifies one of the fixed recommendation algorithms
type Strategy int

const (
	StrategyTopRated Strategy = iota
	StrategySimilar
	StrategyAI
)

// NumStrategies is the size of the closed Strategy enumeration.
// Tables indexed by Strategy are declared as [NumStrategies]T.
const NumStrategies = int(StrategyAI) + 1

// Strategies returns every strategy in tab order
func Strategies() []Strategy {
	return []Strategy{StrategyTopRated, StrategySimilar, StrategyAI}
}

// Valid reports whether s is a member of the enumeration
func (s Strategy) Valid() bool {
	return s >= StrategyTopRated && s <= StrategyAI
}

// String returns the wire name ("top_rated", "similar", "ai")
func (s Strategy) String() string {
	switch s {
	case StrategyTopRated:
		return "top_rated"
	case StrategySimilar:
		return "similar"
	case StrategyAI:
		return "ai"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Label returns the tab title for the strategy
func (s Strategy) Label() string {
	switch s {
	case StrategyTopRated:
		return "Top Rated"
	case StrategySimilar:
		return "Similar Books"
	case StrategyAI:
		return "AI Suggestions"
	default:
		return "Unknown"
	}
}

// ParseStrategy converts a wire name into a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "top_rated":
		return StrategyTopRated, nil
	case "similar":
		return StrategySimilar, nil
	case "ai":
		return StrategyAI, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// MarshalText encodes the strategy by wire name
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a wire name
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

var validate = validator.New()

// RecommendationItem is one recommended book
type RecommendationItem struct {
	ID              int64    `json:"book_id" validate:"required"`
	Title           string   `json:"title" validate:"required"`
	Author          string   `json:"author"`
	Genres          []string `json:"genres"`
	AverageRating   float64  `json:"average_rating"` // 0-5
	RatingCount     int      `json:"rating_count"`
	PublicationYear *int     `json:"publication_year,omitempty"`
	RelevanceScore  float64  `json:"relevance_score"` // nominally 0-1, not enforced upstream
	Reason          string   `json:"recommendation_reason"`
}

// Validate checks that the minimum fields needed for display are present
func (r RecommendationItem) Validate() error {
	return validate.Struct(r)
}

// HasGenre reports whether the item is tagged with genre (case-insensitive)
func (r RecommendationItem) HasGenre(genre string) bool {
	for _, g := range r.Genres {
		if strings.EqualFold(g, genre) {
			return true
		}
	}
	return false
}

// RecommendationResult is the payload returned for one request.
// Fallback is set by the client when it substituted demo data;
// UpstreamFallback echoes the server's own is_fallback flag.
type RecommendationResult struct {
	Items                  []RecommendationItem `json:"items"`
	Strategy               Strategy             `json:"strategy"`
	Fallback               bool                 `json:"fallback"`
	FallbackReason         string               `json:"fallback_reason,omitempty"`
	UpstreamFallback       bool                 `json:"upstream_fallback"`
	UpstreamFallbackReason string               `json:"upstream_fallback_reason,omitempty"`
}

// DefaultFallbackReason is shown when a fallback carries no reason of its own
const DefaultFallbackReason = "Showing alternative recommendations."

// IsFallback reports whether either side substituted data
func (r *RecommendationResult) IsFallback() bool {
	return r.Fallback || r.UpstreamFallback
}

// Reason returns the most specific fallback reason available
func (r *RecommendationResult) Reason() string {
	switch {
	case r.Fallback && r.FallbackReason != "":
		return r.FallbackReason
	case r.UpstreamFallback && r.UpstreamFallbackReason != "":
		return r.UpstreamFallbackReason
	case r.IsFallback():
		return DefaultFallbackReason
	}
	return ""
}

// RecommendationRequest describes one call to the recommendation coordinator
type RecommendationRequest struct {
	Strategy   Strategy
	Limit      int    // <= 0 means DefaultLimit
	Genre      string // empty means no filter
	ForceFresh bool   // skip cache lookup (the result is still cached)
}

// Key returns the cache key for the request
func (r RecommendationRequest) Key() CacheKey {
	return NewCacheKey(r.Strategy, r.Limit, r.Genre)
}

// CacheKey identifies one cache slot. Cache-busting parameters never
// participate in the key.
type CacheKey struct {
	Strategy Strategy
	Limit    int
	Genre    string
}

// NewCacheKey builds a normalized cache key
func NewCacheKey(strategy Strategy, limit int, genre string) CacheKey {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return CacheKey{Strategy: strategy, Limit: limit, Genre: strings.TrimSpace(genre)}
}

// String renders the key as "strategy:limit:genre"
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%d:%s", k.Strategy, k.Limit, k.Genre)
}

// CacheEntry is the last stored result for a key
type CacheEntry struct {
	Result     *RecommendationResult `json:"result"`
	CapturedAt time.Time             `json:"captured_at"`
}

// IsStale reports whether the entry has outlived lifetime at now
func (e CacheEntry) IsStale(now time.Time, lifetime time.Duration) bool {
	return now.Sub(e.CapturedAt) >= lifetime
}
