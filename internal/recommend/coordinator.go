package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmcdole/folio/internal/domain"
)

// Coordinator serves recommendation requests from the cache when fresh and
// from the upstream otherwise. Upstream failures never reach the caller;
// they are replaced with demo data which is cached like any other result.
//
// Safe for concurrent use. The upstream call runs without holding the lock.
type Coordinator struct {
	upstream domain.RecommendationRepository
	store    domain.RecommendationStore
	clock    Clock
	logger   *slog.Logger

	mu    sync.Mutex
	limit int
	seq   map[domain.CacheKey]uint64 // latest request number issued per key
}

// NewCoordinator creates a Coordinator. A nil clock uses the system clock.
func NewCoordinator(
	upstream domain.RecommendationRepository,
	store domain.RecommendationStore,
	clock Clock,
	logger *slog.Logger,
) *Coordinator {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		upstream: upstream,
		store:    store,
		clock:    clock,
		logger:   logger,
		limit:    domain.DefaultLimit,
		seq:      make(map[domain.CacheKey]uint64),
	}
}

// SetDefaultLimit changes the limit used for requests without one and
// for the refresh queries. Non-positive values restore DefaultLimit.
func (c *Coordinator) SetDefaultLimit(limit int) {
	if limit <= 0 {
		limit = domain.DefaultLimit
	}
	c.mu.Lock()
	c.limit = limit
	c.mu.Unlock()
}

// key resolves the cache key for req, filling in the default limit
func (c *Coordinator) key(req domain.RecommendationRequest) domain.CacheKey {
	if req.Limit <= 0 {
		c.mu.Lock()
		req.Limit = c.limit
		c.mu.Unlock()
	}
	return req.Key()
}

// GetRecommendations returns recommendations for req.
//
// A fresh cache entry is returned as is unless req.ForceFresh is set.
// Otherwise the upstream is called; the result (live or fallback) is cached
// and the key's last refresh time advanced. The only error is
// domain.ErrUnknownStrategy.
func (c *Coordinator) GetRecommendations(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResult, error) {
	if !req.Strategy.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownStrategy, int(req.Strategy))
	}

	key := c.key(req)

	if !req.ForceFresh {
		if entry, ok := c.store.GetEntry(key); ok && !entry.IsStale(c.clock.Now(), Lifetime(key.Strategy)) {
			c.logger.Debug("recommendation cache hit", "key", key.String())
			return entry.Result, nil
		}
	}

	c.mu.Lock()
	c.seq[key]++
	seq := c.seq[key]
	c.mu.Unlock()

	c.logger.Debug("fetching recommendations", "key", key.String(), "force", req.ForceFresh, "seq", seq)

	result, err := c.upstream.GetRecommendations(ctx, domain.RecommendationRequest{
		Strategy:   key.Strategy,
		Limit:      key.Limit,
		Genre:      key.Genre,
		ForceFresh: req.ForceFresh,
	})
	if err != nil || result == nil {
		c.logger.Warn("upstream recommendations failed, using fallback", "key", key.String(), "error", err)
		result = fallbackResult(key)
	} else {
		result.Strategy = key.Strategy
		result.Fallback = false
		result.FallbackReason = ""
	}

	c.complete(key, seq, result)
	return result, nil
}

// complete records a finished fetch. Only the latest request for a key may
// replace its entry; every completion advances the refresh time.
func (c *Coordinator) complete(key domain.CacheKey, seq uint64, result *domain.RecommendationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()

	if c.seq[key] == seq {
		entry := domain.CacheEntry{Result: result, CapturedAt: now}
		if err := c.store.SaveEntry(key, entry); err != nil {
			c.logger.Error("failed to save recommendations", "key", key.String(), "error", err)
		}
	} else {
		c.logger.Debug("discarding superseded response", "key", key.String(), "seq", seq, "latest", c.seq[key])
	}

	if err := c.store.SaveLastRefresh(key, now); err != nil {
		c.logger.Error("failed to save refresh time", "key", key.String(), "error", err)
	}
}
