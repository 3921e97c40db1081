package recommend

import (
	"time"

	"github.com/mmcdole/folio/internal/domain"
)

func (c *Coordinator) queryKey(strategy domain.Strategy, genre string) domain.CacheKey {
	return c.key(domain.RecommendationRequest{Strategy: strategy, Genre: genre})
}

// LastRefreshTime returns when the cached result for (strategy, genre) was
// captured. A superseded fetch that completed later does not move it.
func (c *Coordinator) LastRefreshTime(strategy domain.Strategy, genre string) (time.Time, bool) {
	entry, ok := c.store.GetEntry(c.queryKey(strategy, genre))
	if !ok {
		return time.Time{}, false
	}
	return entry.CapturedAt, true
}

// CanRefresh reports whether the cooldown for (strategy, genre) has elapsed
func (c *Coordinator) CanRefresh(strategy domain.Strategy, genre string) bool {
	return c.TimeUntilRefresh(strategy, genre) == 0
}

// TimeUntilRefresh returns the remaining cooldown, or zero when a refresh
// is allowed. The cooldown runs from the last upstream attempt.
func (c *Coordinator) TimeUntilRefresh(strategy domain.Strategy, genre string) time.Duration {
	last, ok := c.store.GetLastRefresh(c.queryKey(strategy, genre))
	if !ok {
		return 0
	}
	remaining := CooldownDuration - c.clock.Now().Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Invalidate drops every cached result and refresh time
func (c *Coordinator) Invalidate() {
	c.store.InvalidateAll()
}
