package recommend

import (
	"time"

	"github.com/mmcdole/folio/internal/domain"
)

// CooldownDuration is the minimum gap between refreshes of one cache key.
// It is independent of every strategy's cache lifetime.
const CooldownDuration = 30 * time.Second

// lifetimes holds the cache lifetime of each strategy
var lifetimes = [domain.NumStrategies]time.Duration{
	domain.StrategyTopRated: time.Hour,
	domain.StrategySimilar:  time.Hour,
	domain.StrategyAI:       24 * time.Hour,
}

// Lifetime returns how long a cached result for s stays fresh.
// Callers must pass a valid strategy.
func Lifetime(s domain.Strategy) time.Duration {
	return lifetimes[s]
}
