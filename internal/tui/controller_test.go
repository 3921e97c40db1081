package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/folio/internal/domain"
	"github.com/mmcdole/folio/internal/log"
	"github.com/mmcdole/folio/internal/recommend"
	"github.com/mmcdole/folio/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeUpstream answers from a per-strategy script, defaulting to two books
type fakeUpstream struct {
	mu       sync.Mutex
	requests []domain.RecommendationRequest
	items    map[domain.Strategy][]domain.RecommendationItem
	fallback map[domain.Strategy]bool
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		items:    make(map[domain.Strategy][]domain.RecommendationItem),
		fallback: make(map[domain.Strategy]bool),
	}
}

func (f *fakeUpstream) GetRecommendations(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)

	if f.fallback[req.Strategy] {
		return nil, domain.ErrServerOffline
	}
	items, ok := f.items[req.Strategy]
	if !ok {
		items = []domain.RecommendationItem{
			{ID: 1, Title: "Dune", Author: "Frank Herbert"},
			{ID: 2, Title: "Hyperion", Author: "Dan Simmons"},
		}
	}
	return &domain.RecommendationResult{Strategy: req.Strategy, Items: items}, nil
}

func (f *fakeUpstream) callsFor(s domain.Strategy) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Strategy == s {
			n++
		}
	}
	return n
}

func (f *fakeUpstream) last() domain.RecommendationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// failingRecommender lets a test make the coordinator itself return errors
type failingRecommender struct {
	*recommend.Coordinator
	fail bool
}

func (r *failingRecommender) GetRecommendations(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResult, error) {
	if r.fail {
		return nil, domain.ErrUnknownStrategy
	}
	return r.Coordinator.GetRecommendations(ctx, req)
}

type testEnv struct {
	upstream    *fakeUpstream
	clock       *fakeClock
	coordinator *recommend.Coordinator
}

func newTestEnv() *testEnv {
	upstream := newFakeUpstream()
	clock := &fakeClock{now: time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)}
	return &testEnv{
		upstream:    upstream,
		clock:       clock,
		coordinator: recommend.NewCoordinator(upstream, store.NewMemoryStore(), clock, log.NullLogger()),
	}
}

func (e *testEnv) controller(opts ControllerOptions) *Controller {
	return NewController(e.coordinator, opts, log.NullLogger())
}

// run executes a fetch command synchronously and returns its message
func run(t *testing.T, cmd tea.Cmd) RecommendationsLoadedMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(RecommendationsLoadedMsg)
	require.True(t, ok, "expected RecommendationsLoadedMsg")
	return msg
}

func TestControllerInitialFetch(t *testing.T) {
	env := newTestEnv()
	c := env.controller(ControllerOptions{})

	assert.Equal(t, StatusIdle, c.State(domain.StrategyTopRated).Status)
	assert.Equal(t, "Never", c.LastRefreshed())

	cmd := c.Init()
	state := c.State(domain.StrategyTopRated)
	assert.True(t, state.Loading)
	assert.Equal(t, StatusLoading, state.Status)

	require.True(t, c.Apply(run(t, cmd)))

	state = c.State(domain.StrategyTopRated)
	assert.False(t, state.Loading)
	assert.Equal(t, StatusLoaded, state.Status)
	assert.Len(t, state.Items, 2)
	assert.False(t, state.Fallback)
	assert.Equal(t, env.clock.Now().Local().Format("15:04:05"), c.LastRefreshed())
	assert.False(t, env.upstream.last().ForceFresh, "initial load uses the cache")
}

func TestControllerDropsInvalidItems(t *testing.T) {
	env := newTestEnv()
	env.upstream.items[domain.StrategyTopRated] = []domain.RecommendationItem{
		{ID: 1, Title: "Dune"},
		{ID: 2},
	}
	c := env.controller(ControllerOptions{})

	require.True(t, c.Apply(run(t, c.Init())))
	items := c.DisplayItems(domain.StrategyTopRated)
	require.Len(t, items, 1)
	assert.Equal(t, "Dune", items[0].Title)
}

func TestControllerEmptyResultShowsDemoBooks(t *testing.T) {
	env := newTestEnv()
	env.upstream.items[domain.StrategyTopRated] = []domain.RecommendationItem{}
	c := env.controller(ControllerOptions{})

	require.True(t, c.Apply(run(t, c.Init())))

	state := c.State(domain.StrategyTopRated)
	assert.Empty(t, state.Items)
	assert.True(t, state.Fallback)
	assert.Equal(t, EmptyResultReason, state.FallbackReason)
	assert.Equal(t, recommend.DemoItems(), c.DisplayItems(domain.StrategyTopRated))

	fallback, reason := c.Banner()
	assert.True(t, fallback)
	assert.Equal(t, EmptyResultReason, reason)
}

func TestControllerUpstreamFailureUsesFallback(t *testing.T) {
	env := newTestEnv()
	env.upstream.fallback[domain.StrategyTopRated] = true
	c := env.controller(ControllerOptions{})

	require.True(t, c.Apply(run(t, c.Init())))

	state := c.State(domain.StrategyTopRated)
	assert.Equal(t, StatusLoaded, state.Status)
	assert.True(t, state.Fallback)
	assert.Equal(t, recommend.FallbackReason, state.FallbackReason)
	assert.Len(t, state.Items, 4)
}

func TestControllerDiscardsSupersededResults(t *testing.T) {
	env := newTestEnv()
	c := env.controller(ControllerOptions{})

	first := c.Init()
	second := c.SetGenreFilter("Mystery")

	latest := run(t, second)
	stale := run(t, first)

	require.True(t, c.Apply(latest))
	assert.False(t, c.Apply(stale), "older fetch must not overwrite newer state")
	assert.Equal(t, StatusLoaded, c.State(domain.StrategyTopRated).Status)
	assert.False(t, c.State(domain.StrategyTopRated).Loading)
}

func TestControllerRefreshRespectsCooldown(t *testing.T) {
	env := newTestEnv()
	c := env.controller(ControllerOptions{})
	require.True(t, c.Apply(run(t, c.Init())))

	assert.Nil(t, c.Refresh(), "refresh is a no-op during cooldown")
	assert.Equal(t, "Refresh (30s)", c.RefreshLabel())
	assert.False(t, c.CanRefresh())

	env.clock.Advance(17500 * time.Millisecond)
	assert.Equal(t, "Refresh (13s)", c.RefreshLabel(), "remaining seconds round up")

	env.clock.Advance(12500 * time.Millisecond)
	assert.Equal(t, "Refresh", c.RefreshLabel())

	cmd := c.Refresh()
	require.NotNil(t, cmd)
	require.True(t, c.Apply(run(t, cmd)))
	assert.True(t, env.upstream.last().ForceFresh)
	assert.Equal(t, 2, env.upstream.callsFor(domain.StrategyTopRated))
}

func TestControllerGenreChangeRefetchesActiveOnly(t *testing.T) {
	env := newTestEnv()
	c := env.controller(ControllerOptions{})
	require.True(t, c.Apply(run(t, c.Init())))

	require.True(t, c.Apply(run(t, c.SetGenreFilter("Mystery"))))
	assert.Equal(t, "Mystery", c.Genre())
	assert.Equal(t, "Mystery", env.upstream.last().Genre)
	assert.False(t, env.upstream.last().ForceFresh)
	assert.Equal(t, 2, env.upstream.callsFor(domain.StrategyTopRated))
	assert.Zero(t, env.upstream.callsFor(domain.StrategySimilar))
	assert.Zero(t, env.upstream.callsFor(domain.StrategyAI))

	assert.Nil(t, c.SetGenreFilter("Mystery"), "unchanged genre does not refetch")

	require.True(t, c.Apply(run(t, c.SetGenreFilter(AllGenres))))
	assert.Equal(t, "", c.Genre())
	assert.Equal(t, "", env.upstream.last().Genre)
}

func TestControllerSelectStrategy(t *testing.T) {
	testCases := []struct {
		name      string
		force     bool
		wantForce bool
	}{
		{name: "forced on tab switch", force: true, wantForce: true},
		{name: "cached on tab switch", force: false, wantForce: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			c := env.controller(ControllerOptions{ForceFreshOnTabSwitch: tc.force})
			require.True(t, c.Apply(run(t, c.Init())))

			assert.Nil(t, c.SelectStrategy(domain.StrategyTopRated), "already active")
			assert.Nil(t, c.SelectStrategy(domain.Strategy(42)))

			cmd := c.SelectStrategy(domain.StrategyAI)
			assert.Equal(t, domain.StrategyAI, c.Active())
			assert.True(t, c.State(domain.StrategyAI).Loading)
			require.True(t, c.Apply(run(t, cmd)))
			assert.Equal(t, tc.wantForce, env.upstream.last().ForceFresh)
			assert.Equal(t, domain.StrategyAI, env.upstream.last().Strategy)
		})
	}
}

func TestControllerBannerFollowsActiveTab(t *testing.T) {
	env := newTestEnv()
	env.upstream.fallback[domain.StrategyAI] = true
	c := env.controller(ControllerOptions{})
	require.True(t, c.Apply(run(t, c.Init())))

	aiFetch := c.SelectStrategy(domain.StrategyAI)
	backFetch := c.SelectStrategy(domain.StrategyTopRated)

	require.True(t, c.Apply(run(t, aiFetch)))
	assert.True(t, c.State(domain.StrategyAI).Fallback, "per-strategy state is still recorded")
	fallback, _ := c.Banner()
	assert.False(t, fallback, "background tab does not change the banner")

	require.True(t, c.Apply(run(t, backFetch)))
	fallback, _ = c.Banner()
	assert.False(t, fallback)
}

func TestControllerErrorKeepsPreviousItems(t *testing.T) {
	env := newTestEnv()
	rec := &failingRecommender{Coordinator: env.coordinator}
	c := NewController(rec, ControllerOptions{}, log.NullLogger())
	require.True(t, c.Apply(run(t, c.Init())))

	rec.fail = true
	env.clock.Advance(recommend.CooldownDuration)
	msg := run(t, c.Refresh())
	require.True(t, errors.Is(msg.Err, domain.ErrUnknownStrategy))
	require.True(t, c.Apply(msg))

	state := c.State(domain.StrategyTopRated)
	assert.Equal(t, StatusErrored, state.Status)
	assert.Equal(t, FetchErrorText, state.Err)
	assert.False(t, state.Loading)
	assert.Len(t, state.Items, 2, "previous list survives the error")

	rec.fail = false
	cmd := c.SelectStrategy(domain.StrategySimilar)
	require.True(t, c.Apply(run(t, cmd)))
	c.SelectStrategy(domain.StrategyTopRated)
	assert.Empty(t, c.State(domain.StrategyTopRated).Err, "selecting a tab clears its error")
}

func TestControllerNewFetchClearsError(t *testing.T) {
	env := newTestEnv()
	rec := &failingRecommender{Coordinator: env.coordinator}
	c := NewController(rec, ControllerOptions{}, log.NullLogger())
	require.True(t, c.Apply(run(t, c.Init())))

	rec.fail = true
	env.clock.Advance(recommend.CooldownDuration)
	require.True(t, c.Apply(run(t, c.Refresh())))
	require.Equal(t, StatusErrored, c.State(domain.StrategyTopRated).Status)

	t.Run("genre change", func(t *testing.T) {
		cmd := c.SetGenreFilter("Mystery")
		require.NotNil(t, cmd)
		state := c.State(domain.StrategyTopRated)
		assert.True(t, state.Loading)
		assert.Equal(t, StatusLoading, state.Status)
		assert.Empty(t, state.Err)
		require.True(t, c.Apply(run(t, cmd)))
		assert.Equal(t, FetchErrorText, c.State(domain.StrategyTopRated).Err)
	})

	t.Run("refresh", func(t *testing.T) {
		env.clock.Advance(recommend.CooldownDuration)
		rec.fail = false
		cmd := c.Refresh()
		require.NotNil(t, cmd)
		assert.Empty(t, c.State(domain.StrategyTopRated).Err)
		require.True(t, c.Apply(run(t, cmd)))
		assert.Equal(t, StatusLoaded, c.State(domain.StrategyTopRated).Status)
	})
}
