package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/folio/internal/domain"
	"github.com/mmcdole/folio/internal/recommend"
)

// User-facing texts
const (
	FetchErrorText    = "Failed to fetch recommendations. Please try again later."
	EmptyResultReason = "No recommendations available. Showing popular books instead."
)

// Recommender is the part of the coordinator the controller depends on
type Recommender interface {
	GetRecommendations(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResult, error)
	LastRefreshTime(strategy domain.Strategy, genre string) (time.Time, bool)
	CanRefresh(strategy domain.Strategy, genre string) bool
	TimeUntilRefresh(strategy domain.Strategy, genre string) time.Duration
}

// Status is the fetch state of one strategy tab
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// StrategyState is what one tab knows about its last fetch
type StrategyState struct {
	Items          []domain.RecommendationItem
	Loading        bool
	Err            string
	Fallback       bool
	FallbackReason string
	Status         Status
}

// ControllerOptions configures a Controller
type ControllerOptions struct {
	Initial               domain.Strategy
	Limit                 int
	ForceFreshOnTabSwitch bool
	Timeout               time.Duration
}

// Controller holds per-strategy fetch state for the recommendation screen.
// It is only touched from the bubbletea event loop; fetches run as tea.Cmds
// and come back through Apply.
type Controller struct {
	rec    Recommender
	opts   ControllerOptions
	logger *slog.Logger

	active domain.Strategy
	genre  string
	states [domain.NumStrategies]StrategyState
	seq    [domain.NumStrategies]uint64

	// Banner reflects the last applied result of the active tab
	bannerFallback bool
	bannerReason   string
}

// NewController creates a controller with every tab idle
func NewController(rec Recommender, opts ControllerOptions, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if !opts.Initial.Valid() {
		opts.Initial = domain.StrategyTopRated
	}
	if opts.Limit <= 0 {
		opts.Limit = domain.DefaultLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Controller{
		rec:    rec,
		opts:   opts,
		logger: logger,
		active: opts.Initial,
	}
}

// Init fetches the initial tab
func (c *Controller) Init() tea.Cmd {
	return c.fetch(c.active, false)
}

// Active returns the selected strategy
func (c *Controller) Active() domain.Strategy { return c.active }

// Genre returns the genre filter, empty when unfiltered
func (c *Controller) Genre() string { return c.genre }

// State returns a snapshot of the tab state for s
func (c *Controller) State(s domain.Strategy) StrategyState {
	if !s.Valid() {
		return StrategyState{}
	}
	return c.states[s]
}

// Banner returns the fallback banner for the active tab
func (c *Controller) Banner() (fallback bool, reason string) {
	return c.bannerFallback, c.bannerReason
}

// SelectStrategy switches tabs and fetches the new tab
func (c *Controller) SelectStrategy(s domain.Strategy) tea.Cmd {
	if !s.Valid() || s == c.active {
		return nil
	}
	c.active = s
	return c.fetch(s, c.opts.ForceFreshOnTabSwitch)
}

// SetGenreFilter changes the genre and refetches the active tab only.
// "" and "All" clear the filter.
func (c *Controller) SetGenreFilter(genre string) tea.Cmd {
	genre = strings.TrimSpace(genre)
	if strings.EqualFold(genre, AllGenres) {
		genre = ""
	}
	if genre == c.genre {
		return nil
	}
	c.genre = genre
	return c.fetch(c.active, false)
}

// Refresh forces a fetch of the active tab. Returns nil while cooling down.
func (c *Controller) Refresh() tea.Cmd {
	if !c.rec.CanRefresh(c.active, c.genre) {
		c.logger.Debug("refresh ignored during cooldown", "strategy", c.active.String(), "genre", c.genre)
		return nil
	}
	return c.fetch(c.active, true)
}

func (c *Controller) fetch(s domain.Strategy, force bool) tea.Cmd {
	c.seq[s]++
	state := &c.states[s]
	state.Loading = true
	state.Status = StatusLoading
	state.Err = ""

	req := domain.RecommendationRequest{
		Strategy:   s,
		Limit:      c.opts.Limit,
		Genre:      c.genre,
		ForceFresh: force,
	}
	return FetchRecommendationsCmd(c.rec, req, c.seq[s], c.opts.Timeout)
}

// Apply records a completed fetch. It returns false when the message was
// superseded by a later fetch for the same strategy and was dropped.
func (c *Controller) Apply(msg RecommendationsLoadedMsg) bool {
	s := msg.Strategy
	if !s.Valid() || msg.Seq != c.seq[s] {
		c.logger.Debug("dropping superseded recommendations", "strategy", s.String(), "seq", msg.Seq)
		return false
	}

	state := &c.states[s]
	state.Loading = false

	if msg.Err != nil || msg.Result == nil {
		c.logger.Error("recommendation fetch failed", "strategy", s.String(), "error", msg.Err)
		state.Err = FetchErrorText
		state.Status = StatusErrored
		return true
	}

	items := make([]domain.RecommendationItem, 0, len(msg.Result.Items))
	for _, item := range msg.Result.Items {
		if err := item.Validate(); err != nil {
			c.logger.Debug("dropping invalid recommendation", "strategy", s.String(), "error", err)
			continue
		}
		items = append(items, item)
	}

	fallback := msg.Result.IsFallback()
	reason := msg.Result.Reason()
	if len(items) == 0 {
		fallback = true
		reason = EmptyResultReason
	}

	state.Items = items
	state.Err = ""
	state.Fallback = fallback
	state.FallbackReason = reason
	state.Status = StatusLoaded

	if s == c.active {
		c.bannerFallback = fallback
		c.bannerReason = reason
	}
	return true
}

// DisplayItems returns what the tab should render: its items, or the demo
// set when it has none
func (c *Controller) DisplayItems(s domain.Strategy) []domain.RecommendationItem {
	if !s.Valid() {
		return nil
	}
	if items := c.states[s].Items; len(items) > 0 {
		return items
	}
	return recommend.DemoItems()
}

// LastRefreshed renders the active tab's last refresh as HH:MM:SS, or "Never"
func (c *Controller) LastRefreshed() string {
	at, ok := c.rec.LastRefreshTime(c.active, c.genre)
	if !ok {
		return "Never"
	}
	return at.Local().Format("15:04:05")
}

// RefreshLabel renders the refresh affordance with any remaining cooldown
func (c *Controller) RefreshLabel() string {
	remaining := c.rec.TimeUntilRefresh(c.active, c.genre)
	if remaining <= 0 {
		return "Refresh"
	}
	return fmt.Sprintf("Refresh (%ds)", int(math.Ceil(remaining.Seconds())))
}

// CanRefresh reports whether Refresh would issue a fetch
func (c *Controller) CanRefresh() bool {
	return c.rec.CanRefresh(c.active, c.genre)
}
