package tui

import (
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/folio/internal/domain"
	"github.com/mmcdole/folio/internal/tui/components"
	"github.com/mmcdole/folio/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateFiltering
	StateHelp
	StateConfirmLogout
)

// Vertical chrome: header, tabs, toolbar, banner, blank line, footer
const ChromeHeight = 6

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	// Services
	Controller       *Controller
	Account          domain.AccountRepository
	ClearCredentials func() error

	// UI Components
	GenreModal  components.GenreModal
	Spinner     spinner.Model
	FilterInput textinput.Model

	// Data
	User *domain.User

	// Dimensions
	Width  int
	Height int

	// UI state
	cursor      int
	StatusMsg   string
	StatusIsErr bool
	LoggedOut   bool

	logger *slog.Logger
}

// NewModel creates a new application model
func NewModel(
	controller *Controller,
	account domain.AccountRepository,
	clearCredentials func() error,
	logger *slog.Logger,
) Model {
	if logger == nil {
		logger = slog.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	fi := textinput.New()
	fi.Placeholder = "title or author"
	fi.CharLimit = 60
	fi.Width = 30
	fi.Prompt = "/ "
	fi.PromptStyle = styles.FilterPromptStyle
	fi.PlaceholderStyle = styles.DimStyle

	return Model{
		State:            StateBrowsing,
		Controller:       controller,
		Account:          account,
		ClearCredentials: clearCredentials,
		GenreModal:       components.NewGenreModal(),
		Spinner:          sp,
		FilterInput:      fi,
		logger:           logger,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.Controller.Init(),
		m.Spinner.Tick,
		TickCmd(time.Second),
		LoadUserCmd(m.Account),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case TickMsg:
		// Re-render so the cooldown countdown moves
		return m, TickCmd(time.Second)

	case RecommendationsLoadedMsg:
		if m.Controller.Apply(msg) && msg.Strategy == m.Controller.Active() {
			m.clampCursor()
		}
		return m, nil

	case UserLoadedMsg:
		m.User = msg.User
		return m, nil

	case LogoutCompleteMsg:
		m.LoggedOut = true
		return m, tea.Quit

	case ErrMsg:
		m.logger.Error("command failed", "context", msg.Context, "error", msg.Err)
		m.StatusIsErr = true
		if errors.Is(msg.Err, domain.ErrAuthFailed) {
			m.StatusMsg = "Session expired. Restart folio to sign in again."
		} else {
			m.StatusMsg = msg.Error()
		}
		if m.State == StateConfirmLogout {
			m.State = StateBrowsing
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle state-specific keys
	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil

	case StateConfirmLogout:
		switch {
		case key.Matches(msg, Keys.Confirm):
			return m, LogoutCmd(m.Account, m.ClearCredentials)
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
		}
		return m, nil

	case StateFiltering:
		return m.handleFilterKey(msg)
	}

	// Handle genre modal if visible
	if m.GenreModal.IsVisible() {
		var cmd tea.Cmd
		var chosen *string
		m.GenreModal, cmd, chosen = m.GenreModal.Update(msg)
		if chosen != nil {
			m.cursor = 0
			return m, tea.Batch(cmd, m.Controller.SetGenreFilter(*chosen))
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp

	case key.Matches(msg, Keys.Logout):
		m.State = StateConfirmLogout

	case key.Matches(msg, Keys.Escape):
		m.FilterInput.SetValue("")
		m.StatusMsg = ""
		m.clampCursor()

	case key.Matches(msg, Keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, Keys.Down):
		if m.cursor < len(m.visibleItems())-1 {
			m.cursor++
		}

	case key.Matches(msg, Keys.Home):
		m.cursor = 0

	case key.Matches(msg, Keys.End):
		m.cursor = max(0, len(m.visibleItems())-1)

	case key.Matches(msg, Keys.TopRated):
		return m.selectStrategy(domain.StrategyTopRated)

	case key.Matches(msg, Keys.Similar):
		return m.selectStrategy(domain.StrategySimilar)

	case key.Matches(msg, Keys.AI):
		return m.selectStrategy(domain.StrategyAI)

	case key.Matches(msg, Keys.NextTab):
		next := (int(m.Controller.Active()) + 1) % domain.NumStrategies
		return m.selectStrategy(domain.Strategy(next))

	case key.Matches(msg, Keys.PrevTab):
		prev := (int(m.Controller.Active()) + domain.NumStrategies - 1) % domain.NumStrategies
		return m.selectStrategy(domain.Strategy(prev))

	case key.Matches(msg, Keys.Genre):
		active := m.Controller.Genre()
		if active == "" {
			active = AllGenres
		}
		m.GenreModal.Show(Genres, active)

	case key.Matches(msg, Keys.Filter):
		m.State = StateFiltering
		return m, m.FilterInput.Focus()

	case key.Matches(msg, Keys.Refresh):
		return m, m.Controller.Refresh()
	}

	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.FilterInput.SetValue("")
		m.FilterInput.Blur()
		m.State = StateBrowsing
		m.clampCursor()
		return m, nil
	case "enter":
		m.FilterInput.Blur()
		m.State = StateBrowsing
		return m, nil
	}

	var cmd tea.Cmd
	m.FilterInput, cmd = m.FilterInput.Update(msg)
	m.cursor = 0
	return m, cmd
}

func (m Model) selectStrategy(s domain.Strategy) (tea.Model, tea.Cmd) {
	cmd := m.Controller.SelectStrategy(s)
	if cmd != nil {
		m.cursor = 0
	}
	return m, cmd
}

// visibleItems returns the active tab's items after the local title filter
func (m Model) visibleItems() []domain.RecommendationItem {
	return filterItems(m.Controller.DisplayItems(m.Controller.Active()), m.FilterInput.Value())
}

// SelectedItem returns the book under the cursor
func (m Model) SelectedItem() (domain.RecommendationItem, bool) {
	items := m.visibleItems()
	if m.cursor < 0 || m.cursor >= len(items) {
		return domain.RecommendationItem{}, false
	}
	return items[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.visibleItems())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Initializing..."
	}

	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateConfirmLogout:
		return m.renderLogoutConfirmation()
	}

	view := m.renderMain()
	if m.GenreModal.IsVisible() {
		return lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.GenreModal.View())
	}
	return view
}
