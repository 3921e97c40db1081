package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/folio/internal/domain"
	"github.com/mmcdole/folio/internal/tui/styles"
)

// Horizontal split between the book list and the detail panel
const (
	ListColumnPercent = 55
	MinDetailWidth    = 30
)

func (m Model) renderMain() string {
	sections := []string{
		m.renderHeader(),
		m.renderTabs(),
		m.renderToolbar(),
		m.renderBanner(),
		m.renderBody(),
		m.renderFooter(),
	}
	return strings.Join(sections, "\n")
}

// renderHeader renders the app title and signed-in user
func (m Model) renderHeader() string {
	left := styles.AccentStyle.Bold(true).Render("folio") + styles.DimStyle.Render("  book recommendations")

	var right string
	if m.User != nil {
		name := m.User.Name
		if name == "" {
			name = m.User.Email
		}
		right = styles.SubtitleStyle.Render(name)
	}

	return spread(left, right, m.Width)
}

// renderTabs renders one tab per strategy with a loading marker
func (m Model) renderTabs() string {
	var tabs []string
	for _, s := range domain.Strategies() {
		label := fmt.Sprintf("%d %s", int(s)+1, s.Label())
		if m.Controller.State(s).Loading {
			label += " …"
		}
		if s == m.Controller.Active() {
			tabs = append(tabs, styles.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(label))
		}
	}
	return strings.Join(tabs, styles.TabGapStyle.Render(""))
}

// renderToolbar renders the genre filter, last refresh and refresh affordance
func (m Model) renderToolbar() string {
	genre := m.Controller.Genre()
	if genre == "" {
		genre = AllGenres
	}
	left := styles.DimStyle.Render("Genre: ") + styles.AccentStyle.Render(genre)
	if q := m.FilterInput.Value(); q != "" || m.State == StateFiltering {
		left += "   " + m.FilterInput.View()
	}

	refresh := m.Controller.RefreshLabel()
	if m.Controller.CanRefresh() {
		refresh = styles.AccentStyle.Render("r") + styles.DimStyle.Render(" "+refresh)
	} else {
		refresh = styles.DimStyle.Render(refresh)
	}
	right := styles.DimStyle.Render("Last refreshed: "+m.Controller.LastRefreshed()) + "   " + refresh

	return spread(left, right, m.Width)
}

// renderBanner renders the error or fallback notice for the active tab.
// The fallback notice is hidden while the tab is loading.
func (m Model) renderBanner() string {
	state := m.Controller.State(m.Controller.Active())
	if state.Err != "" {
		return styles.ErrorBannerStyle.Render(state.Err)
	}
	if state.Loading {
		return ""
	}
	if fallback, reason := m.Controller.Banner(); fallback {
		if reason == "" {
			reason = domain.DefaultFallbackReason
		}
		return styles.FallbackBannerStyle.Render(reason)
	}
	return ""
}

// renderBody renders the list and the detail panel side by side
func (m Model) renderBody() string {
	height := max(1, m.Height-ChromeHeight)
	active := m.Controller.Active()
	state := m.Controller.State(active)

	if state.Loading && len(state.Items) == 0 {
		text := fmt.Sprintf("Loading %s recommendations...", strings.ToLower(active.Label()))
		return lipgloss.Place(m.Width, height, lipgloss.Center, lipgloss.Center,
			m.Spinner.View()+" "+styles.DimStyle.Render(text))
	}

	items := m.visibleItems()
	if len(items) == 0 {
		return lipgloss.Place(m.Width, height, lipgloss.Center, lipgloss.Center,
			styles.DimStyle.Render("No books match the filter."))
	}

	listWidth := m.Width * ListColumnPercent / 100
	detailWidth := m.Width - listWidth - 1
	if detailWidth < MinDetailWidth {
		listWidth = m.Width
		detailWidth = 0
	}

	list := m.renderList(items, listWidth, height)
	if detailWidth == 0 {
		return list
	}

	var detail string
	if item, ok := m.SelectedItem(); ok {
		detail = renderDetail(item, detailWidth-4, height-2)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, list, " ", detail)
}

// renderList renders the scrolled window of books around the cursor
func (m Model) renderList(items []domain.RecommendationItem, width, height int) string {
	offset := 0
	if m.cursor >= height {
		offset = m.cursor - height + 1
	}
	end := min(len(items), offset+height)

	lines := make([]string, 0, height)
	for i := offset; i < end; i++ {
		item := items[i]
		text := styles.Truncate(fmt.Sprintf("%s  by %s", item.Title, item.Author), width-12)
		text = styles.Pad(text, width-12) + " " + fmt.Sprintf("★ %.1f", item.AverageRating)
		if i == m.cursor {
			lines = append(lines, styles.SelectedItemStyle.Render(text))
		} else {
			lines = append(lines, styles.NormalItemStyle.Render(text))
		}
	}
	for len(lines) < height {
		lines = append(lines, "")
	}

	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

// renderDetail renders everything known about one book
func renderDetail(item domain.RecommendationItem, width, height int) string {
	if width < 10 {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(styles.Truncate(item.Title, width)))
	b.WriteString("\n")
	b.WriteString(styles.SubtitleStyle.Render(styles.Truncate(item.Author, width)))
	b.WriteString("\n\n")

	b.WriteString(styles.RenderRating(item.AverageRating))
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  (%d ratings)", item.RatingCount)))
	b.WriteString("\n")

	if item.PublicationYear != nil {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("Published %d", *item.PublicationYear)))
		b.WriteString("\n")
	}

	if len(item.Genres) > 0 {
		var badges []string
		for _, g := range item.Genres {
			badges = append(badges, styles.DimBadgeStyle.Render(g))
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(strings.Join(badges, " ")))
		b.WriteString("\n")
	}

	if item.RelevanceScore > 0 {
		b.WriteString("\n")
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("Match %d%%", int(item.RelevanceScore*100+0.5))))
		b.WriteString("\n")
	}

	if item.Reason != "" {
		b.WriteString("\n")
		b.WriteString(styles.ReasonStyle.Width(width).Render(item.Reason))
	}

	return styles.DetailStyle.Width(width).MaxHeight(height + 2).Render(b.String())
}

// renderFooter renders status on the left and the help hint on the right
func (m Model) renderFooter() string {
	var left string
	active := m.Controller.State(m.Controller.Active())
	switch {
	case active.Loading:
		left = m.Spinner.View() + " " + styles.DimStyle.Render("Loading...")
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.DimStyle.Render(m.StatusMsg)
	default:
		left = styles.DimStyle.Render(fmt.Sprintf("%d books", len(m.visibleItems())))
	}

	right := styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help")
	return spread(left, right, m.Width)
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
TABS                            LIST
  1          Top Rated            j/k        Up/down
  2          Similar Books        Home/G     First/last book
  3          AI Suggestions       /          Filter by title or author
  Tab/S-Tab  Next/previous tab    Esc        Clear filter

RECOMMENDATIONS                 OTHER
  g          Choose genre         L          Logout
  r          Refresh (30s         ?          This help
             cooldown)            q          Quit

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderLogoutConfirmation renders the logout confirmation modal
func (m Model) renderLogoutConfirmation() string {
	modal := `
              Log Out?

  This will end your session and
  clear your saved credentials.

        [Y] Yes      [N] No
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}

// spread places left and right at the edges of a line of the given width
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
