package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/folio/internal/tui/styles"
)

const genreModalWidth = 28

// GenreModal is a popup for choosing the genre filter. Typing narrows the
// list by fuzzy match.
type GenreModal struct {
	visible bool
	options []string
	active  string
	input   textinput.Model
	matches []int // indexes into options, in display order
	cursor  int
}

// NewGenreModal creates a new genre modal
func NewGenreModal() GenreModal {
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.CharLimit = 30
	ti.Width = genreModalWidth - 4
	ti.Prompt = "› "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return GenreModal{input: ti}
}

// Show displays the modal with the cursor on the active genre
func (m *GenreModal) Show(options []string, active string) {
	m.visible = true
	m.options = options
	m.active = active
	m.input.SetValue("")
	m.input.Focus()
	m.applyQuery()

	m.cursor = 0
	for i, idx := range m.matches {
		if strings.EqualFold(options[idx], active) {
			m.cursor = i
			break
		}
	}
}

// Hide dismisses the modal
func (m *GenreModal) Hide() {
	m.visible = false
	m.input.Blur()
}

// IsVisible returns whether the modal is shown
func (m GenreModal) IsVisible() bool {
	return m.visible
}

// Selected returns the genre under the cursor, or "" when nothing matches
func (m GenreModal) Selected() string {
	if m.cursor < 0 || m.cursor >= len(m.matches) {
		return ""
	}
	return m.options[m.matches[m.cursor]]
}

// Update handles key events, returns (modal, cmd, chosen genre).
// chosen is non-nil only when the user confirmed a genre.
func (m GenreModal) Update(msg tea.KeyMsg) (GenreModal, tea.Cmd, *string) {
	if !m.visible {
		return m, nil, nil
	}

	switch {
	case key.Matches(msg, PickerKeys.Cancel):
		m.Hide()
		return m, nil, nil
	case key.Matches(msg, PickerKeys.Select):
		chosen := m.Selected()
		if chosen == "" {
			return m, nil, nil
		}
		m.Hide()
		return m, nil, &chosen
	case key.Matches(msg, PickerKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil, nil
	case key.Matches(msg, PickerKeys.Down):
		if m.cursor < len(m.matches)-1 {
			m.cursor++
		}
		return m, nil, nil
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != prev {
		m.applyQuery()
		m.cursor = 0
	}
	return m, cmd, nil
}

func (m *GenreModal) applyQuery() {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		m.matches = make([]int, len(m.options))
		for i := range m.options {
			m.matches[i] = i
		}
		return
	}

	lower := make([]string, len(m.options))
	for i, o := range m.options {
		lower[i] = strings.ToLower(o)
	}

	found := fuzzy.Find(strings.ToLower(query), lower)
	m.matches = make([]int, len(found))
	for i, match := range found {
		m.matches[i] = match.Index
	}
}

// View renders the genre modal
func (m GenreModal) View() string {
	if !m.visible {
		return ""
	}

	lines := []string{m.input.View(), ""}
	if len(m.matches) == 0 {
		lines = append(lines, styles.DimStyle.Render(styles.Pad("  No matching genre", genreModalWidth)))
	}
	for i, idx := range m.matches {
		genre := m.options[idx]
		prefix := "  "
		if strings.EqualFold(genre, m.active) {
			prefix = "✓ "
		}
		text := styles.Pad(prefix+genre, genreModalWidth)

		switch {
		case i == m.cursor:
			lines = append(lines, styles.SelectedItemStyle.Render(text))
		case strings.EqualFold(genre, m.active):
			lines = append(lines, styles.AccentStyle.Render(text))
		default:
			lines = append(lines, styles.NormalItemStyle.Render(text))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Accent).
		Background(styles.SlateDark).
		Padding(0, 1).
		Render(styles.ModalTitleStyle.Render("Genre") + "\n" + strings.Join(lines, "\n"))
}
