package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	Accent     = lipgloss.Color("#D97706")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Yellow     = lipgloss.Color("#FBBF24")
)

// themes maps ui.theme names to accent colors
var themes = map[string]lipgloss.Color{
	"default": "#D97706", // amber
	"ocean":   "#3B82F6",
	"forest":  "#10B981",
	"rose":    "#F43F5E",
}

// ThemeNames returns the supported theme names
func ThemeNames() []string {
	return []string{"default", "ocean", "forest", "rose"}
}

// ApplyTheme switches the accent color and rebuilds every style.
// Call before the program starts.
func ApplyTheme(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "default"
	}
	color, ok := themes[name]
	if !ok {
		return fmt.Errorf("unknown theme %q", name)
	}
	Accent = color
	build()
	return nil
}

// Text styles
var (
	TitleStyle     lipgloss.Style
	SubtitleStyle  lipgloss.Style
	DimStyle       lipgloss.Style
	AccentStyle    lipgloss.Style
	ErrorStyle     lipgloss.Style
	SuccessStyle   lipgloss.Style
	HighlightStyle lipgloss.Style
)

// Tab styles
var (
	ActiveTabStyle   lipgloss.Style
	InactiveTabStyle lipgloss.Style
	TabGapStyle      lipgloss.Style
)

// Banner styles
var (
	FallbackBannerStyle lipgloss.Style
	ErrorBannerStyle    lipgloss.Style
)

// List item styles
var (
	SelectedItemStyle lipgloss.Style
	NormalItemStyle   lipgloss.Style
	ReasonStyle       lipgloss.Style
	RatingStyle       lipgloss.Style
)

// Panel styles
var (
	DetailStyle lipgloss.Style
)

// Modal styles
var (
	ModalStyle      lipgloss.Style
	ModalTitleStyle lipgloss.Style
)

// Help styles
var (
	HelpKeyStyle  lipgloss.Style
	HelpDescStyle lipgloss.Style
)

// Spinner, filter
var (
	SpinnerStyle      lipgloss.Style
	FilterPromptStyle lipgloss.Style
	BadgeStyle        lipgloss.Style
	DimBadgeStyle     lipgloss.Style
)

func init() {
	build()
}

func build() {
	TitleStyle = lipgloss.NewStyle().
		Foreground(White).
		Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
		Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
		Foreground(Accent)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
		Foreground(Green)

	HighlightStyle = lipgloss.NewStyle().
		Foreground(White).
		Background(Accent).
		Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
		Foreground(White).
		Background(Accent).
		Bold(true).
		Padding(0, 2)

	InactiveTabStyle = lipgloss.NewStyle().
		Foreground(LightGray).
		Background(SlateLight).
		Padding(0, 2)

	TabGapStyle = lipgloss.NewStyle().
		Padding(0, 1)

	FallbackBannerStyle = lipgloss.NewStyle().
		Foreground(SlateDark).
		Background(Yellow).
		Padding(0, 1)

	ErrorBannerStyle = lipgloss.NewStyle().
		Foreground(White).
		Background(Red).
		Padding(0, 1)

	SelectedItemStyle = lipgloss.NewStyle().
		Foreground(White).
		Background(SlateLight).
		Padding(0, 1)

	NormalItemStyle = lipgloss.NewStyle().
		Foreground(LightGray).
		Padding(0, 1)

	ReasonStyle = lipgloss.NewStyle().
		Foreground(DimGray).
		Italic(true)

	RatingStyle = lipgloss.NewStyle().
		Foreground(Yellow)

	DetailStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(DimGray).
		Padding(0, 1)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Accent).
		Padding(1, 2).
		Background(SlateDark)

	ModalTitleStyle = lipgloss.NewStyle().
		Foreground(White).
		Bold(true).
		MarginBottom(1)

	HelpKeyStyle = lipgloss.NewStyle().
		Foreground(Accent)

	HelpDescStyle = lipgloss.NewStyle().
		Foreground(DimGray)

	SpinnerStyle = lipgloss.NewStyle().
		Foreground(Accent)

	FilterPromptStyle = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	BadgeStyle = lipgloss.NewStyle().
		Foreground(White).
		Background(Accent).
		Padding(0, 1)

	DimBadgeStyle = lipgloss.NewStyle().
		Foreground(LightGray).
		Background(SlateLight).
		Padding(0, 1)
}

// Helper functions

// Truncate truncates a string to the given display width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// Pad pads or cuts a string to the given width
func Pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return s + strings.Repeat(" ", width-len(runes))
}

// RenderRating renders an average rating as five stars plus the number
func RenderRating(rating float64) string {
	full := int(rating + 0.5)
	if full > 5 {
		full = 5
	}
	if full < 0 {
		full = 0
	}
	stars := strings.Repeat("★", full) + strings.Repeat("☆", 5-full)
	return RatingStyle.Render(stars) + DimStyle.Render(fmt.Sprintf(" %.1f", rating))
}
