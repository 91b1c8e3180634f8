package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muselabs/aria/internal/api"
)

// Theme defines colors for the UI.
type Theme struct {
	Name string

	Text    string
	Muted   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	SelectionBg   string
	SelectionText string
	Border        string

	// StatusColors maps entity statuses to their display color.
	StatusColors map[string]string
}

// Styles holds the lipgloss styles derived from a Theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header      lipgloss.Style
	Footer      lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	SelectedRow lipgloss.Style
	Panel       lipgloss.Style
}

// Styles returns lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),

		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),

		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		InfoText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Info)),

		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),

		ActiveTab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true).
			Underline(true),

		InactiveTab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		SelectedRow: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)).
			Padding(1, 2),
	}
}

// StatusStyle returns the style for an entity status.
func (t Theme) StatusStyle(status string) lipgloss.Style {
	if c, ok := t.StatusColors[status]; ok {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text))
}

// themeFor looks a theme up by its configured name, falling back to the
// default.
func themeFor(name string) Theme {
	switch name {
	case "aria-light":
		return LightTheme()
	default:
		return DefaultTheme()
	}
}

// DefaultTheme returns the built-in theme.
func DefaultTheme() Theme {
	return Theme{
		Name: "aria-dark",

		Text:    "#E6E1DC",
		Muted:   "#8A857E",
		Accent:  "#C792EA",
		Success: "#9ECE6A",
		Warning: "#E0AF68",
		Danger:  "#F7768E",
		Info:    "#7AA2F7",

		SelectionBg:   "#2F334D",
		SelectionText: "#E6E1DC",
		Border:        "#3B4261",

		StatusColors: map[string]string{
			api.WishlistWanted:      "#8A857E",
			api.WishlistSearching:   "#7AA2F7",
			api.WishlistFound:       "#9ECE6A",
			api.WishlistDownloading: "#E0AF68",
			api.WishlistImporting:   "#E0AF68",
			api.WishlistDownloaded:  "#9ECE6A",
			api.WishlistFailed:      "#F7768E",

			api.DownloadQueued:    "#8A857E",
			api.DownloadCompleted: "#9ECE6A",
			api.DownloadCancelled: "#8A857E",
		},
	}
}

// LightTheme is the light-background variant.
func LightTheme() Theme {
	t := DefaultTheme()
	t.Name = "aria-light"
	t.Text = "#2E3440"
	t.Muted = "#6B7280"
	t.SelectionBg = "#D8DEE9"
	t.SelectionText = "#2E3440"
	t.Border = "#9CA3AF"
	return t
}
