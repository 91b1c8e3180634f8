package ui

import (
	"fmt"
	"strings"

	"github.com/muselabs/aria/internal/api"
)

// Filter cycles for the two collection views. The empty string is the
// unfiltered master query served from the poller's cache.
var (
	wishlistFilters = []string{
		"",
		api.WishlistWanted,
		api.WishlistSearching,
		api.WishlistDownloading,
		api.WishlistDownloaded,
		api.WishlistFailed,
	}
	downloadFilters = []string{
		"",
		api.DownloadQueued,
		api.DownloadDownloading,
		api.DownloadCompleted,
		api.DownloadFailed,
	}
)

// nextFilter returns the entry after current, wrapping around. An unknown
// current value resets to the master query.
func nextFilter(filters []string, current string) string {
	for i, f := range filters {
		if f == current {
			return filters[(i+1)%len(filters)]
		}
	}
	return ""
}

func filterLabel(filter string) string {
	if filter == "" {
		return "all"
	}
	return filter
}

func (m Model) visibleRowCount() int {
	if m.currentView == ViewWishlist {
		items, _ := m.store.Wishlist(m.wishlistFilter)
		return len(items)
	}
	items, _ := m.store.Downloads(m.downloadFilter)
	return len(items)
}

func (m Model) renderWishlistTable() string {
	items, cached := m.store.Wishlist(m.wishlistFilter)
	styles := m.theme.Styles()
	if !cached {
		return styles.MutedText.Render("  loading wishlist (" + filterLabel(m.wishlistFilter) + ")...")
	}
	if len(items) == 0 {
		return styles.MutedText.Render("  no wishlist items (" + filterLabel(m.wishlistFilter) + ")")
	}

	var b strings.Builder
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("  %-40s %-12s %s", "ALBUM", "STATUS", "QUALITY")))
	b.WriteString("\n")
	for i, item := range items {
		status := m.theme.StatusStyle(item.Status).Render(pad(item.Status, 12))
		line := fmt.Sprintf("  %-40s %s %s", truncate(item.Label(), 40), status, item.Quality)
		if i == m.selectedRow {
			line = styles.SelectedRow.Render("> " + line[2:])
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderDownloadsTable() string {
	items, cached := m.store.Downloads(m.downloadFilter)
	styles := m.theme.Styles()
	if !cached {
		return styles.MutedText.Render("  loading downloads (" + filterLabel(m.downloadFilter) + ")...")
	}
	if len(items) == 0 {
		return styles.MutedText.Render("  no downloads (" + filterLabel(m.downloadFilter) + ")")
	}

	var b strings.Builder
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("  %-40s %-12s %-9s %s", "TITLE", "STATUS", "PROGRESS", "SIZE")))
	b.WriteString("\n")
	for i, item := range items {
		status := m.theme.StatusStyle(item.Status).Render(pad(item.Status, 12))
		line := fmt.Sprintf("  %-40s %s %-9s %s",
			truncate(item.Label(), 40), status, formatProgress(item), formatBytes(item.SizeBytes))
		if i == m.selectedRow {
			line = styles.SelectedRow.Render("> " + line[2:])
		}
		b.WriteString(line)
		if item.Status == api.DownloadFailed && item.ErrorMessage != "" {
			b.WriteString("\n")
			b.WriteString(styles.DangerText.Render("      " + truncate(item.ErrorMessage, 70)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatProgress renders a percentage for active transfers; terminal and
// queued entries show a dash.
func formatProgress(d api.Download) string {
	if d.Status == api.DownloadDownloading || d.Status == api.DownloadImporting {
		return fmt.Sprintf("%5.1f%%", d.Progress)
	}
	return "   -"
}

func formatBytes(n int64) string {
	switch {
	case n <= 0:
		return "-"
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KiB", float64(n)/1024)
	case n < 1024*1024*1024:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1024*1024))
	default:
		return fmt.Sprintf("%.2f GiB", float64(n)/(1024*1024*1024))
	}
}

// truncate shortens s to max runes. Slicing runes, not bytes, keeps
// multibyte artist and album names valid UTF-8.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return string(runes[:1])
	}
	return string(runes[:max-1]) + "…"
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
