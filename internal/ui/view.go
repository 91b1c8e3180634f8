package ui

import (
	"fmt"
	"strings"

	"github.com/muselabs/aria/internal/notify"
	"github.com/muselabs/aria/internal/session"
)

// View implements tea.Model. It is the route guard: which screen renders is
// decided purely by the current session state, so no collection view can
// appear before the session has settled.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	switch m.sessionState {
	case session.StateBootstrapping:
		return m.renderConnecting()
	case session.StateSetupRequired:
		return m.renderAuthForm("Welcome to aria", "Create the first admin account for your muse server.")
	case session.StateUnauthenticated:
		return m.renderAuthForm("aria", "Sign in to your muse server.")
	}

	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) renderConnecting() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Header.Render("aria"))
	b.WriteString("\n\n")
	if m.bootstrapFailed {
		b.WriteString(styles.DangerText.Render("  could not reach the muse server"))
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("  press r to retry, q to quit"))
	} else {
		b.WriteString(styles.InfoText.Render("  connecting to the muse server..."))
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("  press q to quit"))
	}
	return styles.Panel.Render(b.String())
}

func (m Model) renderAuthForm(title, subtitle string) string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Header.Render(title))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  " + subtitle))
	b.WriteString("\n\n")
	b.WriteString("  " + m.form.username.View())
	b.WriteString("\n")
	b.WriteString("  " + m.form.password.View())
	b.WriteString("\n\n")
	switch {
	case m.form.submitting:
		b.WriteString(styles.InfoText.Render("  submitting..."))
	case m.form.errMsg != "":
		b.WriteString(styles.DangerText.Render("  " + m.form.errMsg))
	default:
		b.WriteString(styles.MutedText.Render("  tab to switch fields, enter to submit"))
	}
	return styles.Panel.Render(b.String())
}

func (m Model) renderMain() string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.currentView == ViewWishlist {
		b.WriteString(m.renderWishlistTable())
	} else {
		b.WriteString(m.renderDownloadsTable())
	}

	if m.pendingAction != nil {
		b.WriteString("\n")
		b.WriteString(m.renderPrompt(*m.pendingAction))
	}
	for _, t := range m.toasts {
		b.WriteString("\n")
		b.WriteString(m.renderToast(t.n))
	}

	b.WriteString("\n")
	if m.lastErr != "" {
		b.WriteString(styles.DangerText.Render("  " + m.lastErr))
		b.WriteString("\n")
	}
	b.WriteString(styles.Footer.Render("tab views · f filter · s search · r refresh · h help · q quit"))
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	title := styles.Header.Render("aria")

	var parts []string
	if user := m.session.User(); user != nil {
		parts = append(parts, user.Username)
	}
	if stats, ok := m.store.Stats(); ok {
		parts = append(parts, fmt.Sprintf("%d wanted · %d downloading · %d completed",
			stats.Wanted, stats.Downloading, stats.Completed))
	}

	health := m.store.Health()
	switch {
	case health.IsOffline():
		parts = append(parts, styles.DangerText.Render("offline"))
	case health.HasReadiness && !health.Ready:
		parts = append(parts, styles.WarningText.Render("server starting"))
	}

	if len(parts) == 0 {
		return title
	}
	return title + styles.MutedText.Render("  "+strings.Join(parts, "  |  "))
}

func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	wish := "Wishlist (" + filterLabel(m.wishlistFilter) + ")"
	dl := "Downloads (" + filterLabel(m.downloadFilter) + ")"
	if m.currentView == ViewWishlist {
		return "  " + styles.ActiveTab.Render(wish) + "   " + styles.InactiveTab.Render(dl)
	}
	return "  " + styles.InactiveTab.Render(wish) + "   " + styles.ActiveTab.Render(dl)
}

func (m Model) renderPrompt(n notify.Notification) string {
	styles := m.theme.Styles()
	return styles.AccentText.Render("  ! " + n.Message + "  (v to view, x to dismiss)")
}

func (m Model) renderToast(n notify.Notification) string {
	styles := m.theme.Styles()
	switch n.Level {
	case notify.LevelSuccess:
		return styles.SuccessText.Render("  ✓ " + n.Message)
	case notify.LevelError:
		return styles.DangerText.Render("  ✗ " + n.Message)
	default:
		return styles.InfoText.Render("  · " + n.Message)
	}
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Header.Render("Key bindings"))
	b.WriteString("\n\n")
	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-12s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(styles.MutedText.Render("  esc to close"))
	return styles.Panel.Render(b.String())
}
