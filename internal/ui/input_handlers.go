package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muselabs/aria/internal/session"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	if m.formActive() {
		return m.handleFormKey(msg)
	}

	if m.sessionState == session.StateBootstrapping {
		return m.handleBootstrapKey(msg)
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Escape) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.currentView == ViewWishlist {
			m.currentView = ViewDownloads
		} else {
			m.currentView = ViewWishlist
		}
		m.selectedRow = 0
		return m, nil

	case key.Matches(msg, m.keys.CycleFilter):
		return m.cycleFilter()

	case key.Matches(msg, m.keys.Search):
		return m.searchSelected()

	case key.Matches(msg, m.keys.Refresh):
		if m.runtime != nil {
			if m.currentView == ViewWishlist {
				m.runtime.KickWishlist()
			} else {
				m.runtime.KickDownloads()
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.ApplyPrompt):
		return m.applyPendingAction()

	case key.Matches(msg, m.keys.DismissPrompt):
		m.pendingAction = nil
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		return m, m.logoutCmd()

	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < m.visibleRowCount()-1 {
			m.selectedRow++
		}
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		if n := m.visibleRowCount(); n > 0 {
			m.selectedRow = n - 1
		}
		return m, nil
	}

	return m, nil
}

// handleBootstrapKey covers the connecting screen: quit always works, and a
// failed bootstrap can be retried manually.
func (m Model) handleBootstrapKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Refresh):
		if m.bootstrapFailed && !m.bootstrapping {
			m.bootstrapFailed = false
			m.bootstrapping = true
			return m, m.bootstrapCmd()
		}
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.form.errMsg = ""
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		m.form.toggleFocus()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		if m.form.submitting {
			return m, nil
		}
		username, password, ok := m.form.values()
		if !ok {
			m.form.errMsg = "username and password are required"
			return m, nil
		}
		m.form.submitting = true
		m.form.errMsg = ""
		if m.sessionState == session.StateSetupRequired {
			return m, m.setupCmd(username, password)
		}
		return m, m.loginCmd(username, password)
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

// cycleFilter advances the current view's status filter. A non-empty filter
// is a server-side query, so entering one kicks off a fetch for that slice.
func (m Model) cycleFilter() (tea.Model, tea.Cmd) {
	m.selectedRow = 0
	if m.currentView == ViewWishlist {
		m.wishlistFilter = nextFilter(wishlistFilters, m.wishlistFilter)
		if m.wishlistFilter != "" {
			return m, m.fetchFilteredWishlistCmd(m.wishlistFilter)
		}
		return m, nil
	}
	m.downloadFilter = nextFilter(downloadFilters, m.downloadFilter)
	if m.downloadFilter != "" {
		return m, m.fetchFilteredDownloadsCmd(m.downloadFilter)
	}
	return m, nil
}

// searchSelected triggers a manual search for the selected wishlist item.
func (m Model) searchSelected() (tea.Model, tea.Cmd) {
	if m.currentView != ViewWishlist {
		return m, nil
	}
	items, _ := m.store.Wishlist(m.wishlistFilter)
	if m.selectedRow >= len(items) {
		return m, nil
	}
	item := items[m.selectedRow]
	return m, m.triggerSearchCmd(item.ID, item.Label())
}

// applyPendingAction jumps to the collection slice an actionable prompt
// points at.
func (m Model) applyPendingAction() (tea.Model, tea.Cmd) {
	n := m.pendingAction
	if n == nil || !n.Actionable() {
		m.pendingAction = nil
		return m, nil
	}
	m.pendingAction = nil
	m.selectedRow = 0
	switch n.Collection {
	case "wishlist":
		m.currentView = ViewWishlist
		m.wishlistFilter = n.FilterTo
		if n.FilterTo != "" {
			return m, m.fetchFilteredWishlistCmd(n.FilterTo)
		}
	case "downloads":
		m.currentView = ViewDownloads
		m.downloadFilter = n.FilterTo
		if n.FilterTo != "" {
			return m, m.fetchFilteredDownloadsCmd(n.FilterTo)
		}
	}
	return m, nil
}
