package ui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muselabs/aria/internal/api"
	"github.com/muselabs/aria/internal/session"
)

type tickMsg time.Time

type sessionChangedMsg struct {
	state session.State
}

type bootstrapDoneMsg struct {
	err error
}

type authResultMsg struct {
	err error
}

type searchTriggeredMsg struct {
	id    int64
	label string
	err   error
}

type filteredWishlistMsg struct {
	filter string
	items  []api.WishlistItem
	err    error
}

type filteredDownloadsMsg struct {
	filter string
	items  []api.Download
	err    error
}

func tickCmd() tea.Cmd {
	return tea.Tick(uiTick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// bootstrapCmd runs the session bootstrap probe. The manager retries with
// backoff internally; the command returns once it lands in a settled state or
// exhausts its attempts.
func (m Model) bootstrapCmd() tea.Cmd {
	return func() tea.Msg {
		return bootstrapDoneMsg{err: m.session.Bootstrap(m.ctx)}
	}
}

func (m Model) loginCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		return authResultMsg{err: m.session.Login(m.ctx, username, password)}
	}
}

func (m Model) setupCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		return authResultMsg{err: m.session.CompleteSetup(m.ctx, username, password)}
	}
}

// logoutCmd runs the logout off the update loop. The session manager invokes
// subscribers synchronously, and the ui.Run subscriber feeds Program.Send,
// whose only reader is the update loop itself; mutating the manager inside
// Update would therefore deadlock the program.
func (m Model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		m.session.Logout()
		return nil
	}
}

func (m Model) triggerSearchCmd(id int64, label string) tea.Cmd {
	return func() tea.Msg {
		err := m.client.TriggerSearch(m.ctx, id)
		return searchTriggeredMsg{id: id, label: label, err: err}
	}
}

func (m Model) fetchFilteredWishlistCmd(filter string) tea.Cmd {
	return func() tea.Msg {
		items, err := m.client.FetchWishlist(m.ctx, filter)
		return filteredWishlistMsg{filter: filter, items: items, err: err}
	}
}

func (m Model) fetchFilteredDownloadsCmd(filter string) tea.Cmd {
	return func() tea.Msg {
		items, err := m.client.FetchDownloads(m.ctx, filter)
		return filteredDownloadsMsg{filter: filter, items: items, err: err}
	}
}

// humanizeAuthError turns an auth failure into a message suitable for the
// login form.
func humanizeAuthError(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		if apiErr.AuthFailure() {
			return "invalid username or password"
		}
		return "server rejected the request"
	}
	return "could not reach the server"
}
