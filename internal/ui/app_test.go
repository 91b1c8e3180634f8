package ui

import (
	"testing"
	"time"

	"github.com/muselabs/aria/internal/api"
	"github.com/muselabs/aria/internal/notify"
	"github.com/muselabs/aria/internal/session"
)

func TestSyncSessionStateResetsOnLogin(t *testing.T) {
	m := Model{
		sessionState:   session.StateBootstrapping,
		currentView:    ViewDownloads,
		wishlistFilter: "failed",
		downloadFilter: "completed",
		selectedRow:    4,
	}
	m.syncSessionState(session.StateAuthenticated)

	if m.sessionState != session.StateAuthenticated {
		t.Fatalf("sessionState = %v, want Authenticated", m.sessionState)
	}
	if m.currentView != ViewWishlist {
		t.Fatalf("currentView = %v, want wishlist", m.currentView)
	}
	if m.wishlistFilter != "" || m.downloadFilter != "" {
		t.Fatalf("filters = %q/%q, want master", m.wishlistFilter, m.downloadFilter)
	}
	if m.selectedRow != 0 {
		t.Fatalf("selectedRow = %d, want 0", m.selectedRow)
	}
}

func TestSyncSessionStateClearsOnLogout(t *testing.T) {
	prompt := notify.Notification{Message: "x", Collection: "downloads", FilterTo: "failed"}
	m := Model{
		sessionState:  session.StateAuthenticated,
		selectedRow:   2,
		pendingAction: &prompt,
	}
	m.syncSessionState(session.StateUnauthenticated)

	if m.pendingAction != nil {
		t.Fatalf("pendingAction survived logout")
	}
	if m.selectedRow != 0 {
		t.Fatalf("selectedRow = %d, want 0", m.selectedRow)
	}
}

func TestSyncSessionStateNoopWhenUnchanged(t *testing.T) {
	m := Model{sessionState: session.StateAuthenticated, currentView: ViewDownloads, selectedRow: 3}
	m.syncSessionState(session.StateAuthenticated)
	if m.currentView != ViewDownloads || m.selectedRow != 3 {
		t.Fatalf("same-state sync reset the view")
	}
}

func TestDrainNotificationsSplitsPrompts(t *testing.T) {
	center := &notify.Center{}
	center.Push(notify.Notification{Level: notify.LevelInfo, Message: "plain"})
	center.Push(notify.Notification{Level: notify.LevelSuccess, Message: "done", Collection: "downloads", FilterTo: "completed"})

	m := Model{center: center}
	m.drainNotifications()

	if len(m.toasts) != 1 || m.toasts[0].n.Message != "plain" {
		t.Fatalf("toasts = %+v, want only the plain notification", m.toasts)
	}
	if m.pendingAction == nil || m.pendingAction.FilterTo != "completed" {
		t.Fatalf("pendingAction = %+v, want the actionable prompt", m.pendingAction)
	}
}

func TestDrainNotificationsNewerPromptWins(t *testing.T) {
	center := &notify.Center{}
	center.Push(notify.Notification{Message: "old", Collection: "wishlist", FilterTo: "found"})
	center.Push(notify.Notification{Message: "new", Collection: "downloads", FilterTo: "failed"})

	m := Model{center: center}
	m.drainNotifications()

	if m.pendingAction == nil || m.pendingAction.Message != "new" {
		t.Fatalf("pendingAction = %+v, want the newest prompt", m.pendingAction)
	}
}

func TestPruneToastsDropsExpired(t *testing.T) {
	now := time.Now()
	m := Model{toasts: []toast{
		{n: notify.Notification{Message: "stale"}, expires: now.Add(-time.Second)},
		{n: notify.Notification{Message: "fresh"}, expires: now.Add(time.Minute)},
	}}
	m.pruneToasts()

	if len(m.toasts) != 1 || m.toasts[0].n.Message != "fresh" {
		t.Fatalf("toasts after prune = %+v, want only fresh", m.toasts)
	}
}

func TestHumanizeAuthError(t *testing.T) {
	if got := humanizeAuthError(&api.APIError{StatusCode: 401, Path: "/api/auth/login"}); got != "invalid username or password" {
		t.Fatalf("401 = %q", got)
	}
	if got := humanizeAuthError(&api.APIError{StatusCode: 500, Path: "/api/auth/login"}); got != "server rejected the request" {
		t.Fatalf("500 = %q", got)
	}
	if got := humanizeAuthError(errTransport); got != "could not reach the server" {
		t.Fatalf("transport = %q", got)
	}
}

var errTransport = &timeoutError{}

type timeoutError struct{}

func (*timeoutError) Error() string { return "dial tcp: timeout" }
