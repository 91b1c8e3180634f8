package ui

import (
	"time"

	"github.com/muselabs/aria/internal/notify"
)

// toast is a transient on-screen notification.
type toast struct {
	n       notify.Notification
	expires time.Time
}

// drainNotifications moves queued notifications into the visible surface.
// Actionable prompts are held separately until the user applies or dismisses
// them; newer prompts replace older ones.
func (m *Model) drainNotifications() {
	if m.center == nil {
		return
	}
	for _, n := range m.center.Drain() {
		if n.Actionable() {
			prompt := n
			m.pendingAction = &prompt
			continue
		}
		m.toasts = append(m.toasts, toast{n: n, expires: time.Now().Add(toastLifetime)})
	}
}

// pruneToasts drops expired toasts.
func (m *Model) pruneToasts() {
	now := time.Now()
	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if t.expires.After(now) {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
}

// pushLocalToast shows a toast that did not come from the notification
// center, such as immediate feedback for a key press.
func (m *Model) pushLocalToast(n notify.Notification) {
	m.toasts = append(m.toasts, toast{n: n, expires: time.Now().Add(toastLifetime)})
}
