// Package ui provides the terminal user interface for aria.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. The Model embeds no goroutines of its own;
// all background synchronization lives in the app runtime, and the UI reads
// the shared state.Store snapshot cache on every render. Messages produced by
// commands (session bootstrap, auth submissions, filtered fetches) and by the
// session manager's subscription feed the single update loop.
//
// # Package Structure
//
//   - ui.go: Options, the Runtime hook interface, and the Run entry point
//   - app.go: the root Model, Update loop, and session-state guard
//   - commands.go: message types and tea.Cmd constructors
//   - keys.go / input_handlers.go: key bindings and their handlers
//   - forms.go: the shared setup/login credential form
//   - table.go: collection rendering and filter cycling
//   - toasts.go: transient notifications and actionable prompts
//   - view.go: the gated View tree
//   - theme.go: colors and lipgloss styles
//
// # Session gating
//
// View renders exactly one screen per session state: a connecting screen
// while Bootstrapping (with a manual retry once the probe gives up), the
// setup form when the server has no accounts, the login form when
// unauthenticated, and the collection views once authenticated. The guard is
// re-evaluated on every session change message and reconciled again on every
// tick, so a transition raced against program startup cannot strand the user
// on a stale screen.
//
// # Collections
//
// The wishlist and downloads views render the store's cached snapshot for
// the active status filter. The empty filter is the master query maintained
// by the pollers; non-empty filters are server-side queries the UI refreshes
// itself while they are on screen. Stream merges apply to whichever cached
// slices hold the entity, so a filtered view stays live without refetching.
package ui
