// Package app is the composition root for aria.
//
// # Overview
//
// Run wires configuration, the API client, the persisted session store, the
// shared snapshot cache, the notification trackers, and the UI. All
// dependencies are constructed here and passed down explicitly; no package
// keeps ambient globals.
//
// # Session gating
//
// The background machinery (readiness, wishlist and downloads pollers, the
// event stream client) lives in the runtime and runs only while the session
// is Authenticated. The session manager publishes state changes; the runtime
// subscribes and brings the machinery up on login and down on logout or
// token rejection. The UI's own bootstrap command drives the initial probe,
// so the first session state lands after the program is already rendering.
//
// # Shutdown
//
// Cancelling the root context stops the pollers; runtime.Stop additionally
// tears down the stream client, which stops any pending reconnect timer
// before closing the socket.
package app
