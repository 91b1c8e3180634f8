// Package state provides the shared snapshot cache coordinating the pollers,
// the event stream, and the UI.
//
// # Ownership
//
// The Store is the only mutable view state in the application. Pollers write
// wholesale snapshots keyed by query identity (collection + status filter);
// the event stream merges partial deltas into every cached collection that
// holds the entity. The UI only ever reads clones, so a snapshot handed out
// earlier can never be mutated underneath a render.
//
// # Consistency
//
// Writers are last-write-wins: a stale poll response that lands after a
// newer push can briefly overwrite pushed fields. No sequence numbers are
// exchanged; the next poll or push corrects the window. Poll failures leave
// cached data untouched and only bump the failure counter, which the UI
// renders as a passive stale indicator rather than an error.
package state
