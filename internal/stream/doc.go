// Package stream maintains the persistent push connection to the muse
// daemon's event stream.
//
// # Lifecycle
//
// The client is an explicit state machine (Idle, Connecting, Open, Closing).
// An unexpected close schedules exactly one reconnect attempt after the
// current backoff delay, which doubles up to a ceiling and resets to the
// base on every successful open. Close stops any pending timer and moves to
// Closing before the socket is torn down, so no reconnect can fire after an
// intentional shutdown. Without a session token the client never connects
// and allocates no backoff state.
//
// # Messages
//
// Inbound frames carry a tagged envelope. entity_update frames hold a
// partial delta for one download and are merged into every cached
// collection containing that id; a delta that lands the entity in a
// terminal status additionally invalidates the cached stats snapshot.
// stats_update frames replace the stats snapshot wholesale. Anything that
// fails to parse is dropped and logged at debug level; the read loop never
// propagates a per-frame error.
package stream
