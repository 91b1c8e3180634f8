// Package session owns the bootstrap state machine and the persisted
// credential pair.
//
// # States
//
// Bootstrapping -> {SetupRequired | Unauthenticated | Authenticated}. The
// one-time bootstrap probes the unauthenticated setup endpoint with a
// bounded, doubling retry (the backend may still be starting when we are).
// Exhaustion keeps the state at Bootstrapping — guessing and redirecting to
// login when the backend is merely cold would be wrong — and the UI offers
// a manual retry.
//
// A restored token is adopted optimistically so a restart renders the main
// views without a network round trip; validation against the who-am-I
// endpoint runs in the background. Any error response there invalidates the
// session: the persisted pair is cleared and the state drops to
// Unauthenticated. Transport failures are not rejections and leave the
// optimistic session in place.
//
// # Persistence
//
// The CredentialStore keeps exactly two entries (token, serialized user) in
// a local bbolt database. Written on login, read at startup, cleared on
// logout or rejection.
package session
