// Package poll implements the adaptive polling controller.
//
// The controller wraps a fetch function and a liveness predicate over its
// result. While the predicate holds it refetches on a fixed interval; once
// it goes false the loop parks until a Kick arrives, so an idle queue costs
// no requests. Fetch failures are absorbed locally: the cache stays
// untouched, the cadence stays unchanged, and nothing surfaces to the user
// beyond the store's stale indicator.
package poll
