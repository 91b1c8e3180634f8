package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/muselabs/aria/internal/api"
)

// Health describes poll-loop connectivity for the UI.
type Health struct {
	Ready               bool
	HasReadiness        bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (h Health) IsOffline() bool {
	return h.ConsecutiveFailures >= 2
}

// Store is the shared snapshot cache for server-owned entities. Collections
// are keyed by the status filter they were fetched with; the empty filter is
// the unfiltered master query. Pollers replace collections wholesale, the
// event stream merges partial deltas, and the UI reads cloned snapshots.
type Store struct {
	mu        sync.RWMutex
	wishlist  map[string][]api.WishlistItem
	downloads map[string][]api.Download

	stats    api.Stats
	hasStats bool

	health Health
}

// ReplaceWishlist stores a fresh wishlist snapshot for the given filter and
// clears the failure counter.
func (s *Store) ReplaceWishlist(filter string, items []api.WishlistItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wishlist == nil {
		s.wishlist = make(map[string][]api.WishlistItem)
	}
	s.wishlist[filter] = cloneSlice(items)
	s.noteSuccess()
}

// ReplaceDownloads stores a fresh downloads snapshot for the given filter and
// clears the failure counter.
func (s *Store) ReplaceDownloads(filter string, items []api.Download) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.downloads == nil {
		s.downloads = make(map[string][]api.Download)
	}
	s.downloads[filter] = cloneSlice(items)
	s.noteSuccess()
}

// MergeDownload applies a partial update to every cached download collection
// that contains the entity, never only the one that triggered a fetch.
// Returns true when at least one collection held the entity.
func (s *Store) MergeDownload(delta api.DownloadDelta) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := false
	for _, items := range s.downloads {
		for i := range items {
			if items[i].ID == delta.ID {
				items[i].Apply(delta)
				merged = true
			}
		}
	}
	return merged
}

// FindDownload returns the cached copy of a download, preferring the
// unfiltered master collection.
func (s *Store) FindDownload(id int64) (api.Download, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if items, ok := s.downloads[""]; ok {
		for _, d := range items {
			if d.ID == id {
				return d, true
			}
		}
	}
	for _, items := range s.downloads {
		for _, d := range items {
			if d.ID == id {
				return d, true
			}
		}
	}
	return api.Download{}, false
}

// Wishlist returns a copy of the cached collection for the filter.
func (s *Store) Wishlist(filter string) ([]api.WishlistItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items, ok := s.wishlist[filter]
	if !ok {
		return nil, false
	}
	return cloneSlice(items), true
}

// Downloads returns a copy of the cached collection for the filter.
func (s *Store) Downloads(filter string) ([]api.Download, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items, ok := s.downloads[filter]
	if !ok {
		return nil, false
	}
	return cloneSlice(items), true
}

// ReplaceStats stores a fresh stats snapshot wholesale.
func (s *Store) ReplaceStats(stats api.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	s.hasStats = true
}

// InvalidateStats marks the stats snapshot stale so the next refresh
// recomputes totals instead of showing outdated counts.
func (s *Store) InvalidateStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasStats = false
}

// Stats returns the cached stats snapshot and whether it is current.
func (s *Store) Stats() (api.Stats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, s.hasStats
}

// SetReadiness records the latest readiness probe result.
func (s *Store) SetReadiness(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health.Ready = ready
	s.health.HasReadiness = true
}

// RecordError notes a failed poll. Cached data is left untouched; only the
// error and failure counter change.
func (s *Store) RecordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health.LastError = err
	s.health.LastUpdated = time.Now()
	s.health.ConsecutiveFailures++
}

// Health returns a copy of the connectivity snapshot.
func (s *Store) Health() Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.health
	if s.health.LastError != nil {
		h.LastError = fmt.Errorf("%w", s.health.LastError)
	}
	return h
}

// noteSuccess must be called with the lock held.
func (s *Store) noteSuccess() {
	s.health.LastError = nil
	s.health.LastUpdated = time.Now()
	s.health.ConsecutiveFailures = 0
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
