package notify

import (
	"fmt"
	"sync"

	"github.com/muselabs/aria/internal/api"
)

// Level classifies a notification for rendering.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// Notification is a single user-facing message. FilterTo is non-empty for
// actionable notifications: the UI offers to switch the named collection's
// visible filter to that status.
type Notification struct {
	Level      Level
	Message    string
	Collection string
	FilterTo   string
}

// Actionable reports whether the notification carries a call to action.
func (n Notification) Actionable() bool {
	return n.FilterTo != ""
}

// Center is the queue the UI drains on its render tick. Trackers push from
// poller and stream goroutines.
type Center struct {
	mu    sync.Mutex
	queue []Notification
}

// Push appends a notification.
func (c *Center) Push(n Notification) {
	c.mu.Lock()
	c.queue = append(c.queue, n)
	c.mu.Unlock()
}

// Drain returns all queued notifications and empties the queue.
func (c *Center) Drain() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil
	}
	out := c.queue
	c.queue = nil
	return out
}

// Observation is one entity's state as seen in a refresh batch.
type Observation struct {
	ID     int64
	Name   string
	Status string
}

// Tracker detects status transitions for one tracked collection and emits
// each qualifying transition exactly once, no matter how many refreshes
// report the same resulting status.
//
// Both indexes are plain maps owned by the tracker, deliberately outside any
// render state: they are written on every observation and read only here.
type Tracker struct {
	collection string
	inFlight   func(string) bool
	success    map[string]struct{}
	failure    map[string]struct{}
	noteworthy map[string]struct{}

	mu      sync.Mutex
	prior   map[int64]string // last observed status per entity id
	pending map[int64]string // entity id -> label of a user-requested action
	center  *Center
}

// NewWishlistTracker builds the tracker for wishlist items.
func NewWishlistTracker(center *Center) *Tracker {
	return &Tracker{
		collection: "wishlist",
		inFlight:   api.WishlistInFlight,
		success:    toSet(api.WishlistFound, api.WishlistDownloaded),
		failure:    toSet(api.WishlistFailed),
		noteworthy: toSet(api.WishlistFound, api.WishlistDownloaded, api.WishlistFailed),
		prior:      make(map[int64]string),
		pending:    make(map[int64]string),
		center:     center,
	}
}

// NewDownloadTracker builds the tracker for downloads.
func NewDownloadTracker(center *Center) *Tracker {
	return &Tracker{
		collection: "downloads",
		inFlight:   api.DownloadInFlight,
		success:    toSet(api.DownloadCompleted),
		failure:    toSet(api.DownloadFailed),
		noteworthy: toSet(api.DownloadCompleted, api.DownloadFailed),
		prior:      make(map[int64]string),
		pending:    make(map[int64]string),
		center:     center,
	}
}

// RecordAction marks an entity as the target of an explicit user action
// (e.g. a manual search) so its next qualifying transition produces an
// actionable prompt.
func (t *Tracker) RecordAction(id int64, label string) {
	t.mu.Lock()
	t.pending[id] = label
	t.mu.Unlock()
}

// Observe processes a refresh batch. Re-observing the same batch emits
// nothing: the prior-status index is updated for every entity seen, whether
// or not a notification fired.
func (t *Tracker) Observe(batch []Observation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, obs := range batch {
		prior, seen := t.prior[obs.ID]
		transitioned := seen && obs.Status != prior

		if transitioned && t.inFlight(prior) {
			t.notifyTransition(obs, prior)
		}

		// A pending action is consumed by the first transition out of an
		// in-flight status, whether or not it earns a prompt.
		if label, ok := t.pending[obs.ID]; ok && transitioned && t.inFlight(prior) {
			if _, ok := t.noteworthy[obs.Status]; ok {
				t.center.Push(Notification{
					Level:      levelFor(t, obs.Status),
					Message:    fmt.Sprintf("%s: %s is now %s", label, obs.Name, obs.Status),
					Collection: t.collection,
					FilterTo:   obs.Status,
				})
			}
			delete(t.pending, obs.ID)
		}

		// Always record the latest status, even when nothing fired,
		// or the next unrelated refresh would re-notify.
		t.prior[obs.ID] = obs.Status
	}
}

func (t *Tracker) notifyTransition(obs Observation, prior string) {
	switch {
	case has(t.success, obs.Status):
		t.center.Push(Notification{
			Level:   LevelSuccess,
			Message: fmt.Sprintf("%s is %s", obs.Name, obs.Status),
		})
	case has(t.failure, obs.Status):
		t.center.Push(Notification{
			Level:   LevelError,
			Message: fmt.Sprintf("%s failed (was %s)", obs.Name, prior),
		})
	case !t.inFlight(obs.Status):
		// Back to a resting status with no result, e.g. a search that
		// found nothing or a cancelled transfer.
		t.center.Push(Notification{
			Level:   LevelInfo,
			Message: fmt.Sprintf("%s returned to %s", obs.Name, obs.Status),
		})
	}
	// in-flight to in-flight transitions stay silent.
}

func levelFor(t *Tracker, status string) Level {
	switch {
	case has(t.success, status):
		return LevelSuccess
	case has(t.failure, status):
		return LevelError
	default:
		return LevelInfo
	}
}

func has(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

func toSet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
