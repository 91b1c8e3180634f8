package app

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/muselabs/aria/internal/api"
	"github.com/muselabs/aria/internal/config"
	"github.com/muselabs/aria/internal/notify"
	"github.com/muselabs/aria/internal/poll"
	"github.com/muselabs/aria/internal/session"
	"github.com/muselabs/aria/internal/state"
	"github.com/muselabs/aria/internal/stream"
)

const readinessInterval = 2 * time.Second

// runtime owns the background synchronization machinery: the adaptive
// pollers and the event stream client. It runs only while a session is
// authenticated.
type runtime struct {
	parent      context.Context
	cfg         config.Config
	client      *api.Client
	store       *state.Store
	wishTracker *notify.Tracker
	dlTracker   *notify.Tracker
	logger      *log.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	stream    *stream.Client
	wishlist  *poll.Controller
	downloads *poll.Controller
}

func newRuntime(ctx context.Context, cfg config.Config, client *api.Client, store *state.Store, wishTracker, dlTracker *notify.Tracker, logger *log.Logger) *runtime {
	return &runtime{
		parent:      ctx,
		cfg:         cfg,
		client:      client,
		store:       store,
		wishTracker: wishTracker,
		dlTracker:   dlTracker,
		logger:      logger.With("component", "runtime"),
	}
}

// HandleSessionChange starts or stops the machinery as the session comes and
// goes.
func (r *runtime) HandleSessionChange(st session.State) {
	if st == session.StateAuthenticated {
		r.start()
	} else {
		r.Stop()
	}
}

// KickWishlist requests an immediate wishlist refetch.
func (r *runtime) KickWishlist() {
	r.mu.Lock()
	c := r.wishlist
	r.mu.Unlock()
	if c != nil {
		c.Kick()
	}
}

// KickDownloads requests an immediate downloads refetch.
func (r *runtime) KickDownloads() {
	r.mu.Lock()
	c := r.downloads
	r.mu.Unlock()
	if c != nil {
		c.Kick()
	}
}

func (r *runtime) start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(r.parent)
	r.cancel = cancel

	readiness := poll.New("readiness", readinessInterval, r.fetchReadiness, r.logger)
	r.wishlist = poll.New("wishlist", r.cfg.PollInterval, r.fetchWishlist, r.logger)
	r.downloads = poll.New("downloads", r.cfg.PollInterval, r.fetchDownloads, r.logger)

	go readiness.Run(ctx)
	go r.wishlist.Run(ctx)
	go r.downloads.Run(ctx)

	r.stream = stream.New(stream.Config{
		URL:            r.client.EventsURL(),
		Store:          r.store,
		Tracker:        r.dlTracker,
		Logger:         r.logger,
		BackoffBase:    r.cfg.StreamBackoffBase,
		BackoffCeiling: r.cfg.StreamBackoffCeiling,
	})
	r.stream.Connect(ctx)

	r.logger.Info("background sync started")
}

// Stop cancels the pollers and tears down the stream client. Idempotent.
func (r *runtime) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.cancel = nil
	if r.stream != nil {
		r.stream.Close()
		r.stream = nil
	}
	r.wishlist = nil
	r.downloads = nil
	r.logger.Info("background sync stopped")
}

// fetchReadiness polls until the daemon reports ready; "not ready" is the
// liveness predicate, with no retry cap.
func (r *runtime) fetchReadiness(ctx context.Context) (bool, error) {
	readiness, err := r.client.Ready(ctx)
	if err != nil {
		return false, err
	}
	r.store.SetReadiness(readiness.Ready())
	return !readiness.Ready(), nil
}

// fetchWishlist refreshes the master wishlist query; the poll stays live
// while any item is in flight.
func (r *runtime) fetchWishlist(ctx context.Context) (bool, error) {
	items, err := r.client.FetchWishlist(ctx, "")
	if err != nil {
		r.store.RecordError(err)
		return false, err
	}
	r.store.ReplaceWishlist("", items)

	live := false
	observations := make([]notify.Observation, 0, len(items))
	for _, item := range items {
		observations = append(observations, notify.Observation{ID: item.ID, Name: item.Label(), Status: item.Status})
		if api.WishlistInFlight(item.Status) {
			live = true
		}
	}
	r.wishTracker.Observe(observations)
	r.refreshStats(ctx)
	return live, nil
}

// fetchDownloads refreshes the master downloads query; the poll stays live
// while any transfer is active.
func (r *runtime) fetchDownloads(ctx context.Context) (bool, error) {
	items, err := r.client.FetchDownloads(ctx, "")
	if err != nil {
		r.store.RecordError(err)
		return false, err
	}
	r.store.ReplaceDownloads("", items)

	live := false
	observations := make([]notify.Observation, 0, len(items))
	for _, item := range items {
		observations = append(observations, notify.Observation{ID: item.ID, Name: item.Label(), Status: item.Status})
		if api.DownloadInFlight(item.Status) {
			live = true
		}
	}
	r.dlTracker.Observe(observations)
	r.refreshStats(ctx)
	return live, nil
}

// refreshStats refetches the aggregate counters only when the cached
// snapshot was invalidated.
func (r *runtime) refreshStats(ctx context.Context) {
	if _, ok := r.store.Stats(); ok {
		return
	}
	stats, err := r.client.FetchStats(ctx)
	if err != nil {
		r.logger.Debug("stats refresh failed", "err", err)
		return
	}
	r.store.ReplaceStats(*stats)
}
