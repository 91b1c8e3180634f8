package poll

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

const defaultInterval = 10 * time.Second

// FetchFunc performs one fetch and reports whether the result still warrants
// polling (the liveness predicate). For a readiness probe that is "not ready
// yet"; for a queue it is "at least one entity in flight".
type FetchFunc func(ctx context.Context) (live bool, err error)

// Controller re-invokes a fetch on a fixed interval while the liveness
// predicate holds and suspends entirely once it goes false. A Kick triggers
// a manual refetch, which resumes the cadence when the predicate flips back.
type Controller struct {
	name     string
	interval time.Duration
	fetch    FetchFunc
	kick     chan struct{}
	logger   *log.Logger
}

// New builds a controller. It does not start polling; call Run.
func New(name string, interval time.Duration, fetch FetchFunc, logger *log.Logger) *Controller {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		name:     name,
		interval: interval,
		fetch:    fetch,
		kick:     make(chan struct{}, 1),
		logger:   logger.With("poller", name),
	}
}

// Kick requests an immediate refetch. Safe from any goroutine; coalesces
// when one is already queued.
func (c *Controller) Kick() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled. It blocks; callers start it on its own
// goroutine.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	live := true
	for {
		if ctx.Err() != nil {
			return
		}
		l, err := c.fetch(ctx)
		if err != nil {
			// A missed poll changes nothing: same cadence, same mode.
			c.logger.Debug("poll failed", "err", err)
		} else {
			live = l
		}

		if live {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			case <-c.kick:
			}
			continue
		}

		c.logger.Debug("poller suspended")
		select {
		case <-ctx.Done():
			return
		case <-c.kick:
			c.logger.Debug("poller resumed")
		}
	}
}
