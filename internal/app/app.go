package app

import (
	"context"
	"fmt"
	"time"

	"github.com/muselabs/aria/internal/api"
	"github.com/muselabs/aria/internal/config"
	"github.com/muselabs/aria/internal/logging"
	"github.com/muselabs/aria/internal/notify"
	"github.com/muselabs/aria/internal/session"
	"github.com/muselabs/aria/internal/state"
	"github.com/muselabs/aria/internal/ui"
)

// Options configure the aria application.
type Options struct {
	ConfigPath string
	ServerURL  string // overrides the configured server URL
	PollEvery  int    // seconds; zero uses the configured interval
}

// Run boots the aria TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.ServerURL != "" {
		cfg.ServerURL = opts.ServerURL
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}

	logger, logFile, err := logging.NewFileLogger(cfg.LogPath())
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	client, err := api.NewClient(cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	creds, err := session.OpenCredentialStore(cfg.SessionDBPath())
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer func() { _ = creds.Close() }()

	store := &state.Store{}
	center := &notify.Center{}
	wishTracker := notify.NewWishlistTracker(center)
	dlTracker := notify.NewDownloadTracker(center)

	manager := session.NewManager(session.ManagerConfig{
		API:    client,
		Creds:  creds,
		Logger: logger,
		Retry: session.RetryPolicy{
			InitialDelay: cfg.BootstrapInitialDelay,
			MaxDelay:     cfg.BootstrapMaxDelay,
			MaxRetries:   cfg.BootstrapMaxRetries,
		},
	})

	rt := newRuntime(ctx, cfg, client, store, wishTracker, dlTracker, logger)
	defer rt.Stop()

	// No polling or streaming runs while unauthenticated; the session
	// manager drives the runtime up and down.
	manager.Subscribe(rt.HandleSessionChange)

	return ui.Run(ui.Options{
		Context:         ctx,
		Client:          client,
		Store:           store,
		Center:          center,
		WishlistTracker: wishTracker,
		Session:         manager,
		Runtime:         rt,
		Logger:          logger,
		ThemeName:       cfg.Theme,
	})
}
