package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/muselabs/aria/internal/api"
	"github.com/muselabs/aria/internal/notify"
	"github.com/muselabs/aria/internal/session"
	"github.com/muselabs/aria/internal/state"
)

// Runtime is the slice of the background machinery the UI may poke.
type Runtime interface {
	KickWishlist()
	KickDownloads()
}

// Options configures the UI.
type Options struct {
	Context         context.Context
	Client          *api.Client
	Store           *state.Store
	Center          *notify.Center
	WishlistTracker *notify.Tracker
	Session         *session.Manager
	Runtime         Runtime
	Logger          *log.Logger
	ThemeName       string
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m)

	// Session changes arrive from manager goroutines; forward them into
	// the update loop. The model additionally re-reads the state on every
	// tick, so a transition raced against program startup is not lost.
	// Program.Send blocks until the update loop consumes the message, so
	// the model must only mutate the manager through commands, never
	// synchronously inside Update.
	if opts.Session != nil {
		opts.Session.Subscribe(func(st session.State) {
			p.Send(sessionChangedMsg{state: st})
		})
	}

	if opts.Context != nil {
		go func() {
			<-opts.Context.Done()
			p.Send(tea.Quit())
		}()
	}

	_, err := p.Run()
	return err
}
