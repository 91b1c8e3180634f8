package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/muselabs/aria/internal/api"
	"github.com/muselabs/aria/internal/notify"
	"github.com/muselabs/aria/internal/session"
	"github.com/muselabs/aria/internal/state"
)

// View identifies the main collection views available once authenticated.
type View int

const (
	ViewWishlist View = iota
	ViewDownloads
)

const (
	uiTick        = time.Second
	toastLifetime = 6 * time.Second
	// Filtered collections are server-side queries; refresh them less
	// often than the render tick.
	filteredRefreshEvery = 10
)

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx         context.Context
	client      *api.Client
	store       *state.Store
	center      *notify.Center
	wishTracker *notify.Tracker
	session     *session.Manager
	runtime     Runtime
	logger      *log.Logger

	theme Theme
	keys  keyMap

	width  int
	height int
	ready  bool

	// Session-derived state; the view gate reads these, never the
	// manager directly mid-render.
	sessionState    session.State
	bootstrapFailed bool
	bootstrapping   bool

	currentView    View
	wishlistFilter string // empty means all
	downloadFilter string
	selectedRow    int
	tickCount      int

	form authForm

	toasts        []toast
	pendingAction *notify.Notification

	showHelp bool
	lastErr  string
}

// New creates the root model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	st := session.StateBootstrapping
	if opts.Session != nil {
		st = opts.Session.State()
	}
	return Model{
		ctx:           ctx,
		client:        opts.Client,
		store:         opts.Store,
		center:        opts.Center,
		wishTracker:   opts.WishlistTracker,
		session:       opts.Session,
		runtime:       opts.Runtime,
		logger:        logger.With("component", "ui"),
		theme:         themeFor(opts.ThemeName),
		keys:          defaultKeyMap(),
		sessionState:  st,
		bootstrapping: st == session.StateBootstrapping,
		form:          newAuthForm(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(),
	}
	if m.session != nil && m.sessionState == session.StateBootstrapping {
		cmds = append(cmds, m.bootstrapCmd())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tickMsg:
		return m.handleTick()

	case sessionChangedMsg:
		m.syncSessionState(msg.state)
		return m, nil

	case bootstrapDoneMsg:
		m.bootstrapping = false
		m.bootstrapFailed = msg.err != nil
		m.syncSessionState(m.session.State())
		return m, nil

	case authResultMsg:
		m.form.submitting = false
		if msg.err != nil {
			m.form.errMsg = humanizeAuthError(msg.err)
			return m, nil
		}
		m.form = newAuthForm()
		return m, nil

	case searchTriggeredMsg:
		if msg.err != nil {
			m.lastErr = "search request failed"
			m.logger.Debug("manual search failed", "id", msg.id, "err", msg.err)
			return m, nil
		}
		// Record the explicit action so the next qualifying transition
		// produces an actionable prompt, then force a refetch.
		m.wishTracker.RecordAction(msg.id, "Manual search")
		if m.runtime != nil {
			m.runtime.KickWishlist()
		}
		m.pushLocalToast(notify.Notification{Level: notify.LevelInfo, Message: "Search started: " + msg.label})
		return m, nil

	case filteredDownloadsMsg:
		if msg.err == nil {
			m.store.ReplaceDownloads(msg.filter, msg.items)
		}
		return m, nil

	case filteredWishlistMsg:
		if msg.err == nil {
			m.store.ReplaceWishlist(msg.filter, msg.items)
		}
		return m, nil
	}

	// Form input while a form view is gated in.
	if m.formActive() {
		var cmd tea.Cmd
		m.form, cmd = m.form.update(msg)
		return m, cmd
	}
	return m, nil
}

// syncSessionState is the guard effect: it re-evaluates the visible surface
// after every session transition. While Bootstrapping it is inert beyond
// rendering the connecting screen, so no premature redirect can happen.
func (m *Model) syncSessionState(st session.State) {
	prev := m.sessionState
	m.sessionState = st
	if st == prev {
		return
	}

	switch st {
	case session.StateSetupRequired, session.StateUnauthenticated:
		// Anything the user was looking at is gone; reset to a fresh
		// form and drop cached selection state.
		m.form = newAuthForm()
		m.selectedRow = 0
		m.pendingAction = nil
	case session.StateAuthenticated:
		m.currentView = ViewWishlist
		m.wishlistFilter = ""
		m.downloadFilter = ""
		m.selectedRow = 0
	}
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	m.tickCount++

	// Guard re-evaluation: the subscription can race program startup, so
	// the tick also reconciles with the manager's current state.
	if m.session != nil && m.sessionState != m.session.State() {
		m.syncSessionState(m.session.State())
	}

	m.drainNotifications()
	m.pruneToasts()

	cmds := []tea.Cmd{tickCmd()}

	// Keep a server-side filtered query fresh while it is on screen.
	if m.sessionState == session.StateAuthenticated && m.tickCount%filteredRefreshEvery == 0 {
		if m.currentView == ViewDownloads && m.downloadFilter != "" {
			cmds = append(cmds, m.fetchFilteredDownloadsCmd(m.downloadFilter))
		}
		if m.currentView == ViewWishlist && m.wishlistFilter != "" {
			cmds = append(cmds, m.fetchFilteredWishlistCmd(m.wishlistFilter))
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) formActive() bool {
	return m.sessionState == session.StateSetupRequired || m.sessionState == session.StateUnauthenticated
}
