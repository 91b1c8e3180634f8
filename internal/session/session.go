package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"github.com/muselabs/aria/internal/api"
)

// State is the application's session phase. Transitions are one-directional
// except Authenticated -> Unauthenticated (logout or token rejection) and
// the reverse via explicit login.
type State int

const (
	StateBootstrapping State = iota
	StateSetupRequired
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateSetupRequired:
		return "setup-required"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrBackendUnreachable is returned when the setup probe exhausts its
// retries. The state stays Bootstrapping: a cold backend must never be
// mistaken for "not logged in".
var ErrBackendUnreachable = errors.New("backend unreachable")

// RetryPolicy bounds the bootstrap probe. Delays double from InitialDelay
// up to MaxDelay; MaxRetries counts retries after the initial attempt.
type RetryPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxRetries   uint64
}

// DefaultRetryPolicy retries six attempts total with delays 1s..16s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialDelay: time.Second,
		MaxDelay:     16 * time.Second,
		MaxRetries:   5,
	}
}

// ManagerConfig wires a Manager.
type ManagerConfig struct {
	API    *api.Client
	Creds  *CredentialStore
	Logger *log.Logger
	Retry  RetryPolicy
}

// Manager owns the session state machine. It is constructed once at startup
// and handed down explicitly; there are no package-level session globals.
type Manager struct {
	api    *api.Client
	creds  *CredentialStore
	logger *log.Logger
	retry  RetryPolicy

	mu          sync.Mutex
	state       State
	user        *api.User
	subscribers []func(State)
}

// NewManager builds a Manager in the Bootstrapping state.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	retry := cfg.Retry
	if retry.InitialDelay <= 0 {
		retry = DefaultRetryPolicy()
	}
	return &Manager{
		api:    cfg.API,
		creds:  cfg.Creds,
		logger: logger.With("component", "session"),
		retry:  retry,
		state:  StateBootstrapping,
	}
}

// Subscribe registers a callback invoked on every state change. Callbacks
// run outside the manager lock and must not block for long.
func (m *Manager) Subscribe(fn func(State)) {
	m.mu.Lock()
	m.subscribers = append(m.subscribers, fn)
	m.mu.Unlock()
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// User returns the authenticated user, or nil.
func (m *Manager) User() *api.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Bootstrap resolves the initial session state. The unauthenticated setup
// probe is retried with doubling delays because the backend process may
// still be starting when we launch; on exhaustion the state remains
// Bootstrapping and the caller renders a manual-retry affordance. Safe to
// call again for that retry.
func (m *Manager) Bootstrap(ctx context.Context) error {
	var status *api.SetupStatus
	operation := func() error {
		s, err := m.api.SetupStatus(ctx)
		if err != nil {
			m.logger.Debug("setup probe failed", "err", err)
			return err
		}
		status = s
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.retry.InitialDelay
	b.MaxInterval = m.retry.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	policy := backoff.WithContext(backoff.WithMaxRetries(b, m.retry.MaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		m.logger.Warn("setup probe exhausted retries", "err", err)
		return fmt.Errorf("%w: %w", ErrBackendUnreachable, err)
	}

	if status.SetupRequired {
		m.setState(StateSetupRequired, nil)
		return nil
	}

	token, user, err := m.creds.Load()
	if err != nil || token == "" || user == nil {
		if err != nil {
			m.logger.Warn("restoring session failed", "err", err)
		}
		m.setState(StateUnauthenticated, nil)
		return nil
	}

	// Adopt the persisted session optimistically; validation runs in the
	// background and demotes on rejection.
	m.api.SetToken(token)
	m.setState(StateAuthenticated, user)
	go m.validate(ctx)
	return nil
}

// validate confirms the restored token against the who-am-I endpoint. Any
// error response means the session is invalid; transport failures keep the
// optimistic session, since a cold backend is not a rejection.
func (m *Manager) validate(ctx context.Context) {
	user, err := m.api.WhoAmI(ctx)
	if err == nil {
		m.mu.Lock()
		m.user = user
		m.mu.Unlock()
		_ = m.creds.Save(m.api.Token(), user)
		return
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		m.logger.Info("persisted session rejected", "status", apiErr.StatusCode)
		m.Logout()
		return
	}
	m.logger.Debug("session validation inconclusive", "err", err)
}

// Login exchanges credentials for a session and persists it.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	resp, err := m.api.Login(ctx, username, password)
	if err != nil {
		return err
	}
	return m.adopt(resp)
}

// CompleteSetup creates the first account and enters the session it returns.
func (m *Manager) CompleteSetup(ctx context.Context, username, password string) error {
	resp, err := m.api.CompleteSetup(ctx, username, password)
	if err != nil {
		return err
	}
	return m.adopt(resp)
}

func (m *Manager) adopt(resp *api.LoginResponse) error {
	m.api.SetToken(resp.AccessToken)
	if err := m.creds.Save(resp.AccessToken, &resp.User); err != nil {
		m.logger.Warn("persisting session failed", "err", err)
	}
	user := resp.User
	m.setState(StateAuthenticated, &user)
	return nil
}

// Logout clears the persisted pair and forces Unauthenticated immediately,
// independent of any pending guard evaluation.
func (m *Manager) Logout() {
	if err := m.creds.Clear(); err != nil {
		m.logger.Warn("clearing persisted session failed", "err", err)
	}
	m.api.SetToken("")
	m.setState(StateUnauthenticated, nil)
}

func (m *Manager) setState(next State, user *api.User) {
	m.mu.Lock()
	prev := m.state
	m.state = next
	m.user = user
	subs := make([]func(State), len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	if prev != next {
		m.logger.Info("session state changed", "from", prev, "to", next)
	}
	for _, fn := range subs {
		fn(next)
	}
}
