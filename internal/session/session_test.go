package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muselabs/aria/internal/api"
)

func testRetry() RetryPolicy {
	return RetryPolicy{InitialDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond, MaxRetries: 3}
}

func newTestStore(t *testing.T) *CredentialStore {
	t.Helper()
	store, err := OpenCredentialStore(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("OpenCredentialStore returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newManager(t *testing.T, serverURL string) (*Manager, *CredentialStore, *api.Client) {
	t.Helper()
	client, err := api.NewClient(serverURL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	store := newTestStore(t)
	m := NewManager(ManagerConfig{API: client, Creds: store, Retry: testRetry()})
	return m, store, client
}

// setupServer answers the setup probe, failing the first failures requests.
func setupServer(t *testing.T, failures int, setupRequired bool) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/system/setup":
			if calls.Add(1) <= int64(failures) {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_ = json.NewEncoder(w).Encode(api.SetupStatus{SetupRequired: setupRequired})
		case "/api/auth/me":
			_ = json.NewEncoder(w).Encode(api.User{ID: 1, Username: "admin"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestBootstrap_SetupRequired(t *testing.T) {
	server, _ := setupServer(t, 0, true)
	m, _, _ := newManager(t, server.URL)

	if m.State() != StateBootstrapping {
		t.Fatalf("initial state = %v, want bootstrapping", m.State())
	}
	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	if m.State() != StateSetupRequired {
		t.Fatalf("state = %v, want setup-required", m.State())
	}
}

func TestBootstrap_SucceedsAfterExactlyMaxRetriesFailures(t *testing.T) {
	// maxRetries=3 allows 4 attempts; fail the first 3.
	server, calls := setupServer(t, 3, false)
	m, _, _ := newManager(t, server.URL)

	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	if m.State() != StateUnauthenticated {
		t.Fatalf("state = %v, want unauthenticated", m.State())
	}
	if got := calls.Load(); got != 4 {
		t.Fatalf("probe attempts = %d, want 4", got)
	}
}

func TestBootstrap_ExhaustionStaysBootstrapping(t *testing.T) {
	server, calls := setupServer(t, 100, false)
	m, _, _ := newManager(t, server.URL)

	err := m.Bootstrap(context.Background())
	if err == nil {
		t.Fatal("Bootstrap returned nil error on exhaustion")
	}
	if m.State() != StateBootstrapping {
		t.Fatalf("state = %v, want bootstrapping (no incorrect redirect)", m.State())
	}
	if got := calls.Load(); got != 4 {
		t.Fatalf("probe attempts = %d, want 4 (bounded)", got)
	}

	// The retry affordance: a later Bootstrap call can still resolve.
	calls.Store(101)
	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("retry Bootstrap returned error: %v", err)
	}
	if m.State() != StateUnauthenticated {
		t.Fatalf("state after retry = %v, want unauthenticated", m.State())
	}
}

func TestBootstrap_RestoresPersistedSession(t *testing.T) {
	server, _ := setupServer(t, 0, false)
	m, store, client := newManager(t, server.URL)

	if err := store.Save("persisted-token", &api.User{ID: 1, Username: "admin"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	if m.State() != StateAuthenticated {
		t.Fatalf("state = %v, want authenticated (optimistic restore)", m.State())
	}
	if client.Token() != "persisted-token" {
		t.Fatalf("token = %q, want restored token", client.Token())
	}
	if u := m.User(); u == nil || u.Username != "admin" {
		t.Fatalf("user = %#v, want admin", u)
	}
}

func TestBootstrap_RejectedTokenDemotesAndClears(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/system/setup":
			_ = json.NewEncoder(w).Encode(api.SetupStatus{})
		case "/api/auth/me":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	m, store, client := newManager(t, server.URL)
	if err := store.Save("stale-token", &api.User{ID: 1, Username: "admin"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}

	// Validation is asynchronous; wait for the demotion.
	deadline := time.Now().Add(2 * time.Second)
	for m.State() != StateUnauthenticated && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if m.State() != StateUnauthenticated {
		t.Fatalf("state = %v, want unauthenticated after rejection", m.State())
	}
	if client.Token() != "" {
		t.Fatalf("token = %q, want cleared", client.Token())
	}
	token, user, err := store.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if token != "" || user != nil {
		t.Fatalf("persisted pair = (%q, %#v), want cleared", token, user)
	}
}

func TestLoginAndLogout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/system/setup":
			_ = json.NewEncoder(w).Encode(api.SetupStatus{})
		case "/api/auth/login":
			_ = json.NewEncoder(w).Encode(api.LoginResponse{
				AccessToken: "fresh-token",
				User:        api.User{ID: 2, Username: "kim"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	m, store, client := newManager(t, server.URL)

	var transitions []State
	m.Subscribe(func(s State) { transitions = append(transitions, s) })

	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	if err := m.Login(context.Background(), "kim", "pw"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if m.State() != StateAuthenticated || client.Token() != "fresh-token" {
		t.Fatalf("state = %v token = %q after login", m.State(), client.Token())
	}

	token, user, err := store.Load()
	if err != nil || token != "fresh-token" || user == nil || user.Username != "kim" {
		t.Fatalf("persisted pair = (%q, %#v, %v), want fresh session", token, user, err)
	}

	m.Logout()
	if m.State() != StateUnauthenticated || client.Token() != "" {
		t.Fatalf("state = %v token = %q after logout", m.State(), client.Token())
	}
	token, user, _ = store.Load()
	if token != "" || user != nil {
		t.Fatalf("persisted pair = (%q, %#v) after logout, want cleared", token, user)
	}

	want := []State{StateUnauthenticated, StateAuthenticated, StateUnauthenticated}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", transitions, want)
		}
	}
}
