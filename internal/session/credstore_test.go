package session

import (
	"path/filepath"
	"testing"

	"github.com/muselabs/aria/internal/api"
)

func TestCredentialStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	store, err := OpenCredentialStore(path)
	if err != nil {
		t.Fatalf("OpenCredentialStore returned error: %v", err)
	}

	// Empty store: absent, not an error.
	token, user, err := store.Load()
	if err != nil || token != "" || user != nil {
		t.Fatalf("Load on empty store = (%q, %#v, %v), want absent", token, user, err)
	}

	if err := store.Save("tok-123", &api.User{ID: 7, Username: "kim", Role: "admin"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	token, user, err = store.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if token != "tok-123" || user == nil || user.Username != "kim" || user.Role != "admin" {
		t.Fatalf("Load = (%q, %#v), want saved pair", token, user)
	}

	// Survives reopen.
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	store, err = OpenCredentialStore(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	token, user, err = store.Load()
	if err != nil || token != "tok-123" || user == nil {
		t.Fatalf("Load after reopen = (%q, %#v, %v)", token, user, err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	token, user, err = store.Load()
	if err != nil || token != "" || user != nil {
		t.Fatalf("Load after Clear = (%q, %#v, %v), want absent", token, user, err)
	}
}

func TestCredentialStore_CreatesDataDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.db")
	store, err := OpenCredentialStore(path)
	if err != nil {
		t.Fatalf("OpenCredentialStore returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Save("t", &api.User{ID: 1}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
}
