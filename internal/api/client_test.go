package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultServerURL {
		t.Fatalf("base = %q, want %q", u.String(), defaultServerURL)
	}

	u, err = parseBaseURL("example.com:8686")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "example.com:8686" {
		t.Fatalf("base = %q, want http://example.com:8686", u.String())
	}

	u, err = parseBaseURL("https://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_FetchesEndpointsAndSendsAuth(t *testing.T) {
	t.Parallel()

	var gotWishlistQuery url.Values
	var gotAuth string
	var gotSearchPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/system/setup":
			_ = json.NewEncoder(w).Encode(SetupStatus{SetupRequired: true, Version: "1.2.0"})
		case r.URL.Path == "/api/wishlist":
			gotWishlistQuery = r.URL.Query()
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewEncoder(w).Encode(WishlistResponse{Items: []WishlistItem{{ID: 42, Artist: "Coltrane", Album: "Blue Train", Status: WishlistSearching}}})
		case r.URL.Path == "/api/downloads":
			_ = json.NewEncoder(w).Encode(DownloadsResponse{Items: []Download{{ID: 7, Title: "Giant Steps", Status: DownloadDownloading, Progress: 10}}})
		case r.URL.Path == "/api/stats":
			_ = json.NewEncoder(w).Encode(Stats{Wanted: 3, Downloading: 1})
		case strings.HasSuffix(r.URL.Path, "/search") && r.Method == http.MethodPost:
			gotSearchPath = r.URL.Path
			w.WriteHeader(http.StatusAccepted)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	c.SetToken("secret-token")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	setup, err := c.SetupStatus(ctx)
	if err != nil {
		t.Fatalf("SetupStatus returned error: %v", err)
	}
	if !setup.SetupRequired || setup.Version != "1.2.0" {
		t.Fatalf("SetupStatus payload = %#v", setup)
	}

	items, err := c.FetchWishlist(ctx, WishlistSearching)
	if err != nil {
		t.Fatalf("FetchWishlist returned error: %v", err)
	}
	if len(items) != 1 || items[0].ID != 42 {
		t.Fatalf("FetchWishlist payload = %#v, want item 42", items)
	}
	if got := gotWishlistQuery.Get("status"); got != WishlistSearching {
		t.Fatalf("status query = %q, want %q", got, WishlistSearching)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("Authorization = %q, want bearer token", gotAuth)
	}

	downloads, err := c.FetchDownloads(ctx, "")
	if err != nil {
		t.Fatalf("FetchDownloads returned error: %v", err)
	}
	if len(downloads) != 1 || downloads[0].Progress != 10 {
		t.Fatalf("FetchDownloads payload = %#v", downloads)
	}

	stats, err := c.FetchStats(ctx)
	if err != nil {
		t.Fatalf("FetchStats returned error: %v", err)
	}
	if stats.Wanted != 3 {
		t.Fatalf("FetchStats payload = %#v", stats)
	}

	if err := c.TriggerSearch(ctx, 42); err != nil {
		t.Fatalf("TriggerSearch returned error: %v", err)
	}
	if gotSearchPath != "/api/wishlist/42/search" {
		t.Fatalf("search path = %q", gotSearchPath)
	}
}

func TestClient_Login(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body["username"] != "admin" || body["password"] != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(LoginResponse{
			AccessToken: "tok",
			User:        User{ID: 1, Username: "admin"},
		})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx := context.Background()
	resp, err := c.Login(ctx, "admin", "hunter2")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if resp.AccessToken != "tok" || resp.User.Username != "admin" {
		t.Fatalf("Login payload = %#v", resp)
	}

	_, err = c.Login(ctx, "admin", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Login error = %v, want *APIError", err)
	}
	if !apiErr.AuthFailure() {
		t.Fatalf("AuthFailure() = false for status %d", apiErr.StatusCode)
	}
}

func TestClient_WhoAmIErrorCarriesStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.WhoAmI(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("WhoAmI error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || !apiErr.AuthFailure() {
		t.Fatalf("APIError = %#v, want auth failure 403", apiErr)
	}
}

func TestClient_EventsURL(t *testing.T) {
	c, err := NewClient("https://muse.local:8686")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if got := c.EventsURL(); got != "" {
		t.Fatalf("EventsURL without token = %q, want empty", got)
	}

	c.SetToken("abc 123")
	got := c.EventsURL()
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("EventsURL not parseable: %v", err)
	}
	if u.Scheme != "wss" || u.Path != "/api/events" {
		t.Fatalf("EventsURL = %q, want wss scheme and /api/events path", got)
	}
	if u.Query().Get("token") != "abc 123" {
		t.Fatalf("token query = %q, want original token", u.Query().Get("token"))
	}
}
