package state

import (
	"errors"
	"testing"
	"time"

	"github.com/muselabs/aria/internal/api"
)

func strptr(s string) *string   { return &s }
func f64ptr(f float64) *float64 { return &f }

func TestStore_ReplaceAndSnapshotClone(t *testing.T) {
	var s Store

	before := time.Now()
	s.ReplaceWishlist("", []api.WishlistItem{{ID: 1, Status: api.WishlistWanted}, {ID: 2, Status: api.WishlistSearching}})

	items, ok := s.Wishlist("")
	if !ok || len(items) != 2 {
		t.Fatalf("Wishlist = %#v ok=%v, want 2 items", items, ok)
	}
	if _, ok := s.Wishlist(api.WishlistFailed); ok {
		t.Fatal("unfetched filter should not be cached")
	}

	h := s.Health()
	if h.LastUpdated.Before(before) || h.LastError != nil || h.ConsecutiveFailures != 0 {
		t.Fatalf("Health = %#v, want fresh success", h)
	}

	// Returned snapshot should be independent of the stored one.
	items[0].Status = api.WishlistFailed
	again, _ := s.Wishlist("")
	if again[0].Status != api.WishlistWanted {
		t.Fatalf("Wishlist should clone; got %q", again[0].Status)
	}
}

func TestStore_MergeDownloadHitsEveryCachedCollection(t *testing.T) {
	var s Store

	s.ReplaceDownloads("", []api.Download{
		{ID: 7, Title: "Giant Steps", Status: api.DownloadDownloading, Progress: 10},
		{ID: 8, Title: "Naima", Status: api.DownloadQueued},
	})
	s.ReplaceDownloads(api.DownloadDownloading, []api.Download{
		{ID: 7, Title: "Giant Steps", Status: api.DownloadDownloading, Progress: 10},
	})

	// Progress-only delta: status must survive in both collections.
	if !s.MergeDownload(api.DownloadDelta{ID: 7, Progress: f64ptr(55)}) {
		t.Fatal("MergeDownload = false, want true")
	}

	for _, filter := range []string{"", api.DownloadDownloading} {
		items, ok := s.Downloads(filter)
		if !ok {
			t.Fatalf("Downloads(%q) missing", filter)
		}
		var found bool
		for _, d := range items {
			if d.ID != 7 {
				continue
			}
			found = true
			if d.Status != api.DownloadDownloading || d.Progress != 55 {
				t.Fatalf("Downloads(%q) item 7 = %#v, want downloading at 55", filter, d)
			}
		}
		if !found {
			t.Fatalf("Downloads(%q) lost item 7", filter)
		}
	}

	if s.MergeDownload(api.DownloadDelta{ID: 999, Status: strptr(api.DownloadCompleted)}) {
		t.Fatal("MergeDownload for unknown id = true, want false")
	}
}

func TestStore_StatsReplaceAndInvalidate(t *testing.T) {
	var s Store

	if _, ok := s.Stats(); ok {
		t.Fatal("Stats valid before any write")
	}

	s.ReplaceStats(api.Stats{Downloading: 2, Completed: 5})
	stats, ok := s.Stats()
	if !ok || stats.Completed != 5 {
		t.Fatalf("Stats = %#v ok=%v", stats, ok)
	}

	s.InvalidateStats()
	if _, ok := s.Stats(); ok {
		t.Fatal("Stats still valid after InvalidateStats")
	}
}

func TestStore_RecordErrorKeepsData(t *testing.T) {
	var s Store

	s.ReplaceDownloads("", []api.Download{{ID: 7, Status: api.DownloadDownloading}})

	s.RecordError(errors.New("poll miss"))
	s.RecordError(errors.New("poll miss"))

	items, ok := s.Downloads("")
	if !ok || len(items) != 1 {
		t.Fatalf("Downloads after errors = %#v ok=%v, want data kept", items, ok)
	}

	h := s.Health()
	if h.ConsecutiveFailures != 2 || !h.IsOffline() {
		t.Fatalf("Health = %#v, want offline after 2 failures", h)
	}

	s.ReplaceDownloads("", items)
	if h := s.Health(); h.ConsecutiveFailures != 0 || h.IsOffline() {
		t.Fatalf("Health = %#v, want reset after success", h)
	}
}

func TestStore_FindDownloadPrefersMaster(t *testing.T) {
	var s Store

	s.ReplaceDownloads(api.DownloadFailed, []api.Download{{ID: 3, Status: api.DownloadFailed}})
	d, ok := s.FindDownload(3)
	if !ok || d.Status != api.DownloadFailed {
		t.Fatalf("FindDownload = %#v ok=%v", d, ok)
	}

	s.ReplaceDownloads("", []api.Download{{ID: 3, Status: api.DownloadQueued}})
	d, _ = s.FindDownload(3)
	if d.Status != api.DownloadQueued {
		t.Fatalf("FindDownload = %#v, want master copy", d)
	}

	if _, ok := s.FindDownload(404); ok {
		t.Fatal("FindDownload(404) = true, want false")
	}
}
