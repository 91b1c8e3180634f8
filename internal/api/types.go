package api

import "time"

const museTimestampLayout = "2006-01-02 15:04:05"

// Wishlist item statuses as reported by /api/wishlist.
const (
	WishlistWanted      = "wanted"
	WishlistSearching   = "searching"
	WishlistFound       = "found"
	WishlistDownloading = "downloading"
	WishlistImporting   = "importing"
	WishlistDownloaded  = "downloaded"
	WishlistFailed      = "failed"
)

// Download statuses as reported by /api/downloads.
const (
	DownloadQueued      = "queued"
	DownloadDownloading = "downloading"
	DownloadImporting   = "importing"
	DownloadCompleted   = "completed"
	DownloadFailed      = "failed"
	DownloadCancelled   = "cancelled"
)

// WishlistInFlight reports whether a wishlist status indicates the daemon is
// still working on the item.
func WishlistInFlight(status string) bool {
	switch status {
	case WishlistSearching, WishlistDownloading, WishlistImporting:
		return true
	}
	return false
}

// DownloadInFlight reports whether a download status indicates an active
// transfer or import.
func DownloadInFlight(status string) bool {
	switch status {
	case DownloadQueued, DownloadDownloading, DownloadImporting:
		return true
	}
	return false
}

// DownloadTerminal reports whether a download status is final. Terminal
// transitions invalidate the cached stats snapshot.
func DownloadTerminal(status string) bool {
	switch status {
	case DownloadCompleted, DownloadFailed, DownloadCancelled:
		return true
	}
	return false
}

// WishlistItem mirrors a wishlist entry from /api/wishlist.
type WishlistItem struct {
	ID        int64  `json:"id"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	Status    string `json:"status"`
	Quality   string `json:"quality"`
	AddedAt   string `json:"addedAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Label returns a human-readable identifier for notifications.
func (w WishlistItem) Label() string {
	if w.Artist == "" {
		return w.Album
	}
	return w.Artist + " – " + w.Album
}

// WishlistResponse mirrors /api/wishlist.
type WishlistResponse struct {
	Items []WishlistItem `json:"items"`
}

// Download mirrors a download entry from /api/downloads.
type Download struct {
	ID           int64   `json:"id"`
	Artist       string  `json:"artist"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	SizeBytes    int64   `json:"sizeBytes"`
	ErrorMessage string  `json:"errorMessage"`
	AddedAt      string  `json:"addedAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// Label returns a human-readable identifier for notifications.
func (d Download) Label() string {
	if d.Artist == "" {
		return d.Title
	}
	return d.Artist + " – " + d.Title
}

// DownloadsResponse mirrors /api/downloads.
type DownloadsResponse struct {
	Items []Download `json:"items"`
}

// DownloadDelta is a partial update for a single download pushed over the
// event stream. Absent fields stay nil and must not erase previously known
// values when merged.
type DownloadDelta struct {
	ID           int64    `json:"id"`
	Status       *string  `json:"status,omitempty"`
	Progress     *float64 `json:"progress,omitempty"`
	SizeBytes    *int64   `json:"sizeBytes,omitempty"`
	ErrorMessage *string  `json:"errorMessage,omitempty"`
	UpdatedAt    *string  `json:"updatedAt,omitempty"`
}

// Apply merges the delta's present fields into the download.
func (d *Download) Apply(delta DownloadDelta) {
	if delta.Status != nil {
		d.Status = *delta.Status
	}
	if delta.Progress != nil {
		d.Progress = *delta.Progress
	}
	if delta.SizeBytes != nil {
		d.SizeBytes = *delta.SizeBytes
	}
	if delta.ErrorMessage != nil {
		d.ErrorMessage = *delta.ErrorMessage
	}
	if delta.UpdatedAt != nil {
		d.UpdatedAt = *delta.UpdatedAt
	}
}

// Stats aggregates queue counters from /api/stats.
type Stats struct {
	Wanted      int   `json:"wanted"`
	Searching   int   `json:"searching"`
	Downloading int   `json:"downloading"`
	Completed   int   `json:"completed"`
	Failed      int   `json:"failed"`
	TotalBytes  int64 `json:"totalBytes"`
}

// SetupStatus mirrors the unauthenticated /api/system/setup probe.
type SetupStatus struct {
	SetupRequired bool   `json:"setup_required"`
	Version       string `json:"version"`
}

// Readiness mirrors /api/system/ready.
type Readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Ready reports whether the daemon has finished starting up.
func (r Readiness) Ready() bool {
	return r.Status == "ready"
}

// User identifies the authenticated account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResponse mirrors the /api/auth/login and /api/auth/setup payloads.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (w WishlistItem) ParsedUpdatedAt() time.Time {
	return parseTime(w.UpdatedAt)
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (d Download) ParsedUpdatedAt() time.Time {
	return parseTime(d.UpdatedAt)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(museTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
