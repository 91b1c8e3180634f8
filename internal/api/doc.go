// Package api provides the HTTP client for the muse daemon.
//
// # Overview
//
// The client is a thin, typed wrapper over the daemon's JSON API. It owns
// base-URL normalization, bearer-token injection, and response decoding;
// it deliberately contains no caching or retry logic. Higher layers decide
// how failures are absorbed: the pollers retry on their own cadence, and
// the session manager wraps the setup probe in a bounded backoff loop.
//
// # Endpoints
//
//   - /api/system/setup   first-run probe, callable without a session
//   - /api/system/ready   readiness probe while the daemon starts up
//   - /api/auth/login     credential exchange
//   - /api/auth/setup     first-run account creation
//   - /api/auth/me        token validation
//   - /api/wishlist       wishlist snapshots, optional status filter
//   - /api/downloads      download snapshots, optional status filter
//   - /api/stats          aggregate counters
//   - /api/events         websocket endpoint (URL built here, consumed by
//     the stream package)
//
// # Errors
//
// Non-2xx responses surface as *APIError carrying the HTTP status code.
// Callers use APIError.AuthFailure to distinguish a rejected credential
// (terminal for the session) from everything else (transient, retried).
// Transport-level failures are wrapped fmt.Errorf errors and never carry
// an APIError.
package api
