// Package config loads aria's configuration from ~/.config/aria/config.toml.
//
// A missing file is not an error: every field has a default suited to a
// local muse daemon. A present but malformed file is an error, since
// silently ignoring a typo'd config is worse than refusing to start.
package config
