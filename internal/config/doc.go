// Package config loads lectern's runtime settings.
//
// Settings come from three layers, later ones winning:
//
//  1. Defaults() for every field
//  2. ~/.config/lectern/config.toml (or the path given with --config)
//  3. LECTERN_* environment variables, lowercased with the prefix removed
//     (LECTERN_CACHE_DRIVER sets cache_driver)
//
// A missing file is not an error. Paths accept a leading ~ and are returned
// absolute. Durations are written as Go duration strings ("15s").
//
// Example config.toml:
//
//	log_level = "debug"
//	cache_driver = "redis"
//	redis_url = "redis://localhost:6379/0"
//	request_timeout = "20s"
//	metrics_addr = "127.0.0.1:9464"
//
// The session (URL and token) and UI preferences live in their own files,
// owned by the session and prefs packages.
package config
