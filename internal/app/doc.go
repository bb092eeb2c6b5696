// Package app is the composition root for lectern.
//
// # Overview
//
// New loads settings, opens the log file, the session store and the
// persistent cache tier, and wires the gateway client, the autologin bridge,
// the content engine, the course service and the viewers. The CLI commands
// and the TUI both work through the resulting *App.
//
// # Initialization
//
//  1. config.Load: defaults, config.toml, LECTERN_* overlay
//  2. Logger on the log file (the TUI owns the terminal)
//  3. telemetry.Init (noop unless OTEL_EXPORTER_OTLP_ENDPOINT is set)
//  4. session.Open and prefs.Load
//  5. Cache store by cache_driver: redis falls back to sqlite, sqlite falls
//     back to memory only
//  6. moodle.Client with the rate limiter and per-class timeouts
//  7. Bridge, Engine, Selector, course service, viewers
//  8. Optional /metrics listener when metrics_addr is set
//
// # Components
//
//   - app.go: New, Login, Logout, Run, Close
//   - monitor.go: background connection monitor with exponential backoff
//   - opener.go: BrowserOpener, the default content.Opener
//   - logging.go: slog handler construction
//
// # Connection Monitor
//
//	┌──────────────────────────────────────────┐
//	│ Monitor.Start() goroutine                │
//	│  ┌────────────────────────────────────┐  │
//	│  │ Connected()? no  → state.Reset()   │  │
//	│  │ SiteInfo()   err → Update(err)     │  │
//	│  │ Courses()    ok  → Update(info, c) │  │
//	│  │ wait calculateBackoff(failures)    │  │
//	│  └────────────────────────────────────┘  │
//	└──────────────────────────────────────────┘
//
// The wait doubles per consecutive failure up to maxBackoff, so an
// unreachable site is not hammered while the TUI keeps showing the last
// good snapshot.
//
// # Login and Logout
//
// Login tests the token with core_webservice_get_site_info before anything
// is saved. A successful login clears the cache, since it may hold another
// account's data, and records the capability list. Logout removes the
// session file and clears both cache tiers; the cache manager's generation
// counter stops background revalidations that are still running from
// writing the old account's data back.
package app
