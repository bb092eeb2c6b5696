// Package state provides thread-safe connection state shared between the
// connection monitor and the UI.
//
// # Overview
//
// The monitor probes the site in the background and records the result in a
// Store. The UI reads a Snapshot on every refresh to draw the header: site
// name, user, course count and whether the site is reachable.
//
//	Producer (Monitor):            Consumer (UI):
//	┌────────────────┐            ┌─────────────────┐
//	│ SiteInfo()     │            │                 │
//	│ Courses()      │            │                 │
//	│      ↓         │            │                 │
//	│ Succeed/Fail   │───────────→│ store.Snapshot()│
//	│      ↓         │  (mutex)   │      ↓          │
//	│  repeat...     │            │  render header  │
//	└────────────────┘            └─────────────────┘
//
// # Error Handling
//
// Fail keeps the previous site info and courses and only records the error
// and bumps ConsecutiveFailures. Succeed resets the counter and stamps
// LastSuccess, which the header shows while the data is stale. IsOffline reports true from the second consecutive
// failure on, so a single dropped request does not flip the UI into its
// offline banner.
//
// # Copies
//
// Snapshot returns the course slice by copy, so a caller can keep or mutate
// what it got without racing the monitor.
package state
