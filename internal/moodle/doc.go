// Package moodle is the API gateway for Moodle-compatible REST web services.
//
// # Overview
//
// Every remote call in lectern goes through Client. It owns parameter
// encoding, error normalization, and per-call deadlines, so callers deal only
// in typed records (Course, Section, Module, Page, ...) and three error kinds.
//
// # Wire Format
//
// Calls are always POSTed as application/x-www-form-urlencoded to
//
//	{base}/webservice/rest/server.php
//
// with wstoken, wsfunction and moodlewsrestformat=json first, followed by the
// flattened parameters in insertion order. Nested values use bracketed keys:
//
//	Params{}.Add("courseids", []int{7, 9})  → courseids[0]=7&courseids[1]=9
//	Params{}.Add("a", Params{}.Add("b", []int{1, 2}))  → a[b][0]=1&a[b][1]=2
//
// Booleans are encoded as 1 and 0.
//
// # Error Taxonomy
//
//   - ErrNotConfigured: no usable URL or token. Returned synchronously, no
//     request is made.
//   - *NetworkError: transport failure, deadline, non-JSON error status, or an
//     undecodable body.
//   - *RemoteError: the server answered with a top-level "exception" object.
//     This is checked before the HTTP status, since the server reports
//     application errors with 200 as often as not.
//
// RemoteError.Error returns the server's message unmodified so user-initiated
// writes can show it as-is.
//
// # Deadlines
//
// Each call class has its own deadline (see DefaultTimeouts). The autologin
// key request has the shortest one because it sits on the interactive path of
// opening an embedded activity.
//
// # Instrumentation
//
// The default HTTP client uses an otelhttp transport, each call opens a span
// named after the web-service function, and call counts and durations are
// recorded in the metrics package. A per-call request id (uuid) is attached
// to logs, spans and the X-Request-Id header. An optional rate.Limiter bounds
// request rate against the server.
package moodle
