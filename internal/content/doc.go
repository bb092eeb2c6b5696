// Package content decides how a selected course module is presented.
//
// # Overview
//
// Engine.Resolve maps a module onto a Directive: a PDF, a video, trusted
// HTML, an embedded frame, an external link, or nothing (with an optional
// delegate or a URL handed to the Opener). The decision is a strict,
// ordered chain of rules; the first rule that claims the module wins.
//
//  1. assign: delegate to the assignment viewer.
//  2. resource: classify the first file by extension.
//  3. page, label, book, lesson, glossary, wiki: render HTML fetched by
//     instance id, else the description.
//  4. hvp, scorm, choice, feedback, survey, lesson, or a force-embedded quiz:
//     embed the canonical view URL through the autologin bridge.
//  5. quiz: delegate to the quiz viewer.
//  6. forum: synthesize a discussion list.
//  7. url: same-server targets are bridged and embedded, others are external
//     and never bridged.
//  8. fallback: description as HTML, else the bridged canonical view URL.
//
// Resolution never fails. Fetch errors fall back to the module description
// and are logged once. With no session the result is KindNone with a
// diagnostic.
//
// # Identifiers
//
// Type-specific lookups (pages, books, forum discussions) use the module's
// instance id. URLs into the site (view.php?id=...) use the course-module id.
//
// # Selection
//
// Selector wraps an Engine for interactive use. Each Select call is tagged
// with an increasing sequence number; a result that is no longer the latest
// is discarded rather than replacing the current directive, so a slow earlier
// selection cannot overwrite a later one.
package content
