// Package session owns the endpoint configuration and the capability list
// advertised by the server.
//
// # Overview
//
// A Store is the single authority for "who am I talking to and with what
// token". The gateway reads it on every call, the login and logout commands
// write it, and the connection monitor refreshes the capability list after a
// successful site-info probe.
//
// # Persistence
//
// State is kept in a small TOML file (default ~/.config/lectern/session.toml):
//
//	url = "https://moodle.example.edu"
//	token = "0123456789abcdef"
//	auto_connect = true
//	capabilities = ["core_webservice_get_site_info", "mod_page_get_pages_by_courses"]
//
// The file is written with 0600 permissions because it holds a credential.
// A missing file is not an error; it simply means nobody has logged in yet.
//
// # Concurrency Model
//
// Store guards its fields with a sync.RWMutex. Readers get copies. Writers
// replace the whole value, so concurrent saves resolve last-write-wins.
//
// # Invariants
//
//   - Save rejects a config with AutoConnect set and an empty token.
//   - Clear removes both the in-memory config and the file.
//   - HasCapability answers false when no capability list is known.
package session
