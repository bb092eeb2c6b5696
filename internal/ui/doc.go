// Package ui implements the lectern terminal interface on bubbletea.
//
// The model moves between four views: the course list, a course outline,
// the selected module and the log tail. Network work runs in tea.Cmds;
// module resolution results carry a sequence number so a slow response for
// an earlier selection never replaces the current one.
package ui
