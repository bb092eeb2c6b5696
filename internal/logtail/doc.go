// Package logtail reads the tail of lectern's log file for the TUI logs view.
//
// Read keeps a ring buffer of the last maxLines lines, so a long-running log
// file is scanned once with O(maxLines) memory. Parse understands the two
// formats log/slog writes (text and JSON) and splits a record into time,
// level, message and the remaining attributes; Filter drops records below a
// level and keeps continuation lines with the record they belong to.
//
//	lines, err := logtail.Read(path, 400)
//	if err != nil {
//		return err
//	}
//	lines = logtail.Filter(lines, slog.LevelInfo)
package logtail
