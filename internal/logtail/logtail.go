package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns the whole file.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed slog record.
type Entry struct {
	Raw      string
	Time     string
	Level    slog.Level
	HasLevel bool
	Message  string
	// Attrs holds the remaining key=value text, or the raw JSON fields for
	// JSON records.
	Attrs string
}

var (
	textTime    = regexp.MustCompile(`(?:^|\s)time=(\S+)`)
	textLevel   = regexp.MustCompile(`(?:^|\s)level=(\S+)`)
	textMessage = regexp.MustCompile(`(?:^|\s)msg=("(?:[^"\\]|\\.)*"|\S*)`)
)

// Parse reads a line written by slog's text or JSON handler. Lines that are
// neither come back with only Raw and Message set.
func Parse(line string) Entry {
	entry := Entry{Raw: line, Message: line}
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		parseJSON(trimmed, &entry)
		return entry
	}

	if m := textLevel.FindStringSubmatch(line); m != nil {
		entry.Level, entry.HasLevel = parseLevel(m[1])
	}
	if !entry.HasLevel {
		return entry
	}
	if m := textTime.FindStringSubmatch(line); m != nil {
		entry.Time = m[1]
	}
	rest := line
	if loc := textMessage.FindStringSubmatchIndex(line); loc != nil {
		msg := line[loc[2]:loc[3]]
		if unquoted, err := strconv.Unquote(msg); err == nil {
			msg = unquoted
		}
		entry.Message = msg
		rest = line[loc[1]:]
	} else {
		entry.Message = ""
	}
	entry.Attrs = strings.TrimSpace(rest)
	return entry
}

func parseJSON(line string, entry *Entry) {
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return
	}
	if level, ok := record["level"].(string); ok {
		entry.Level, entry.HasLevel = parseLevel(level)
	}
	if ts, ok := record["time"].(string); ok {
		entry.Time = ts
	}
	if msg, ok := record["msg"].(string); ok {
		entry.Message = msg
	}
	delete(record, "level")
	delete(record, "time")
	delete(record, "msg")
	if len(record) > 0 {
		if attrs, err := json.Marshal(record); err == nil {
			entry.Attrs = string(attrs)
		}
	}
}

func parseLevel(raw string) (slog.Level, bool) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.Trim(raw, `"`))); err != nil {
		return 0, false
	}
	return level, true
}

// Filter keeps lines at or above min. Lines without a recognizable level
// follow the decision made for the record before them.
func Filter(lines []string, min slog.Level) []string {
	out := make([]string, 0, len(lines))
	keep := true
	for _, line := range lines {
		entry := Parse(line)
		if entry.HasLevel {
			keep = entry.Level >= min
		}
		if keep {
			out = append(out, line)
		}
	}
	return out
}
