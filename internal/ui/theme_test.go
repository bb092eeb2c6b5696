package ui

import (
	"log/slog"
	"testing"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 || names[0] != "Dracula" || names[1] != "Slate" || names[2] != "Moodle" {
		t.Fatalf("ThemeNames() = %v, want [Dracula Slate Moodle]", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Dracula"); got != "Slate" {
		t.Fatalf("NextTheme(Dracula) = %q, want Slate", got)
	}
	if got := NextTheme("Slate"); got != "Moodle" {
		t.Fatalf("NextTheme(Slate) = %q, want Moodle", got)
	}
	if got := NextTheme("Moodle"); got != "Dracula" {
		t.Fatalf("NextTheme(Moodle) = %q, want Dracula", got)
	}
	if got := NextTheme("missing"); got != "Dracula" {
		t.Fatalf("NextTheme(missing) = %q, want Dracula", got)
	}
}

func TestGetTheme_UnknownFallsBack(t *testing.T) {
	if got := GetTheme("missing").Name; got != "Dracula" {
		t.Fatalf("GetTheme(missing).Name = %q, want Dracula", got)
	}
}

func TestThemes_HaveBadgeColors(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, key := range []string{"pending", "submitted", "graded", "overdue", "complete", "incomplete", "offline", "embedded", "external"} {
			if th.StatusColors[key] == "" {
				t.Fatalf("%s theme has no %q color", name, key)
			}
		}
	}
}

func TestThemeNames_ReturnsCopy(t *testing.T) {
	names := ThemeNames()
	names[0] = "changed"
	if got := ThemeNames()[0]; got != "Dracula" {
		t.Fatalf("ThemeNames()[0] = %q after caller mutation, want Dracula", got)
	}
}

func TestNextLevel_Cycles(t *testing.T) {
	level := slog.LevelDebug
	seen := map[slog.Level]bool{}
	for range 4 {
		seen[level] = true
		level = nextLevel(level)
	}
	if level != slog.LevelDebug || len(seen) != 4 {
		t.Fatalf("nextLevel cycle ended at %v after %d levels", level, len(seen))
	}
}
