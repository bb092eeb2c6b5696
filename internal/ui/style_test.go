package ui

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 2, "he"},
		{"hello", 0, ""},
		{"größenwahn", 6, "grö..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTruncateMiddle_KeepsEnd(t *testing.T) {
	got := truncateMiddle("/home/student/.local/state/lectern/lectern.log", 20)
	if len(got) != 20 {
		t.Fatalf("len = %d, want 20", len(got))
	}
	if !strings.HasSuffix(got, "lectern.log") {
		t.Fatalf("truncateMiddle = %q, want file name kept", got)
	}
}

func TestWindow_KeepsCursorVisible(t *testing.T) {
	lines := []string{"0", "1", "2", "3", "4", "5"}

	if got := window(lines, 0, 3); strings.Join(got, "") != "012" {
		t.Fatalf("window cursor 0 = %v", got)
	}
	if got := window(lines, 4, 3); strings.Join(got, "") != "234" {
		t.Fatalf("window cursor 4 = %v", got)
	}
	if got := window(lines, 5, 10); len(got) != 6 {
		t.Fatalf("window taller than content = %v", got)
	}
}

func TestClamp(t *testing.T) {
	if got := clamp(5, 3); got != 2 {
		t.Fatalf("clamp(5, 3) = %d, want 2", got)
	}
	if got := clamp(-1, 3); got != 0 {
		t.Fatalf("clamp(-1, 3) = %d, want 0", got)
	}
	if got := clamp(1, 0); got != 0 {
		t.Fatalf("clamp(1, 0) = %d, want 0", got)
	}
}
