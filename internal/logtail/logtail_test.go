package logtail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeLog(t *testing.T, n int) (string, []string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lectern.log")
	lines := make([]string, 0, n)
	for i := range n {
		lines = append(lines, fmt.Sprintf("time=2026-10-18T09:00:%02d.000Z level=INFO msg=probe attempt=%d", i, i))
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path, lines
}

func TestRead_KeepsNewestLines(t *testing.T) {
	path, lines := writeLog(t, 8)

	for _, tt := range []struct {
		limit int
		want  []string
	}{
		{0, lines},
		{-3, lines},
		{3, lines[5:]},
		{8, lines},
		{50, lines},
	} {
		got, err := Read(path, tt.limit)
		if err != nil {
			t.Fatalf("Read(limit=%d) error = %v", tt.limit, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("Read(limit=%d) = %v, want %v", tt.limit, got, tt.want)
		}
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		level   slog.Level
		has     bool
		message string
		attrs   string
	}{
		{
			name:    "text record",
			input:   `time=2026-10-18T09:00:00.000Z level=WARN msg="autologin key unavailable, using plain url" component=autologin`,
			level:   slog.LevelWarn,
			has:     true,
			message: "autologin key unavailable, using plain url",
			attrs:   "component=autologin",
		},
		{
			name:    "text record bare message",
			input:   `time=2026-10-18T09:00:00.000Z level=DEBUG msg=resolved module_id=4`,
			level:   slog.LevelDebug,
			has:     true,
			message: "resolved",
			attrs:   "module_id=4",
		},
		{
			name:    "json record",
			input:   `{"time":"2026-10-18T09:00:00Z","level":"ERROR","msg":"gateway call failed","function":"core_webservice_get_site_info"}`,
			level:   slog.LevelError,
			has:     true,
			message: "gateway call failed",
			attrs:   `{"function":"core_webservice_get_site_info"}`,
		},
		{
			name:    "plain line",
			input:   "panic: something",
			message: "panic: something",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Parse(tt.input)
			if e.HasLevel != tt.has || (tt.has && e.Level != tt.level) {
				t.Fatalf("level = %v (%v), want %v (%v)", e.Level, e.HasLevel, tt.level, tt.has)
			}
			if e.Message != tt.message {
				t.Fatalf("Message = %q, want %q", e.Message, tt.message)
			}
			if e.Attrs != tt.attrs {
				t.Fatalf("Attrs = %q, want %q", e.Attrs, tt.attrs)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	lines := []string{
		`time=t level=DEBUG msg=one`,
		`  continuation of one`,
		`time=t level=INFO msg=two`,
		`time=t level=ERROR msg=three`,
		`  continuation of three`,
	}
	got := Filter(lines, slog.LevelInfo)
	want := []string{lines[2], lines[3], lines[4]}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Filter() = %v, want %v", got, want)
	}
}
