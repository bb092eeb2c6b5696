package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Fatal("Current ok = true, want false for missing file")
	}
	if s.Connected() {
		t.Fatal("Connected = true, want false")
	}
	if s.HasCapability("core_webservice_get_site_info") {
		t.Fatal("HasCapability = true, want false without a capability list")
	}
}

func TestSave_PersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.toml")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := s.Save(Config{URL: " https://lms.example.edu/ ", Token: "abc", AutoConnect: true}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := s.SetCapabilities([]string{"mod_page_get_pages_by_courses"}); err != nil {
		t.Fatalf("SetCapabilities returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat session: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("perm = %o, want 600", perm)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	cfg, ok := reloaded.Current()
	if !ok {
		t.Fatal("Current ok = false after reload")
	}
	if cfg.URL != "https://lms.example.edu" {
		t.Fatalf("URL = %q, want trimmed base", cfg.URL)
	}
	if cfg.Token != "abc" || !cfg.AutoConnect {
		t.Fatalf("cfg = %#v, want token abc with auto_connect", cfg)
	}
	if !reloaded.HasCapability("mod_page_get_pages_by_courses") {
		t.Fatal("HasCapability = false after reload")
	}
}

func TestSave_RejectsAutoConnectWithoutToken(t *testing.T) {
	s := NewMemory(nil)
	err := s.Save(Config{URL: "https://lms.example.edu", AutoConnect: true})
	if !errors.Is(err, ErrTokenRequired) {
		t.Fatalf("Save error = %v, want ErrTokenRequired", err)
	}
	if _, ok := s.Current(); ok {
		t.Fatal("rejected config was stored")
	}
}

func TestClear_RemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := s.Save(Config{URL: "https://lms.example.edu", Token: "abc"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stat after clear = %v, want not exist", err)
	}
	if s.Connected() {
		t.Fatal("Connected = true after Clear")
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("second Clear returned error: %v", err)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewMemory(&Config{URL: "https://lms.example.edu", Token: "t0"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Save(Config{URL: "https://lms.example.edu", Token: "t1"})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Current()
			_ = s.HasCapability("x")
		}()
	}
	wg.Wait()

	cfg, _ := s.Current()
	if cfg.Token != "t1" {
		t.Fatalf("Token = %q, want t1", cfg.Token)
	}
}
