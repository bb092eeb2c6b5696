package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the persisted endpoint configuration.
type Config struct {
	URL         string `toml:"url"`
	Token       string `toml:"token"`
	AutoConnect bool   `toml:"auto_connect"`
}

// Usable reports whether the config carries enough to make a call.
func (c Config) Usable() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.Token) != ""
}

// ErrTokenRequired is returned when auto-connect is requested without a token.
var ErrTokenRequired = errors.New("session: auto_connect requires a token")

const defaultSessionPath = "~/.config/lectern/session.toml"

type fileData struct {
	Config
	Capabilities []string `toml:"capabilities,omitempty"`
}

// Store coordinates concurrent access to the session.
type Store struct {
	mu           sync.RWMutex
	path         string
	config       *Config
	capabilities []string
}

// DefaultPath returns the default session file path.
func DefaultPath() string {
	return defaultSessionPath
}

// Open loads the session file at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: resolved}

	bytes, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var data fileData
	if err := toml.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if data.URL != "" || data.Token != "" {
		cfg := normalize(data.Config)
		s.config = &cfg
	}
	s.capabilities = slices.Clone(data.Capabilities)
	return s, nil
}

// NewMemory returns a store that never touches disk.
func NewMemory(cfg *Config) *Store {
	s := &Store{}
	if cfg != nil {
		c := normalize(*cfg)
		s.config = &c
	}
	return s
}

// Path returns the backing file path, empty for memory stores.
func (s *Store) Path() string {
	return s.path
}

// Current returns a copy of the active config.
func (s *Store) Current() (Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config == nil {
		return Config{}, false
	}
	return *s.config, true
}

// Connected reports whether a usable config is present.
func (s *Store) Connected() bool {
	cfg, ok := s.Current()
	return ok && cfg.Usable()
}

// Save replaces the config and persists it.
func (s *Store) Save(cfg Config) error {
	cfg = normalize(cfg)
	if cfg.AutoConnect && cfg.Token == "" {
		return ErrTokenRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.config
	s.config = &cfg
	if err := s.persistLocked(); err != nil {
		s.config = prev
		return err
	}
	return nil
}

// SetCapabilities records the server-advertised function names.
func (s *Store) SetCapabilities(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capabilities = slices.Clone(names)
	return s.persistLocked()
}

// Capabilities returns a copy of the recorded function names.
func (s *Store) Capabilities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.capabilities)
}

// HasCapability reports whether the server advertised function name.
func (s *Store) HasCapability(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.capabilities, name)
}

// Clear forgets the config and capabilities and removes the file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = nil
	s.capabilities = nil
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	var data fileData
	if s.config != nil {
		data.Config = *s.config
	}
	data.Capabilities = s.capabilities

	bytes, err := toml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, bytes, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func normalize(cfg Config) Config {
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	cfg.Token = strings.TrimSpace(cfg.Token)
	return cfg
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultSessionPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
