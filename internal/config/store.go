package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Legacy keys folded into nightlight-control.
const (
	legacyControlNightLight       = "control-nightlight"
	legacyControlNightLightForApp = "control-nightlight-for-app"
)

// Change describes one settings update.
type Change struct {
	Old  Settings
	New  Settings
	Keys []Key
}

// Has reports whether k changed.
func (c Change) Has(k Key) bool { return slices.Contains(c.Keys, k) }

// Store is the YAML-backed settings file. Subscribers are called after each
// update that changed at least one key, outside the store's lock.
type Store struct {
	path string

	mu      sync.Mutex
	current Settings
	nextID  int
	subs    map[int]func(Change)
}

// DefaultPath returns $XDG_CONFIG_HOME/caffeine/settings.yaml, creating the
// directory if needed.
func DefaultPath() (string, error) {
	p, err := xdg.ConfigFile(filepath.Join("caffeine", "settings.yaml"))
	if err != nil {
		return "", fmt.Errorf("failed to resolve settings path: %w", err)
	}
	return p, nil
}

// Open loads the settings at path. A missing file yields the defaults and is
// not created until the first update.
func Open(path string) (*Store, error) {
	s := &Store{path: path, current: Defaults(), subs: make(map[int]func(Change))}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	settings, migrated, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	s.current = settings
	if migrated {
		log.Printf("config: migrated legacy night light keys in %s", path)
		if err := s.save(settings); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.current)
}

// Update applies fn to a copy of the settings, validates, persists and
// notifies subscribers. Nothing is written when fn changes nothing.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	old := s.current
	next := clone(old)
	fn(&next)
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	keys := Diff(old, next)
	if len(keys) == 0 {
		s.mu.Unlock()
		return nil
	}
	if err := s.save(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = next
	s.notifyLocked(Change{Old: old, New: clone(next), Keys: keys})
	return nil
}

// Reload re-reads the file and notifies subscribers of external edits. The
// lock is held from the read to the diff, so a concurrent Update is never
// reverted by an older read.
func (s *Store) Reload() error {
	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		data = nil
	} else if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to read settings: %w", err)
	}

	next := Defaults()
	if len(data) > 0 {
		if next, _, err = decode(data); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to parse %s: %w", s.path, err)
		}
	}

	old := s.current
	keys := Diff(old, next)
	if len(keys) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.current = next
	log.Printf("config: reloaded %s (%d key(s) changed)", s.path, len(keys))
	s.notifyLocked(Change{Old: old, New: clone(next), Keys: keys})
	return nil
}

// Subscribe registers fn for every future change and returns its remover.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// notifyLocked releases s.mu before calling subscribers.
func (s *Store) notifyLocked(c Change) {
	subs := make([]func(Change), 0, len(s.subs))
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
}

func (s *Store) save(settings Settings) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

func decode(data []byte) (Settings, bool, error) {
	settings := Defaults()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, false, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Settings{}, false, err
	}
	migrated := migrateLegacy(raw, &settings)

	if err := settings.Validate(); err != nil {
		return Settings{}, false, err
	}
	return settings, migrated, nil
}

// migrateLegacy maps the old pair of booleans onto nightlight-control and
// reports whether any legacy key was present.
func migrateLegacy(raw map[string]any, s *Settings) bool {
	always, hasAlways := raw[legacyControlNightLight]
	forApps, hasForApps := raw[legacyControlNightLightForApp]
	if !hasAlways && !hasForApps {
		return false
	}
	if always == true {
		s.NightLight = NightLightAlways
		if forApps == true {
			s.NightLight = NightLightForApps
		}
	}
	return true
}

func clone(s Settings) Settings {
	s.InhibitApps = slices.Clone(s.InhibitApps)
	if s.InhibitApps == nil {
		s.InhibitApps = []string{}
	}
	return s
}
