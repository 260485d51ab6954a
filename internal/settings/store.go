// Package settings persists the user configuration object. The core only
// interprets WeekStartsOn and Notifications; the rest rides along for the
// UI and notification collaborators.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"weeklybloom/internal/model"
)

// Store persists settings as a single JSON blob, rewritten in full on
// every change. A missing or malformed blob falls back to defaults.
type Store struct {
	mu   sync.RWMutex
	path string
	s    model.Settings
	log  zerolog.Logger
}

func NewStore(dataDir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	st := &Store{
		path: filepath.Join(dataDir, "settings.json"),
		s:    model.DefaultSettings(),
		log:  log,
	}
	st.load()
	return st, nil
}

func (st *Store) load() {
	b, err := os.ReadFile(st.path)
	if err != nil {
		if !os.IsNotExist(err) {
			st.log.Warn().Err(err).Str("path", st.path).Msg("read settings blob, using defaults")
		}
		return
	}
	var loaded model.Settings
	if err := json.Unmarshal(b, &loaded); err != nil {
		st.log.Warn().Err(err).Str("path", st.path).Msg("malformed settings blob, using defaults")
		return
	}
	if loaded.WeekStartsOn != "Sun" {
		loaded.WeekStartsOn = "Mon"
	}
	st.s = loaded
}

func (st *Store) Get() model.Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

func (st *Store) Put(s model.Settings) (model.Settings, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s.WeekStartsOn != "Sun" {
		s.WeekStartsOn = "Mon"
	}
	st.s = s

	b, err := json.MarshalIndent(st.s, "", "  ")
	if err != nil {
		return st.s, err
	}
	if err := os.WriteFile(st.path, b, 0o644); err != nil {
		return st.s, err
	}
	return st.s, nil
}
