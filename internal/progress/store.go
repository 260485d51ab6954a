package progress

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"weeklybloom/internal/model"
)

// Store persists the streak state as a single JSON blob, rewritten in full
// after every mutation. A missing or malformed blob falls back to the
// seeded fresh state.
type Store struct {
	mu   sync.RWMutex
	path string
	st   model.StreakState
	seed model.StreakState
	log  zerolog.Logger
}

// NewStore opens or seeds the streak blob. New users start with a small
// allowance of savers and a week of history so the first week is not
// punishing.
func NewStore(dataDir string, seedSavers, seedWeeksCompleted int, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	seed := model.StreakState{
		StreakSavers:   seedSavers,
		WeeksCompleted: seedWeeksCompleted,
		DaysMarkedDone: []string{},
		SaverUsedDays:  []string{},
	}
	s := &Store{
		path: filepath.Join(dataDir, "streak.json"),
		st:   seed,
		seed: seed,
		log:  log,
	}
	s.load()
	return s, nil
}

func (s *Store) load() {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("read streak blob, starting fresh")
		}
		return
	}
	var loaded model.StreakState
	if err := json.Unmarshal(b, &loaded); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("malformed streak blob, starting fresh")
		return
	}
	if loaded.DaysMarkedDone == nil {
		loaded.DaysMarkedDone = []string{}
	}
	if loaded.SaverUsedDays == nil {
		loaded.SaverUsedDays = []string{}
	}
	s.st = loaded
}

func (s *Store) save(st model.StreakState) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o644)
}

func (s *Store) Get() model.StreakState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st
}

// Mutate applies fn to the state under the lock and persists the result.
// fn returning an error, or a failed write, leaves the in-memory state
// untouched so the caller can retry the whole mutation.
func (s *Store) Mutate(fn func(*model.StreakState) error) (model.StreakState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.st
	next.DaysMarkedDone = append([]string(nil), s.st.DaysMarkedDone...)
	next.SaverUsedDays = append([]string(nil), s.st.SaverUsedDays...)
	if err := fn(&next); err != nil {
		return s.st, err
	}
	if err := s.save(next); err != nil {
		return s.st, err
	}
	s.st = next
	return s.st, nil
}
