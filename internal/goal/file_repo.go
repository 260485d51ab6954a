package goal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"weeklybloom/internal/model"
)

type fileState struct {
	Goals map[string]model.Goal `json:"goals"`
}

// FileRepo persists goals in a single JSON blob, rewritten in full after
// every mutation. A missing or malformed file degrades to an empty
// collection.
type FileRepo struct {
	mu   sync.RWMutex
	path string
	s    fileState
	log  zerolog.Logger
}

func NewFileRepo(dataDir string, log zerolog.Logger) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := &FileRepo{
		path: filepath.Join(dataDir, "goals.json"),
		s:    fileState{Goals: map[string]model.Goal{}},
		log:  log,
	}
	r.load()
	return r, nil
}

func (r *FileRepo) load() {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn().Err(err).Str("path", r.path).Msg("read goals blob, starting empty")
		}
		return
	}
	var loaded fileState
	if err := json.Unmarshal(b, &loaded); err != nil {
		r.log.Warn().Err(err).Str("path", r.path).Msg("malformed goals blob, starting empty")
		return
	}
	if loaded.Goals == nil {
		loaded.Goals = map[string]model.Goal{}
	}
	r.s = loaded
}

func (r *FileRepo) saveLocked() error {
	b, err := json.MarshalIndent(r.s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, b, 0o644)
}

func (r *FileRepo) Create(g model.Goal) (model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	g.ID = newID()
	g.Progress = 0
	g.CreatedAt = now
	g.UpdatedAt = now
	r.s.Goals[g.ID] = g
	if err := r.saveLocked(); err != nil {
		return model.Goal{}, err
	}
	return g, nil
}

func (r *FileRepo) Get(id string) (model.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.s.Goals[id]
	if !ok {
		return model.Goal{}, ErrNotFound
	}
	return g, nil
}

func (r *FileRepo) Update(id string, p Patch) (model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.s.Goals[id]
	if !ok {
		return model.Goal{}, ErrNotFound
	}
	applyPatch(&g, p)
	g.UpdatedAt = time.Now()
	r.s.Goals[id] = g
	if err := r.saveLocked(); err != nil {
		return model.Goal{}, err
	}
	return g, nil
}

func (r *FileRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.s.Goals[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.Goals, id)
	return r.saveLocked()
}

func (r *FileRepo) List() ([]model.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Goal, 0, len(r.s.Goals))
	for _, g := range r.s.Goals {
		out = append(out, g)
	}
	sortGoals(out)
	return out, nil
}

func (r *FileRepo) SyncProgress(progress map[string]int) ([]model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	dirty := false
	out := make([]model.Goal, 0, len(r.s.Goals))
	for id, g := range r.s.Goals {
		if n, ok := progress[id]; ok && g.Progress != n {
			g.Progress = n
			g.UpdatedAt = now
			r.s.Goals[id] = g
			dirty = true
		}
		out = append(out, g)
	}
	if dirty {
		if err := r.saveLocked(); err != nil {
			return nil, err
		}
	}
	sortGoals(out)
	return out, nil
}

func (r *FileRepo) ResetProgress() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	dirty := false
	for id, g := range r.s.Goals {
		if g.Progress != 0 {
			g.Progress = 0
			g.UpdatedAt = now
			r.s.Goals[id] = g
			dirty = true
		}
	}
	if !dirty {
		return nil
	}
	return r.saveLocked()
}
