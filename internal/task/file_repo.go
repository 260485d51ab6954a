package task

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
	Tasks map[model.TaskID]model.Task `json:"tasks"`
}

// FileRepo is a persistent task repository backed by a single JSON blob.
// The blob is rewritten in full after every mutation. A missing or
// malformed file degrades to an empty collection, never a startup failure.
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
		path: filepath.Join(dataDir, "tasks.json"),
		s:    fileState{Tasks: map[model.TaskID]model.Task{}},
		log:  log,
	}
	r.load()
	return r, nil
}

func (r *FileRepo) load() {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn().Err(err).Str("path", r.path).Msg("read tasks blob, starting empty")
		}
		return
	}
	var loaded fileState
	if err := json.Unmarshal(b, &loaded); err != nil {
		r.log.Warn().Err(err).Str("path", r.path).Msg("malformed tasks blob, starting empty")
		return
	}
	if loaded.Tasks == nil {
		loaded.Tasks = map[model.TaskID]model.Task{}
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

func (r *FileRepo) Create(t model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	t.ID = newID("task")
	t.OriginalTaskID = ""
	t.CreatedAt = now
	t.UpdatedAt = now
	normalizeTask(&t)
	t.Order = nextOrderOn(r.s.Tasks, t.StartDate())

	r.s.Tasks[t.ID] = t
	if err := r.saveLocked(); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *FileRepo) Get(id model.TaskID) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.s.Tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	normalizeTask(&t)
	return t, nil
}

func (r *FileRepo) Update(id model.TaskID, p Patch) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.s.Tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	applyPatch(&t, p)
	t.UpdatedAt = time.Now()
	normalizeTask(&t)
	r.s.Tasks[id] = t
	if err := r.saveLocked(); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *FileRepo) UpdateScoped(id model.TaskID, p Patch, scope Scope, today string) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.s.Tasks[id]
	if !ok {
		return nil, ErrNotFound
	}

	affected := collectScoped(r.s.Tasks, target, scope, today)
	now := time.Now()
	for i := range affected {
		t := affected[i]
		applyPatch(&t, p)
		t.UpdatedAt = now
		normalizeTask(&t)
		r.s.Tasks[t.ID] = t
		affected[i] = t
	}
	if err := r.saveLocked(); err != nil {
		return nil, err
	}
	return affected, nil
}

func (r *FileRepo) DeleteScoped(id model.TaskID, scope Scope, today string) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.s.Tasks[id]
	if !ok {
		return nil, ErrNotFound
	}

	removed := collectScoped(r.s.Tasks, target, scope, today)
	for _, t := range removed {
		delete(r.s.Tasks, t.ID)
	}
	if err := r.saveLocked(); err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *FileRepo) List(filter ListFilter) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Task, 0, len(r.s.Tasks))
	for _, t := range r.s.Tasks {
		normalizeTask(&t)
		if matchesFilter(t, filter) {
			out = append(out, t)
		}
	}
	sortTasks(out)
	return out, nil
}

func (r *FileRepo) ReplaceFamily(root model.TaskID, instances []model.Task) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.s.Tasks, root)
	for id, t := range r.s.Tasks {
		if t.OriginalTaskID == root {
			delete(r.s.Tasks, id)
		}
	}

	now := time.Now()
	out := make([]model.Task, 0, len(instances))
	for _, t := range instances {
		t.CreatedAt = now
		t.UpdatedAt = now
		normalizeTask(&t)
		r.s.Tasks[t.ID] = t
		out = append(out, t)
	}
	if err := r.saveLocked(); err != nil {
		return nil, err
	}
	sortTasks(out)
	return out, nil
}

func (r *FileRepo) Reorder(date string, ids []model.TaskID) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ranked := reorderDate(r.s.Tasks, date, ids)
	now := time.Now()
	for i := range ranked {
		ranked[i].UpdatedAt = now
		r.s.Tasks[ranked[i].ID] = ranked[i]
	}
	if err := r.saveLocked(); err != nil {
		return nil, err
	}
	return ranked, nil
}
