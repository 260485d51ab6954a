package task

import (
	"sync"
	"time"

	"weeklybloom/internal/model"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	tasks map[model.TaskID]model.Task
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tasks: map[model.TaskID]model.Task{}}
}

func (r *MemoryRepo) Create(t model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	t.ID = newID("task")
	t.OriginalTaskID = ""
	t.CreatedAt = now
	t.UpdatedAt = now
	normalizeTask(&t)
	t.Order = nextOrderOn(r.tasks, t.StartDate())

	r.tasks[t.ID] = t
	return t, nil
}

func (r *MemoryRepo) Get(id model.TaskID) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	normalizeTask(&t)
	return t, nil
}

func (r *MemoryRepo) Update(id model.TaskID, p Patch) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	applyPatch(&t, p)
	t.UpdatedAt = time.Now()
	normalizeTask(&t)
	r.tasks[id] = t
	return t, nil
}

func (r *MemoryRepo) UpdateScoped(id model.TaskID, p Patch, scope Scope, today string) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}

	affected := collectScoped(r.tasks, target, scope, today)
	now := time.Now()
	for i := range affected {
		t := affected[i]
		applyPatch(&t, p)
		t.UpdatedAt = now
		normalizeTask(&t)
		r.tasks[t.ID] = t
		affected[i] = t
	}
	return affected, nil
}

func (r *MemoryRepo) DeleteScoped(id model.TaskID, scope Scope, today string) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}

	removed := collectScoped(r.tasks, target, scope, today)
	for _, t := range removed {
		delete(r.tasks, t.ID)
	}
	return removed, nil
}

func (r *MemoryRepo) List(filter ListFilter) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		normalizeTask(&t)
		if matchesFilter(t, filter) {
			out = append(out, t)
		}
	}
	sortTasks(out)
	return out, nil
}

func (r *MemoryRepo) ReplaceFamily(root model.TaskID, instances []model.Task) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tasks, root)
	for id, t := range r.tasks {
		if t.OriginalTaskID == root {
			delete(r.tasks, id)
		}
	}

	now := time.Now()
	out := make([]model.Task, 0, len(instances))
	for _, t := range instances {
		t.CreatedAt = now
		t.UpdatedAt = now
		normalizeTask(&t)
		r.tasks[t.ID] = t
		out = append(out, t)
	}
	sortTasks(out)
	return out, nil
}

func (r *MemoryRepo) Reorder(date string, ids []model.TaskID) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ranked := reorderDate(r.tasks, date, ids)
	now := time.Now()
	for i := range ranked {
		ranked[i].UpdatedAt = now
		r.tasks[ranked[i].ID] = ranked[i]
	}
	return ranked, nil
}
