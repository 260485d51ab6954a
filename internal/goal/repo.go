package goal

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sort"
	"sync"
	"time"

	"weeklybloom/internal/model"
)

var ErrNotFound = errors.New("goal not found")

// Patch represents a partial update. Progress is deliberately absent: it is
// derived from the task collection and only moves through SyncProgress and
// ResetProgress.
type Patch struct {
	Title  *string `json:"title,omitempty"`
	Target *int    `json:"target,omitempty"`
	Color  *string `json:"color,omitempty"`
}

type Repo interface {
	Create(g model.Goal) (model.Goal, error)
	Get(id string) (model.Goal, error)
	Update(id string, p Patch) (model.Goal, error)
	Delete(id string) error
	List() ([]model.Goal, error)
	// SyncProgress overwrites derived progress values; goals missing from
	// the map are left untouched.
	SyncProgress(progress map[string]int) ([]model.Goal, error)
	// ResetProgress zeroes every goal's progress for a new week.
	ResetProgress() error
}

func newID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return "goal_" + hex.EncodeToString(b[:])
}

func applyPatch(g *model.Goal, p Patch) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Target != nil {
		g.Target = *p.Target
	}
	if p.Color != nil {
		g.Color = *p.Color
	}
}

func sortGoals(out []model.Goal) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
}

type MemoryRepo struct {
	mu    sync.RWMutex
	goals map[string]model.Goal
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{goals: map[string]model.Goal{}}
}

func (r *MemoryRepo) Create(g model.Goal) (model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	g.ID = newID()
	g.Progress = 0
	g.CreatedAt = now
	g.UpdatedAt = now
	r.goals[g.ID] = g
	return g, nil
}

func (r *MemoryRepo) Get(id string) (model.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.goals[id]
	if !ok {
		return model.Goal{}, ErrNotFound
	}
	return g, nil
}

func (r *MemoryRepo) Update(id string, p Patch) (model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.goals[id]
	if !ok {
		return model.Goal{}, ErrNotFound
	}
	applyPatch(&g, p)
	g.UpdatedAt = time.Now()
	r.goals[id] = g
	return g, nil
}

func (r *MemoryRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.goals[id]; !ok {
		return ErrNotFound
	}
	delete(r.goals, id)
	return nil
}

func (r *MemoryRepo) List() ([]model.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Goal, 0, len(r.goals))
	for _, g := range r.goals {
		out = append(out, g)
	}
	sortGoals(out)
	return out, nil
}

func (r *MemoryRepo) SyncProgress(progress map[string]int) ([]model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	out := make([]model.Goal, 0, len(r.goals))
	for id, g := range r.goals {
		if n, ok := progress[id]; ok && g.Progress != n {
			g.Progress = n
			g.UpdatedAt = now
			r.goals[id] = g
		}
		out = append(out, g)
	}
	sortGoals(out)
	return out, nil
}

func (r *MemoryRepo) ResetProgress() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, g := range r.goals {
		if g.Progress != 0 {
			g.Progress = 0
			g.UpdatedAt = now
			r.goals[id] = g
		}
	}
	return nil
}
