package task

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"slices"
	"sort"
	"strings"

	"weeklybloom/internal/model"
)

var ErrNotFound = errors.New("task not found")

// Scope selects how much of a recurrence family an edit or delete touches.
type Scope string

const (
	ScopeThis   Scope = "this"
	ScopeFuture Scope = "future"
	ScopeAll    Scope = "all"
)

// ParseScope maps user input to a scope. Unknown or empty input means
// "this"; recurring-only scopes are simply unreachable for non-recurring
// tasks.
func ParseScope(s string) Scope {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "future":
		return ScopeFuture
	case "all":
		return ScopeAll
	default:
		return ScopeThis
	}
}

// Patch represents a partial update.
// nil pointer => "no change"
// empty string for Time/Until/GoalID => clear
type Patch struct {
	Title     *string   `json:"title,omitempty"`
	Completed *bool     `json:"completed,omitempty"`
	Dates     *[]string `json:"dates,omitempty"`
	Time      *string   `json:"time,omitempty"`

	Recurrence       *string `json:"recurrence,omitempty"`
	SelectedWeekdays *[]int  `json:"selectedWeekdays,omitempty"`
	Until            *string `json:"until,omitempty"`

	GoalID    *string           `json:"goalId,omitempty"`
	Order     *int              `json:"order,omitempty"`
	Reminders *[]model.Reminder `json:"reminders,omitempty"`

	Important       *bool   `json:"important,omitempty"`
	BackgroundColor *string `json:"backgroundColor,omitempty"`
	IsShift         *bool   `json:"isShift,omitempty"`
	ShiftDuration   *int    `json:"shiftDuration,omitempty"`
	ShiftLetter     *string `json:"shiftLetter,omitempty"`
}

// TouchesReminders reports whether applying the patch can change when an
// instance's reminders fire, in which case previously scheduled
// notifications must be canceled and replaced.
func (p Patch) TouchesReminders() bool {
	return p.Reminders != nil || p.Time != nil || p.Dates != nil
}

// TouchesProgress reports whether applying the patch can change a goal's
// weekly progress count, in which case the affected goals must be
// recomputed.
func (p Patch) TouchesProgress() bool {
	return p.Completed != nil || p.GoalID != nil || p.Dates != nil
}

type ListFilter struct {
	// Date: "" | "YYYY-MM-DD", only tasks appearing on that date.
	Date string
	// Status: "" | "all" | "pending" | "done"
	Status string
	// GoalID: "" | goal id, only tasks assigned to that goal.
	GoalID string
}

type Repo interface {
	Create(t model.Task) (model.Task, error)
	Get(id model.TaskID) (model.Task, error)
	Update(id model.TaskID, p Patch) (model.Task, error)
	// UpdateScoped applies the patch to the targeted instance and, per
	// scope, to the rest of its recurrence family. Returns affected tasks.
	UpdateScoped(id model.TaskID, p Patch, scope Scope, today string) ([]model.Task, error)
	// DeleteScoped removes the targeted instance and, per scope, the rest
	// of its family. Returns the removed tasks.
	DeleteScoped(id model.TaskID, scope Scope, today string) ([]model.Task, error)
	List(filter ListFilter) ([]model.Task, error)
	// ReplaceFamily removes the root task and every instance generated from
	// it, then inserts the given instances. Used on (re-)expansion so the
	// template is superseded by its first generated instance.
	ReplaceFamily(root model.TaskID, instances []model.Task) ([]model.Task, error)
	// Reorder assigns dense zero-based order values to the tasks of one
	// date, in the given sequence.
	Reorder(date string, ids []model.TaskID) ([]model.Task, error)
}

func newID(prefix string) model.TaskID {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return model.TaskID(prefix + "_" + hex.EncodeToString(b[:]))
}

func normalizeTask(t *model.Task) {
	if t.Dates == nil {
		t.Dates = []string{}
	}
	sort.Strings(t.Dates)
	if t.Reminders == nil {
		t.Reminders = []model.Reminder{}
	}
}

func applyPatch(t *model.Task, p Patch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Dates != nil {
		if *p.Dates == nil {
			t.Dates = []string{}
		} else {
			t.Dates = *p.Dates
		}
	}
	if p.Time != nil {
		t.Time = *p.Time
	}
	if p.Recurrence != nil {
		t.Recurrence = *p.Recurrence
	}
	if p.SelectedWeekdays != nil {
		t.SelectedWeekdays = *p.SelectedWeekdays
	}

	// pointer string field with "empty clears" semantics
	if p.Until != nil {
		if *p.Until == "" {
			t.Until = nil
		} else {
			t.Until = p.Until
		}
	}

	if p.GoalID != nil {
		t.GoalID = *p.GoalID
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
	if p.Reminders != nil {
		if *p.Reminders == nil {
			t.Reminders = []model.Reminder{}
		} else {
			t.Reminders = *p.Reminders
		}
	}

	if p.Important != nil {
		t.Important = *p.Important
	}
	if p.BackgroundColor != nil {
		t.BackgroundColor = *p.BackgroundColor
	}
	if p.IsShift != nil {
		t.IsShift = *p.IsShift
	}
	if p.ShiftDuration != nil {
		t.ShiftDuration = *p.ShiftDuration
	}
	if p.ShiftLetter != nil {
		t.ShiftLetter = *p.ShiftLetter
	}
}

// inScope reports whether t is touched by an operation on target with the
// given scope. Non-recurring targets always resolve to the single task.
func inScope(t, target model.Task, scope Scope, today string) bool {
	if t.ID == target.ID {
		return true
	}
	if !target.IsRecurring() || scope == ScopeThis {
		return false
	}
	if t.FamilyRoot() != target.FamilyRoot() {
		return false
	}
	switch scope {
	case ScopeAll:
		return true
	case ScopeFuture:
		return t.StartDate() >= today
	}
	return false
}

func matchesFilter(t model.Task, f ListFilter) bool {
	if f.Date != "" && !t.HasDate(f.Date) {
		return false
	}
	if f.GoalID != "" && t.GoalID != f.GoalID {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(f.Status)) {
	case "", "all":
	case "pending":
		if t.Completed {
			return false
		}
	case "done":
		if !t.Completed {
			return false
		}
	}
	return true
}

// sortTasks orders by first date ascending (dateless tasks last), then by
// manual order, then id for determinism.
func sortTasks(out []model.Task) {
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].StartDate(), out[j].StartDate()
		switch {
		case di == "" && dj == "":
		case di == "":
			return false
		case dj == "":
			return true
		case di != dj:
			return di < dj
		}
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
}

// nextOrderOn returns an order value placing a new task after everything
// already on the date. Counting tasks would recycle the order of a
// deleted entry; one past the maximum keeps orders unique until the next
// reorder densifies them.
func nextOrderOn(tasks map[model.TaskID]model.Task, date string) int {
	n := 0
	for _, t := range tasks {
		if date != "" && t.HasDate(date) && t.Order+1 > n {
			n = t.Order + 1
		}
	}
	return n
}

// collectScoped resolves the affected task ids for a scoped operation,
// sorted by date for stable results.
func collectScoped(tasks map[model.TaskID]model.Task, target model.Task, scope Scope, today string) []model.Task {
	out := make([]model.Task, 0)
	for _, t := range tasks {
		if inScope(t, target, scope, today) {
			out = append(out, t)
		}
	}
	sortTasks(out)
	return out
}

// reorderDate reassigns dense order values for one date following the given
// id sequence; tasks of that date missing from ids keep their relative
// order after the listed ones.
func reorderDate(tasks map[model.TaskID]model.Task, date string, ids []model.TaskID) []model.Task {
	onDate := make([]model.Task, 0)
	for _, t := range tasks {
		if t.HasDate(date) {
			onDate = append(onDate, t)
		}
	}
	sortTasks(onDate)

	ranked := make([]model.Task, 0, len(onDate))
	for _, id := range ids {
		if t, ok := tasks[id]; ok && t.HasDate(date) && !slices.ContainsFunc(ranked, func(r model.Task) bool { return r.ID == t.ID }) {
			ranked = append(ranked, t)
		}
	}
	for _, t := range onDate {
		if !slices.ContainsFunc(ranked, func(r model.Task) bool { return r.ID == t.ID }) {
			ranked = append(ranked, t)
		}
	}

	for i := range ranked {
		ranked[i].Order = i
	}
	return ranked
}
