package task

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"weeklybloom/internal/clock"
	"weeklybloom/internal/config"
	"weeklybloom/internal/goal"
	"weeklybloom/internal/model"
	"weeklybloom/internal/progress"
	"weeklybloom/internal/reminder"
)

type Handler struct {
	repo       Repo
	goals      goal.Repo
	settingsFn func() model.Settings
	clk        clock.Clock
	cfg        *config.Config
	log        zerolog.Logger
}

func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo, clk: clock.RealClock{}}
}

func (h *Handler) SetGoalRepo(gr goal.Repo) { h.goals = gr }

func (h *Handler) SetSettingsResolver(fn func() model.Settings) { h.settingsFn = fn }

func (h *Handler) SetClock(c clock.Clock) { h.clk = c }

func (h *Handler) SetConfig(cfg *config.Config) { h.cfg = cfg }

func (h *Handler) SetLogger(log zerolog.Logger) { h.log = log }

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func (h *Handler) today() string {
	return h.clk.Now().Format(ymdLayout)
}

func (h *Handler) maxOccurrences() int {
	if h.cfg == nil || h.cfg.Recurrence.MaxOccurrences <= 0 {
		return DefaultMaxOccurrences
	}
	return h.cfg.Recurrence.MaxOccurrences
}

func (h *Handler) weekStartsOn() string {
	if h.settingsFn == nil {
		return "Mon"
	}
	return h.settingsFn().WeekStartsOn
}

// familyOf lists every stored member of the target's recurrence family.
func (h *Handler) familyOf(target model.Task) ([]model.Task, error) {
	all, err := h.repo.List(ListFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, 0)
	for _, t := range all {
		if t.FamilyRoot() == target.FamilyRoot() {
			out = append(out, t)
		}
	}
	return out, nil
}

// syncGoal recomputes one goal's weekly progress from the full task
// collection and pushes it into the goal repository. Returns the synced
// goal, or nil when the task carries no goal or syncing is unavailable.
func (h *Handler) syncGoal(goalID string) *model.Goal {
	if goalID == "" || h.goals == nil {
		return nil
	}
	all, err := h.repo.List(ListFilter{})
	if err != nil {
		h.log.Error().Err(err).Msg("list tasks for goal recompute")
		return nil
	}
	n := progress.GoalProgress(all, goalID, h.today(), h.weekStartsOn())
	if _, err := h.goals.SyncProgress(map[string]int{goalID: n}); err != nil {
		h.log.Error().Err(err).Str("goal", goalID).Msg("sync goal progress")
		return nil
	}
	g, err := h.goals.Get(goalID)
	if err != nil {
		return nil
	}
	return &g
}

// syncGoalsOf recomputes every distinct goal the given tasks contribute
// to. Instances of one family can carry different goals after per-
// instance edits, so each one is synced.
func (h *Handler) syncGoalsOf(tasks []model.Task) {
	seen := map[string]bool{}
	for _, t := range tasks {
		if t.GoalID != "" && !seen[t.GoalID] {
			seen[t.GoalID] = true
			h.syncGoal(t.GoalID)
		}
	}
}

// /api/tasks  (collection)
func (h *Handler) TasksRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		filter := ListFilter{
			Date:   q.Get("date"),
			Status: q.Get("status"),
			GoalID: q.Get("goal"),
		}
		ts, err := h.repo.List(filter)
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, ts)
		return

	case http.MethodPost:
		var in struct {
			Title            string           `json:"title"`
			Dates            []string         `json:"dates"`
			Time             string           `json:"time"`
			Recurrence       string           `json:"recurrence"`
			SelectedWeekdays []int            `json:"selectedWeekdays"`
			Until            *string          `json:"until"`
			GoalID           string           `json:"goalId"`
			Reminders        []model.Reminder `json:"reminders"`
			Important        bool             `json:"important"`
			BackgroundColor  string           `json:"backgroundColor"`
			IsShift          bool             `json:"isShift"`
			ShiftDuration    int              `json:"shiftDuration"`
			ShiftLetter      string           `json:"shiftLetter"`
		}
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		if strings.TrimSpace(in.Title) == "" {
			writeErr(w, 400, "title is required")
			return
		}
		if in.Recurrence != model.RecurrenceNone && len(in.Dates) == 0 {
			writeErr(w, 400, "recurring tasks need a start date")
			return
		}

		created, err := h.repo.Create(model.Task{
			Title:            strings.TrimSpace(in.Title),
			Dates:            in.Dates,
			Time:             in.Time,
			Recurrence:       in.Recurrence,
			SelectedWeekdays: in.SelectedWeekdays,
			Until:            in.Until,
			GoalID:           in.GoalID,
			Reminders:        in.Reminders,
			Important:        in.Important,
			BackgroundColor:  in.BackgroundColor,
			IsShift:          in.IsShift,
			ShiftDuration:    in.ShiftDuration,
			ShiftLetter:      in.ShiftLetter,
		})
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}

		ts := []model.Task{created}
		if created.IsRecurring() {
			// A degenerate rule (no selected weekdays, until before the
			// start) expands to nothing; the task stays as a single
			// entry rather than vanishing or erroring.
			if instances := Expand(created, h.maxOccurrences()); len(instances) > 0 {
				replaced, err := h.repo.ReplaceFamily(created.ID, instances)
				if err != nil {
					writeErr(w, 500, err.Error())
					return
				}
				ts = replaced
			}
		}

		evs := make([]reminder.Event, 0)
		for _, t := range ts {
			evs = append(evs, reminder.Events(t, reminder.OpAdd)...)
		}
		writeJSON(w, 201, map[string]any{"tasks": ts, "reminderEvents": evs})
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}

// /api/tasks/{id}
func (h *Handler) TasksSub(w http.ResponseWriter, r *http.Request) {
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tasks/"), "/")
	if tail == "" {
		writeErr(w, 404, "not found")
		return
	}
	parts := strings.Split(tail, "/")
	id := model.TaskID(parts[0])

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			t, err := h.repo.Get(id)
			if err == ErrNotFound {
				writeErr(w, 404, "not found")
				return
			}
			if err != nil {
				writeErr(w, 500, err.Error())
				return
			}
			writeJSON(w, 200, t)
			return

		case http.MethodPatch:
			h.patchTask(w, r, id)
			return

		case http.MethodDelete:
			h.deleteTask(w, r, id)
			return

		default:
			writeErr(w, 405, "method not allowed")
			return
		}
	}

	if len(parts) == 2 && parts[1] == "toggle" {
		if r.Method != http.MethodPost {
			writeErr(w, 405, "method not allowed")
			return
		}
		h.toggleTask(w, id)
		return
	}

	writeErr(w, 404, "not found")
}

func (h *Handler) patchTask(w http.ResponseWriter, r *http.Request, id model.TaskID) {
	var p Patch
	if err := decodeJSON(r, &p); err != nil {
		writeErr(w, 400, "bad json")
		return
	}
	scope := ParseScope(r.URL.Query().Get("scope"))

	target, err := h.repo.Get(id)
	if err == ErrNotFound {
		writeErr(w, 404, "not found")
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}

	// Attaching or changing a recurrence rule rebuilds the whole family
	// from the patched target; prior instances are superseded.
	if p.Recurrence != nil && *p.Recurrence != model.RecurrenceNone {
		h.rebuildFamily(w, target, p)
		return
	}

	var old []model.Task
	if p.TouchesReminders() || p.TouchesProgress() {
		if old, err = h.familyOf(target); err != nil {
			writeErr(w, 500, err.Error())
			return
		}
	}

	updated, err := h.repo.UpdateScoped(id, p, scope, h.today())
	if err == ErrNotFound {
		writeErr(w, 404, "not found")
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}

	// Progress is recomputed, never incrementally patched, so completing
	// or re-homing tasks through a plain patch keeps goals honest too.
	if p.TouchesProgress() {
		h.syncGoalsOf(append(append([]model.Task{}, old...), updated...))
	}

	evs := make([]reminder.Event, 0)
	if p.TouchesReminders() {
		touched := map[model.TaskID]bool{}
		for _, t := range updated {
			touched[t.ID] = true
		}
		before := make([]model.Task, 0, len(updated))
		for _, t := range old {
			if touched[t.ID] {
				before = append(before, t)
			}
		}
		evs = reminder.Diff(before, updated)
	}
	writeJSON(w, 200, map[string]any{"tasks": updated, "reminderEvents": evs})
}

// rebuildFamily re-expands a recurrence family after its rule changed.
func (h *Handler) rebuildFamily(w http.ResponseWriter, target model.Task, p Patch) {
	old, err := h.familyOf(target)
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}

	tpl := target
	applyPatch(&tpl, p)
	tpl.ID = target.FamilyRoot()
	tpl.OriginalTaskID = ""
	if tpl.StartDate() == "" {
		writeErr(w, 400, "recurring tasks need a start date")
		return
	}

	instances := Expand(tpl, h.maxOccurrences())
	if len(instances) == 0 {
		// Degenerate rule: the family collapses to the patched task
		// itself instead of being erased.
		instances = []model.Task{tpl}
	}
	replaced, err := h.repo.ReplaceFamily(tpl.ID, instances)
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}

	writeJSON(w, 200, map[string]any{
		"tasks":          replaced,
		"reminderEvents": reminder.Diff(old, replaced),
	})
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request, id model.TaskID) {
	scope := ParseScope(r.URL.Query().Get("scope"))
	removed, err := h.repo.DeleteScoped(id, scope, h.today())
	if err == ErrNotFound {
		writeErr(w, 404, "not found")
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}

	evs := make([]reminder.Event, 0)
	for _, t := range removed {
		evs = append(evs, reminder.Events(t, reminder.OpCancel)...)
	}
	h.syncGoalsOf(removed)
	writeJSON(w, 200, map[string]any{"removed": removed, "reminderEvents": evs})
}

func (h *Handler) toggleTask(w http.ResponseWriter, id model.TaskID) {
	t, err := h.repo.Get(id)
	if err == ErrNotFound {
		writeErr(w, 404, "not found")
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}

	// Toggling stays allowed after the day is committed; the committed
	// streak is simply never revisited.
	next := !t.Completed
	updated, err := h.repo.Update(id, Patch{Completed: &next})
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}

	op := reminder.OpAdd
	if updated.Completed {
		op = reminder.OpCancel
	}

	resp := map[string]any{
		"task":           updated,
		"reminderEvents": reminder.Events(updated, op),
	}
	if g := h.syncGoal(updated.GoalID); g != nil {
		resp["goal"] = g
	}
	writeJSON(w, 200, resp)
}

// /api/tasks/order
func (h *Handler) TasksReorder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErr(w, 405, "method not allowed")
		return
	}
	var in struct {
		Date    string   `json:"date"`
		TaskIDs []string `json:"taskIds"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, 400, "bad json")
		return
	}
	if in.Date == "" {
		writeErr(w, 400, `missing field "date"`)
		return
	}

	ids := make([]model.TaskID, 0, len(in.TaskIDs))
	for _, s := range in.TaskIDs {
		if s = strings.TrimSpace(s); s != "" {
			ids = append(ids, model.TaskID(s))
		}
	}

	ranked, err := h.repo.Reorder(in.Date, ids)
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, ranked)
}
