package progress

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"weeklybloom/internal/clock"
	"weeklybloom/internal/model"
)

// TaskSource is the slice of the task repository the tracker needs.
type TaskSource interface {
	AllTasks() ([]model.Task, error)
}

// GoalSource is the slice of the goal repository the tracker needs.
type GoalSource interface {
	List() ([]model.Goal, error)
	SyncProgress(progress map[string]int) ([]model.Goal, error)
	ResetProgress() error
}

type Handler struct {
	store      *Store
	clk        clock.Clock
	hold       *Hold
	tasks      TaskSource
	goals      GoalSource
	settingsFn func() model.Settings
	log        zerolog.Logger
}

func NewHandler(store *Store, clk clock.Clock, holdSeconds int) *Handler {
	return &Handler{
		store: store,
		clk:   clk,
		hold:  NewHold(clk, time.Duration(holdSeconds)*time.Second),
	}
}

func (h *Handler) SetTaskSource(ts TaskSource) { h.tasks = ts }

func (h *Handler) SetGoalSource(gs GoalSource) { h.goals = gs }

func (h *Handler) SetSettingsResolver(fn func() model.Settings) { h.settingsFn = fn }

func (h *Handler) weekStartsOn() string {
	if h.settingsFn == nil {
		return "Mon"
	}
	return h.settingsFn().WeekStartsOn
}

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

func (h *Handler) allTasks() ([]model.Task, error) {
	if h.tasks == nil {
		return nil, nil
	}
	return h.tasks.AllTasks()
}

func (h *Handler) allGoals() ([]model.Goal, error) {
	if h.goals == nil {
		return nil, nil
	}
	return h.goals.List()
}

// syncedGoals recomputes goal progress from the task collection for the
// week containing the last observed day, which is the week a rollover is
// about to score.
func (h *Handler) syncedGoals() ([]model.Goal, error) {
	if h.goals == nil {
		return nil, nil
	}
	anchor := h.store.Get().LastSeenDay
	if anchor == "" || h.tasks == nil {
		return h.goals.List()
	}
	tasks, err := h.tasks.AllTasks()
	if err != nil {
		return nil, err
	}
	return h.goals.SyncProgress(GoalProgressAll(tasks, anchor, h.weekStartsOn()))
}

// confirm commits today through the store.
func (h *Handler) confirm() (model.StreakState, bool, error) {
	tasks, err := h.allTasks()
	if err != nil {
		return model.StreakState{}, false, err
	}
	today := h.clk.Now().Format(ymdLayout)
	changed := false
	st, err := h.store.Mutate(func(st *model.StreakState) error {
		var cerr error
		changed, cerr = ConfirmDayDone(st, tasks, today)
		return cerr
	})
	return st, changed, err
}

// RunTick settles the rollover once. The server calls this on a timer;
// the API exposes it for tests and manual catch-up.
//
// Goal progress is recomputed from the task collection before scoring,
// pinned to the week of the last observed day. Stored counts can lag
// behind direct task patches, and scoring them as-is would cheat the
// user out of a completed week.
func (h *Handler) RunTick() (TickResult, model.StreakState, error) {
	goals, err := h.syncedGoals()
	if err != nil {
		return TickResult{}, h.store.Get(), err
	}
	var res TickResult
	st, err := h.store.Mutate(func(st *model.StreakState) error {
		res = Tick(st, goals, h.clk.Now())
		return nil
	})
	if err != nil {
		return res, st, err
	}
	if res.ResetGoals && h.goals != nil {
		if rerr := h.goals.ResetProgress(); rerr != nil {
			h.log.Error().Err(rerr).Msg("reset goal progress after week rollover")
		}
	}
	if res.WeekCompleted {
		h.log.Info().Int("weeksCompleted", st.WeeksCompleted).Msg("week completed, saver awarded")
	}
	if res.StreakReset {
		h.log.Info().Msg("streak reset after missed day")
	}
	return res, st, nil
}

// /api/streak
func (h *Handler) StreakRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, 405, "method not allowed")
		return
	}
	tasks, err := h.allTasks()
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	st := h.store.Get()
	today := h.clk.Now().Format(ymdLayout)
	writeJSON(w, 200, map[string]any{
		"streak":       st,
		"today":        today,
		"allDoneToday": AllTasksDoneOn(tasks, today),
		"markedToday":  st.DayMarkedDone(today),
	})
}

// /api/streak/confirm
func (h *Handler) StreakConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, 405, "method not allowed")
		return
	}
	st, changed, err := h.confirm()
	if err == ErrDayNotReady {
		writeErr(w, 409, err.Error())
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, map[string]any{"streak": st, "confirmed": changed})
}

// /api/streak/hold
//
// The UI drives the gesture with {"action": "press" | "poll" | "release"}.
// A release at full progress confirms the day; anything earlier cancels.
func (h *Handler) StreakHold(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, 405, "method not allowed")
		return
	}
	var in struct {
		Action string `json:"action"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, 400, "bad json")
		return
	}

	switch in.Action {
	case "press":
		h.hold.Press()
		writeJSON(w, 200, map[string]any{"percent": 0})
	case "poll":
		writeJSON(w, 200, map[string]any{"percent": h.hold.Percent()})
	case "release":
		if !h.hold.Release() {
			writeJSON(w, 200, map[string]any{"percent": 0, "confirmed": false})
			return
		}
		st, changed, err := h.confirm()
		if err == ErrDayNotReady {
			writeErr(w, 409, err.Error())
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, map[string]any{"percent": 100, "confirmed": changed, "streak": st})
	default:
		writeErr(w, 400, "unknown action")
	}
}

// /api/streak/tick
func (h *Handler) StreakTick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, 405, "method not allowed")
		return
	}
	res, st, err := h.RunTick()
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, map[string]any{"tick": res, "streak": st})
}
