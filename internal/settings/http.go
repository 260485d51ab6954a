package settings

import (
	"encoding/json"
	"net/http"

	"weeklybloom/internal/clock"
	"weeklybloom/internal/model"
	"weeklybloom/internal/reminder"
)

type Handler struct {
	store *Store
	clk   clock.Clock
}

func NewHandler(store *Store, clk clock.Clock) *Handler {
	return &Handler{store: store, clk: clk}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// /api/settings
func (h *Handler) SettingsRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, 200, h.store.Get())
		return

	case http.MethodPut:
		var in model.Settings
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		s, err := h.store.Put(in)
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}

		// Daily reminder schedules follow the settings, so every change
		// re-emits them for the notification collaborator.
		evs := make([]reminder.Event, 0)
		if s.Notifications {
			evs = reminder.DailyEvents(s, h.clk.Now())
		}
		writeJSON(w, 200, map[string]any{"settings": s, "reminderEvents": evs})
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}
