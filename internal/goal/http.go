package goal

import (
	"encoding/json"
	"net/http"
	"strings"

	"weeklybloom/internal/model"
)

type Handler struct {
	repo Repo
	// progressFn recomputes derived weekly progress from the task
	// collection. Optional; without it goals are served as stored.
	progressFn func() (map[string]int, error)
}

func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) SetProgressResolver(fn func() (map[string]int, error)) {
	h.progressFn = fn
}

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

func (h *Handler) listSynced() ([]model.Goal, error) {
	if h.progressFn == nil {
		return h.repo.List()
	}
	progress, err := h.progressFn()
	if err != nil {
		return nil, err
	}
	return h.repo.SyncProgress(progress)
}

// /api/goals  (collection)
func (h *Handler) GoalsRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		gs, err := h.listSynced()
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, gs)
		return

	case http.MethodPost:
		var in struct {
			Title  string `json:"title"`
			Target int    `json:"target"`
			Color  string `json:"color"`
		}
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		if strings.TrimSpace(in.Title) == "" {
			writeErr(w, 400, "title is required")
			return
		}
		if in.Target < 0 {
			writeErr(w, 400, "target must not be negative")
			return
		}

		g, err := h.repo.Create(model.Goal{
			Title:  strings.TrimSpace(in.Title),
			Target: in.Target,
			Color:  in.Color,
		})
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 201, g)
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}

// /api/goals/{id}
func (h *Handler) GoalsSub(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/goals/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeErr(w, 404, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		g, err := h.repo.Get(id)
		if err == ErrNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, g)
		return

	case http.MethodPatch:
		var p Patch
		if err := decodeJSON(r, &p); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		if p.Target != nil && *p.Target < 0 {
			writeErr(w, 400, "target must not be negative")
			return
		}
		g, err := h.repo.Update(id, p)
		if err == ErrNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, g)
		return

	case http.MethodDelete:
		err := h.repo.Delete(id)
		if err == ErrNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true})
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}
