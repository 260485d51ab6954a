package serverapp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weeklybloom/internal/clock"
	"weeklybloom/internal/config"
)

func newTestApp(t *testing.T) (*App, *clock.FakeClock) {
	t.Helper()

	clk := clock.NewFakeClock(time.Date(2024, 1, 10, 8, 0, 0, 0, time.Local))
	app, err := New(Options{
		Config:  config.Default(),
		DataDir: t.TempDir(),
		Logger:  zerolog.Nop(),
		Clock:   clk,
	})
	require.NoError(t, err)
	return app, clk
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func TestApp_HealthAndReady(t *testing.T) {
	app, _ := newTestApp(t)

	rec, body := doJSON(t, app.Handler, http.MethodGet, "/healthz", nil)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, true, body["ok"])

	rec, _ = doJSON(t, app.Handler, http.MethodGet, "/readyz", nil)
	assert.Equal(t, 200, rec.Code)
}

func TestApp_CreateRecurringTaskExpandsFamily(t *testing.T) {
	app, _ := newTestApp(t)

	rec, body := doJSON(t, app.Handler, http.MethodPost, "/api/tasks", map[string]any{
		"title":      "water plants",
		"dates":      []string{"2024-01-01"},
		"recurrence": "weekly",
		"until":      "2024-01-22",
	})
	require.Equal(t, 201, rec.Code, rec.Body.String())

	tasks, ok := body["tasks"].([]any)
	require.True(t, ok)
	assert.Len(t, tasks, 4)
}

func TestApp_ToggleDrivesGoalProgress(t *testing.T) {
	app, _ := newTestApp(t)

	rec, goalBody := doJSON(t, app.Handler, http.MethodPost, "/api/goals", map[string]any{
		"title": "Exercise", "target": 2,
	})
	require.Equal(t, 201, rec.Code)
	goalID := goalBody["id"].(string)

	rec, taskBody := doJSON(t, app.Handler, http.MethodPost, "/api/tasks", map[string]any{
		"title":  "run",
		"dates":  []string{"2024-01-10"},
		"goalId": goalID,
	})
	require.Equal(t, 201, rec.Code)
	created := taskBody["tasks"].([]any)[0].(map[string]any)
	taskID := created["id"].(string)

	rec, toggleBody := doJSON(t, app.Handler, http.MethodPost, "/api/tasks/"+taskID+"/toggle", nil)
	require.Equal(t, 200, rec.Code, rec.Body.String())

	g := toggleBody["goal"].(map[string]any)
	assert.Equal(t, float64(1), g["progress"])

	// Completing a timed task cancels its reminders; a bare task just has
	// an empty event list.
	_, hasEvents := toggleBody["reminderEvents"]
	assert.True(t, hasEvents)
}

func TestApp_ConfirmIsOneWay(t *testing.T) {
	app, _ := newTestApp(t)

	rec, taskBody := doJSON(t, app.Handler, http.MethodPost, "/api/tasks", map[string]any{
		"title": "run", "dates": []string{"2024-01-10"},
	})
	require.Equal(t, 201, rec.Code)
	taskID := taskBody["tasks"].([]any)[0].(map[string]any)["id"].(string)

	// Confirming with a pending task is rejected.
	rec, _ = doJSON(t, app.Handler, http.MethodPost, "/api/streak/confirm", nil)
	assert.Equal(t, 409, rec.Code)

	rec, _ = doJSON(t, app.Handler, http.MethodPost, "/api/tasks/"+taskID+"/toggle", nil)
	require.Equal(t, 200, rec.Code)

	rec, body := doJSON(t, app.Handler, http.MethodPost, "/api/streak/confirm", nil)
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, true, body["confirmed"])
	streak := body["streak"].(map[string]any)
	assert.Equal(t, float64(1), streak["streak"])

	// Toggling stays possible after the commit, in both directions; the
	// granted streak is simply never revisited.
	rec, _ = doJSON(t, app.Handler, http.MethodPost, "/api/tasks/"+taskID+"/toggle", nil)
	assert.Equal(t, 200, rec.Code)

	rec, lateBody := doJSON(t, app.Handler, http.MethodPost, "/api/tasks", map[string]any{
		"title": "stretch", "dates": []string{"2024-01-10"},
	})
	require.Equal(t, 201, rec.Code)
	lateID := lateBody["tasks"].([]any)[0].(map[string]any)["id"].(string)
	rec, _ = doJSON(t, app.Handler, http.MethodPost, "/api/tasks/"+lateID+"/toggle", nil)
	assert.Equal(t, 200, rec.Code, "tasks added after the commit can still be checked off")

	rec, body = doJSON(t, app.Handler, http.MethodGet, "/api/streak", nil)
	require.Equal(t, 200, rec.Code)
	streak = body["streak"].(map[string]any)
	assert.Equal(t, float64(1), streak["streak"])
	assert.Equal(t, true, body["markedToday"])
}

func TestApp_HoldGestureConfirms(t *testing.T) {
	app, clk := newTestApp(t)

	rec, taskBody := doJSON(t, app.Handler, http.MethodPost, "/api/tasks", map[string]any{
		"title": "run", "dates": []string{"2024-01-10"},
	})
	require.Equal(t, 201, rec.Code)
	taskID := taskBody["tasks"].([]any)[0].(map[string]any)["id"].(string)
	rec, _ = doJSON(t, app.Handler, http.MethodPost, "/api/tasks/"+taskID+"/toggle", nil)
	require.Equal(t, 200, rec.Code)

	rec, _ = doJSON(t, app.Handler, http.MethodPost, "/api/streak/hold", map[string]any{"action": "press"})
	require.Equal(t, 200, rec.Code)

	// Released too early: nothing happens.
	clk.Advance(time.Second)
	rec, body := doJSON(t, app.Handler, http.MethodPost, "/api/streak/hold", map[string]any{"action": "release"})
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, false, body["confirmed"])

	rec, _ = doJSON(t, app.Handler, http.MethodPost, "/api/streak/hold", map[string]any{"action": "press"})
	require.Equal(t, 200, rec.Code)
	clk.Advance(3 * time.Second)
	rec, body = doJSON(t, app.Handler, http.MethodPost, "/api/streak/hold", map[string]any{"action": "release"})
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, true, body["confirmed"])
}

func TestApp_TickSettlesMissedDay(t *testing.T) {
	app, clk := newTestApp(t)

	// Build a one-day streak and establish the cursor, then jump two days
	// with nothing done in between.
	rec, taskBody := doJSON(t, app.Handler, http.MethodPost, "/api/tasks", map[string]any{
		"title": "run", "dates": []string{"2024-01-10"},
	})
	require.Equal(t, 201, rec.Code)
	taskID := taskBody["tasks"].([]any)[0].(map[string]any)["id"].(string)
	rec, _ = doJSON(t, app.Handler, http.MethodPost, "/api/tasks/"+taskID+"/toggle", nil)
	require.Equal(t, 200, rec.Code)
	rec, _ = doJSON(t, app.Handler, http.MethodPost, "/api/streak/confirm", nil)
	require.Equal(t, 200, rec.Code)

	res, err := app.Tick()
	require.NoError(t, err)
	assert.False(t, res.DayAdvanced)

	clk.Advance(48 * time.Hour)
	res, err = app.Tick()
	require.NoError(t, err)
	assert.True(t, res.DayAdvanced)
	assert.Equal(t, []string{"2024-01-11"}, res.DaysForgiven, "seeded saver forgives the miss")

	rec, body := doJSON(t, app.Handler, http.MethodGet, "/api/streak", nil)
	require.Equal(t, 200, rec.Code)
	streak := body["streak"].(map[string]any)
	assert.Equal(t, float64(1), streak["streakSavers"])
	assert.Equal(t, float64(1), streak["streak"])
}

func TestApp_WeekScoringSeesFreshProgress(t *testing.T) {
	app, clk := newTestApp(t)

	rec, goalBody := doJSON(t, app.Handler, http.MethodPost, "/api/goals", map[string]any{
		"title": "Read", "target": 1,
	})
	require.Equal(t, 201, rec.Code)
	goalID := goalBody["id"].(string)

	rec, taskBody := doJSON(t, app.Handler, http.MethodPost, "/api/tasks", map[string]any{
		"title": "finish chapter", "dates": []string{"2024-01-10"}, "goalId": goalID,
	})
	require.Equal(t, 201, rec.Code)
	taskID := taskBody["tasks"].([]any)[0].(map[string]any)["id"].(string)

	res, err := app.Tick()
	require.NoError(t, err)
	assert.False(t, res.WeekAdvanced)

	// Complete through a plain patch rather than the toggle endpoint, then
	// cross the week boundary. The rollover must score the week from the
	// tasks as they stand, not from whatever progress happened to be stored.
	rec, _ = doJSON(t, app.Handler, http.MethodPatch, "/api/tasks/"+taskID, map[string]any{
		"completed": true,
	})
	require.Equal(t, 200, rec.Code)

	clk.Advance(5 * 24 * time.Hour) // Monday of the next ISO week
	res, err = app.Tick()
	require.NoError(t, err)
	assert.True(t, res.WeekAdvanced)
	assert.True(t, res.WeekCompleted, "met goal must count at rollover")

	rec, body := doJSON(t, app.Handler, http.MethodGet, "/api/streak", nil)
	require.Equal(t, 200, rec.Code)
	streak := body["streak"].(map[string]any)
	assert.Equal(t, float64(2), streak["weeksCompleted"])
	assert.Equal(t, float64(3), streak["streakSavers"])
}

func TestApp_DegenerateCustomRuleKeepsTask(t *testing.T) {
	app, _ := newTestApp(t)

	// A custom rule with no selected weekdays expands to nothing; the task
	// survives as a single entry instead of erroring or vanishing.
	rec, body := doJSON(t, app.Handler, http.MethodPost, "/api/tasks", map[string]any{
		"title":            "odd one",
		"dates":            []string{"2024-01-10"},
		"recurrence":       "custom",
		"selectedWeekdays": []int{},
	})
	require.Equal(t, 201, rec.Code, rec.Body.String())
	tasks := body["tasks"].([]any)
	require.Len(t, tasks, 1)
	taskID := tasks[0].(map[string]any)["id"].(string)

	// Patching an existing family down to a degenerate rule collapses it to
	// the patched task.
	rec, body = doJSON(t, app.Handler, http.MethodPatch, "/api/tasks/"+taskID, map[string]any{
		"recurrence":       "custom",
		"selectedWeekdays": []int{},
	})
	require.Equal(t, 200, rec.Code, rec.Body.String())
	require.Len(t, body["tasks"].([]any), 1)

	rec, _ = doJSON(t, app.Handler, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, 200, rec.Code)
	var remaining []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &remaining))
	assert.Len(t, remaining, 1)
}

func TestApp_SettingsRoundTripEmitsDailyEvents(t *testing.T) {
	app, _ := newTestApp(t)

	rec, body := doJSON(t, app.Handler, http.MethodGet, "/api/settings", nil)
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "Mon", body["weekStartsOn"])

	put := map[string]any{
		"weekStartsOn":          "Sun",
		"notifications":         true,
		"enableMorningReminder": true,
		"morningReminderTime":   "07:30",
	}
	rec, body = doJSON(t, app.Handler, http.MethodPut, "/api/settings", put)
	require.Equal(t, 200, rec.Code)

	s := body["settings"].(map[string]any)
	assert.Equal(t, "Sun", s["weekStartsOn"])
	evs := body["reminderEvents"].([]any)
	require.Len(t, evs, 1)
}

func TestApp_ScopedDeleteThroughAPI(t *testing.T) {
	app, _ := newTestApp(t)

	rec, body := doJSON(t, app.Handler, http.MethodPost, "/api/tasks", map[string]any{
		"title":      "water plants",
		"dates":      []string{"2024-01-01"},
		"recurrence": "weekly",
		"until":      "2024-01-22",
	})
	require.Equal(t, 201, rec.Code)
	tasks := body["tasks"].([]any)
	require.Len(t, tasks, 4)
	third := tasks[2].(map[string]any)["id"].(string)

	// Today is 2024-01-10, so "future" from the Jan 15 instance removes
	// Jan 15 and Jan 22.
	rec, delBody := doJSON(t, app.Handler, http.MethodDelete, "/api/tasks/"+third+"?scope=future", nil)
	require.Equal(t, 200, rec.Code)
	assert.Len(t, delBody["removed"].([]any), 2)

	rec, _ = doJSON(t, app.Handler, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, 200, rec.Code)

	var remaining []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &remaining))
	assert.Len(t, remaining, 2)
}
