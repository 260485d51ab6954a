package serverapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"weeklybloom/internal/clock"
	"weeklybloom/internal/config"
	"weeklybloom/internal/goal"
	"weeklybloom/internal/httpmw"
	"weeklybloom/internal/model"
	"weeklybloom/internal/progress"
	"weeklybloom/internal/settings"
	"weeklybloom/internal/task"
)

type Options struct {
	Config  *config.Config
	DataDir string
	Logger  zerolog.Logger
	Clock   clock.Clock
}

// App is the wired application: the HTTP surface plus the periodic
// rollover evaluation.
type App struct {
	Handler http.Handler

	cfg     *config.Config
	log     zerolog.Logger
	tracker *progress.Handler
}

// taskSource adapts the task repository to the narrow slice the tracker
// consumes.
type taskSource struct {
	repo task.Repo
}

func (s taskSource) AllTasks() ([]model.Task, error) {
	return s.repo.List(task.ListFilter{})
}

func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if strings.TrimSpace(opts.DataDir) == "" {
		opts.DataDir = "data"
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	log := opts.Logger

	taskRepo, err := task.NewFileRepo(opts.DataDir, log)
	if err != nil {
		return nil, err
	}
	goalRepo, err := goal.NewFileRepo(opts.DataDir, log)
	if err != nil {
		return nil, err
	}
	streakStore, err := progress.NewStore(opts.DataDir, opts.Config.Streak.SeedSavers, opts.Config.Streak.SeedWeeksCompleted, log)
	if err != nil {
		return nil, err
	}
	settingsStore, err := settings.NewStore(opts.DataDir, log)
	if err != nil {
		return nil, err
	}

	tasks := taskSource{repo: taskRepo}

	taskHandler := task.NewHandler(taskRepo)
	taskHandler.SetGoalRepo(goalRepo)
	taskHandler.SetSettingsResolver(settingsStore.Get)
	taskHandler.SetClock(opts.Clock)
	taskHandler.SetConfig(opts.Config)
	taskHandler.SetLogger(log)

	goalHandler := goal.NewHandler(goalRepo)
	goalHandler.SetProgressResolver(func() (map[string]int, error) {
		all, err := tasks.AllTasks()
		if err != nil {
			return nil, err
		}
		today := opts.Clock.Now().Format("2006-01-02")
		return progress.GoalProgressAll(all, today, settingsStore.Get().WeekStartsOn), nil
	})

	tracker := progress.NewHandler(streakStore, opts.Clock, opts.Config.Streak.HoldSeconds)
	tracker.SetTaskSource(tasks)
	tracker.SetGoalSource(goalRepo)
	tracker.SetSettingsResolver(settingsStore.Get)
	tracker.SetLogger(log)

	settingsHandler := settings.NewHandler(settingsStore, opts.Clock)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/tasks", taskHandler.TasksRoot)
	mux.HandleFunc("/api/tasks/order", taskHandler.TasksReorder)
	mux.HandleFunc("/api/tasks/", taskHandler.TasksSub)

	mux.HandleFunc("/api/goals", goalHandler.GoalsRoot)
	mux.HandleFunc("/api/goals/", goalHandler.GoalsSub)

	mux.HandleFunc("/api/streak", tracker.StreakRoot)
	mux.HandleFunc("/api/streak/confirm", tracker.StreakConfirm)
	mux.HandleFunc("/api/streak/hold", tracker.StreakHold)
	mux.HandleFunc("/api/streak/tick", tracker.StreakTick)

	mux.HandleFunc("/api/settings", settingsHandler.SettingsRoot)

	mux.Handle("/api/config", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(opts.Config); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "weeklybloom",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, err := taskRepo.List(task.ListFilter{Status: "all"}); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "task storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "weeklybloom",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	handler := httpmw.Chain(
		mux,
		httpmw.WithAccessLog(log),
		httpmw.WithRequestID,
		httpmw.WithRecover(log),
	)

	return &App{
		Handler: handler,
		cfg:     opts.Config,
		log:     log,
		tracker: tracker,
	}, nil
}

// Tick runs one rollover evaluation.
func (a *App) Tick() (progress.TickResult, error) {
	res, _, err := a.tracker.RunTick()
	return res, err
}

// RunRollover evaluates the day/week rollover on a fixed interval until
// the context is canceled. One evaluation runs immediately so a server
// restarted after midnight settles missed days before serving stale
// streak state for long.
func (a *App) RunRollover(ctx context.Context) {
	if _, err := a.Tick(); err != nil {
		a.log.Error().Err(err).Msg("rollover tick")
	}

	interval := time.Duration(a.cfg.Rollover.TickSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Tick(); err != nil {
				a.log.Error().Err(err).Msg("rollover tick")
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
