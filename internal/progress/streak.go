package progress

import (
	"errors"
	"slices"
	"time"

	"weeklybloom/internal/model"
)

// ErrDayNotReady rejects a confirmation attempt while today still has
// pending tasks, or has no tasks at all.
var ErrDayNotReady = errors.New("today's tasks are not all done")

// ConfirmDayDone commits today as completed: the streak grows by one and
// the day is recorded so later task changes cannot retract it. Confirming
// an already-committed day is a no-op, not an error.
func ConfirmDayDone(st *model.StreakState, tasks []model.Task, today string) (bool, error) {
	if st.DayMarkedDone(today) {
		return false, nil
	}
	if !AllTasksDoneOn(tasks, today) {
		return false, ErrDayNotReady
	}
	st.Streak++
	st.MarkDayDone(today)
	return true, nil
}

// TickResult describes what a rollover evaluation changed.
type TickResult struct {
	DayAdvanced  bool     `json:"dayAdvanced"`
	WeekAdvanced bool     `json:"weekAdvanced"`
	DaysForgiven []string `json:"daysForgiven,omitempty"` // saver consumed per day
	StreakReset  bool     `json:"streakReset"`

	WeekCompleted bool `json:"weekCompleted"` // all goals met, saver awarded
	// ResetGoals tells the caller to zero goal progress for the new week.
	ResetGoals bool `json:"resetGoals"`
}

// Tick advances the rollover cursors to now and settles everything that
// happened since the last observation. It is cheap and idempotent within
// a day, so callers run it every minute.
//
// For each elapsed day that was never confirmed: if there is a streak to
// protect, a saver is available and the day was not already forgiven, one
// saver is consumed and the day counts as done; otherwise the streak
// resets to zero. Savers are never spent while the streak is already at
// zero. A missed day breaks the streak on the following day, never
// mid-week.
//
// On an ISO week change the finished week is scored: if there was at
// least one goal and every goal met its target, WeeksCompleted grows and
// a saver is awarded. Day bookkeeping from finished weeks is dropped and
// the caller is told to reset goal progress.
func Tick(st *model.StreakState, goals []model.Goal, now time.Time) TickResult {
	var res TickResult
	today := now.Format(ymdLayout)
	wk := weekKey(now)

	if st.LastSeenDay == "" {
		st.LastSeenDay = today
		st.LastSeenWeek = wk
		return res
	}

	last, err := time.ParseInLocation(ymdLayout, st.LastSeenDay, time.Local)
	if err != nil {
		st.LastSeenDay = today
		st.LastSeenWeek = wk
		return res
	}

	for cur := last; cur.Format(ymdLayout) < today; cur = cur.AddDate(0, 0, 1) {
		res.DayAdvanced = true
		day := cur.Format(ymdLayout)
		if st.DayMarkedDone(day) {
			continue
		}
		if st.Streak > 0 && st.StreakSavers > 0 && !st.SaverUsed(day) {
			st.StreakSavers--
			st.MarkDayDone(day)
			st.SaverUsedDays = append(st.SaverUsedDays, day)
			res.DaysForgiven = append(res.DaysForgiven, day)
			continue
		}
		if st.Streak != 0 {
			st.Streak = 0
			res.StreakReset = true
		}
	}
	if today > st.LastSeenDay {
		st.LastSeenDay = today
	}

	if wk != st.LastSeenWeek {
		res.WeekAdvanced = true
		allMet := len(goals) > 0
		for _, g := range goals {
			if !g.Met() {
				allMet = false
				break
			}
		}
		if allMet {
			st.WeeksCompleted++
			st.StreakSavers++
			res.WeekCompleted = true
		}
		st.DaysMarkedDone = keepCurrentWeek(st.DaysMarkedDone, wk)
		st.SaverUsedDays = keepCurrentWeek(st.SaverUsedDays, wk)
		st.LastSeenWeek = wk
		res.ResetGoals = true
	}
	return res
}

// keepCurrentWeek drops day records from finished weeks.
func keepCurrentWeek(days []string, wk int) []string {
	return slices.DeleteFunc(slices.Clone(days), func(day string) bool {
		t, err := time.ParseInLocation(ymdLayout, day, time.Local)
		if err != nil {
			return true
		}
		return weekKey(t) != wk
	})
}
