package progress

import "weeklybloom/internal/model"

// inWindow reports whether the task has at least one date inside the
// inclusive [start, end] window.
func inWindow(t model.Task, start, end string) bool {
	if start == "" || end == "" {
		return false
	}
	for _, d := range t.Dates {
		if d >= start && d <= end {
			return true
		}
	}
	return false
}

// GoalProgressAll recomputes every goal's weekly progress from scratch:
// the number of completed goal-linked tasks with a date in the current
// week. Counts are keyed by goal id; goals with no qualifying tasks are
// absent from the map.
func GoalProgressAll(tasks []model.Task, today, weekStartsOn string) map[string]int {
	start, end := weekWindow(today, weekStartsOn)
	out := map[string]int{}
	for _, t := range tasks {
		if t.GoalID == "" || !t.Completed {
			continue
		}
		if inWindow(t, start, end) {
			out[t.GoalID]++
		}
	}
	return out
}

// GoalProgress recomputes one goal's weekly progress.
func GoalProgress(tasks []model.Task, goalID, today, weekStartsOn string) int {
	start, end := weekWindow(today, weekStartsOn)
	n := 0
	for _, t := range tasks {
		if t.GoalID != goalID || !t.Completed {
			continue
		}
		if inWindow(t, start, end) {
			n++
		}
	}
	return n
}

// AllTasksDoneOn reports whether the date qualifies for day-done
// confirmation: at least one task scheduled and none of them pending. An
// empty day is never "done".
func AllTasksDoneOn(tasks []model.Task, date string) bool {
	found := false
	for _, t := range tasks {
		if !t.HasDate(date) {
			continue
		}
		found = true
		if !t.Completed {
			return false
		}
	}
	return found
}
