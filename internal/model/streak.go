package model

import "slices"

// StreakState is the process-wide streak bookkeeping. It is owned by the
// application shell and threaded explicitly through every tracker call;
// there are no ambient globals.
type StreakState struct {
	Streak         int `json:"streak"`
	StreakSavers   int `json:"streakSavers"`
	WeeksCompleted int `json:"weeksCompleted"`

	// DaysMarkedDone and SaverUsedDays make the day-completion and
	// forgiveness checks idempotent across repeated evaluation.
	DaysMarkedDone []string `json:"daysMarkedDone"`
	SaverUsedDays  []string `json:"saverUsedDays"`

	// Rollover cursors: the last day and ISO week the tracker observed.
	LastSeenDay  string `json:"lastSeenDay,omitempty"`
	LastSeenWeek int    `json:"lastSeenWeek,omitempty"` // year*100 + ISO week
}

func (s StreakState) DayMarkedDone(date string) bool {
	return slices.Contains(s.DaysMarkedDone, date)
}

func (s StreakState) SaverUsed(date string) bool {
	return slices.Contains(s.SaverUsedDays, date)
}

func (s *StreakState) MarkDayDone(date string) {
	if !s.DayMarkedDone(date) {
		s.DaysMarkedDone = append(s.DaysMarkedDone, date)
	}
}
