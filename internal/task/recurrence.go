package task

import (
	"slices"
	"time"

	"weeklybloom/internal/model"
)

const ymdLayout = "2006-01-02"

// DefaultMaxOccurrences bounds expansion of recurrence rules that carry no
// end date. It is large enough that a year of daily entries is never
// visibly truncated.
const DefaultMaxOccurrences = 1000

// Expand materializes the dated instances a recurring template produces,
// starting at the template's own anchor date and stepping by its rule.
// Iteration stops past the inclusive Until date or at maxOccurrences.
//
// Each instance is a copy of the template with a fresh id, a single date,
// and OriginalTaskID pointing back at the template. Recurrence metadata is
// preserved on instances so later edits can re-derive scope. The first
// instance lands on the template's own date; callers replace the template
// with the expansion so day one never appears twice.
//
// A custom rule with no valid weekdays selected expands to nothing. That is
// degenerate but not an error.
func Expand(tpl model.Task, maxOccurrences int) []model.Task {
	if tpl.Recurrence == model.RecurrenceNone {
		return nil
	}
	start, err := time.ParseInLocation(ymdLayout, tpl.StartDate(), time.Local)
	if err != nil {
		return nil
	}
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxOccurrences
	}

	until := ""
	if tpl.Until != nil {
		until = *tpl.Until
	}

	if tpl.Recurrence == model.RecurrenceCustom {
		return expandCustom(tpl, start, until, maxOccurrences)
	}

	out := make([]model.Task, 0)
	for i := 0; len(out) < maxOccurrences; i++ {
		var d time.Time
		switch tpl.Recurrence {
		case model.RecurrenceDaily:
			d = start.AddDate(0, 0, i)
		case model.RecurrenceWeekly:
			d = start.AddDate(0, 0, 7*i)
		case model.RecurrenceMonthly:
			d = addMonthsClamped(start, i)
		case model.RecurrenceYearly:
			d = addMonthsClamped(start, 12*i)
		default:
			return nil
		}
		date := d.Format(ymdLayout)
		if until != "" && date > until {
			break
		}
		out = append(out, newInstance(tpl, date))
	}
	return out
}

func expandCustom(tpl model.Task, start time.Time, until string, maxOccurrences int) []model.Task {
	weekdays := make([]int, 0, len(tpl.SelectedWeekdays))
	for _, wd := range tpl.SelectedWeekdays {
		if wd >= 0 && wd <= 6 {
			weekdays = append(weekdays, wd)
		}
	}
	if len(weekdays) == 0 {
		return nil
	}

	out := make([]model.Task, 0)
	for cur := start; len(out) < maxOccurrences; cur = cur.AddDate(0, 0, 1) {
		date := cur.Format(ymdLayout)
		if until != "" && date > until {
			break
		}
		if slices.Contains(weekdays, int(cur.Weekday())) {
			out = append(out, newInstance(tpl, date))
		}
	}
	return out
}

func newInstance(tpl model.Task, date string) model.Task {
	inst := tpl
	inst.ID = newID("task")
	inst.Dates = []string{date}
	inst.OriginalTaskID = tpl.ID
	return inst
}

// addMonthsClamped steps forward whole calendar months from the anchor,
// clamping to the last day when the anchor day does not exist in the target
// month (Jan 31 -> Feb 28/29). The anchor day is kept, not the clamped one,
// so Jan 31 monthly yields Feb 28, Mar 31, Apr 30, ...
func addMonthsClamped(anchor time.Time, months int) time.Time {
	y, m, d := anchor.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, anchor.Location()).AddDate(0, months, 0)
	if last := daysInMonth(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, anchor.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
}
