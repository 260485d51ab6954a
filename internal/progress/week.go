// Package progress tracks goal completion, the daily streak, and the
// day/week rollover bookkeeping around them. It operates on plain model
// values and never reaches into the task or goal repositories directly.
package progress

import "time"

const ymdLayout = "2006-01-02"

// weekStartOf truncates t to the first day of its week. weekStartsOn is
// "Sun" or "Mon"; anything else means Monday.
func weekStartOf(t time.Time, weekStartsOn string) time.Time {
	wd := int(t.Weekday()) // 0 = Sunday
	offset := (wd + 6) % 7 // days since Monday
	if weekStartsOn == "Sun" {
		offset = wd
	}
	start := t.AddDate(0, 0, -offset)
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, t.Location())
}

// weekWindow returns the inclusive [start, end] date strings of the week
// containing today. A malformed today yields an empty window that matches
// nothing.
func weekWindow(today, weekStartsOn string) (string, string) {
	t, err := time.ParseInLocation(ymdLayout, today, time.Local)
	if err != nil {
		return "", ""
	}
	start := weekStartOf(t, weekStartsOn)
	return start.Format(ymdLayout), start.AddDate(0, 0, 6).Format(ymdLayout)
}

// weekKey condenses a time into a comparable ISO week cursor.
func weekKey(t time.Time) int {
	y, w := t.ISOWeek()
	return y*100 + w
}
