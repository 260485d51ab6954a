// Package reminder computes when a task's reminders fire and describes
// schedule changes as events for the notification collaborator. Delivery is
// someone else's job; nothing here blocks or fails a task mutation.
package reminder

import (
	"time"

	"weeklybloom/internal/model"
)

const (
	ymdLayout      = "2006-01-02"
	datetimeLayout = "2006-01-02T15:04"
)

const (
	OpAdd    = "add"
	OpCancel = "cancel"
)

// Event is one scheduling change handed to the notification collaborator.
type Event struct {
	TaskID model.TaskID `json:"taskId"`
	Title  string       `json:"title,omitempty"`
	At     time.Time    `json:"at"`
	Op     string       `json:"op"`
}

// Resolve returns the absolute local fire times of a task's reminders.
// Named offsets resolve against the task's anchor date and clock time; a
// task without a clock time produces no non-custom fires. Unresolvable
// reminders are skipped, never an error.
func Resolve(t model.Task) []time.Time {
	if len(t.Reminders) == 0 {
		return nil
	}

	var base time.Time
	haveBase := false
	if t.StartDate() != "" && t.Time != "" {
		if parsed, err := time.ParseInLocation(ymdLayout+"T15:04", t.StartDate()+"T"+t.Time, time.Local); err == nil {
			base = parsed
			haveBase = true
		}
	}

	out := make([]time.Time, 0, len(t.Reminders))
	for _, rem := range t.Reminders {
		if rem.Type == model.ReminderCustom {
			if at, err := time.ParseInLocation(datetimeLayout, rem.At, time.Local); err == nil {
				out = append(out, at)
			}
			continue
		}
		if !haveBase {
			continue
		}
		switch rem.Type {
		case model.ReminderAtEventTime:
			out = append(out, base)
		case model.Reminder10MinBefore:
			out = append(out, base.Add(-10*time.Minute))
		case model.Reminder30MinBefore:
			out = append(out, base.Add(-30*time.Minute))
		case model.Reminder1HrBefore:
			out = append(out, base.Add(-time.Hour))
		case model.Reminder1DayBefore:
			out = append(out, base.AddDate(0, 0, -1))
		case model.Reminder2DaysBefore:
			out = append(out, base.AddDate(0, 0, -2))
		}
	}
	return out
}

// Events expands one task into add or cancel events for each resolved fire
// time.
func Events(t model.Task, op string) []Event {
	times := Resolve(t)
	out := make([]Event, 0, len(times))
	for _, at := range times {
		out = append(out, Event{TaskID: t.ID, Title: t.Title, At: at, Op: op})
	}
	return out
}

// Diff describes a reminder-bearing change: everything previously scheduled
// for the old tasks is canceled, everything the new tasks resolve to is
// added.
func Diff(old, updated []model.Task) []Event {
	out := make([]Event, 0)
	for _, t := range old {
		out = append(out, Events(t, OpCancel)...)
	}
	for _, t := range updated {
		out = append(out, Events(t, OpAdd)...)
	}
	return out
}

// DailyEvents resolves the enabled daily reminders from settings to their
// next fire time at or after now. Each carries a stable synthetic task id
// so the collaborator can replace prior schedules.
func DailyEvents(s model.Settings, now time.Time) []Event {
	type daily struct {
		id      model.TaskID
		title   string
		enabled bool
		at      string
	}
	all := []daily{
		{"daily_morning", "Morning Reminder", s.EnableMorningReminder, s.MorningReminderTime},
		{"daily_afternoon", "Afternoon Reminder", s.EnableAfternoonReminder, s.AfternoonReminderTime},
		{"daily_evening", "Evening Reminder", s.EnableEveningReminder, s.EveningReminderTime},
	}

	out := make([]Event, 0)
	for _, d := range all {
		if !d.enabled || d.at == "" {
			continue
		}
		parsed, err := time.ParseInLocation("15:04", d.at, time.Local)
		if err != nil {
			continue
		}
		fire := time.Date(now.Year(), now.Month(), now.Day(), parsed.Hour(), parsed.Minute(), 0, 0, now.Location())
		if fire.Before(now) {
			fire = fire.AddDate(0, 0, 1)
		}
		out = append(out, Event{TaskID: d.id, Title: d.title, At: fire, Op: OpAdd})
	}
	return out
}
