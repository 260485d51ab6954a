package model

import (
	"slices"
	"time"
)

type TaskID string

// Recurrence rule names. The empty string means the task does not recur.
const (
	RecurrenceNone    = ""
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
	RecurrenceYearly  = "yearly"
	RecurrenceCustom  = "custom"
)

// Reminder offset names resolved against the task's date and time.
// ReminderCustom carries its own absolute timestamp instead.
const (
	ReminderAtEventTime = "atEventTime"
	Reminder10MinBefore = "10minBefore"
	Reminder30MinBefore = "30minBefore"
	Reminder1HrBefore   = "1hrBefore"
	Reminder1DayBefore  = "1dayBefore"
	Reminder2DaysBefore = "2daysBefore"
	ReminderCustom      = "custom"
)

type Reminder struct {
	Type string `json:"type"`
	// At is a local "2006-01-02T15:04" timestamp, set only for custom reminders.
	At string `json:"at,omitempty"`
}

type Task struct {
	ID        TaskID   `json:"id"`
	Title     string   `json:"title"`
	Completed bool     `json:"completed"`
	Dates     []string `json:"dates"`          // "YYYY-MM-DD", sorted ascending
	Time      string   `json:"time,omitempty"` // "HH:MM"

	Recurrence       string  `json:"recurrence,omitempty"`
	SelectedWeekdays []int   `json:"selectedWeekdays,omitempty"` // 0=Sunday .. 6=Saturday
	Until            *string `json:"until,omitempty"`            // inclusive end date
	OriginalTaskID   TaskID  `json:"originalTaskId,omitempty"`   // template this instance was generated from

	GoalID    string     `json:"goalId,omitempty"`
	Order     int        `json:"order"` // dense, zero-based within a date
	Reminders []Reminder `json:"reminders,omitempty"`

	Important       bool   `json:"important,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	IsShift         bool   `json:"isShift,omitempty"`
	ShiftDuration   int    `json:"shiftDuration,omitempty"`
	ShiftLetter     string `json:"shiftLetter,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsRecurring reports whether the task belongs to a recurrence family,
// either as the template or as a generated instance.
func (t Task) IsRecurring() bool {
	return t.Recurrence != RecurrenceNone || t.OriginalTaskID != ""
}

// FamilyRoot returns the template id identifying the task's recurrence
// family: its own id for templates and non-recurring tasks.
func (t Task) FamilyRoot() TaskID {
	if t.OriginalTaskID != "" {
		return t.OriginalTaskID
	}
	return t.ID
}

func (t Task) HasDate(date string) bool {
	return slices.Contains(t.Dates, date)
}

// StartDate is the task's anchor date, or "" for free-floating notes.
func (t Task) StartDate() string {
	if len(t.Dates) == 0 {
		return ""
	}
	return t.Dates[0]
}
