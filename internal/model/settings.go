package model

// Settings is the user configuration object. The core only interprets
// WeekStartsOn and Notifications; everything else is carried for the UI
// and notification collaborators.
type Settings struct {
	WeekStartsOn  string `json:"weekStartsOn"` // "Mon" or "Sun"
	Notifications bool   `json:"notifications"`
	Sound         bool   `json:"sound"`
	Vibration     bool   `json:"vibration"`
	DarkMode      bool   `json:"darkMode"`

	EnableMorningReminder   bool   `json:"enableMorningReminder"`
	MorningReminderTime     string `json:"morningReminderTime"`
	EnableAfternoonReminder bool   `json:"enableAfternoonReminder"`
	AfternoonReminderTime   string `json:"afternoonReminderTime"`
	EnableEveningReminder   bool   `json:"enableEveningReminder"`
	EveningReminderTime     string `json:"eveningReminderTime"`
}

func DefaultSettings() Settings {
	return Settings{
		WeekStartsOn:          "Mon",
		Notifications:         true,
		Sound:                 true,
		Vibration:             true,
		MorningReminderTime:   "08:00",
		AfternoonReminderTime: "12:00",
		EveningReminderTime:   "18:00",
	}
}
