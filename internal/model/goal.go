package model

import "time"

// Goal is a weekly completion target. Progress is derived from the task
// collection and reset at every week rollover; it is never set directly.
type Goal struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Target   int    `json:"target"`
	Progress int    `json:"progress"`
	Color    string `json:"color,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Met reports whether the goal reached its weekly target.
func (g Goal) Met() bool {
	return g.Target > 0 && g.Progress >= g.Target
}
