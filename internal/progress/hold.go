package progress

import (
	"sync"
	"time"

	"weeklybloom/internal/clock"
)

// Hold models the press-and-hold confirmation gesture. Time only moves
// through the injected clock; nothing here spawns goroutines, so a
// release or a fresh press is the only way the gesture resolves.
type Hold struct {
	mu        sync.Mutex
	clk       clock.Clock
	duration  time.Duration
	pressedAt time.Time
	pressed   bool
}

func NewHold(clk clock.Clock, duration time.Duration) *Hold {
	if duration <= 0 {
		duration = 3 * time.Second
	}
	return &Hold{clk: clk, duration: duration}
}

// Press starts the gesture. Pressing again restarts it from zero.
func (h *Hold) Press() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pressed = true
	h.pressedAt = h.clk.Now()
}

// Percent reports how far along the hold is, 0..100. An idle gesture
// reads zero.
func (h *Hold) Percent() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.percentLocked()
}

func (h *Hold) percentLocked() int {
	if !h.pressed {
		return 0
	}
	held := h.clk.Now().Sub(h.pressedAt)
	if held >= h.duration {
		return 100
	}
	return int(held * 100 / h.duration)
}

// Release ends the gesture and reports whether it was held to completion.
// Releasing early cancels with no effect.
func (h *Hold) Release() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	done := h.percentLocked() >= 100
	h.pressed = false
	return done
}

// Cancel aborts the gesture without evaluating it.
func (h *Hold) Cancel() {
	h.mu.Lock()
	h.pressed = false
	h.mu.Unlock()
}
