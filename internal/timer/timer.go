// Package timer implements the countdown that switches inhibition off after a
// chosen number of minutes.
package timer

import (
	"fmt"
	"log"
	"time"

	"github.com/stigoleg/caffeine/internal/schedule"
)

// Presets are the durations offered in menus, in minutes. Zero means no limit.
var Presets = []int{5, 10, 30, 0}

// Phase is the tag of a timer State.
type Phase int

const (
	Idle Phase = iota
	Infinite
	Countdown
)

func (p Phase) String() string {
	switch p {
	case Infinite:
		return "infinite"
	case Countdown:
		return "countdown"
	default:
		return "idle"
	}
}

// State is the timer's value. Remaining is only meaningful in Countdown.
type State struct {
	Phase     Phase
	Minutes   int
	Remaining int
}

// Start returns the state entered by starting a timer of minutes.
func Start(minutes int) State {
	if minutes <= 0 {
		return State{Phase: Infinite}
	}
	return State{Phase: Countdown, Minutes: minutes, Remaining: minutes * 60}
}

// Tick returns the state one second later.
func (s State) Tick() State {
	if s.Phase != Countdown || s.Remaining == 0 {
		return s
	}
	s.Remaining--
	return s
}

// Cancel returns the idle state. With reset the configured duration is
// cleared too.
func (s State) Cancel(reset bool) State {
	next := State{Phase: Idle, Minutes: s.Minutes}
	if reset {
		next.Minutes = 0
	}
	return next
}

// Running reports whether a countdown is in progress.
func (s State) Running() bool { return s.Phase == Countdown }

// Label renders the remaining time, or "" when no countdown runs.
func (s State) Label() string {
	if s.Phase != Countdown {
		return ""
	}
	return FormatLabel(s.Remaining)
}

// FormatLabel renders seconds as minutes and zero-padded seconds.
func FormatLabel(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Controller arms the tick and expiry schedules for the current State.
// Like the Scheduler it runs on, it is owned by a single goroutine.
type Controller struct {
	sched    schedule.Scheduler
	state    State
	tick     schedule.Cancel
	expire   schedule.Cancel
	onTick   func(State)
	onExpire func()
}

// New creates an idle Controller. onTick runs after every countdown second;
// onExpire runs once when a countdown reaches its end.
func New(s schedule.Scheduler, onTick func(State), onExpire func()) *Controller {
	return &Controller{sched: s, onTick: onTick, onExpire: onExpire}
}

// State returns the current timer state.
func (c *Controller) State() State { return c.state }

// Start tears down any running timer and starts a new one.
func (c *Controller) Start(minutes int) State {
	c.teardown()
	c.state = Start(minutes)

	if c.state.Phase == Countdown {
		c.tick = c.sched.Every(time.Second, c.handleTick)
		c.expire = c.sched.After(time.Duration(c.state.Remaining)*time.Second, c.handleExpire)
		log.Printf("timer: started (%d min)", minutes)
	} else {
		log.Printf("timer: started (infinite)")
	}
	return c.state
}

// Cancel stops the timer. With reset the configured duration is cleared.
func (c *Controller) Cancel(reset bool) {
	if c.state.Phase != Idle {
		log.Printf("timer: cancelled (reset=%t)", reset)
	}
	c.teardown()
	c.state = c.state.Cancel(reset)
}

func (c *Controller) teardown() {
	if c.tick != nil {
		c.tick()
		c.tick = nil
	}
	if c.expire != nil {
		c.expire()
		c.expire = nil
	}
}

func (c *Controller) handleTick() {
	c.state = c.state.Tick()
	if c.onTick != nil {
		c.onTick(c.state)
	}
}

func (c *Controller) handleExpire() {
	c.expire = nil
	log.Printf("timer: expired")
	c.Cancel(true)
	if c.onExpire != nil {
		c.onExpire()
	}
}
