package policy

import (
	"log"
	"time"

	"github.com/stigoleg/caffeine/internal/inhibit"
	"github.com/stigoleg/caffeine/internal/schedule"
)

// SettleDelay is how long a window must stay fullscreen before the session
// is inhibited for it.
const SettleDelay = 2 * time.Second

// Display reports whether any monitor shows a fullscreen window.
type Display interface {
	Fullscreen() bool
	// Watch calls fn on the owner's goroutine when the fullscreen state may
	// have changed, until the returned function is called.
	Watch(fn func(fullscreen bool)) (unwatch func())
}

// FullscreenWatch holds the "fullscreen" holder while a window is fullscreen.
type FullscreenWatch struct {
	display Display
	holders Holders
	sched   schedule.Scheduler
	unwatch func()
	settle  schedule.Cancel
}

// NewFullscreenWatch creates a stopped FullscreenWatch.
func NewFullscreenWatch(d Display, h Holders, s schedule.Scheduler) *FullscreenWatch {
	return &FullscreenWatch{display: d, holders: h, sched: s}
}

// Running reports whether the watch is subscribed.
func (w *FullscreenWatch) Running() bool { return w.unwatch != nil }

// Fullscreen reports the display's current state. A stopped watch reports false.
func (w *FullscreenWatch) Fullscreen() bool {
	return w.unwatch != nil && w.display.Fullscreen()
}

// Start subscribes to the display and evaluates the current state.
func (w *FullscreenWatch) Start() {
	if w.unwatch != nil {
		return
	}
	w.unwatch = w.display.Watch(w.changed)
	log.Printf("fullscreen: watching")
	w.changed(w.display.Fullscreen())
}

// Stop unsubscribes and releases the fullscreen holder.
func (w *FullscreenWatch) Stop() {
	if w.unwatch == nil {
		return
	}
	w.unwatch()
	w.unwatch = nil
	w.cancelSettle()
	w.holders.Release(inhibit.HolderFullscreen)
	log.Printf("fullscreen: stopped")
}

func (w *FullscreenWatch) changed(fullscreen bool) {
	active := w.holders.IsActive(inhibit.HolderFullscreen)
	switch {
	case fullscreen && !active:
		if w.settle != nil {
			return
		}
		w.settle = w.sched.After(SettleDelay, w.settled)
	case !fullscreen:
		w.cancelSettle()
		w.holders.Release(inhibit.HolderFullscreen)
	}
}

func (w *FullscreenWatch) settled() {
	w.settle = nil
	if w.unwatch == nil || !w.display.Fullscreen() {
		return
	}
	if !w.holders.IsActive(inhibit.HolderFullscreen) {
		log.Printf("fullscreen: window stayed fullscreen, inhibiting")
		w.holders.Request(inhibit.HolderFullscreen)
	}
}

func (w *FullscreenWatch) cancelSettle() {
	if w.settle != nil {
		w.settle()
		w.settle = nil
	}
}
