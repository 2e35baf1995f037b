// Package schedule runs delayed and repeating callbacks on the goroutine that
// owns the state they touch.
package schedule

import (
	"sync"
	"time"
)

// Cancel stops a scheduled callback. Calling it more than once is safe.
type Cancel func()

// Scheduler arms one-shot and repeating callbacks.
type Scheduler interface {
	After(d time.Duration, fn func()) Cancel
	Every(d time.Duration, fn func()) Cancel
	Now() time.Time
}

// Poster hands a closure to the owning event loop.
type Poster interface {
	Post(fn func())
}

// PosterFunc adapts a plain function to Poster.
type PosterFunc func(fn func())

func (f PosterFunc) Post(fn func()) { f(fn) }

// Loop is the wall-clock Scheduler. Callbacks are never run on the timer
// goroutine; they are posted to the owner and dropped there if cancelled in
// the meantime.
type Loop struct {
	poster Poster
}

// NewLoop creates a wall-clock scheduler that delivers callbacks through p.
func NewLoop(p Poster) *Loop {
	return &Loop{poster: p}
}

func (l *Loop) Now() time.Time { return time.Now() }

// After runs fn once after d.
func (l *Loop) After(d time.Duration, fn func()) Cancel {
	g := &guard{}
	t := time.AfterFunc(d, func() {
		l.poster.Post(func() {
			if g.live() {
				g.stop()
				fn()
			}
		})
	})
	return func() {
		g.stop()
		t.Stop()
	}
}

// Every runs fn each d until cancelled.
func (l *Loop) Every(d time.Duration, fn func()) Cancel {
	g := &guard{}
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.poster.Post(func() {
					if g.live() {
						fn()
					}
				})
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		g.stop()
		once.Do(func() { close(done) })
	}
}

type guard struct {
	mu      sync.Mutex
	stopped bool
}

func (g *guard) live() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.stopped
}

func (g *guard) stop() {
	g.mu.Lock()
	g.stopped = true
	g.mu.Unlock()
}
