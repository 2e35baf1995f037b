//go:build linux

package linux

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/stigoleg/caffeine/internal/schedule"
)

const fullscreenPollInterval = time.Second

// ErrNoDisplay is returned by ConnectDisplay when no X server is reachable.
var ErrNoDisplay = errors.New("no X display available")

// X11Display reports fullscreen windows through EWMH. Fullscreen and Watch
// belong to the owner's loop; Run polls the window manager in the
// background.
type X11Display struct {
	xu       *xgbutil.XUtil
	post     schedule.Poster
	interval time.Duration

	fullscreen bool
	watchers   map[int]func(bool)
	next       int
}

// ConnectDisplay opens the X display named by $DISPLAY, which under Wayland
// is XWayland.
func ConnectDisplay(post schedule.Poster) (*X11Display, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, ErrNoDisplay
	}
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDisplay, err)
	}
	d := &X11Display{
		xu:       xu,
		post:     post,
		interval: fullscreenPollInterval,
		watchers: make(map[int]func(bool)),
	}
	d.fullscreen = d.query()
	return d, nil
}

func (d *X11Display) Fullscreen() bool { return d.fullscreen }

func (d *X11Display) Watch(fn func(bool)) func() {
	d.next++
	id := d.next
	d.watchers[id] = fn
	return func() { delete(d.watchers, id) }
}

// Run polls until ctx is done.
func (d *X11Display) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fs := d.query()
			d.post.Post(func() { d.set(fs) })
		}
	}
}

// Close closes the X connection.
func (d *X11Display) Close() error {
	d.xu.Conn().Close()
	return nil
}

func (d *X11Display) set(fullscreen bool) {
	if fullscreen == d.fullscreen {
		return
	}
	d.fullscreen = fullscreen
	log.Printf("fullscreen: display fullscreen=%t", fullscreen)
	fns := make([]func(bool), 0, len(d.watchers))
	for _, fn := range d.watchers {
		fns = append(fns, fn)
	}
	for _, fn := range fns {
		fn(fullscreen)
	}
}

func (d *X11Display) query() bool {
	clients, err := ewmh.ClientListGet(d.xu)
	if err != nil {
		return false
	}
	return slices.ContainsFunc(clients, d.windowFullscreen)
}

func (d *X11Display) windowFullscreen(w xproto.Window) bool {
	states, err := ewmh.WmStateGet(d.xu, w)
	if err != nil {
		return false
	}
	return isFullscreen(states)
}

// isFullscreen reports whether a window with these _NET_WM_STATE atoms
// covers its monitor.
func isFullscreen(states []string) bool {
	return slices.Contains(states, "_NET_WM_STATE_FULLSCREEN") &&
		!slices.Contains(states, "_NET_WM_STATE_HIDDEN")
}
