// Package policy turns desktop events into inhibitor requests: configured
// applications running, and windows going fullscreen.
package policy

import (
	"log"
	"slices"

	"github.com/stigoleg/caffeine/internal/inhibit"
)

// Holders is the part of the inhibit Manager the policies drive.
type Holders interface {
	Request(h inhibit.Holder)
	Release(h inhibit.Holder)
	IsActive(h inhibit.Holder) bool
}

// App is one resolved application.
type App interface {
	ID() string
	Running() bool
	// Watch calls fn whenever the running state changes, on the owner's
	// goroutine, until the returned function is called.
	Watch(fn func(running bool)) (unwatch func())
}

// Registry resolves desktop IDs to applications.
type Registry interface {
	Lookup(id string) (App, bool)
}

type appEntry struct {
	app     App
	unwatch func()
}

// AppWatch keeps one running-state subscription per configured, resolvable
// application.
type AppWatch struct {
	registry   Registry
	holders    Holders
	configured []string
	entries    map[string]*appEntry
}

// NewAppWatch creates an AppWatch with nothing configured.
func NewAppWatch(r Registry, h Holders) *AppWatch {
	return &AppWatch{registry: r, holders: h, entries: make(map[string]*appEntry)}
}

// Reconfigure applies a new set of app IDs. Entries in both the old and new
// set keep their subscription.
func (w *AppWatch) Reconfigure(ids []string) {
	w.configured = dedupe(ids)
	w.sync()
}

// Refresh re-resolves the current configuration, e.g. after the set of
// installed applications changed.
func (w *AppWatch) Refresh() {
	w.sync()
}

// Watched returns the IDs that currently have a subscription, sorted.
func (w *AppWatch) Watched() []string {
	out := make([]string, 0, len(w.entries))
	for id := range w.entries {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Close drops every subscription and releases the apps' holders.
func (w *AppWatch) Close() {
	w.configured = nil
	w.sync()
}

func (w *AppWatch) sync() {
	for id, entry := range w.entries {
		if slices.Contains(w.configured, id) {
			if _, ok := w.registry.Lookup(id); ok {
				continue
			}
			log.Printf("apps: %s is no longer installed", id)
		}
		entry.unwatch()
		delete(w.entries, id)
		w.holders.Release(inhibit.Holder(id))
	}

	for _, id := range w.configured {
		if _, ok := w.entries[id]; ok {
			continue
		}
		app, ok := w.registry.Lookup(id)
		if !ok {
			continue
		}
		w.subscribe(id, app)
	}
}

func (w *AppWatch) subscribe(id string, app App) {
	holder := inhibit.Holder(id)
	entry := &appEntry{app: app}
	entry.unwatch = app.Watch(func(running bool) {
		w.stateChanged(holder, running)
	})
	w.entries[id] = entry
	log.Printf("apps: watching %s", id)

	if app.Running() {
		w.stateChanged(holder, true)
	}
}

func (w *AppWatch) stateChanged(h inhibit.Holder, running bool) {
	if running {
		w.holders.Request(h)
		return
	}
	w.holders.Release(h)
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
