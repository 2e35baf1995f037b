//go:build linux

package linux

import (
	"fmt"
	"log"

	"github.com/godbus/dbus/v5"

	"github.com/stigoleg/caffeine/internal/inhibit"
	"github.com/stigoleg/caffeine/internal/schedule"
)

const (
	smDest         = "org.gnome.SessionManager"
	smPath         = dbus.ObjectPath("/org/gnome/SessionManager")
	smIface        = "org.gnome.SessionManager"
	inhibitorIface = "org.gnome.SessionManager.Inhibitor"
)

// GNOME SessionManager inhibit flags.
const (
	gnomeInhibitSuspend = 4 // Inhibit suspending the session
	gnomeInhibitIdle    = 8 // Inhibit the session being marked as idle
	gnomeInhibitBoth    = gnomeInhibitSuspend | gnomeInhibitIdle
)

// SessionBroker is the inhibit.Broker backed by org.gnome.SessionManager.
// Replies and signals are posted to the owner's loop.
type SessionBroker struct {
	bus  *Bus
	post schedule.Poster
}

// NewSessionBroker creates a broker on bus delivering through post.
func NewSessionBroker(bus *Bus, post schedule.Poster) *SessionBroker {
	return &SessionBroker{bus: bus, post: post}
}

// Attach subscribes to the session manager's inhibitor signals and to its
// bus name, so a restarted service resets s.
func (b *SessionBroker) Attach(s inhibit.Signals) {
	onPath := func(fn func(inhibit.Path)) func(*dbus.Signal) {
		return func(sig *dbus.Signal) {
			p, ok := signalPath(sig)
			if !ok {
				return
			}
			b.post.Post(func() { fn(p) })
		}
	}
	subs := []struct {
		member string
		fn     func(*dbus.Signal)
	}{
		{"InhibitorAdded", onPath(s.LeaseAdded)},
		{"InhibitorRemoved", onPath(s.LeaseRemoved)},
	}
	for _, sub := range subs {
		if err := b.bus.Subscribe(smIface, sub.member, sub.fn, dbus.WithMatchObjectPath(smPath)); err != nil {
			log.Printf("linux: %v", err)
		}
	}

	err := b.bus.Subscribe(busDest, "NameOwnerChanged", func(sig *dbus.Signal) {
		if len(sig.Body) != 3 {
			return
		}
		name, _ := sig.Body[0].(string)
		oldOwner, _ := sig.Body[1].(string)
		if name != smDest || oldOwner == "" {
			return
		}
		log.Printf("linux: %s lost its owner %s", smDest, oldOwner)
		b.post.Post(s.ServiceReset)
	}, dbus.WithMatchSender(busDest), dbus.WithMatchArg(0, smDest))
	if err != nil {
		log.Printf("linux: %v", err)
	}
}

func (b *SessionBroker) Inhibit(h inhibit.Holder, done func(uint32, error)) {
	callAsync(b.bus.Conn(), b.post, smDest, smPath, smIface+".Inhibit", done,
		string(h), uint32(0), inhibit.Reason, uint32(gnomeInhibitBoth))
}

func (b *SessionBroker) Uninhibit(cookie uint32, done func(error)) {
	callAsyncErr(b.bus.Conn(), b.post, smDest, smPath, smIface+".Uninhibit", done, cookie)
}

func (b *SessionBroker) Owner(p inhibit.Path, done func(string, error)) {
	callAsync(b.bus.Conn(), b.post, smDest, dbus.ObjectPath(p), inhibitorIface+".GetAppId", done)
}

func (b *SessionBroker) List(done func([]inhibit.Path, error)) {
	callAsync(b.bus.Conn(), b.post, smDest, smPath, smIface+".GetInhibitors", func(paths []dbus.ObjectPath, err error) {
		out := make([]inhibit.Path, len(paths))
		for i, p := range paths {
			out[i] = inhibit.Path(p)
		}
		done(out, err)
	})
}

// InhibitorInfo describes one inhibitor held by any client of the session.
type InhibitorInfo struct {
	Path   string
	AppID  string
	Reason string
	Flags  uint32
}

// Idle reports whether the lease blocks the session from going idle.
func (i InhibitorInfo) Idle() bool { return i.Flags&gnomeInhibitIdle != 0 }

// Suspend reports whether the lease blocks suspend.
func (i InhibitorInfo) Suspend() bool { return i.Flags&gnomeInhibitSuspend != 0 }

// Inhibitors lists every inhibitor the session manager holds. Entries that
// vanish while being described are skipped.
func Inhibitors(bus *Bus) ([]InhibitorInfo, error) {
	conn := bus.Conn()
	paths, err := call[[]dbus.ObjectPath](conn, smDest, smPath, smIface+".GetInhibitors")
	if err != nil {
		return nil, fmt.Errorf("failed to list inhibitors: %w", err)
	}

	out := make([]InhibitorInfo, 0, len(paths))
	for _, p := range paths {
		info := InhibitorInfo{Path: string(p)}
		if info.AppID, err = call[string](conn, smDest, p, inhibitorIface+".GetAppId"); err != nil {
			continue
		}
		if info.Reason, err = call[string](conn, smDest, p, inhibitorIface+".GetReason"); err != nil {
			continue
		}
		if info.Flags, err = call[uint32](conn, smDest, p, inhibitorIface+".GetFlags"); err != nil {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

func signalPath(sig *dbus.Signal) (inhibit.Path, bool) {
	if len(sig.Body) == 0 {
		return "", false
	}
	p, ok := sig.Body[0].(dbus.ObjectPath)
	if !ok || !p.IsValid() {
		return "", false
	}
	return inhibit.Path(p), true
}
