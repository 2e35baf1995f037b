//go:build linux

package linux

import (
	"log"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/stigoleg/caffeine/internal/schedule"
)

const (
	notifyDest  = "org.freedesktop.Notifications"
	notifyPath  = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyIface = "org.freedesktop.Notifications"
)

// Notifier sends desktop notifications. Each one replaces the previous, so
// quick toggling does not pile up entries.
type Notifier struct {
	bus     *Bus
	post    schedule.Poster
	appName string
	icon    string

	mu   sync.Mutex
	last uint32
}

// NewNotifier creates a notifier that signs notifications as appName.
func NewNotifier(bus *Bus, post schedule.Poster, appName, icon string) *Notifier {
	return &Notifier{bus: bus, post: post, appName: appName, icon: icon}
}

// Notify shows summary and body without waiting for the notification
// daemon; delivery failures are logged when the reply arrives. Transient
// notifications bypass the notification list, like an on-screen display.
func (n *Notifier) Notify(summary, body string, transient bool) error {
	hints := map[string]dbus.Variant{}
	if transient {
		hints["transient"] = dbus.MakeVariant(true)
	}

	n.mu.Lock()
	replaces := n.last
	n.mu.Unlock()

	callAsync(n.bus.Conn(), n.post, notifyDest, notifyPath, notifyIface+".Notify", func(id uint32, err error) {
		if err != nil {
			log.Printf("linux: failed to send notification %q: %v", summary, err)
			return
		}
		n.mu.Lock()
		n.last = id
		n.mu.Unlock()
	}, n.appName, replaces, n.icon, summary, body, []string{}, hints, int32(-1))
	return nil
}
