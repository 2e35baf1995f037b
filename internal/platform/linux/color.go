//go:build linux

package linux

import (
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/godbus/dbus/v5"

	"github.com/stigoleg/caffeine/internal/schedule"
)

const (
	colorDest  = "org.gnome.SettingsDaemon.Color"
	colorPath  = dbus.ObjectPath("/org/gnome/SettingsDaemon/Color")
	colorIface = "org.gnome.SettingsDaemon.Color"

	nightLightActive = "NightLightActive"
)

// ErrNightLightGone is returned by Active while the settings daemon is not on
// the bus.
var ErrNightLightGone = errors.New("night light service is not running")

// NightLight controls the settings daemon's night light. Active is served
// from a cache kept current by PropertiesChanged, and writes never block.
type NightLight struct {
	bus  *Bus
	post schedule.Poster

	active    atomic.Bool
	available atomic.Bool
}

// NewNightLight creates a night light client on bus delivering write
// outcomes through post.
func NewNightLight(bus *Bus, post schedule.Poster) *NightLight {
	return &NightLight{bus: bus, post: post}
}

// Load reads the current state and starts following changes. It blocks, so
// it runs once at startup.
func (n *NightLight) Load() error {
	active, err := getProperty[bool](n.bus.Conn(), colorDest, colorPath, colorIface, nightLightActive)
	if err != nil {
		return fmt.Errorf("failed to read night light state: %w", err)
	}
	n.active.Store(active)
	n.available.Store(true)

	err = n.bus.Subscribe(propsIface, "PropertiesChanged", n.propertiesChanged,
		dbus.WithMatchObjectPath(colorPath), dbus.WithMatchArg(0, colorIface))
	if err != nil {
		return err
	}
	return n.bus.Subscribe(busDest, "NameOwnerChanged", n.ownerChanged,
		dbus.WithMatchSender(busDest), dbus.WithMatchArg(0, colorDest))
}

// Active reports whether night light is currently tinting the screen.
func (n *NightLight) Active() (bool, error) {
	if !n.available.Load() {
		return false, ErrNightLightGone
	}
	return n.active.Load(), nil
}

// SetDisabledUntilTomorrow pauses or resumes night light.
func (n *NightLight) SetDisabledUntilTomorrow(disabled bool, done func(error)) {
	setPropertyAsync(n.bus.Conn(), n.post, colorDest, colorPath, colorIface, "DisabledUntilTomorrow", disabled, func(err error) {
		if err != nil {
			err = fmt.Errorf("failed to set night light pause: %w", err)
		}
		done(err)
	})
}

func (n *NightLight) propertiesChanged(sig *dbus.Signal) {
	v, changed, invalidated := propertyChange(sig, colorIface, nightLightActive)
	switch {
	case changed:
		n.store(v)
	case invalidated:
		n.refresh()
	}
}

func (n *NightLight) ownerChanged(sig *dbus.Signal) {
	if len(sig.Body) != 3 {
		return
	}
	name, _ := sig.Body[0].(string)
	newOwner, _ := sig.Body[2].(string)
	if name != colorDest {
		return
	}
	if newOwner == "" {
		log.Printf("nightlight: %s left the bus", colorDest)
		n.available.Store(false)
		return
	}
	n.refresh()
}

func (n *NightLight) refresh() {
	callAsync(n.bus.Conn(), n.post, colorDest, colorPath, propertiesGet, func(v dbus.Variant, err error) {
		if err != nil {
			log.Printf("nightlight: refreshing state failed: %v", err)
			return
		}
		n.store(v)
	}, colorIface, nightLightActive)
}

func (n *NightLight) store(v dbus.Variant) {
	active, ok := v.Value().(bool)
	if !ok {
		log.Printf("nightlight: %s has type %s", nightLightActive, v.Signature())
		return
	}
	n.active.Store(active)
	n.available.Store(true)
}
