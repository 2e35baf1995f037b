//go:build linux

package linux

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/stigoleg/caffeine/internal/keepalive"
)

// Control service coordinates on the session bus.
const (
	ControlName  = "io.github.stigoleg.Caffeine"
	ControlPath  = dbus.ObjectPath("/io/github/stigoleg/Caffeine")
	controlIface = "io.github.stigoleg.Caffeine"
)

// ErrNotRunning is returned by the control client when no daemon owns the
// control name.
var ErrNotRunning = errors.New("caffeine daemon is not running")

const controlXML = `<interface name="` + controlIface + `">
  <method name="Toggle"/>
  <method name="StartTimer">
    <arg name="minutes" type="u" direction="in"/>
  </method>
  <method name="CancelTimer"/>
  <method name="Status">
    <arg name="inhibited" type="b" direction="out"/>
    <arg name="holders" type="as" direction="out"/>
    <arg name="label" type="s" direction="out"/>
  </method>
</interface>`

// Controller is the daemon side of the control service.
type Controller interface {
	Toggle()
	StartTimer(minutes int)
	CancelTimer()
	Status() keepalive.Status
}

type controlObject struct {
	c Controller
}

func (o *controlObject) Toggle() *dbus.Error {
	o.c.Toggle()
	return nil
}

func (o *controlObject) StartTimer(minutes uint32) *dbus.Error {
	if minutes > 24*60 {
		return dbus.MakeFailedError(fmt.Errorf("timer of %d minutes exceeds 24 hours", minutes))
	}
	o.c.StartTimer(int(minutes))
	return nil
}

func (o *controlObject) CancelTimer() *dbus.Error {
	o.c.CancelTimer()
	return nil
}

func (o *controlObject) Status() (bool, []string, string, *dbus.Error) {
	st := o.c.Status()
	holders := st.Holders
	if holders == nil {
		holders = []string{}
	}
	return st.Inhibited, holders, st.TimerLabel, nil
}

// ExportControl claims the control name on bus and serves c. The returned
// function withdraws the service.
func ExportControl(bus *Bus, c Controller) (func() error, error) {
	conn := bus.Conn()
	reply, err := conn.RequestName(ControlName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s: %w", ControlName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, fmt.Errorf("%s: %w", ControlName, keepalive.ErrAlreadyRunning)
	}

	node := "<node>" + controlXML + introspect.IntrospectDataString + "</node>"
	if err := conn.Export(&controlObject{c: c}, ControlPath, controlIface); err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", ControlPath, err)
	}
	if err := conn.Export(introspect.Introspectable(node), ControlPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, fmt.Errorf("failed to export introspection: %w", err)
	}

	return func() error {
		_ = conn.Export(nil, ControlPath, controlIface)
		_ = conn.Export(nil, ControlPath, "org.freedesktop.DBus.Introspectable")
		_, err := conn.ReleaseName(ControlName)
		return err
	}, nil
}

// RemoteStatus is the daemon state as reported over the control service.
type RemoteStatus struct {
	Inhibited bool
	Holders   []string
	Label     string
}

// ControlClient talks to a running daemon.
type ControlClient struct {
	bus *Bus
}

// DialControl connects to the session bus for control calls.
func DialControl() (*ControlClient, error) {
	bus, err := ConnectSession()
	if err != nil {
		return nil, err
	}
	return &ControlClient{bus: bus}, nil
}

// Close closes the client's bus connection.
func (c *ControlClient) Close() error { return c.bus.Close() }

func (c *ControlClient) Toggle() error {
	return c.call("Toggle")
}

func (c *ControlClient) StartTimer(minutes int) error {
	return c.call("StartTimer", uint32(minutes))
}

func (c *ControlClient) CancelTimer() error {
	return c.call("CancelTimer")
}

func (c *ControlClient) Status() (RemoteStatus, error) {
	var st RemoteStatus
	obj := c.bus.Conn().Object(ControlName, ControlPath)
	err := obj.Call(controlIface+".Status", 0).Store(&st.Inhibited, &st.Holders, &st.Label)
	return st, controlError(err)
}

func (c *ControlClient) call(method string, args ...any) error {
	obj := c.bus.Conn().Object(ControlName, ControlPath)
	return controlError(obj.Call(controlIface+"."+method, 0, args...).Err)
}

func controlError(err error) error {
	if err == nil {
		return nil
	}
	var derr dbus.Error
	if errors.As(err, &derr) && derr.Name == "org.freedesktop.DBus.Error.ServiceUnknown" {
		return ErrNotRunning
	}
	return fmt.Errorf("control call failed: %w", err)
}
