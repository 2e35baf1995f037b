//go:build linux

package linux

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/stigoleg/caffeine/internal/schedule"
)

// callTimeout bounds every method call made on the session bus.
const callTimeout = 5 * time.Second

const (
	busDest       = "org.freedesktop.DBus"
	propertiesGet = "org.freedesktop.DBus.Properties.Get"
	propertiesSet = "org.freedesktop.DBus.Properties.Set"
	propsIface    = "org.freedesktop.DBus.Properties"
)

// Bus is a session bus connection that fans incoming signals out to
// handlers registered by member name.
type Bus struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal

	mu       sync.Mutex
	handlers map[string][]func(*dbus.Signal)
	done     chan struct{}
}

// ConnectSession opens a private connection to the session bus.
func ConnectSession() (*Bus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("session bus connect failed: %w", err)
	}
	return NewBus(conn), nil
}

// NewBus starts dispatching signals received on conn.
func NewBus(conn *dbus.Conn) *Bus {
	b := &Bus{
		conn:     conn,
		signals:  make(chan *dbus.Signal, 32),
		handlers: make(map[string][]func(*dbus.Signal)),
		done:     make(chan struct{}),
	}
	conn.Signal(b.signals)
	go b.dispatch()
	return b
}

// Conn returns the underlying connection.
func (b *Bus) Conn() *dbus.Conn { return b.conn }

// Subscribe adds a match rule for iface.member, narrowed by extra, and calls
// fn for every matching signal on the dispatch goroutine.
func (b *Bus) Subscribe(iface, member string, fn func(*dbus.Signal), extra ...dbus.MatchOption) error {
	opts := append([]dbus.MatchOption{
		dbus.WithMatchInterface(iface),
		dbus.WithMatchMember(member),
	}, extra...)
	if err := b.conn.AddMatchSignal(opts...); err != nil {
		return fmt.Errorf("failed to add match for %s.%s: %w", iface, member, err)
	}
	name := iface + "." + member
	b.mu.Lock()
	b.handlers[name] = append(b.handlers[name], fn)
	b.mu.Unlock()
	return nil
}

// Close closes the connection and waits for the dispatcher to stop.
func (b *Bus) Close() error {
	err := b.conn.Close()
	<-b.done
	return err
}

func (b *Bus) dispatch() {
	defer close(b.done)
	for sig := range b.signals {
		b.mu.Lock()
		fns := slices.Clone(b.handlers[sig.Name])
		b.mu.Unlock()
		for _, fn := range fns {
			fn(sig)
		}
	}
}

// call invokes method on dest at path and stores the single reply value.
func call[T any](conn *dbus.Conn, dest string, path dbus.ObjectPath, method string, args ...any) (T, error) {
	var v T
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	err := conn.Object(dest, path).CallWithContext(ctx, method, 0, args...).Store(&v)
	return v, err
}

// callAsync invokes method without blocking and posts done with the reply.
func callAsync[T any](conn *dbus.Conn, post schedule.Poster, dest string, path dbus.ObjectPath, method string, done func(T, error), args ...any) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	c := conn.Object(dest, path).GoWithContext(ctx, method, 0, nil, args...)
	go func() {
		defer cancel()
		<-c.Done
		var v T
		err := c.Store(&v)
		post.Post(func() { done(v, err) })
	}()
}

// callAsyncErr is callAsync for methods without a reply value.
func callAsyncErr(conn *dbus.Conn, post schedule.Poster, dest string, path dbus.ObjectPath, method string, done func(error), args ...any) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	c := conn.Object(dest, path).GoWithContext(ctx, method, 0, nil, args...)
	go func() {
		defer cancel()
		<-c.Done
		err := c.Err
		post.Post(func() { done(err) })
	}()
}

func getProperty[T any](conn *dbus.Conn, dest string, path dbus.ObjectPath, iface, name string) (T, error) {
	var zero T
	v, err := call[dbus.Variant](conn, dest, path, propertiesGet, iface, name)
	if err != nil {
		return zero, err
	}
	out, ok := v.Value().(T)
	if !ok {
		return zero, fmt.Errorf("property %s.%s has type %s", iface, name, v.Signature())
	}
	return out, nil
}

// setPropertyAsync writes a property without blocking and posts done.
func setPropertyAsync(conn *dbus.Conn, post schedule.Poster, dest string, path dbus.ObjectPath, iface, name string, value any, done func(error)) {
	callAsyncErr(conn, post, dest, path, propertiesSet, done, iface, name, dbus.MakeVariant(value))
}

// propertyChange extracts name from a PropertiesChanged signal for iface.
// invalidated is set when the sender dropped the value instead of sending it.
func propertyChange(sig *dbus.Signal, iface, name string) (value dbus.Variant, changed, invalidated bool) {
	if len(sig.Body) != 3 {
		return dbus.Variant{}, false, false
	}
	if got, _ := sig.Body[0].(string); got != iface {
		return dbus.Variant{}, false, false
	}
	if props, ok := sig.Body[1].(map[string]dbus.Variant); ok {
		if v, ok := props[name]; ok {
			return v, true, false
		}
	}
	if names, ok := sig.Body[2].([]string); ok && slices.Contains(names, name) {
		return dbus.Variant{}, false, true
	}
	return dbus.Variant{}, false, false
}
