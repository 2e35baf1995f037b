// Package inhibittest provides an in-memory session inhibitor service for
// tests. Replies and notifications are queued and delivered only when the
// test calls Flush or Step, so arrival order is under the test's control.
package inhibittest

import (
	"errors"
	"fmt"
	"sort"

	"github.com/stigoleg/caffeine/internal/inhibit"
)

// ErrUnknownCookie is returned by Uninhibit for a cookie the service never issued.
var ErrUnknownCookie = errors.New("unknown cookie")

type lease struct {
	appID string
	path  inhibit.Path
}

// Broker is a fake inhibit.Broker.
type Broker struct {
	// Signals receives added/removed notifications. Attach sets it.
	Signals inhibit.Signals
	// ReplyFirst delivers the acquire reply before the added-notification.
	ReplyFirst bool
	// DropRemoved suppresses removed-notifications.
	DropRemoved bool
	// InhibitErr fails every acquire when set.
	InhibitErr error
	// HoldInhibit swallows acquires without ever replying.
	HoldInhibit bool

	next   uint32
	leases map[uint32]lease
	queue  []func()

	InhibitCalls   []inhibit.Holder
	UninhibitCalls []uint32
	OwnerCalls     int
	ListCalls      int
}

// New creates an empty fake service.
func New() *Broker {
	return &Broker{leases: make(map[uint32]lease)}
}

func (b *Broker) Attach(s inhibit.Signals) { b.Signals = s }

func (b *Broker) Inhibit(holder inhibit.Holder, done func(uint32, error)) {
	b.InhibitCalls = append(b.InhibitCalls, holder)
	if b.HoldInhibit {
		return
	}
	if b.InhibitErr != nil {
		err := b.InhibitErr
		b.queue = append(b.queue, func() { done(0, err) })
		return
	}
	cookie, path := b.add(string(holder))
	reply := func() { done(cookie, nil) }
	added := func() { b.Signals.LeaseAdded(path) }
	if b.ReplyFirst {
		b.queue = append(b.queue, reply, added)
	} else {
		b.queue = append(b.queue, added, reply)
	}
}

func (b *Broker) Uninhibit(cookie uint32, done func(error)) {
	b.UninhibitCalls = append(b.UninhibitCalls, cookie)
	l, ok := b.leases[cookie]
	if !ok {
		b.queue = append(b.queue, func() { done(ErrUnknownCookie) })
		return
	}
	delete(b.leases, cookie)
	if !b.DropRemoved {
		b.queue = append(b.queue, func() { b.Signals.LeaseRemoved(l.path) })
	}
	b.queue = append(b.queue, func() { done(nil) })
}

func (b *Broker) Owner(p inhibit.Path, done func(string, error)) {
	b.OwnerCalls++
	for _, l := range b.leases {
		if l.path == p {
			appID := l.appID
			b.queue = append(b.queue, func() { done(appID, nil) })
			return
		}
	}
	b.queue = append(b.queue, func() { done("", fmt.Errorf("no inhibitor at %s", p)) })
}

func (b *Broker) List(done func([]inhibit.Path, error)) {
	b.ListCalls++
	paths := b.Paths()
	b.queue = append(b.queue, func() { done(paths, nil) })
}

// External simulates another client taking a lease under appID.
func (b *Broker) External(appID string) inhibit.Path {
	_, path := b.add(appID)
	b.queue = append(b.queue, func() { b.Signals.LeaseAdded(path) })
	return path
}

// Restart forgets every lease, as a restarted service would.
func (b *Broker) Restart() {
	b.leases = make(map[uint32]lease)
	b.queue = append(b.queue, func() { b.Signals.ServiceReset() })
}

// Flush delivers queued replies and notifications until none remain.
func (b *Broker) Flush() {
	for b.Step() {
	}
}

// Step delivers one queued event and reports whether there was one.
func (b *Broker) Step() bool {
	if len(b.queue) == 0 {
		return false
	}
	fn := b.queue[0]
	b.queue = b.queue[1:]
	fn()
	return true
}

// Queued returns the number of undelivered events.
func (b *Broker) Queued() int { return len(b.queue) }

// Paths lists the live leases in issue order.
func (b *Broker) Paths() []inhibit.Path {
	cookies := make([]uint32, 0, len(b.leases))
	for c := range b.leases {
		cookies = append(cookies, c)
	}
	sort.Slice(cookies, func(i, j int) bool { return cookies[i] < cookies[j] })
	out := make([]inhibit.Path, len(cookies))
	for i, c := range cookies {
		out[i] = b.leases[c].path
	}
	return out
}

// Held reports how many leases the service holds for appID.
func (b *Broker) Held(appID string) int {
	n := 0
	for _, l := range b.leases {
		if l.appID == appID {
			n++
		}
	}
	return n
}

func (b *Broker) add(appID string) (uint32, inhibit.Path) {
	b.next++
	path := inhibit.Path(fmt.Sprintf("/org/gnome/SessionManager/Inhibitor%d", b.next))
	b.leases[b.next] = lease{appID: appID, path: path}
	return b.next, path
}
