package inhibit

import (
	"log"
	"time"

	"github.com/stigoleg/caffeine/internal/schedule"
)

// ReconcileAfter is how long a released lease may linger before the Manager
// asks the broker whether it still exists.
const ReconcileAfter = 5 * time.Second

// ChangeKind tells whether a Change added or removed a lease.
type ChangeKind int

const (
	LeaseAdded ChangeKind = iota
	LeaseRemoved
)

// Change is emitted to observers after every ledger transition.
type Change struct {
	Kind    ChangeKind
	Holder  Holder
	Edge    Edge
	Holders []Holder
}

// Manager owns the ledger and the pending-request table. It is not safe for
// concurrent use; every method, and every broker callback, must run on the
// same goroutine.
type Manager struct {
	broker    Broker
	sched     schedule.Scheduler
	ledger    Ledger
	pending   pendingTable
	releasing map[Path]schedule.Cancel
	observers []func(Change)
	seq       uint64
}

// NewManager creates a Manager issuing requests through b and attaches it to
// b's notifications.
func NewManager(b Broker, s schedule.Scheduler) *Manager {
	m := &Manager{
		broker:    b,
		sched:     s,
		pending:   make(pendingTable),
		releasing: make(map[Path]schedule.Cancel),
	}
	b.Attach(m)
	return m
}

// OnChange registers fn to observe every ledger transition.
func (m *Manager) OnChange(fn func(Change)) {
	m.observers = append(m.observers, fn)
}

// Inhibited reports whether any holder has an active lease.
func (m *Manager) Inhibited() bool { return m.ledger.Inhibited() }

// Holders returns the active holders.
func (m *Manager) Holders() []Holder { return m.ledger.Holders() }

// Ledger returns the current ledger value.
func (m *Manager) Ledger() Ledger { return m.ledger }

// Idle reports whether no lease is held and no acquire is in flight.
func (m *Manager) Idle() bool {
	return m.ledger.Len() == 0 && len(m.pending) == 0
}

// IsActive reports whether h holds a confirmed lease.
func (m *Manager) IsActive(h Holder) bool {
	_, ok := m.ledger.Lookup(h)
	return ok
}

// IsPending reports whether an acquire for h is in flight.
func (m *Manager) IsPending(h Holder) bool {
	req, ok := m.pending[h]
	return ok && !req.cancelled
}

// Request asks the broker for a lease on behalf of h. It is a no-op when h is
// already active or has a live request outstanding.
func (m *Manager) Request(h Holder) {
	if m.IsActive(h) {
		return
	}
	if req, ok := m.pending[h]; ok {
		if req.cancelled {
			// The in-flight acquire is simply adopted again.
			req.cancelled = false
			return
		}
		if !req.stale(m.sched.Now()) {
			return
		}
		log.Printf("inhibit: request for %s unconfirmed after %v, reissuing", h, PendingTimeout)
		if req.hasCookie {
			m.dropCookie(h, req.cookie)
		}
	}

	m.seq++
	req := &pendingRequest{holder: h, seq: m.seq, issuedAt: m.sched.Now()}
	m.pending[h] = req
	log.Printf("inhibit: requesting lease for %s", h)

	m.broker.Inhibit(h, func(cookie uint32, err error) {
		m.acquired(req, cookie, err)
	})
}

// Release gives up the lease held by h. The ledger entry disappears when the
// broker confirms the removal. A request still in flight for h is cancelled.
func (m *Manager) Release(h Holder) {
	m.cancelPending(h)
	lease, ok := m.ledger.Lookup(h)
	if !ok {
		return
	}
	if _, busy := m.releasing[lease.Path]; busy {
		return
	}
	m.releasing[lease.Path] = func() {}
	log.Printf("inhibit: releasing lease for %s (cookie %d)", h, lease.Cookie)

	m.broker.Uninhibit(lease.Cookie, func(err error) {
		if err != nil {
			log.Printf("inhibit: release for %s failed: %v", h, err)
			delete(m.releasing, lease.Path)
			return
		}
		if _, still := m.releasing[lease.Path]; still {
			m.releasing[lease.Path] = m.sched.After(ReconcileAfter, func() {
				m.reconcile(lease.Path)
			})
		}
	})
}

// ReleaseAll releases every active holder and cancels every pending request.
func (m *Manager) ReleaseAll() {
	for h := range m.pending {
		m.cancelPending(h)
	}
	for _, h := range m.ledger.Holders() {
		m.Release(h)
	}
}

// LeaseAdded handles the broker's global added-notification. Only paths whose
// owner matches a pending request are admitted.
func (m *Manager) LeaseAdded(p Path) {
	if len(m.pending) == 0 {
		return
	}
	if _, ok := m.ledger.ByPath(p); ok {
		return
	}
	m.broker.Owner(p, func(appID string, err error) {
		if err != nil {
			log.Printf("inhibit: resolving owner of %s failed: %v", p, err)
			return
		}
		m.resolved(p, Holder(appID))
	})
}

// LeaseRemoved handles the broker's global removed-notification. Paths that
// were never recorded locally are ignored.
func (m *Manager) LeaseRemoved(p Path) {
	if req, ok := m.pending.byPath(p); ok {
		log.Printf("inhibit: lease for %s vanished before it was confirmed", req.holder)
		delete(m.pending, req.holder)
		return
	}
	m.remove(p)
}

// ServiceReset drops all local state after the broker went away. Its leases
// died with it.
func (m *Manager) ServiceReset() {
	if m.ledger.Len() == 0 && len(m.pending) == 0 {
		return
	}
	log.Printf("inhibit: session service reset, dropping %d lease(s) and %d pending request(s)", m.ledger.Len(), len(m.pending))
	m.pending = make(pendingTable)
	for _, lease := range m.ledger.Leases() {
		m.remove(lease.Path)
	}
}

func (m *Manager) acquired(req *pendingRequest, cookie uint32, err error) {
	current, tracked := m.pending[req.holder]
	if !tracked || current.seq != req.seq {
		// Superseded by a reissued request; nobody will ever claim this lease.
		if err == nil {
			m.dropCookie(req.holder, cookie)
		}
		return
	}
	if err != nil {
		log.Printf("inhibit: request for %s failed: %v", req.holder, err)
		delete(m.pending, req.holder)
		return
	}

	req.cookie = cookie
	req.hasCookie = true

	if req.cancelled {
		delete(m.pending, req.holder)
		m.dropCookie(req.holder, cookie)
		return
	}
	m.promote(req)
}

// cancelPending withdraws the in-flight request for h. If the cookie is
// already known the lease exists on the broker side and is released now.
func (m *Manager) cancelPending(h Holder) {
	req, ok := m.pending[h]
	if !ok {
		return
	}
	if req.hasCookie {
		delete(m.pending, h)
		m.dropCookie(h, req.cookie)
		return
	}
	req.cancelled = true
}

// dropCookie releases a lease that never made it into the ledger.
func (m *Manager) dropCookie(h Holder, cookie uint32) {
	log.Printf("inhibit: releasing unclaimed lease for %s (cookie %d)", h, cookie)
	m.broker.Uninhibit(cookie, func(err error) {
		if err != nil {
			log.Printf("inhibit: releasing cookie %d failed: %v", cookie, err)
		}
	})
}

func (m *Manager) resolved(p Path, h Holder) {
	req, ok := m.pending[h]
	if !ok || req.path != "" {
		return
	}
	req.path = p
	m.promote(req)
}

func (m *Manager) promote(req *pendingRequest) {
	if !req.complete() || req.cancelled {
		return
	}
	delete(m.pending, req.holder)

	next, edge, ok := m.ledger.Add(req.lease())
	if !ok {
		return
	}
	m.ledger = next
	log.Printf("inhibit: lease confirmed for %s (cookie %d, %s)", req.holder, req.cookie, req.path)
	m.emit(Change{Kind: LeaseAdded, Holder: req.holder, Edge: edge, Holders: next.Holders()})
}

func (m *Manager) remove(p Path) {
	next, lease, edge, ok := m.ledger.RemovePath(p)
	if !ok {
		return
	}
	if cancel, ok := m.releasing[p]; ok {
		cancel()
		delete(m.releasing, p)
	}
	m.ledger = next
	log.Printf("inhibit: lease removed for %s", lease.Holder)
	m.emit(Change{Kind: LeaseRemoved, Holder: lease.Holder, Edge: edge, Holders: next.Holders()})
}

func (m *Manager) reconcile(p Path) {
	if _, ok := m.ledger.ByPath(p); !ok {
		return
	}
	m.broker.List(func(paths []Path, err error) {
		if err != nil {
			log.Printf("inhibit: reconciling %s failed: %v", p, err)
			return
		}
		for _, live := range paths {
			if live == p {
				return
			}
		}
		log.Printf("inhibit: no removal seen for %s, dropping it", p)
		m.remove(p)
	})
}

func (m *Manager) emit(c Change) {
	for _, fn := range m.observers {
		fn(c)
	}
}
