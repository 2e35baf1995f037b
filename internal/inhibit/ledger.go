// Package inhibit tracks which actors hold a session inhibitor lease and
// reconciles asynchronous broker replies with the broker's global
// added/removed notifications.
package inhibit

// Holder names the reason a lease is held.
type Holder string

// Reserved holders. Every other holder is an application ID.
const (
	HolderUser       Holder = "user"
	HolderFullscreen Holder = "fullscreen"
)

// IsApp reports whether h names an application rather than a reserved reason.
func (h Holder) IsApp() bool {
	return h != "" && h != HolderUser && h != HolderFullscreen
}

// Path is the broker's object path for one lease.
type Path string

// Lease is a confirmed inhibitor held on behalf of one holder.
type Lease struct {
	Holder Holder
	Cookie uint32
	Path   Path
}

// Edge describes a change of the aggregate inhibited state.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeInhibited
	EdgeUninhibited
)

func (e Edge) String() string {
	switch e {
	case EdgeInhibited:
		return "inhibited"
	case EdgeUninhibited:
		return "uninhibited"
	default:
		return "none"
	}
}

// Ledger is the ordered set of active leases. It is a value: transitions
// return a new Ledger and never modify the receiver.
type Ledger struct {
	leases []Lease
}

// Inhibited reports whether any lease is active.
func (l Ledger) Inhibited() bool { return len(l.leases) > 0 }

// Len returns the number of active leases.
func (l Ledger) Len() int { return len(l.leases) }

// Holders returns the active holders in acquisition order.
func (l Ledger) Holders() []Holder {
	out := make([]Holder, len(l.leases))
	for i, lease := range l.leases {
		out[i] = lease.Holder
	}
	return out
}

// Leases returns a copy of the active leases.
func (l Ledger) Leases() []Lease {
	return append([]Lease(nil), l.leases...)
}

// Lookup returns the lease held by h.
func (l Ledger) Lookup(h Holder) (Lease, bool) {
	for _, lease := range l.leases {
		if lease.Holder == h {
			return lease, true
		}
	}
	return Lease{}, false
}

// ByPath returns the lease registered under p.
func (l Ledger) ByPath(p Path) (Lease, bool) {
	for _, lease := range l.leases {
		if lease.Path == p {
			return lease, true
		}
	}
	return Lease{}, false
}

// Add appends lease. It refuses a second lease for the same holder.
func (l Ledger) Add(lease Lease) (Ledger, Edge, bool) {
	if _, ok := l.Lookup(lease.Holder); ok {
		return l, EdgeNone, false
	}
	next := Ledger{leases: make([]Lease, 0, len(l.leases)+1)}
	next.leases = append(next.leases, l.leases...)
	next.leases = append(next.leases, lease)

	edge := EdgeNone
	if !l.Inhibited() {
		edge = EdgeInhibited
	}
	return next, edge, true
}

// RemovePath drops the lease registered under p. Unknown paths leave the
// ledger untouched.
func (l Ledger) RemovePath(p Path) (Ledger, Lease, Edge, bool) {
	for i, lease := range l.leases {
		if lease.Path != p {
			continue
		}
		next := Ledger{leases: make([]Lease, 0, len(l.leases)-1)}
		next.leases = append(next.leases, l.leases[:i]...)
		next.leases = append(next.leases, l.leases[i+1:]...)

		edge := EdgeNone
		if !next.Inhibited() {
			edge = EdgeUninhibited
		}
		return next, lease, edge, true
	}
	return l, Lease{}, EdgeNone, false
}
