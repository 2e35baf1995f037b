package inhibit

import "time"

// PendingTimeout is how long an unconfirmed acquire blocks a new request for
// the same holder.
const PendingTimeout = 30 * time.Second

// pendingRequest joins the two halves of an acquire: the reply carrying the
// cookie and the added-notification carrying the object path. Either may
// arrive first.
type pendingRequest struct {
	holder    Holder
	seq       uint64
	issuedAt  time.Time
	cookie    uint32
	hasCookie bool
	path      Path
	cancelled bool
}

func (p *pendingRequest) complete() bool {
	return p.hasCookie && p.path != ""
}

func (p *pendingRequest) lease() Lease {
	return Lease{Holder: p.holder, Cookie: p.cookie, Path: p.path}
}

// stale reports whether the request has waited too long for either half.
func (p *pendingRequest) stale(now time.Time) bool {
	return now.Sub(p.issuedAt) >= PendingTimeout
}

// pendingTable holds at most one request per holder.
type pendingTable map[Holder]*pendingRequest

func (t pendingTable) byPath(p Path) (*pendingRequest, bool) {
	for _, req := range t {
		if req.path == p {
			return req, true
		}
	}
	return nil, false
}
