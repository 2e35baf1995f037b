package inhibittest

import (
	"github.com/stigoleg/caffeine/internal/inhibit"
	"github.com/stigoleg/caffeine/internal/schedule"
)

// Posted delivers the fake service's replies through post after every call,
// the way the D-Bus broker hands them to its owner's loop.
type Posted struct {
	*Broker
	post schedule.Poster
}

// NewPosted creates an empty fake service delivering through post.
func NewPosted(post schedule.Poster) *Posted {
	return &Posted{Broker: New(), post: post}
}

func (b *Posted) Inhibit(h inhibit.Holder, done func(uint32, error)) {
	b.Broker.Inhibit(h, done)
	b.post.Post(b.Flush)
}

func (b *Posted) Uninhibit(cookie uint32, done func(error)) {
	b.Broker.Uninhibit(cookie, done)
	b.post.Post(b.Flush)
}

func (b *Posted) Owner(p inhibit.Path, done func(string, error)) {
	b.Broker.Owner(p, done)
	b.post.Post(b.Flush)
}

func (b *Posted) List(done func([]inhibit.Path, error)) {
	b.Broker.List(done)
	b.post.Post(b.Flush)
}
