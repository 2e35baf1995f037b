package inhibit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerTransitions(t *testing.T) {
	var l Ledger
	assert.False(t, l.Inhibited())

	l1, edge, ok := l.Add(Lease{Holder: HolderUser, Cookie: 1, Path: "/a"})
	assert.True(t, ok)
	assert.Equal(t, EdgeInhibited, edge)
	assert.False(t, l.Inhibited(), "receiver must not change")

	l2, edge, ok := l1.Add(Lease{Holder: "firefox.desktop", Cookie: 2, Path: "/b"})
	assert.True(t, ok)
	assert.Equal(t, EdgeNone, edge)

	_, _, ok = l2.Add(Lease{Holder: HolderUser, Cookie: 3, Path: "/c"})
	assert.False(t, ok, "duplicate holder")

	l3, removed, edge, ok := l2.RemovePath("/a")
	assert.True(t, ok)
	assert.Equal(t, HolderUser, removed.Holder)
	assert.Equal(t, EdgeNone, edge)
	assert.Equal(t, []Holder{"firefox.desktop"}, l3.Holders())

	_, _, _, ok = l3.RemovePath("/nope")
	assert.False(t, ok)

	l4, _, edge, ok := l3.RemovePath("/b")
	assert.True(t, ok)
	assert.Equal(t, EdgeUninhibited, edge)
	assert.False(t, l4.Inhibited())
	assert.Equal(t, 2, l2.Len())
}

func TestHolderIsApp(t *testing.T) {
	tests := []struct {
		holder Holder
		want   bool
	}{
		{HolderUser, false},
		{HolderFullscreen, false},
		{"", false},
		{"org.gnome.Totem.desktop", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.holder), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.holder.IsApp())
		})
	}
}
