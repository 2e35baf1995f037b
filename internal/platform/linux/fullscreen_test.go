//go:build linux

package linux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFullscreen(t *testing.T) {
	tests := []struct {
		name   string
		states []string
		want   bool
	}{
		{"plain window", []string{"_NET_WM_STATE_FOCUSED"}, false},
		{"fullscreen", []string{"_NET_WM_STATE_FULLSCREEN", "_NET_WM_STATE_FOCUSED"}, true},
		{"minimised fullscreen", []string{"_NET_WM_STATE_FULLSCREEN", "_NET_WM_STATE_HIDDEN"}, false},
		{"no state", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isFullscreen(tt.states))
		})
	}
}

func TestDisplayNotifiesOnChangeOnly(t *testing.T) {
	d := &X11Display{watchers: make(map[int]func(bool))}
	var seen []bool
	unwatch := d.Watch(func(fs bool) { seen = append(seen, fs) })

	d.set(true)
	d.set(true)
	d.set(false)
	unwatch()
	d.set(true)

	assert.Equal(t, []bool{true, false}, seen)
	assert.True(t, d.Fullscreen())
}

func TestConnectDisplayWithoutX(t *testing.T) {
	t.Setenv("DISPLAY", "")
	_, err := ConnectDisplay(nil)
	assert.ErrorIs(t, err, ErrNoDisplay)
}
