package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stigoleg/caffeine/internal/keepalive"
	"github.com/stigoleg/caffeine/internal/timer"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name  string
		st    keepalive.Status
		check func(t *testing.T, v view)
	}{
		{
			name: "inactive",
			st:   keepalive.Status{IndicatorVisible: true},
			check: func(t *testing.T, v view) {
				assert.Equal(t, iconInactive, v.icon)
				assert.Equal(t, "Enable", v.toggleLabel)
				assert.Equal(t, keepalive.MsgEnabled, v.tooltip)
				assert.Equal(t, -1, v.checked)
				assert.False(t, v.cancel)
			},
		},
		{
			name: "active with holders",
			st:   keepalive.Status{Inhibited: true, IndicatorVisible: true, Holders: []string{"user", "fullscreen"}},
			check: func(t *testing.T, v view) {
				assert.Equal(t, iconActive, v.icon)
				assert.Equal(t, "Disable", v.toggleLabel)
				assert.Equal(t, keepalive.MsgDisabled+" (user, fullscreen)", v.tooltip)
			},
		},
		{
			name: "hidden indicator",
			st:   keepalive.Status{Inhibited: true},
			check: func(t *testing.T, v view) {
				assert.Equal(t, iconHidden, v.icon)
			},
		},
		{
			name: "countdown",
			st: keepalive.Status{
				Inhibited:         true,
				IndicatorVisible:  true,
				Timer:             timer.State{Phase: timer.Countdown, Minutes: 30, Remaining: 90},
				TimerLabel:        "1:30",
				TimerLabelVisible: true,
			},
			check: func(t *testing.T, v view) {
				assert.Equal(t, "1:30", v.title)
				assert.Equal(t, 30, v.checked)
				assert.True(t, v.cancel)
			},
		},
		{
			name: "countdown label hidden",
			st: keepalive.Status{
				Inhibited:  true,
				Timer:      timer.State{Phase: timer.Countdown, Minutes: 5, Remaining: 90},
				TimerLabel: "1:30",
			},
			check: func(t *testing.T, v view) {
				assert.Empty(t, v.title)
			},
		},
		{
			name: "infinite",
			st:   keepalive.Status{Inhibited: true, Timer: timer.State{Phase: timer.Infinite}},
			check: func(t *testing.T, v view) {
				assert.Equal(t, 0, v.checked)
				assert.False(t, v.cancel)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, render(tt.st))
		})
	}
}

func TestIconsEmbedded(t *testing.T) {
	for _, icon := range [][]byte{iconActive, iconInactive, iconHidden} {
		assert.Equal(t, []byte("\x89PNG"), icon[:4])
	}
}
