package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, Defaults(), s.Get())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file is only created on the first update")
}

func TestUpdatePersistsAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caffeine", "settings.yaml")
	s, err := Open(path)
	require.NoError(t, err)

	var got []Change
	unsubscribe := s.Subscribe(func(c Change) { got = append(got, c) })

	require.NoError(t, s.Update(func(st *Settings) {
		st.UserEnabled = true
		st.InhibitApps = []string{"org.gnome.Totem.desktop", " org.gnome.Totem.desktop ", ""}
	}))
	require.Len(t, got, 1)
	assert.True(t, got[0].Has(KeyUserEnabled))
	assert.True(t, got[0].Has(KeyInhibitApps))
	assert.False(t, got[0].Has(KeyShowTimer))
	assert.Equal(t, []string{"org.gnome.Totem.desktop"}, got[0].New.InhibitApps)

	require.NoError(t, s.Update(func(st *Settings) { st.UserEnabled = true }))
	assert.Len(t, got, 1, "no-op update must not notify")

	unsubscribe()
	require.NoError(t, s.Update(func(st *Settings) { st.UserEnabled = false }))
	assert.Len(t, got, 1)

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, s.Get(), reopened.Get())
}

func TestUpdateRejectsInvalid(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	err = s.Update(func(st *Settings) { st.TimerMinutes = -1 })
	assert.True(t, errors.Is(err, ErrInvalidSetting))
	assert.Zero(t, s.Get().TimerMinutes)
}

func TestEnumsRoundTripAsNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Update(func(st *Settings) {
		st.ShowIndicator = IndicatorNever
		st.NightLight = NightLightForApps
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "show-indicator: never")
	assert.Contains(t, string(data), "nightlight-control: for-apps")
}

func TestLegacyNightLightMigration(t *testing.T) {
	tests := []struct {
		name   string
		legacy string
		want   NightLightControl
	}{
		{"always", "control-nightlight: true\n", NightLightAlways},
		{"for apps", "control-nightlight: true\ncontrol-nightlight-for-app: true\n", NightLightForApps},
		{"disabled", "control-nightlight: false\ncontrol-nightlight-for-app: true\n", NightLightNever},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			require.NoError(t, os.WriteFile(path, []byte("show-timer: false\n"+tt.legacy), 0o644))

			s, err := Open(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Get().NightLight)
			assert.False(t, s.Get().ShowTimer)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.False(t, strings.Contains(string(data), "control-nightlight:"), "legacy keys are dropped")
		})
	}
}

func TestReloadNotifiesExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Update(func(st *Settings) { st.ShowTimer = false }))

	var got []Change
	s.Subscribe(func(c Change) { got = append(got, c) })

	require.NoError(t, s.Reload())
	assert.Empty(t, got, "reloading our own write changes nothing")

	require.NoError(t, os.WriteFile(path, []byte("show-timer: false\nuser-enabled: true\n"), 0o644))
	require.NoError(t, s.Reload())
	require.Len(t, got, 1)
	assert.Equal(t, []Key{KeyUserEnabled}, got[0].Keys)
}

func TestReloadNeverRevertsConcurrentUpdate(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	var backwards atomic.Int32
	s.Subscribe(func(c Change) {
		if c.New.TimerMinutes < c.Old.TimerMinutes {
			backwards.Add(1)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan struct{})
	go func() {
		defer close(reloaded)
		for ctx.Err() == nil {
			assert.NoError(t, s.Reload())
		}
	}()

	for i := 1; i <= 500; i++ {
		require.NoError(t, s.Update(func(st *Settings) { st.TimerMinutes = i }))
	}
	cancel()
	<-reloaded

	assert.Zero(t, backwards.Load(), "a reload handed out an older file")
	assert.Equal(t, 500, s.Get().TimerMinutes)
}

func TestWatchPicksUpEdits(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watch test in short mode")
	}

	path := filepath.Join(t.TempDir(), "settings.yaml")
	s, err := Open(path)
	require.NoError(t, err)

	changed := make(chan Change, 4)
	s.Subscribe(func(c Change) { changed <- c })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("enable-fullscreen: true\n"), 0o644))

	select {
	case c := <-changed:
		assert.True(t, c.Has(KeyEnableFullscreen))
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification after editing the file")
	}
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"nightlight-control"`)
	assert.Contains(t, out, `"for-apps"`)
	assert.Contains(t, out, `"countdown-timer"`)
}

func TestShowIndicatorVisible(t *testing.T) {
	tests := []struct {
		mode      ShowIndicator
		inhibited bool
		want      bool
	}{
		{IndicatorOnlyActive, true, true},
		{IndicatorOnlyActive, false, false},
		{IndicatorAlways, true, true},
		{IndicatorAlways, false, true},
		{IndicatorNever, true, false},
		{IndicatorNever, false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.mode.Visible(tt.inhibited), "%s inhibited=%t", tt.mode, tt.inhibited)
	}
}
