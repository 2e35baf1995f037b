//go:build linux

package platform

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/caffeine/internal/platform/linux"
	"github.com/stigoleg/caffeine/internal/schedule"
)

func TestClientErrorMapsNotRunning(t *testing.T) {
	assert.ErrorIs(t, clientError(linux.ErrNotRunning), ErrNotRunning)
	assert.NoError(t, clientError(nil))

	other := errors.New("boom")
	assert.Equal(t, other, clientError(other))
}

func TestMissingServicesAreNilInterfaces(t *testing.T) {
	s := &linuxSession{}
	assert.Nil(t, s.Display())
	assert.Nil(t, s.NightLight())
}

func requireSessionBus(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping session bus test in short mode")
	}
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("no session bus")
	}
}

func TestSessionLifecycle(t *testing.T) {
	requireSessionBus(t)

	posted := make(chan func(), 16)
	s, err := NewSession(schedule.PosterFunc(func(fn func()) { posted <- fn }))
	require.NoError(t, err)
	require.NotNil(t, s.Broker())
	require.NotNil(t, s.Notifier())
	require.NotNil(t, s.Apps())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	assert.NoError(t, s.Run(ctx))
	assert.NoError(t, s.Close())
}

func TestDialWithoutDaemon(t *testing.T) {
	requireSessionBus(t)

	c, err := Dial()
	require.NoError(t, err)
	defer c.Close()

	if _, err := c.Status(); err != nil {
		assert.ErrorIs(t, err, ErrNotRunning)
	}
}

func TestListInhibitors(t *testing.T) {
	requireSessionBus(t)

	inhibitors, err := ListInhibitors()
	if err != nil {
		t.Skipf("session manager unavailable: %v", err)
	}
	for _, i := range inhibitors {
		assert.NotEmpty(t, i.Path)
	}
}
