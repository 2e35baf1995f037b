package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stigoleg/caffeine/internal/config"
	"github.com/stigoleg/caffeine/internal/inhibit/inhibittest"
	"github.com/stigoleg/caffeine/internal/keepalive"
)

// daemon is a Keeper on the wall clock over the fake session service, run
// the way `caffeine run` runs it.
type daemon struct {
	keeper *keepalive.Keeper
	broker *inhibittest.Posted
	store  *config.Store
	cancel context.CancelFunc
	done   chan error
}

func startDaemon(t *testing.T, path string) *daemon {
	t.Helper()
	if path == "" {
		path = filepath.Join(t.TempDir(), "settings.yaml")
	}
	store, err := config.Open(path)
	require.NoError(t, err)

	queue := keepalive.NewQueue()
	broker := inhibittest.NewPosted(queue)
	k, err := keepalive.New(keepalive.Options{Queue: queue, Broker: broker, Settings: store})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	d := &daemon{keeper: k, broker: broker, store: store, cancel: cancel, done: make(chan error, 2)}
	go func() { d.done <- k.Run(ctx) }()
	go func() { d.done <- store.Watch(ctx) }()
	t.Cleanup(d.stop)
	return d
}

func (d *daemon) stop() {
	d.cancel()
}

// wait stops the daemon and waits for both goroutines.
func (d *daemon) wait(t *testing.T) {
	t.Helper()
	d.cancel()
	for range 2 {
		select {
		case err := <-d.done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("daemon did not stop")
		}
	}
}

// leases reads the fake service's leases on the loop.
func (d *daemon) leases(t *testing.T) int {
	t.Helper()
	ch := make(chan int, 1)
	d.keeper.Post(func() { ch <- len(d.broker.Paths()) })
	select {
	case n := <-ch:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not answer")
		return 0
	}
}
