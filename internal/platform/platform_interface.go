// Package platform hides the desktop session behind the interfaces the
// Keeper consumes. Only GNOME on Linux is implemented.
package platform

import (
	"context"
	"errors"

	"github.com/stigoleg/caffeine/internal/inhibit"
	"github.com/stigoleg/caffeine/internal/keepalive"
	"github.com/stigoleg/caffeine/internal/nightlight"
	"github.com/stigoleg/caffeine/internal/policy"
)

var (
	// ErrUnsupported is returned on platforms without a session inhibitor
	// service.
	ErrUnsupported = errors.New("unsupported platform")

	// ErrNotRunning is returned by a Client when no daemon is serving.
	ErrNotRunning = errors.New("caffeine daemon is not running")
)

// Session is the desktop session caffeine runs in. Broker, NightLight,
// Notifier, Apps and Display feed keepalive.Options; NightLight and Display
// are nil when the session lacks them.
type Session interface {
	Broker() inhibit.Broker
	NightLight() nightlight.Service
	Notifier() keepalive.Notifier
	Apps() policy.Registry
	Display() policy.Display

	// OnAppsInstalled sets fn to run on the loop when applications are
	// installed or removed.
	OnAppsInstalled(fn func())

	// Serve publishes c on the session bus for the CLI. The returned function
	// withdraws it.
	Serve(c Controller) (func() error, error)

	// Run drives the session's pollers and watchers until ctx is done.
	Run(ctx context.Context) error
	Close() error
}

// Controller is the daemon side of the control service.
type Controller interface {
	Toggle()
	StartTimer(minutes int)
	CancelTimer()
	Status() keepalive.Status
}

// Client is the CLI side of the control service.
type Client interface {
	Toggle() error
	StartTimer(minutes int) error
	CancelTimer() error
	Status() (RemoteStatus, error)
	Close() error
}

// RemoteStatus is what a running daemon reports about itself.
type RemoteStatus struct {
	Inhibited bool
	Holders   []string
	Label     string
}

// Inhibitor is one lease held with the session, by any client.
type Inhibitor struct {
	Path    string
	AppID   string
	Reason  string
	Idle    bool
	Suspend bool
}

// InstalledApp is an application that can be added to inhibit-apps.
type InstalledApp struct {
	ID   string
	Name string
}
