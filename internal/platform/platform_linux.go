//go:build linux

package platform

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/stigoleg/caffeine/internal/inhibit"
	"github.com/stigoleg/caffeine/internal/keepalive"
	"github.com/stigoleg/caffeine/internal/nightlight"
	"github.com/stigoleg/caffeine/internal/platform/linux"
	"github.com/stigoleg/caffeine/internal/policy"
	"github.com/stigoleg/caffeine/internal/schedule"
)

const (
	appName = "Caffeine"
	appIcon = "caffeine-cup-full"
)

type linuxSession struct {
	bus      *linux.Bus
	broker   *linux.SessionBroker
	night    *linux.NightLight
	notifier *linux.Notifier
	apps     *linux.AppRegistry
	display  *linux.X11Display
}

// NewSession connects to the GNOME session. Callbacks are delivered through
// post. A missing X display only disables fullscreen detection.
func NewSession(post schedule.Poster) (Session, error) {
	desktop := strings.Join(linux.Desktop(), ":")
	if !linux.Supported(linux.Desktop()) {
		log.Printf("platform: desktop %q has no GNOME session manager, inhibition will likely fail", desktop)
	}

	bus, err := linux.ConnectSession()
	if err != nil {
		return nil, err
	}
	s := &linuxSession{
		bus:      bus,
		broker:   linux.NewSessionBroker(bus, post),
		night:    linux.NewNightLight(bus, post),
		notifier: linux.NewNotifier(bus, post, appName, appIcon),
		apps:     linux.NewAppRegistry(post),
	}

	display, err := linux.ConnectDisplay(post)
	switch {
	case err == nil:
		s.display = display
	case errors.Is(err, linux.ErrNoDisplay):
		log.Printf("platform: fullscreen detection disabled: %v", err)
	default:
		_ = bus.Close()
		return nil, err
	}

	if err := s.night.Load(); err != nil {
		log.Printf("platform: night light unavailable: %v", err)
		s.night = nil
	}
	log.Printf("platform: session on %s (%s)", desktop, linux.DetectDisplayServer())
	return s, nil
}

func (s *linuxSession) Broker() inhibit.Broker       { return s.broker }
func (s *linuxSession) Notifier() keepalive.Notifier { return s.notifier }
func (s *linuxSession) Apps() policy.Registry        { return s.apps }
func (s *linuxSession) OnAppsInstalled(fn func())    { s.apps.OnInstalledChanged(fn) }

func (s *linuxSession) NightLight() nightlight.Service {
	if s.night == nil {
		return nil
	}
	return s.night
}

func (s *linuxSession) Display() policy.Display {
	if s.display == nil {
		return nil
	}
	return s.display
}

func (s *linuxSession) Serve(c Controller) (func() error, error) {
	return linux.ExportControl(s.bus, c)
}

func (s *linuxSession) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.apps.Run(ctx) })
	if s.display != nil {
		g.Go(func() error { return s.display.Run(ctx) })
	}
	return g.Wait()
}

func (s *linuxSession) Close() error {
	var errs []error
	if s.display != nil {
		errs = append(errs, s.display.Close())
	}
	errs = append(errs, s.bus.Close())
	return errors.Join(errs...)
}

type linuxClient struct {
	c *linux.ControlClient
}

// Dial connects to a running daemon's control service.
func Dial() (Client, error) {
	c, err := linux.DialControl()
	if err != nil {
		return nil, err
	}
	return &linuxClient{c: c}, nil
}

func (l *linuxClient) Toggle() error                { return clientError(l.c.Toggle()) }
func (l *linuxClient) StartTimer(minutes int) error { return clientError(l.c.StartTimer(minutes)) }
func (l *linuxClient) CancelTimer() error           { return clientError(l.c.CancelTimer()) }
func (l *linuxClient) Close() error                 { return l.c.Close() }

func (l *linuxClient) Status() (RemoteStatus, error) {
	st, err := l.c.Status()
	if err != nil {
		return RemoteStatus{}, clientError(err)
	}
	return RemoteStatus{Inhibited: st.Inhibited, Holders: st.Holders, Label: st.Label}, nil
}

func clientError(err error) error {
	if errors.Is(err, linux.ErrNotRunning) {
		return ErrNotRunning
	}
	return err
}

// ListInhibitors reports every lease the session manager holds.
func ListInhibitors() ([]Inhibitor, error) {
	bus, err := linux.ConnectSession()
	if err != nil {
		return nil, err
	}
	defer bus.Close()

	infos, err := linux.Inhibitors(bus)
	if err != nil {
		return nil, err
	}
	out := make([]Inhibitor, 0, len(infos))
	for _, i := range infos {
		out = append(out, Inhibitor{
			Path:    string(i.Path),
			AppID:   i.AppID,
			Reason:  i.Reason,
			Idle:    i.Idle(),
			Suspend: i.Suspend(),
		})
	}
	return out, nil
}

// InstalledApps lists the desktop entries found in the XDG data dirs,
// sorted by ID.
func InstalledApps() ([]InstalledApp, error) {
	entries := linux.NewAppRegistry(nil).Entries()
	out := make([]InstalledApp, 0, len(entries))
	for _, e := range entries {
		out = append(out, InstalledApp{ID: e.ID, Name: e.Name})
	}
	slices.SortFunc(out, func(a, b InstalledApp) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// InstallShortcut binds accel to command in the desktop's keyboard settings.
func InstallShortcut(accel, command string) error {
	if err := linux.InstallShortcut(accel, command); err != nil {
		return fmt.Errorf("failed to install shortcut: %w", err)
	}
	return nil
}

// RemoveShortcut removes the binding made by InstallShortcut.
func RemoveShortcut() error {
	if err := linux.RemoveShortcut(); err != nil {
		return fmt.Errorf("failed to remove shortcut: %w", err)
	}
	return nil
}
