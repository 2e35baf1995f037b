// Package keepalive runs the caffeine event loop. The Keeper owns the
// inhibitor ledger, the countdown and the policies, and exposes the toggle,
// timer and scroll gestures to the presentation surfaces.
package keepalive

//go:generate mockgen -destination=mocks/mock_notifier.go -package=mocks github.com/stigoleg/caffeine/internal/keepalive Notifier

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/stigoleg/caffeine/internal/config"
	"github.com/stigoleg/caffeine/internal/inhibit"
	"github.com/stigoleg/caffeine/internal/nightlight"
	"github.com/stigoleg/caffeine/internal/policy"
	"github.com/stigoleg/caffeine/internal/schedule"
	"github.com/stigoleg/caffeine/internal/timer"
)

// Notification texts.
const (
	MsgDisabled        = "Auto suspend and screensaver disabled"
	MsgEnabled         = "Auto suspend and screensaver enabled"
	MsgNightLightPause = "Night Light paused."
	MsgNightLightOn    = "Night Light resumed."
)

// shutdownGrace bounds how long Run waits for the broker to confirm the
// final releases.
const shutdownGrace = 2 * time.Second

// ErrNoBroker is returned by New when Options.Broker is nil.
var ErrNoBroker = errors.New("keepalive: no inhibitor broker")

// Notifier shows desktop notifications. Transient ones are not kept in the
// notification list.
type Notifier interface {
	Notify(summary, body string, transient bool) error
}

// SettingsStore is the part of config.Store the Keeper uses.
type SettingsStore interface {
	Get() config.Settings
	Update(fn func(*config.Settings)) error
	Subscribe(fn func(config.Change)) func()
}

// Options wires a Keeper. Broker, Settings and Queue are required; the rest
// switch features off when nil.
type Options struct {
	Queue      *Queue
	Broker     inhibit.Broker
	Settings   SettingsStore
	Scheduler  schedule.Scheduler
	NightLight nightlight.Service
	Notifier   Notifier
	Apps       policy.Registry
	Display    policy.Display
}

// Status is an immutable snapshot of the Keeper for presentation.
type Status struct {
	Inhibited         bool
	Holders           []string
	UserEnabled       bool
	IndicatorVisible  bool
	Timer             timer.State
	TimerLabel        string
	TimerLabelVisible bool
	NightLightPaused  bool
	Fullscreen        bool
	WatchedApps       []string
}

// Keeper manages the session's inhibition state. All state below mu is
// owned by the loop goroutine.
type Keeper struct {
	queue    *Queue
	sched    schedule.Scheduler
	settings SettingsStore
	notifier Notifier

	mgr        *inhibit.Manager
	timer      *timer.Controller
	apps       *policy.AppWatch
	fullscreen *policy.FullscreenWatch
	night      *nightlight.Coordinator

	userState   bool
	stopping    bool
	unsubscribe func()
	cleanup     *CleanupManager

	mu     sync.Mutex
	status Status
	nextID int
	subs   map[int]chan Status
}

// New wires a Keeper. Nothing happens until Run is called.
func New(opts Options) (*Keeper, error) {
	if opts.Broker == nil {
		return nil, ErrNoBroker
	}
	if opts.Settings == nil {
		return nil, errors.New("keepalive: no settings store")
	}
	if opts.Queue == nil {
		opts.Queue = NewQueue()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.NewLoop(opts.Queue)
	}

	k := &Keeper{
		queue:    opts.Queue,
		sched:    opts.Scheduler,
		settings: opts.Settings,
		notifier: opts.Notifier,
		cleanup:  NewCleanupManager(shutdownGrace),
		subs:     make(map[int]chan Status),
	}
	k.mgr = inhibit.NewManager(opts.Broker, k.sched)
	k.mgr.OnChange(k.ledgerChanged)
	k.timer = timer.New(k.sched, func(timer.State) { k.publish() }, k.timerExpired)
	if opts.Apps != nil {
		k.apps = policy.NewAppWatch(opts.Apps, k.mgr)
	}
	if opts.Display != nil {
		k.fullscreen = policy.NewFullscreenWatch(opts.Display, k.mgr, k.sched)
	}
	if opts.NightLight != nil {
		k.night = nightlight.NewCoordinator(opts.NightLight, func() config.NightLightControl {
			return k.settings.Get().NightLight
		})
		k.night.OnRevert(k.publish)
	}
	return k, nil
}

// Post runs fn on the loop.
func (k *Keeper) Post(fn func()) { k.queue.Post(fn) }

// OnClose registers a teardown step run after the final releases, in
// reverse registration order.
func (k *Keeper) OnClose(name string, fn func() error) {
	k.cleanup.RegisterFunc(name, fn)
}

// Run starts the Keeper and processes events until ctx is done. On return
// every lease has been released, or the grace period ran out.
func (k *Keeper) Run(ctx context.Context) error {
	k.begin()
	for {
		select {
		case <-ctx.Done():
			k.shutdown()
			return nil
		case <-k.queue.Ready():
			k.queue.Drain()
		}
	}
}

// Toggle flips inhibition, as the indicator click and the keyboard shortcut do.
func (k *Keeper) Toggle() { k.queue.Post(k.toggleState) }

// ScrollUp switches the user's inhibition on.
func (k *Keeper) ScrollUp() { k.queue.Post(k.scrollUp) }

// ScrollDown switches inhibition off.
func (k *Keeper) ScrollDown() { k.queue.Post(k.scrollDown) }

// RefreshApps re-resolves the watched applications after the set of
// installed applications changed.
func (k *Keeper) RefreshApps() {
	k.queue.Post(func() {
		if k.apps == nil {
			return
		}
		k.apps.Refresh()
		k.publish()
	})
}

// StartTimer sets the countdown to minutes (0 for no limit) and starts it.
func (k *Keeper) StartTimer(minutes int) {
	k.queue.Post(func() {
		err := k.settings.Update(func(s *config.Settings) {
			s.TimerMinutes = minutes
			s.TimerEnabled = true
		})
		if err != nil {
			log.Printf("keeper: starting timer failed: %v", err)
		}
	})
}

// CancelTimer stops the countdown and leaves inhibition as it is.
func (k *Keeper) CancelTimer() {
	k.queue.Post(func() {
		k.cancelTimer(true)
		k.publish()
	})
}

// Status returns the latest snapshot.
func (k *Keeper) Status() Status {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.status
}

// Subscribe delivers every new snapshot, dropping intermediate ones a slow
// reader missed. The channel is closed by the returned function or when the
// Keeper stops.
func (k *Keeper) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 1)
	k.mu.Lock()
	k.nextID++
	id := k.nextID
	k.subs[id] = ch
	ch <- k.status
	k.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			k.mu.Lock()
			defer k.mu.Unlock()
			if _, ok := k.subs[id]; ok {
				delete(k.subs, id)
				close(ch)
			}
		})
	}
}

func (k *Keeper) begin() {
	k.unsubscribe = k.settings.Subscribe(func(c config.Change) {
		k.queue.Post(func() { k.settingsChanged(c) })
	})
	k.start()
	log.Printf("keeper: started")
}

func (k *Keeper) start() {
	cfg := k.settings.Get()

	if err := k.settings.Update(func(s *config.Settings) {
		s.TimerEnabled = false
		s.TimerMinutes = 0
	}); err != nil {
		log.Printf("keeper: resetting timer settings failed: %v", err)
	}

	if cfg.RestoreState && cfg.UserEnabled {
		log.Printf("keeper: restoring previous state")
		k.userState = true
		k.mgr.Request(inhibit.HolderUser)
	} else {
		k.saveUserState(false)
	}

	if k.apps != nil {
		k.apps.Reconfigure(cfg.InhibitApps)
	}
	if k.fullscreen != nil && cfg.EnableFullscreen {
		k.fullscreen.Start()
	}
	k.publish()
}

func (k *Keeper) shutdown() {
	log.Printf("keeper: shutting down")
	k.stopping = true
	if k.unsubscribe != nil {
		k.unsubscribe()
	}
	if k.fullscreen != nil {
		k.fullscreen.Stop()
	}
	if k.apps != nil {
		k.apps.Close()
	}
	k.timer.Cancel(false)
	k.mgr.ReleaseAll()

	deadline := time.NewTimer(shutdownGrace)
	defer deadline.Stop()
	for !k.mgr.Idle() {
		select {
		case <-k.queue.Ready():
			k.queue.Drain()
		case <-deadline.C:
			log.Printf("keeper: %d lease(s) still held after %v", len(k.mgr.Holders()), shutdownGrace)
			k.finish()
			return
		}
	}
	k.finish()
}

func (k *Keeper) finish() {
	k.queue.Close()
	for _, err := range k.cleanup.Execute() {
		log.Printf("keeper: cleanup error: %v", err)
	}

	k.mu.Lock()
	for id, ch := range k.subs {
		close(ch)
		delete(k.subs, id)
	}
	k.mu.Unlock()
	log.Printf("keeper: stopped")
}

// toggleState releases every holder when inhibited, otherwise takes the
// user's lease.
func (k *Keeper) toggleState() {
	if k.mgr.Inhibited() {
		k.switchOff()
		return
	}
	k.mgr.Request(inhibit.HolderUser)
}

func (k *Keeper) switchOff() {
	k.cancelTimer(true)
	k.mgr.ReleaseAll()
	k.publish()
}

func (k *Keeper) scrollUp() {
	if k.mgr.Inhibited() {
		return
	}
	k.setUserEnabled(true)
	k.osd(MsgDisabled)
}

func (k *Keeper) scrollDown() {
	if !k.mgr.Inhibited() {
		return
	}
	k.cancelTimer(true)
	if !k.userState {
		// Nothing to mirror; an app or fullscreen holds the session.
		k.switchOff()
	} else {
		k.setUserEnabled(false)
	}
	k.osd(MsgEnabled)
}

func (k *Keeper) osd(msg string) {
	if k.notifier == nil || k.settings.Get().ShowNotifications {
		return
	}
	if err := k.notifier.Notify(msg, "", true); err != nil {
		log.Printf("keeper: notification failed: %v", err)
	}
}

func (k *Keeper) settingsChanged(c config.Change) {
	if c.Has(config.KeyUserEnabled) && c.New.UserEnabled != k.userState {
		k.userState = c.New.UserEnabled
		if k.userState {
			k.mgr.Request(inhibit.HolderUser)
		} else {
			k.switchOff()
		}
	}
	if c.Has(config.KeyTimerEnabled) && c.New.TimerEnabled {
		k.startTimer(c.New.TimerMinutes)
	}
	if c.Has(config.KeyInhibitApps) && k.apps != nil {
		k.apps.Reconfigure(c.New.InhibitApps)
	}
	if c.Has(config.KeyEnableFullscreen) && k.fullscreen != nil {
		if c.New.EnableFullscreen {
			k.fullscreen.Start()
		} else {
			k.fullscreen.Stop()
		}
	}
	if c.Has(config.KeyNightLight) && k.night != nil {
		k.night.Evaluate(k.mgr.Holders())
	}
	k.publish()
}

func (k *Keeper) startTimer(minutes int) {
	// The enabled flag is a trigger; consume it so the next start fires again.
	if err := k.settings.Update(func(s *config.Settings) { s.TimerEnabled = false }); err != nil {
		log.Printf("keeper: clearing timer trigger failed: %v", err)
	}
	k.timer.Start(minutes)
	k.saveUserState(true)
	k.mgr.Request(inhibit.HolderUser)
}

func (k *Keeper) cancelTimer(reset bool) {
	k.timer.Cancel(reset)
	if !reset {
		return
	}
	if err := k.settings.Update(func(s *config.Settings) { s.TimerMinutes = 0 }); err != nil {
		log.Printf("keeper: resetting timer duration failed: %v", err)
	}
}

func (k *Keeper) timerExpired() {
	if err := k.settings.Update(func(s *config.Settings) { s.TimerMinutes = 0 }); err != nil {
		log.Printf("keeper: resetting timer duration failed: %v", err)
	}
	k.setUserEnabled(false)
	k.publish()
}

func (k *Keeper) ledgerChanged(c inhibit.Change) {
	if k.stopping {
		// The persisted user state must survive shutdown for restore-state.
		if k.night != nil {
			k.night.Evaluate(c.Holders)
		}
		return
	}
	if c.Holder == inhibit.HolderUser {
		k.saveUserState(c.Kind == inhibit.LeaseAdded)
	}

	transition := nightlight.Unchanged
	if k.night != nil {
		transition = k.night.Evaluate(c.Holders)
	}

	switch c.Edge {
	case inhibit.EdgeInhibited:
		log.Printf("keeper: session inhibited (%s)", c.Holder)
		if !k.inFullscreen() {
			k.notify(MsgDisabled, transition)
		}
	case inhibit.EdgeUninhibited:
		log.Printf("keeper: session no longer inhibited")
		k.notify(MsgEnabled, transition)
	}
	k.publish()
}

func (k *Keeper) notify(msg string, t nightlight.Transition) {
	if k.notifier == nil || !k.settings.Get().ShowNotifications {
		return
	}
	body := ""
	switch t {
	case nightlight.Paused:
		body = MsgNightLightPause
	case nightlight.Resumed:
		body = MsgNightLightOn
	}
	if err := k.notifier.Notify(msg, body, false); err != nil {
		log.Printf("keeper: notification failed: %v", err)
	}
}

func (k *Keeper) inFullscreen() bool {
	return k.fullscreen != nil && k.fullscreen.Fullscreen()
}

// saveUserState records the user's state without acting on the change
// notification it causes.
func (k *Keeper) saveUserState(enabled bool) {
	k.userState = enabled
	k.setUserEnabled(enabled)
}

func (k *Keeper) setUserEnabled(enabled bool) {
	if err := k.settings.Update(func(s *config.Settings) { s.UserEnabled = enabled }); err != nil {
		log.Printf("keeper: saving user state failed: %v", err)
	}
}

func (k *Keeper) snapshot() Status {
	cfg := k.settings.Get()
	inhibited := k.mgr.Inhibited()
	ts := k.timer.State()

	holders := make([]string, 0, len(k.mgr.Holders()))
	for _, h := range k.mgr.Holders() {
		holders = append(holders, string(h))
	}
	st := Status{
		Inhibited:         inhibited,
		Holders:           holders,
		UserEnabled:       k.userState,
		IndicatorVisible:  cfg.ShowIndicator.Visible(inhibited),
		Timer:             ts,
		TimerLabel:        ts.Label(),
		TimerLabelVisible: cfg.ShowTimer && cfg.ShowIndicator != config.IndicatorNever && ts.Running(),
		Fullscreen:        k.inFullscreen(),
	}
	if k.night != nil {
		st.NightLightPaused = k.night.Suppressed()
	}
	if k.apps != nil {
		st.WatchedApps = k.apps.Watched()
	}
	return st
}

func (k *Keeper) publish() {
	st := k.snapshot()

	k.mu.Lock()
	defer k.mu.Unlock()
	if statusEqual(k.status, st) {
		return
	}
	k.status = st
	for _, ch := range k.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

func statusEqual(a, b Status) bool {
	return a.Inhibited == b.Inhibited &&
		slices.Equal(a.Holders, b.Holders) &&
		a.UserEnabled == b.UserEnabled &&
		a.IndicatorVisible == b.IndicatorVisible &&
		a.Timer == b.Timer &&
		a.TimerLabelVisible == b.TimerLabelVisible &&
		a.NightLightPaused == b.NightLightPaused &&
		a.Fullscreen == b.Fullscreen &&
		slices.Equal(a.WatchedApps, b.WatchedApps)
}
