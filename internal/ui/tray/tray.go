// Package tray shows caffeine's indicator in the desktop's status area.
package tray

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"fyne.io/systray"

	"github.com/stigoleg/caffeine/internal/keepalive"
	"github.com/stigoleg/caffeine/internal/timer"
)

var (
	//go:embed icons/cup-full.png
	iconActive []byte
	//go:embed icons/cup-empty.png
	iconInactive []byte
	//go:embed icons/blank.png
	iconHidden []byte
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnToggle func()
	OnTimer  func(minutes int)
	OnCancel func()
	OnQuit   func()
}

// view is what the tray shows for one Status.
type view struct {
	icon        []byte
	title       string
	tooltip     string
	toggleLabel string
	checked     int
	cancel      bool
}

func render(st keepalive.Status) view {
	v := view{
		icon:        iconInactive,
		tooltip:     keepalive.MsgEnabled,
		toggleLabel: "Enable",
		checked:     -1,
	}
	if st.Inhibited {
		v.icon = iconActive
		v.tooltip = keepalive.MsgDisabled
		v.toggleLabel = "Disable"
		if len(st.Holders) > 0 {
			v.tooltip += " (" + strings.Join(st.Holders, ", ") + ")"
		}
	}
	if !st.IndicatorVisible {
		v.icon = iconHidden
	}
	if st.TimerLabelVisible {
		v.title = st.TimerLabel
	}
	switch st.Timer.Phase {
	case timer.Countdown:
		v.checked = st.Timer.Minutes
		v.cancel = true
	case timer.Infinite:
		v.checked = 0
	}
	return v
}

type presetItem struct {
	minutes int
	item    *systray.MenuItem
}

// Manager handles system tray state.
type Manager struct {
	callbacks Callbacks

	status  *systray.MenuItem
	toggle  *systray.MenuItem
	presets []presetItem
	cancel  *systray.MenuItem
	quit    *systray.MenuItem
	ready   chan struct{}
}

// New creates a tray manager with the provided callbacks.
func New(callbacks Callbacks) *Manager {
	return &Manager{callbacks: callbacks, ready: make(chan struct{})}
}

// Run shows the indicator, follows updates and removes the indicator when
// ctx is done or updates is closed.
func (m *Manager) Run(ctx context.Context, initial keepalive.Status, updates <-chan keepalive.Status) error {
	start, end := systray.RunWithExternalLoop(m.build, nil)
	start()
	defer end()

	select {
	case <-m.ready:
	case <-ctx.Done():
		return nil
	}
	m.apply(render(initial))
	go m.listen(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case st, ok := <-updates:
			if !ok {
				return nil
			}
			m.apply(render(st))
		}
	}
}

func (m *Manager) build() {
	systray.SetTitle("")
	systray.SetIcon(iconInactive)
	systray.SetTooltip("Caffeine")
	systray.SetOnTapped(func() { call(m.callbacks.OnToggle) })

	m.status = systray.AddMenuItem("Caffeine", "")
	m.status.Disable()
	systray.AddSeparator()
	m.toggle = systray.AddMenuItem("Enable", "Toggle auto suspend and screensaver")

	timers := systray.AddMenuItem("Timer", "Switch off again after a while")
	for _, minutes := range timer.Presets {
		label := "Infinite"
		if minutes > 0 {
			label = fmt.Sprintf("%d minutes", minutes)
		}
		m.presets = append(m.presets, presetItem{
			minutes: minutes,
			item:    timers.AddSubMenuItemCheckbox(label, "", false),
		})
	}
	m.cancel = systray.AddMenuItem("Cancel timer", "")
	m.cancel.Disable()
	systray.AddSeparator()
	m.quit = systray.AddMenuItem("Quit", "Quit caffeine")
	close(m.ready)
}

func (m *Manager) apply(v view) {
	systray.SetIcon(v.icon)
	systray.SetTitle(v.title)
	systray.SetTooltip(v.tooltip)
	m.status.SetTitle(v.tooltip)
	m.toggle.SetTitle(v.toggleLabel)
	for _, p := range m.presets {
		if p.minutes == v.checked {
			p.item.Check()
		} else {
			p.item.Uncheck()
		}
	}
	if v.cancel {
		m.cancel.Enable()
	} else {
		m.cancel.Disable()
	}
}

func (m *Manager) listen(ctx context.Context) {
	for _, p := range m.presets {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.item.ClickedCh:
					if m.callbacks.OnTimer != nil {
						m.callbacks.OnTimer(p.minutes)
					}
				}
			}
		}()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.toggle.ClickedCh:
			call(m.callbacks.OnToggle)
		case <-m.cancel.ClickedCh:
			call(m.callbacks.OnCancel)
		case <-m.quit.ClickedCh:
			call(m.callbacks.OnQuit)
		}
	}
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
