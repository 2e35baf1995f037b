package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/caffeine/internal/keepalive"
	"github.com/stigoleg/caffeine/internal/timer"
)

type menuAction int

const (
	actionToggle menuAction = iota
	actionPreset
	actionCustom
	actionCancel
	actionQuit
)

type menuItem struct {
	label   string
	action  menuAction
	minutes int
	checked bool
}

// Model holds the screen state and the last Status received from the Keeper.
type Model struct {
	State        state
	Selected     int
	Input        string
	ErrorMessage string
	Status       keepalive.Status

	ctl     Controller
	updates <-chan keepalive.Status
	keys    KeyMap
	help    help.Model
}

// NewModel returns a model driving c, refreshed from updates.
func NewModel(c Controller, updates <-chan keepalive.Status) Model {
	return Model{
		State:   stateMenu,
		Status:  c.Status(),
		ctl:     c,
		updates: updates,
		keys:    DefaultKeys(),
		help:    NewHelpModel(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return waitForStatus(m.updates)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := Update(msg, m)
	return newModel, cmd
}

// View implements tea.Model
func (m Model) View() string {
	return View(m)
}

// items builds the menu for the current status. The entries never move, so
// the selection stays put while the status changes underneath it.
func (m Model) items() []menuItem {
	toggle := "Enable caffeine"
	if m.Status.Inhibited {
		toggle = "Disable caffeine"
	}
	items := []menuItem{{label: toggle, action: actionToggle}}

	active := activePreset(m.Status.Timer)
	for _, minutes := range timer.Presets {
		items = append(items, menuItem{
			label:   presetLabel(minutes),
			action:  actionPreset,
			minutes: minutes,
			checked: minutes == active,
		})
	}
	return append(items,
		menuItem{label: "Custom duration...", action: actionCustom},
		menuItem{label: "Cancel timer", action: actionCancel},
		menuItem{label: "Quit", action: actionQuit},
	)
}

// activePreset returns the preset matching the running timer, or -1.
func activePreset(s timer.State) int {
	switch s.Phase {
	case timer.Countdown:
		return s.Minutes
	case timer.Infinite:
		return 0
	default:
		return -1
	}
}

func presetLabel(minutes int) string {
	if minutes == 0 {
		return "Infinite"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
