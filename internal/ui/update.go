package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/caffeine/internal/config"
	"github.com/stigoleg/caffeine/internal/keepalive"
)

// maxInputLen limits the custom duration field, e.g. "23h59m".
const maxInputLen = 8

// statusMsg carries a Status published by the Keeper.
type statusMsg keepalive.Status

// closedMsg is sent when the Keeper stops publishing.
type closedMsg struct{}

func waitForStatus(updates <-chan keepalive.Status) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return statusMsg(st)
	}
}

// Update handles messages and updates the model accordingly.
func Update(msg tea.Msg, m Model) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.Status = keepalive.Status(msg)
		return m, waitForStatus(m.updates)
	case closedMsg:
		return m, tea.Quit
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.ctl.ScrollUp()
		case tea.MouseButtonWheelDown:
			m.ctl.ScrollDown()
		}
		return m, nil
	case tea.KeyMsg:
		switch m.State {
		case stateMenu:
			return updateMenu(msg, m)
		case stateTimedInput:
			return updateTimedInput(msg, m)
		case stateHelp:
			switch {
			case key.Matches(msg, m.keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, m.keys.ToggleHelp, m.keys.Back):
				m.State = stateMenu
			}
		}
	}
	return m, nil
}

func updateMenu(msg tea.KeyMsg, m Model) (Model, tea.Cmd) {
	items := m.items()
	switch {
	case key.Matches(msg, m.keys.Quit, m.keys.Back):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ToggleHelp):
		m.State = stateHelp
	case key.Matches(msg, m.keys.Up):
		if m.Selected > 0 {
			m.Selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.Selected < len(items)-1 {
			m.Selected++
		}
	case key.Matches(msg, m.keys.Toggle):
		m.ErrorMessage = ""
		m.ctl.Toggle()
	case key.Matches(msg, m.keys.Cancel):
		m.ErrorMessage = ""
		m.ctl.CancelTimer()
	case key.Matches(msg, m.keys.Select):
		m.ErrorMessage = ""
		item := items[m.Selected]
		switch item.action {
		case actionToggle:
			m.ctl.Toggle()
		case actionPreset:
			m.ctl.StartTimer(item.minutes)
		case actionCustom:
			m.State = stateTimedInput
			m.Input = ""
		case actionCancel:
			m.ctl.CancelTimer()
		case actionQuit:
			return m, tea.Quit
		}
	}
	return m, nil
}

func updateTimedInput(msg tea.KeyMsg, m Model) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.State = stateMenu
		m.ErrorMessage = ""
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		if m.Input == "" {
			m.ErrorMessage = "Please enter a duration"
			return m, nil
		}
		minutes, err := config.TimerFlags{Duration: m.Input}.Minutes(time.Now())
		if err != nil {
			m.ErrorMessage = "Invalid duration"
			return m, nil
		}
		if minutes <= 0 {
			m.ErrorMessage = "Duration must be positive"
			return m, nil
		}
		m.ctl.StartTimer(minutes)
		m.State = stateMenu
		m.ErrorMessage = ""
	case key.Matches(msg, m.keys.Backspace):
		if len(m.Input) > 0 {
			m.Input = m.Input[:len(m.Input)-1]
			m.ErrorMessage = ""
		}
	default:
		s := msg.String()
		if len(s) == 1 && strings.ContainsAny(s, "0123456789hms") && len(m.Input) < maxInputLen {
			m.Input += s
			m.ErrorMessage = ""
		}
	}
	return m, nil
}
