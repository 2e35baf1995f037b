package ui

import (
	"fmt"
	"strings"

	"github.com/stigoleg/caffeine/internal/timer"
)

const progressWidth = 20

// View renders the current state of the model to a string.
func View(m Model) string {
	switch m.State {
	case stateMenu:
		return menuView(m)
	case stateTimedInput:
		return timedInputView(m)
	case stateHelp:
		return helpView()
	}
	return ""
}

func menuView(m Model) string {
	var b strings.Builder

	b.WriteString(Current.Title.Render("Caffeine"))
	b.WriteString("\n\n")
	b.WriteString(statusView(m))
	b.WriteString("\n")

	for i, item := range m.items() {
		cursor, style := "  ", Current.Unselected
		if i == m.Selected {
			cursor, style = "> ", Current.Selected
		}
		line := style.Render(cursor + item.label)
		if item.checked {
			line += Current.Check.Render("✔")
		}
		b.WriteString(line + "\n")
	}

	if m.ErrorMessage != "" {
		b.WriteString("\n" + Current.Error.Render(m.ErrorMessage))
	}

	b.WriteString("\n\n" + m.help.View(m.keys.ForState(m.State)))
	b.WriteString("\n" + Current.Help.Render("scroll up to enable • scroll down to disable"))
	return b.String()
}

func statusView(m Model) string {
	var b strings.Builder
	st := m.Status

	if st.Inhibited {
		b.WriteString(Current.ActiveStatus.Render("Auto suspend and screensaver disabled"))
	} else {
		b.WriteString(Current.InactiveStatus.Render("Auto suspend and screensaver enabled"))
	}
	b.WriteString("\n")

	if st.Timer.Running() {
		if st.TimerLabelVisible {
			b.WriteString(Current.Countdown.Render(st.TimerLabel + " remaining"))
			b.WriteString("\n")
		}
		b.WriteString(" " + progressBar(st.Timer) + "\n")
	}

	if len(st.Holders) > 0 {
		b.WriteString(Current.Detail.Render("Held by: " + strings.Join(st.Holders, ", ")))
		b.WriteString("\n")
	}
	if len(st.WatchedApps) > 0 {
		b.WriteString(Current.Detail.Render(fmt.Sprintf("Watching %d app(s)", len(st.WatchedApps))))
		b.WriteString("\n")
	}
	if st.Fullscreen {
		b.WriteString(Current.Detail.Render("Fullscreen window detected"))
		b.WriteString("\n")
	}
	if st.NightLightPaused {
		b.WriteString(Current.Detail.Render("Night Light paused"))
		b.WriteString("\n")
	}
	return b.String()
}

// progressBar shows how much of the countdown has elapsed.
func progressBar(s timer.State) string {
	total := s.Minutes * 60
	if total <= 0 {
		return ""
	}
	filled := progressWidth * (total - s.Remaining) / total
	filled = min(max(filled, 0), progressWidth)
	return Current.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		Current.ProgressEmpty.Render(strings.Repeat(" ", progressWidth-filled))
}

func timedInputView(m Model) string {
	var b strings.Builder

	b.WriteString(Current.Title.Render("Enter Duration"))
	b.WriteString("\n\n")

	b.WriteString(Current.Unselected.Render("Enter minutes or a duration such as 1h30m:"))
	b.WriteString("\n")
	input := m.Input
	if input == "" {
		input = " "
	}
	b.WriteString(Current.InputBox.Render(input))
	b.WriteString("\n\n")

	b.WriteString(m.help.View(m.keys.ForState(m.State)))

	if m.ErrorMessage != "" {
		b.WriteString("\n\n" + Current.Error.Render(m.ErrorMessage))
	}

	return b.String()
}

func helpView() string {
	help := `Caffeine Help

Keeps the session from going idle or suspending while enabled.

Menu:
  Enable/Disable     : Toggle inhibition
  5/10/30 minutes    : Enable and switch off again after the countdown
  Infinite           : Enable with no time limit
  Custom duration    : Enter a countdown such as 45 or 1h30m
  Cancel timer       : Stop the countdown, keep inhibition

Keys:
  ↑/k, ↓/j  : Navigate menu
  Enter      : Select option
  t          : Toggle
  x          : Cancel timer
  h          : Show this help
  q          : Quit

Mouse:
  Wheel up   : Enable
  Wheel down : Disable

Press 'h' or 'Esc' to close help`

	return Current.Help.Render(help)
}
