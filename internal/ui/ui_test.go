package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/caffeine/internal/keepalive"
	"github.com/stigoleg/caffeine/internal/timer"
)

type fakeController struct {
	calls  []string
	timers []int
	status keepalive.Status
}

func (f *fakeController) Toggle()      { f.calls = append(f.calls, "toggle") }
func (f *fakeController) CancelTimer() { f.calls = append(f.calls, "cancel") }
func (f *fakeController) ScrollUp()    { f.calls = append(f.calls, "up") }
func (f *fakeController) ScrollDown()  { f.calls = append(f.calls, "down") }

func (f *fakeController) StartTimer(minutes int) {
	f.calls = append(f.calls, "timer")
	f.timers = append(f.timers, minutes)
}

func (f *fakeController) Status() keepalive.Status { return f.status }

func (f *fakeController) Subscribe() (<-chan keepalive.Status, func()) {
	return make(chan keepalive.Status), func() {}
}

func newTestModel() (Model, *fakeController, chan keepalive.Status) {
	f := &fakeController{}
	updates := make(chan keepalive.Status, 1)
	return NewModel(f, updates), f, updates
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = Update(keyMsg(k), m)
	}
	return m, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestInitialModel(t *testing.T) {
	m, _, _ := newTestModel()
	assert.Equal(t, stateMenu, m.State)
	assert.Zero(t, m.Selected)
	assert.Empty(t, m.Input)
	assert.Empty(t, m.ErrorMessage)
}

func TestMenuView(t *testing.T) {
	m, _, _ := newTestModel()
	view := View(m)

	for _, opt := range []string{"Enable caffeine", "5 minutes", "10 minutes", "30 minutes", "Infinite", "Cancel timer", "Quit"} {
		assert.Contains(t, view, opt)
	}

	found := false
	for _, line := range strings.Split(view, "\n") {
		if strings.Contains(line, ">") && strings.Contains(line, "Enable caffeine") {
			found = true
			break
		}
	}
	assert.True(t, found, "expected cursor at first option")
}

func TestMenuSelection(t *testing.T) {
	tests := []struct {
		name       string
		keys       []string
		wantCalls  []string
		wantTimers []int
		wantState  state
	}{
		{"toggle entry", []string{"enter"}, []string{"toggle"}, nil, stateMenu},
		{"toggle key", []string{"t"}, []string{"toggle"}, nil, stateMenu},
		{"first preset", []string{"down", "enter"}, []string{"timer"}, []int{5}, stateMenu},
		{"infinite preset", []string{"down", "down", "down", "down", "enter"}, []string{"timer"}, []int{0}, stateMenu},
		{"custom opens input", []string{"down", "down", "down", "down", "down", "enter"}, nil, nil, stateTimedInput},
		{"cancel entry", []string{"down", "down", "down", "down", "down", "down", "enter"}, []string{"cancel"}, nil, stateMenu},
		{"cancel key", []string{"x"}, []string{"cancel"}, nil, stateMenu},
		{"up at top stays", []string{"up", "enter"}, []string{"toggle"}, nil, stateMenu},
		{"help", []string{"?"}, nil, nil, stateHelp},
		{"help closes", []string{"?", "esc"}, nil, nil, stateMenu},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, f, _ := newTestModel()
			m, _ = press(m, tt.keys...)
			assert.Equal(t, tt.wantCalls, f.calls)
			assert.Equal(t, tt.wantTimers, f.timers)
			assert.Equal(t, tt.wantState, m.State)
		})
	}
}

func TestSelectionStopsAtLastItem(t *testing.T) {
	m, _, _ := newTestModel()
	n := len(m.items())
	for range n + 3 {
		m, _ = press(m, "down")
	}
	assert.Equal(t, n-1, m.Selected)

	_, cmd := press(m, "enter")
	assert.True(t, isQuit(cmd), "last entry quits")
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []string{"q", "esc"} {
		m, _, _ := newTestModel()
		_, cmd := press(m, k)
		assert.True(t, isQuit(cmd), k)
	}
}

func TestTimedInput(t *testing.T) {
	tests := []struct {
		name      string
		input     []string
		wantError string
		wantTimer []int
	}{
		{"minutes", []string{"4", "5"}, "", []int{45}},
		{"duration", []string{"1", "h", "3", "0", "m"}, "", []int{90}},
		{"empty", nil, "Please enter a duration", nil},
		{"zero", []string{"0"}, "Duration must be positive", nil},
		{"garbage", []string{"h", "m"}, "Invalid duration", nil},
		{"letters ignored", []string{"a", "7"}, "", []int{7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, f, _ := newTestModel()
			m.State = stateTimedInput
			m, _ = press(m, tt.input...)
			m, _ = press(m, "enter")

			assert.Equal(t, tt.wantError, m.ErrorMessage)
			assert.Equal(t, tt.wantTimer, f.timers)
			if tt.wantError == "" {
				assert.Equal(t, stateMenu, m.State)
			} else {
				assert.Equal(t, stateTimedInput, m.State)
			}
		})
	}
}

func TestTimedInputEditing(t *testing.T) {
	m, _, _ := newTestModel()
	m.State = stateTimedInput
	m, _ = press(m, "1", "2", "3", "4", "5", "6", "7", "8", "9")
	assert.Equal(t, "12345678", m.Input)

	m, _ = press(m, "backspace")
	assert.Equal(t, "1234567", m.Input)

	m, _ = press(m, "esc")
	assert.Equal(t, stateMenu, m.State)
}

func TestTimedInputView(t *testing.T) {
	m, _, _ := newTestModel()
	m.State = stateTimedInput
	m.Input = "5"
	view := View(m)
	assert.Contains(t, view, "minutes")
	assert.Contains(t, view, "5")
}

func TestMouseWheelScrolls(t *testing.T) {
	m, f, _ := newTestModel()
	m, _ = Update(tea.MouseMsg{Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress}, m)
	m, _ = Update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress}, m)
	_, _ = Update(tea.MouseMsg{Button: tea.MouseButtonLeft, Action: tea.MouseActionPress}, m)
	assert.Equal(t, []string{"up", "down"}, f.calls)
}

func TestStatusUpdatesView(t *testing.T) {
	m, _, updates := newTestModel()
	updates <- keepalive.Status{
		Inhibited:         true,
		Holders:           []string{"user"},
		Timer:             timer.State{Phase: timer.Countdown, Minutes: 10, Remaining: 300},
		TimerLabel:        "5:00",
		TimerLabelVisible: true,
		NightLightPaused:  true,
	}

	msg := m.Init()()
	m, cmd := Update(msg, m)
	require.NotNil(t, cmd, "keeps listening")

	view := View(m)
	assert.Contains(t, view, "Disable caffeine")
	assert.Contains(t, view, "5:00 remaining")
	assert.Contains(t, view, "Held by: user")
	assert.Contains(t, view, "Night Light paused")

	items := m.items()
	for _, it := range items {
		assert.Equal(t, it.action == actionPreset && it.minutes == 10, it.checked, it.label)
	}
}

func TestHiddenTimerLabel(t *testing.T) {
	m, _, _ := newTestModel()
	m.Status = keepalive.Status{
		Inhibited:  true,
		Timer:      timer.State{Phase: timer.Countdown, Minutes: 5, Remaining: 60},
		TimerLabel: "1:00",
	}
	assert.NotContains(t, View(m), "1:00 remaining")
}

func TestInfinitePresetChecked(t *testing.T) {
	m, _, _ := newTestModel()
	m.Status = keepalive.Status{Inhibited: true, Timer: timer.State{Phase: timer.Infinite}}
	for _, it := range m.items() {
		assert.Equal(t, it.label == "Infinite", it.checked, it.label)
	}
}

func TestClosedUpdatesQuit(t *testing.T) {
	m, _, updates := newTestModel()
	close(updates)
	_, cmd := Update(m.Init()(), m)
	assert.True(t, isQuit(cmd))
}

func TestProgressBar(t *testing.T) {
	assert.Empty(t, progressBar(timer.State{Phase: timer.Infinite}))
	assert.NotEmpty(t, progressBar(timer.State{Phase: timer.Countdown, Minutes: 1, Remaining: 30}))
}
