package ui

// state represents the different screens of the TUI.
type state int

const (
	stateMenu state = iota
	stateTimedInput
	stateHelp
)

func (s state) String() string {
	switch s {
	case stateMenu:
		return "Menu"
	case stateTimedInput:
		return "TimedInput"
	case stateHelp:
		return "Help"
	default:
		return "Unknown"
	}
}
