// Package ui provides the terminal user interface for caffeine.
package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/caffeine/internal/keepalive"
)

// Controller is the part of the Keeper the interfaces drive.
type Controller interface {
	Toggle()
	StartTimer(minutes int)
	CancelTimer()
	ScrollUp()
	ScrollDown()
	Status() keepalive.Status
	Subscribe() (<-chan keepalive.Status, func())
}

// Run shows the TUI until the user quits or ctx is done.
func Run(ctx context.Context, c Controller) error {
	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	p := tea.NewProgram(NewModel(c, updates),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
