package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stigoleg/caffeine/internal/platform"
	"github.com/stigoleg/caffeine/internal/ui"
)

// FormatError renders err for the terminal. Errors carrying a "header\n\n
// details" message get a bordered box.
func FormatError(err error) string {
	if errors.Is(err, platform.ErrNotRunning) {
		err = fmt.Errorf("%w\n\nStart it with \"caffeine run\".", err)
	}

	msg := err.Error()
	parts := strings.SplitN(msg, "\n\n", 2)
	if len(parts) == 2 {
		errorBox := ui.Current.Help.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF4040"))

		header := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF4040")).
			Render(parts[0])

		details := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999")).
			Render(parts[1])

		return errorBox.Render(fmt.Sprintf("%s\n\n%s", header, details))
	}
	return ui.Current.Error.Render(msg)
}
