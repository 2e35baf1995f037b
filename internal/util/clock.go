package util

import (
	"fmt"
	"strings"
	"time"
)

var clockLayouts = []string{"15:04", "3:04PM", "3:04 PM", "03:04PM", "03:04 PM", "3PM", "3 PM"}

// NextClock returns the next moment after now that the wall clock reads s.
// A time already passed today resolves to tomorrow.
func NextClock(s string, now time.Time) (time.Time, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		target := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
		if !target.After(now) {
			target = target.AddDate(0, 0, 1)
		}
		return target, nil
	}
	return time.Time{}, fmt.Errorf("invalid time format: %s\n\nValid formats:\n"+
		"• 24-hour format: HH:MM (e.g., '23:30', '09:45')\n"+
		"• 12-hour format: HH:MM[AM|PM] (e.g., '11:30PM', '9:45 AM')", s)
}
