// Package util holds the duration and clock-time parsing shared by the
// command line and the terminal UI.
package util

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrNegativeDuration is returned for durations below zero.
var ErrNegativeDuration = errors.New("duration must not be negative")

// ParseDuration accepts a bare number of minutes ("90"), a Go duration
// ("1h30m", "45s") or an hour count with trailing minutes ("1h30").
func ParseDuration(input string) (time.Duration, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return 0, errors.New("empty duration")
	}
	if minutes, err := strconv.Atoi(input); err == nil {
		return checkSign(time.Duration(minutes) * time.Minute)
	}
	if d, err := time.ParseDuration(input); err == nil {
		return checkSign(d)
	}
	if h, m, ok := strings.Cut(input, "h"); ok && m != "" && !strings.ContainsAny(m, "hms") {
		if d, err := time.ParseDuration(h + "h" + m + "m"); err == nil {
			return checkSign(d)
		}
	}
	return 0, fmt.Errorf("invalid duration format: %s", input)
}

// CeilMinutes rounds d up to whole minutes.
func CeilMinutes(d time.Duration) int {
	return int(math.Ceil(d.Minutes()))
}

func checkSign(d time.Duration) (time.Duration, error) {
	if d < 0 {
		return 0, fmt.Errorf("%w: %s", ErrNegativeDuration, d)
	}
	return d, nil
}
