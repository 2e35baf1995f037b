package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/stigoleg/caffeine/internal/util"
)

// TimerFlags are the countdown options shared by `run` and `timer`.
type TimerFlags struct {
	Duration string
	Until    string
}

// Bind registers the flags on fs.
func (t *TimerFlags) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&t.Duration, "duration", "d", "", "Countdown length (e.g. \"2h30m\" or minutes as \"150\")")
	fs.StringVarP(&t.Until, "until", "u", "", "Keep the session awake until a clock time (e.g. \"22:30\" or \"10:30PM\")")
}

// Set reports whether any timer flag was given.
func (t TimerFlags) Set() bool {
	return t.Duration != "" || t.Until != ""
}

// Minutes resolves the flags to a countdown length in whole minutes,
// rounding up so the session is never released early.
func (t TimerFlags) Minutes(now time.Time) (int, error) {
	if t.Duration != "" && t.Until != "" {
		return 0, errors.New("cannot use both --duration and --until")
	}

	var d time.Duration
	switch {
	case t.Duration != "":
		parsed, err := util.ParseDuration(t.Duration)
		if err != nil {
			return 0, fmt.Errorf("Invalid duration format:\n\n%w", err)
		}
		d = parsed
	case t.Until != "":
		target, err := util.NextClock(t.Until, now)
		if err != nil {
			return 0, fmt.Errorf("Invalid clock time:\n\n%w", err)
		}
		d = target.Sub(now)
	default:
		return 0, nil
	}

	minutes := util.CeilMinutes(d)
	if minutes > 24*60 {
		return 0, fmt.Errorf("countdown is limited to 24h, got %s", d)
	}
	return minutes, nil
}
