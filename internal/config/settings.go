// Package config holds the persisted caffeine settings and the command line
// options that feed them.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"
)

// ErrInvalidSetting is wrapped by every validation failure.
var ErrInvalidSetting = errors.New("invalid setting")

// ShowIndicator controls when the indicator is visible.
type ShowIndicator int

const (
	IndicatorOnlyActive ShowIndicator = iota
	IndicatorAlways
	IndicatorNever
)

var indicatorNames = []string{"only-active", "always", "never"}

func (s ShowIndicator) String() string { return enumName(indicatorNames, int(s)) }

func (s ShowIndicator) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ShowIndicator) UnmarshalText(b []byte) error {
	i, err := enumValue(indicatorNames, "show-indicator", string(b))
	*s = ShowIndicator(i)
	return err
}

func (ShowIndicator) JSONSchema() *jsonschema.Schema { return enumSchema(indicatorNames) }

// Visible reports whether the indicator is shown for the given state.
func (s ShowIndicator) Visible(inhibited bool) bool {
	if inhibited {
		return s != IndicatorNever
	}
	return s == IndicatorAlways
}

// NightLightControl selects when night light is paused while inhibited.
type NightLightControl int

const (
	NightLightNever NightLightControl = iota
	NightLightAlways
	NightLightForApps
)

var nightLightNames = []string{"never", "always", "for-apps"}

func (n NightLightControl) String() string { return enumName(nightLightNames, int(n)) }

func (n NightLightControl) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

func (n *NightLightControl) UnmarshalText(b []byte) error {
	i, err := enumValue(nightLightNames, "nightlight-control", string(b))
	*n = NightLightControl(i)
	return err
}

func (NightLightControl) JSONSchema() *jsonschema.Schema { return enumSchema(nightLightNames) }

// Key names one setting as it appears in the settings file.
type Key string

const (
	KeyUserEnabled       Key = "user-enabled"
	KeyRestoreState      Key = "restore-state"
	KeyTimerEnabled      Key = "countdown-timer-enabled"
	KeyTimerMinutes      Key = "countdown-timer"
	KeyInhibitApps       Key = "inhibit-apps"
	KeyShowIndicator     Key = "show-indicator"
	KeyNightLight        Key = "nightlight-control"
	KeyShowNotifications Key = "show-notifications"
	KeyShowTimer         Key = "show-timer"
	KeyEnableFullscreen  Key = "enable-fullscreen"
	KeyToggleShortcut    Key = "toggle-shortcut"
)

// Settings is the full persisted state.
type Settings struct {
	// Whether the user asked for inhibition. Mirrors the user's lease.
	UserEnabled bool `yaml:"user-enabled" json:"user-enabled"`
	// Re-enable inhibition at startup if it was on at shutdown.
	RestoreState bool `yaml:"restore-state" json:"restore-state"`
	// Start trigger for the countdown; written back to false once consumed.
	TimerEnabled bool `yaml:"countdown-timer-enabled" json:"countdown-timer-enabled"`
	// Countdown length in minutes, 0 for no limit.
	TimerMinutes int `yaml:"countdown-timer" json:"countdown-timer" jsonschema:"minimum=0,maximum=1440"`
	// Desktop IDs that inhibit while running.
	InhibitApps []string `yaml:"inhibit-apps" json:"inhibit-apps"`
	// When the indicator is visible.
	ShowIndicator ShowIndicator `yaml:"show-indicator" json:"show-indicator"`
	// When night light is paused during inhibition.
	NightLight NightLightControl `yaml:"nightlight-control" json:"nightlight-control"`
	// Send a notification on every state change.
	ShowNotifications bool `yaml:"show-notifications" json:"show-notifications"`
	// Show the remaining countdown next to the indicator.
	ShowTimer bool `yaml:"show-timer" json:"show-timer"`
	// Inhibit while any window is fullscreen.
	EnableFullscreen bool `yaml:"enable-fullscreen" json:"enable-fullscreen"`
	// Accelerator bound to `caffeine toggle`, in GTK syntax.
	ToggleShortcut string `yaml:"toggle-shortcut" json:"toggle-shortcut"`
}

// Defaults returns the settings used when no file exists.
func Defaults() Settings {
	return Settings{
		ShowIndicator:     IndicatorOnlyActive,
		NightLight:        NightLightNever,
		ShowNotifications: true,
		ShowTimer:         true,
		InhibitApps:       []string{},
		ToggleShortcut:    "<Super>c",
	}
}

// Validate checks ranges and normalizes the app list.
func (s *Settings) Validate() error {
	if s.TimerMinutes < 0 || s.TimerMinutes > 24*60 {
		return fmt.Errorf("%w: %s must be between 0 and 1440, got %d", ErrInvalidSetting, KeyTimerMinutes, s.TimerMinutes)
	}
	if s.ShowIndicator < IndicatorOnlyActive || s.ShowIndicator > IndicatorNever {
		return fmt.Errorf("%w: %s out of range", ErrInvalidSetting, KeyShowIndicator)
	}
	if s.NightLight < NightLightNever || s.NightLight > NightLightForApps {
		return fmt.Errorf("%w: %s out of range", ErrInvalidSetting, KeyNightLight)
	}
	s.InhibitApps = NormalizeApps(s.InhibitApps)
	return nil
}

// NormalizeApps trims, drops empties and collapses duplicates, keeping the
// first occurrence.
func NormalizeApps(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Diff lists the keys whose values differ between a and b.
func Diff(a, b Settings) []Key {
	var keys []Key
	add := func(changed bool, k Key) {
		if changed {
			keys = append(keys, k)
		}
	}
	add(a.UserEnabled != b.UserEnabled, KeyUserEnabled)
	add(a.RestoreState != b.RestoreState, KeyRestoreState)
	add(a.TimerEnabled != b.TimerEnabled, KeyTimerEnabled)
	add(a.TimerMinutes != b.TimerMinutes, KeyTimerMinutes)
	add(!slices.Equal(a.InhibitApps, b.InhibitApps), KeyInhibitApps)
	add(a.ShowIndicator != b.ShowIndicator, KeyShowIndicator)
	add(a.NightLight != b.NightLight, KeyNightLight)
	add(a.ShowNotifications != b.ShowNotifications, KeyShowNotifications)
	add(a.ShowTimer != b.ShowTimer, KeyShowTimer)
	add(a.EnableFullscreen != b.EnableFullscreen, KeyEnableFullscreen)
	add(a.ToggleShortcut != b.ToggleShortcut, KeyToggleShortcut)
	return keys
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("unknown(%d)", i)
	}
	return names[i]
}

func enumValue(names []string, key, v string) (int, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for i, n := range names {
		if n == v || strings.ReplaceAll(n, "-", "_") == v {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s must be one of %s, got %q", ErrInvalidSetting, key, strings.Join(names, ", "), v)
}

func enumSchema(names []string) *jsonschema.Schema {
	s := &jsonschema.Schema{Type: "string"}
	for _, n := range names {
		s.Enum = append(s.Enum, n)
	}
	return s
}
