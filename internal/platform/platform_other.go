//go:build !linux

package platform

import "github.com/stigoleg/caffeine/internal/schedule"

// NewSession reports ErrUnsupported: only the GNOME session is implemented.
func NewSession(schedule.Poster) (Session, error) { return nil, ErrUnsupported }

// Dial reports ErrUnsupported.
func Dial() (Client, error) { return nil, ErrUnsupported }

// ListInhibitors reports ErrUnsupported.
func ListInhibitors() ([]Inhibitor, error) { return nil, ErrUnsupported }

// InstalledApps reports ErrUnsupported.
func InstalledApps() ([]InstalledApp, error) { return nil, ErrUnsupported }

// InstallShortcut reports ErrUnsupported.
func InstallShortcut(accel, command string) error { return ErrUnsupported }

// RemoveShortcut reports ErrUnsupported.
func RemoveShortcut() error { return ErrUnsupported }
