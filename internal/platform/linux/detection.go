//go:build linux

// Package linux binds caffeine to the GNOME session: the session manager's
// inhibitors, night light, notifications, the X11 window list, desktop
// entries and the daemon's own control service.
package linux

import (
	"os"
	"slices"
	"strings"
)

// Display servers.
const (
	DisplayServerWayland = "wayland"
	DisplayServerX11     = "x11"
	DisplayServerUnknown = "unknown"
)

// gnomeFamily lists XDG_CURRENT_DESKTOP components whose sessions run
// gnome-session and so provide org.gnome.SessionManager.
var gnomeFamily = []string{"gnome", "gnome-classic", "gnome-flashback", "ubuntu", "unity", "budgie", "pop", "cinnamon", "x-cinnamon"}

// foreign lists desktops known to ship their own session manager.
var foreign = []string{"kde", "plasma", "xfce", "mate", "lxqt", "lxde", "cosmic", "hyprland", "sway"}

// Desktop returns the lowercased components of XDG_CURRENT_DESKTOP, falling
// back to DESKTOP_SESSION.
func Desktop() []string {
	raw := os.Getenv("XDG_CURRENT_DESKTOP")
	if raw == "" {
		raw = os.Getenv("DESKTOP_SESSION")
	}
	var out []string
	for _, part := range strings.Split(strings.ToLower(raw), ":") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// DetectDisplayServer reports whether the session runs on Wayland or X11.
func DetectDisplayServer() string {
	switch {
	case os.Getenv("WAYLAND_DISPLAY") != "", os.Getenv("XDG_SESSION_TYPE") == DisplayServerWayland:
		return DisplayServerWayland
	case os.Getenv("DISPLAY") != "", os.Getenv("XDG_SESSION_TYPE") == DisplayServerX11:
		return DisplayServerX11
	}
	return DisplayServerUnknown
}

// Supported reports whether desktop is expected to provide
// org.gnome.SessionManager. Unknown desktops are tried anyway.
func Supported(desktop []string) bool {
	for _, d := range desktop {
		if slices.Contains(gnomeFamily, d) {
			return true
		}
	}
	for _, d := range desktop {
		if slices.Contains(foreign, d) {
			return false
		}
	}
	return true
}
