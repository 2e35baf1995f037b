//go:build linux

package linux

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
)

const (
	mediaKeysSchema = "org.gnome.settings-daemon.plugins.media-keys"
	customKeySchema = mediaKeysSchema + ".custom-keybinding"
	customKeyList   = "custom-keybindings"
	shortcutPath    = "/org/gnome/settings-daemon/plugins/media-keys/custom-keybindings/caffeine/"
)

// ErrNoGsettings is returned when the gsettings tool is missing.
var ErrNoGsettings = errors.New("gsettings command not found")

// InstallShortcut binds accel to command as a GNOME custom keybinding.
// Installing again updates the existing binding.
func InstallShortcut(accel, command string) error {
	if !hasCommand("gsettings") {
		return ErrNoGsettings
	}
	paths, err := customKeybindings()
	if err != nil {
		return err
	}
	if !slices.Contains(paths, shortcutPath) {
		paths = append(paths, shortcutPath)
		if out, err := runVerbose("gsettings", "set", mediaKeysSchema, customKeyList, formatStrv(paths)); err != nil {
			return fmt.Errorf("failed to register keybinding (output: %q): %w", out, err)
		}
	}

	relocatable := customKeySchema + ":" + shortcutPath
	settings := []struct{ key, value string }{
		{"name", "Caffeine"},
		{"command", command},
		{"binding", accel},
	}
	for _, s := range settings {
		if out, err := runVerbose("gsettings", "set", relocatable, s.key, quote(s.value)); err != nil {
			return fmt.Errorf("failed to set keybinding %s (output: %q): %w", s.key, out, err)
		}
	}
	log.Printf("linux: bound %s to %q", accel, command)
	return nil
}

// RemoveShortcut deletes the keybinding installed by InstallShortcut.
func RemoveShortcut() error {
	if !hasCommand("gsettings") {
		return ErrNoGsettings
	}
	paths, err := customKeybindings()
	if err != nil {
		return err
	}
	if i := slices.Index(paths, shortcutPath); i >= 0 {
		paths = slices.Delete(paths, i, i+1)
		if out, err := runVerbose("gsettings", "set", mediaKeysSchema, customKeyList, formatStrv(paths)); err != nil {
			return fmt.Errorf("failed to unregister keybinding (output: %q): %w", out, err)
		}
	}
	runBestEffort("gsettings", "reset-recursively", customKeySchema+":"+shortcutPath)
	return nil
}

func customKeybindings() ([]string, error) {
	out, err := runVerbose("gsettings", "get", mediaKeysSchema, customKeyList)
	if err != nil {
		return nil, fmt.Errorf("failed to read keybindings (output: %q): %w", out, err)
	}
	return parseStrv(out)
}

// parseStrv parses gsettings' rendering of a string array, e.g.
// "['/a/', '/b/']" or "@as []".
func parseStrv(s string) ([]string, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "@as"))
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("unexpected string array %q", s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	var out []string
	for body != "" {
		if body[0] != '\'' && body[0] != '"' {
			return nil, fmt.Errorf("unexpected string array %q", s)
		}
		q := body[0]
		var b strings.Builder
		i := 1
		for ; i < len(body) && body[i] != q; i++ {
			if body[i] == '\\' && i+1 < len(body) {
				i++
			}
			b.WriteByte(body[i])
		}
		if i >= len(body) {
			return nil, fmt.Errorf("unterminated string in %q", s)
		}
		out = append(out, b.String())
		body = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(body[i+1:]), ","))
	}
	return out, nil
}

func formatStrv(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = quote(it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
