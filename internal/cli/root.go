// Package cli provides the command-line interface for caffeine.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stigoleg/caffeine/internal/config"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
}

// settingsPath returns --config, or the default settings location.
func (o *globalOptions) settingsPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.DefaultPath()
}

func (o *globalOptions) openStore() (*config.Store, error) {
	path, err := o.settingsPath()
	if err != nil {
		return nil, err
	}
	return config.Open(path)
}

// NewRootCmd creates the root command for caffeine.
func NewRootCmd(version string) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "caffeine",
		Short: "Keep the GNOME session from going idle or suspending",
		Long: `Caffeine holds session inhibitors on behalf of the user, a countdown,
watched applications and fullscreen windows. Start the daemon with
"caffeine run"; the other commands talk to it over the session bus.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Settings file (default $XDG_CONFIG_HOME/caffeine/settings.yaml)")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newToggleCmd(),
		newStatusCmd(),
		newTimerCmd(),
		newAppsCmd(opts),
		newConfigCmd(opts),
		newShortcutCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "caffeine %s\n", version)
			},
		},
	)
	return rootCmd
}
