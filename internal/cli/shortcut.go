package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stigoleg/caffeine/internal/config"
	"github.com/stigoleg/caffeine/internal/platform"
)

// Swapped in tests.
var (
	installShortcut = platform.InstallShortcut
	removeShortcut  = platform.RemoveShortcut
)

func newShortcutCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shortcut",
		Short: "Manage the keyboard shortcut that toggles inhibition",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "install [accelerator]",
			Short: "Bind toggle-shortcut, or the given accelerator, to \"caffeine toggle\"",
			Example: `  caffeine shortcut install
  caffeine shortcut install "<Control><Alt>c"`,
			Args: cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := g.openStore()
				if err != nil {
					return err
				}
				accel := store.Get().ToggleShortcut
				if len(args) == 1 {
					accel = args[0]
					if err := store.Update(func(s *config.Settings) { s.ToggleShortcut = accel }); err != nil {
						return err
					}
				}
				if accel == "" {
					return fmt.Errorf("%s is empty", config.KeyToggleShortcut)
				}

				exe, err := os.Executable()
				if err != nil {
					return fmt.Errorf("failed to locate caffeine binary: %w", err)
				}
				if err := installShortcut(accel, exe+" toggle"); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s now toggles caffeine\n", accel)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove",
			Short: "Remove the keyboard shortcut",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return removeShortcut()
			},
		},
	)
	return cmd
}
