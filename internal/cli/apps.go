package cli

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/stigoleg/caffeine/internal/config"
	"github.com/stigoleg/caffeine/internal/platform"
)

// installedApps is swapped in tests.
var installedApps = platform.InstalledApps

func newAppsCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "Manage the applications that inhibit while running",
	}

	var installed bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List the watched applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if installed {
				apps, err := installedApps()
				if err != nil {
					return err
				}
				t := table.New().Border(lipgloss.HiddenBorder()).Headers("ID", "NAME")
				for _, a := range apps {
					t.Row(a.ID, a.Name)
				}
				fmt.Fprintln(out, t.Render())
				return nil
			}

			store, err := g.openStore()
			if err != nil {
				return err
			}
			for _, id := range store.Get().InhibitApps {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
	list.Flags().BoolVar(&installed, "installed", false, "List installed applications instead")

	add := &cobra.Command{
		Use:     "add <desktop-id>...",
		Short:   "Inhibit while an application runs",
		Example: "  caffeine apps add org.gnome.Totem.desktop",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			warnUnknown(cmd, args)
			return updateApps(g, func(ids []string) []string { return append(ids, args...) })
		},
	}

	remove := &cobra.Command{
		Use:   "remove <desktop-id>...",
		Short: "Stop watching an application",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateApps(g, func(ids []string) []string {
				return slices.DeleteFunc(ids, func(id string) bool { return slices.Contains(args, id) })
			})
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

func updateApps(g *globalOptions, fn func([]string) []string) error {
	store, err := g.openStore()
	if err != nil {
		return err
	}
	return store.Update(func(s *config.Settings) {
		s.InhibitApps = config.NormalizeApps(fn(slices.Clone(s.InhibitApps)))
	})
}

// warnUnknown reports IDs without a desktop entry. They are added anyway:
// the application may be installed later.
func warnUnknown(cmd *cobra.Command, ids []string) {
	apps, err := installedApps()
	if err != nil {
		return
	}
	for _, id := range ids {
		if !slices.ContainsFunc(apps, func(a platform.InstalledApp) bool { return a.ID == id }) {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: no desktop entry named %s\n", id)
		}
	}
}
