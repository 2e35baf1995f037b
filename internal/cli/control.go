package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/stigoleg/caffeine/internal/config"
	"github.com/stigoleg/caffeine/internal/platform"
	"github.com/stigoleg/caffeine/internal/ui"
)

// dial is swapped in tests.
var dial = platform.Dial

func withClient(fn func(platform.Client) error) error {
	c, err := dial()
	if err != nil {
		return fmt.Errorf("failed to reach the session bus: %w", err)
	}
	defer c.Close()
	return fn(c)
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Toggle inhibition in the running daemon",
		Long:  `Toggle inhibition in the running daemon. This is what the keyboard shortcut runs.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(func(c platform.Client) error { return c.Toggle() })
		},
	}
}

func newTimerCmd() *cobra.Command {
	var flags config.TimerFlags
	cmd := &cobra.Command{
		Use:   "timer [duration]",
		Short: "Enable inhibition for a limited time",
		Long: `Enable inhibition and switch it off again when the countdown ends.
A duration of 0 means no limit.`,
		Example: `  caffeine timer 30
  caffeine timer 1h30m
  caffeine timer --until 22:30
  caffeine timer cancel`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if flags.Duration != "" {
					return errors.New("give the duration either as argument or with --duration")
				}
				flags.Duration = args[0]
			}
			if !flags.Set() {
				return errors.New("missing duration")
			}
			minutes, err := flags.Minutes(time.Now())
			if err != nil {
				return err
			}
			return withClient(func(c platform.Client) error { return c.StartTimer(minutes) })
		},
	}
	flags.Bind(cmd.Flags())
	cmd.AddCommand(&cobra.Command{
		Use:   "cancel",
		Short: "Stop the countdown and keep inhibition as it is",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(func(c platform.Client) error { return c.CancelTimer() })
		},
	})
	return cmd
}

// listInhibitors is swapped in tests.
var listInhibitors = platform.ListInhibitors

func newStatusCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the daemon's state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var st platform.RemoteStatus
			if err := withClient(func(c platform.Client) error {
				var err error
				st, err = c.Status()
				return err
			}); err != nil {
				return err
			}
			writeStatus(cmd.OutOrStdout(), st)

			if !all {
				return nil
			}
			inhibitors, err := listInhibitors()
			if err != nil {
				return fmt.Errorf("failed to list session inhibitors: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			writeInhibitors(cmd.OutOrStdout(), inhibitors)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Also list every inhibitor held in the session")
	return cmd
}

func writeStatus(w io.Writer, st platform.RemoteStatus) {
	if st.Inhibited {
		fmt.Fprintln(w, ui.Current.ActiveStatus.Render("Auto suspend and screensaver disabled"))
	} else {
		fmt.Fprintln(w, ui.Current.InactiveStatus.Render("Auto suspend and screensaver enabled"))
	}
	if st.Label != "" {
		fmt.Fprintln(w, ui.Current.Countdown.Render(st.Label+" remaining"))
	}
	if len(st.Holders) > 0 {
		fmt.Fprintln(w, ui.Current.Detail.Render("Held by: "+strings.Join(st.Holders, ", ")))
	}
}

func writeInhibitors(w io.Writer, inhibitors []platform.Inhibitor) {
	if len(inhibitors) == 0 {
		fmt.Fprintln(w, "No session inhibitors.")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("APPLICATION", "REASON", "IDLE", "SUSPEND")
	for _, i := range inhibitors {
		t.Row(i.AppID, i.Reason, yesNo(i.Idle), yesNo(i.Suspend))
	}
	fmt.Fprintln(w, t.Render())
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
