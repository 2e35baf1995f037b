package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stigoleg/caffeine/internal/config"
	"github.com/stigoleg/caffeine/internal/keepalive"
	"github.com/stigoleg/caffeine/internal/platform"
	"github.com/stigoleg/caffeine/internal/ui"
	"github.com/stigoleg/caffeine/internal/ui/tray"
)

type runOptions struct {
	timer    config.TimerFlags
	tui      bool
	noTray   bool
	logFile  string
	lockPath string
}

func newRunCmd(g *globalOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the caffeine daemon",
		Long: `Run the daemon that owns the session inhibitors. It shows a tray
indicator and serves the control commands until interrupted.`,
		Example: `  caffeine run
  caffeine run --tui
  caffeine run -d 2h30m
  caffeine run --until 22:30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context(), g, opts)
		},
	}
	opts.timer.Bind(cmd.Flags())
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "Show the interactive terminal interface")
	cmd.Flags().BoolVar(&opts.noTray, "no-tray", false, "Do not show a tray indicator")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "Write logs to this file (default stderr, or the state dir with --tui)")
	cmd.Flags().StringVar(&opts.lockPath, "lock", "", "Instance lock file (default $XDG_RUNTIME_DIR/caffeine.lock)")
	_ = cmd.Flags().MarkHidden("lock")
	return cmd
}

func runDaemon(ctx context.Context, g *globalOptions, opts *runOptions) error {
	minutes, err := opts.timer.Minutes(time.Now())
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	lockPath := opts.lockPath
	if lockPath == "" {
		lockPath = keepalive.DefaultLockPath()
	}
	inst, err := keepalive.Acquire(lockPath)
	if err != nil {
		return err
	}
	defer inst.Release()

	store, err := g.openStore()
	if err != nil {
		return err
	}

	queue := keepalive.NewQueue()
	session, err := platform.NewSession(queue)
	if err != nil {
		return fmt.Errorf("failed to connect to the desktop session: %w", err)
	}

	k, err := keepalive.New(keepalive.Options{
		Queue:      queue,
		Broker:     session.Broker(),
		Settings:   store,
		NightLight: session.NightLight(),
		Notifier:   session.Notifier(),
		Apps:       session.Apps(),
		Display:    session.Display(),
	})
	if err != nil {
		_ = session.Close()
		return err
	}
	session.OnAppsInstalled(k.RefreshApps)
	k.OnClose("session", session.Close)

	withdraw, err := session.Serve(k)
	if err != nil {
		_ = session.Close()
		return err
	}
	k.OnClose("control", withdraw)

	if opts.timer.Set() {
		k.StartTimer(minutes)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error { return k.Run(ctx) })
	eg.Go(func() error { return store.Watch(ctx) })
	eg.Go(func() error { return session.Run(ctx) })

	if !opts.noTray {
		eg.Go(func() error {
			updates, unsubscribe := k.Subscribe()
			defer unsubscribe()
			t := tray.New(tray.Callbacks{
				OnToggle: k.Toggle,
				OnTimer:  k.StartTimer,
				OnCancel: k.CancelTimer,
				OnQuit:   cancel,
			})
			return t.Run(ctx, k.Status(), updates)
		})
	}
	if opts.tui {
		eg.Go(func() error {
			defer cancel()
			return ui.Run(ctx, k)
		})
	}

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// setupLogging points the standard logger at --log-file. With the TUI the
// terminal belongs to bubbletea, so logs go to the state dir by default.
func setupLogging(opts *runOptions) (func(), error) {
	path := opts.logFile
	if path == "" && opts.tui {
		p, err := xdg.StateFile(filepath.Join("caffeine", "caffeine.log"))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve log path: %w", err)
		}
		path = p
	}
	if path == "" {
		return func() {}, nil
	}

	var f io.Closer
	var err error
	if opts.tui {
		f, err = tea.LogToFile(path, "caffeine")
	} else {
		var file *os.File
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			log.SetOutput(file)
			f = file
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return func() { _ = f.Close() }, nil
}
