package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/gen2brain/beeep"
	"github.com/spf13/cobra"

	"github.com/jdziat/sync-schedules/pkg/core"
)

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sync daemon",
		Long: `Run in the foreground and sync at every scheduled occurrence until
interrupted. Schedules changed by other syncsched commands are picked up
automatically when the database is a sqlite file.

Under systemd, use Type=notify: readiness and shutdown are reported through
sd_notify.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// The daemon logs at the configured level.
			daemonOpts := *opts
			daemonOpts.verbose = true
			a, err := openApp(ctx, &daemonOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			return runDaemon(ctx, a)
		},
	}
}

// runDaemon dispatches the loaded schedules until ctx is cancelled.
func runDaemon(ctx context.Context, a *app) error {
	runner, err := a.runner()
	if err != nil {
		return err
	}
	d, err := a.dispatcher(runner)
	if err != nil {
		return err
	}

	if notify := a.notifier(); notify != nil {
		events := d.Events()
		defer d.Unsubscribe(events)
		go notifyRuns(ctx, a.logger, events, notify)
	}

	if path := a.databaseFile(); path != "" {
		go func() {
			err := watchDatabase(ctx, path, reloadDebounce, a.logger, func() {
				if err := a.reload(ctx); err != nil {
					a.logger.Error("failed to reload schedules", "error", err)
				}
			})
			if err != nil {
				a.logger.Warn("not watching the database for changes", "path", path, "error", err)
			}
		}()
	}

	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	notify(a.logger, daemon.SdNotifyReady)
	a.logger.Info("syncsched running", "schedules", a.reg.Len(), "config", a.configPath)

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}
	notify(a.logger, daemon.SdNotifyStopping)

	err = <-done
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// desktopNotify shows a desktop notification.
func desktopNotify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// notifier returns the desktop notification func, or nil when notifications
// are off.
func (a *app) notifier() func(title, message string) error {
	if !a.cfg.Notify {
		return nil
	}
	if a.opts.notify != nil {
		return a.opts.notify
	}
	return desktopNotify
}

// notifyRuns shows a notification for every completed sync. Outcomes are
// logged by the dispatcher.
func notifyRuns(ctx context.Context, logger *slog.Logger, events <-chan core.Event, notify func(title, message string) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			ev, ok := e.(*core.SyncCompleted)
			if !ok {
				continue
			}
			if err := notify("Synced", fmt.Sprintf("%q synced at %s", ev.Schedule.Label, ev.Occurrence.Format(time.Kitchen))); err != nil {
				logger.Warn("desktop notification failed", "error", err)
			}
		}
	}
}

// notify sends state to systemd. Outside systemd it does nothing.
func notify(logger *slog.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logger.Warn("sd_notify failed", "state", state, "error", err)
		return
	}
	if sent {
		logger.Debug("sd_notify sent", "state", state)
	}
}
