package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dooshek/textgrab/internal/autocapture"
	"github.com/dooshek/textgrab/internal/config"
	"github.com/dooshek/textgrab/internal/dbus"
	"github.com/dooshek/textgrab/internal/fileops"
	"github.com/dooshek/textgrab/internal/keyboard"
	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/state"
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Listen for capture shortcuts and D-Bus requests",
	Long: `Run in the background: capture_key captures the default window,
region_key captures a region centered on the primary display. With
output.dbus enabled the com.dooshek.textgrab service accepts Capture calls
and announces results; with auto_capture enabled the default window is
captured on an interval.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().Bool("no-hotkeys", false, "Do not listen for keyboard shortcuts")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	noHotkeys, _ := cmd.Flags().GetBool("no-hotkeys")

	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		return err
	}
	if existing, err := config.LoadConfigFrom(fileOps); err != nil {
		return fmt.Errorf("error loading config: %w", err)
	} else if existing == nil {
		logger.Info("No configuration found. Running setup wizard...")
		if err := config.RunWizard(); err != nil {
			return fmt.Errorf("error running wizard: %w", err)
		}
	}

	cfg, fileOps, err := loadConfig()
	if err != nil {
		return err
	}

	if err := fileOps.CheckPID(); err != nil {
		if errors.Is(err, fileops.ErrProcessAlreadyRunning) {
			return fmt.Errorf("another instance of textgrab is already running: %w", err)
		}
		logger.Warnf("PID check failed: %v", err)
	}
	if err := fileOps.SavePID(); err != nil {
		return fmt.Errorf("failed to save PID file: %w", err)
	}
	defer fileOps.HandleExit()

	a, err := newApp(cfg, fileOps, appOptions{notify: true, clipboard: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	if cfg.Output.DBus {
		server := dbus.NewServer(a.pipeline, a.pipeline.Recorder())
		if err := server.Start(); err != nil {
			logger.Warnf("D-Bus service unavailable: %v", err)
		} else {
			a.pipeline.AddObserver(server)
			defer server.Stop()
		}
	}

	if auto := cfg.GetAutoCaptureConfig(); auto.Enabled {
		svc, err := autocapture.NewService(a.pipeline, auto)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Auto capture stopped", err)
			}
		}()
	}

	if !noHotkeys {
		monitor, err := keyboard.CreateMonitor(a.triggers(ctx), a.pipeline.Busy)
		if err != nil {
			return fmt.Errorf("failed to create keyboard monitor: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := monitor.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Keyboard monitor stopped", err)
			}
		}()
	}

	logger.Infof("textgrab daemon running (capture: %s, region: %s)",
		keyboard.FormatCombo(cfg.CaptureKey), keyboard.FormatCombo(cfg.RegionKey))
	if err := a.notifier.Notify("textgrab", "Ready - press "+keyboard.FormatCombo(cfg.CaptureKey)); err != nil {
		logger.Debugf("Notification failed: %v", err)
	}

	<-ctx.Done()
	logger.Info("Shutting down...")
	wg.Wait()
	return nil
}

// triggers binds the configured shortcuts to pipeline runs
func (a *app) triggers(ctx context.Context) []keyboard.Trigger {
	run := func(target func() string) func() {
		return func() {
			t := target()
			if t == "" {
				logger.Warn("Shortcut pressed but no default_target is configured")
				return
			}
			if err := a.notifier.NotifyCaptureStarted(t); err != nil {
				logger.Debugf("Notification failed: %v", err)
			}
			if _, err := a.pipeline.Run(ctx, t, -1); err != nil {
				logger.Debugf("Shortcut capture of %q failed: %v", t, err)
			}
		}
	}

	return []keyboard.Trigger{
		{Name: "capture_key", Binding: a.cfg.CaptureKey, Fire: run(state.Get().GetDefaultTarget)},
		{Name: "region_key", Binding: a.cfg.RegionKey, Fire: run(state.Get().GetRegionTarget)},
	}
}
