package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/entrhq/autorecord/pkg/autorecord"
	"github.com/entrhq/autorecord/pkg/browser"
	"github.com/entrhq/autorecord/pkg/config"
	"github.com/entrhq/autorecord/pkg/logging"
	"github.com/entrhq/autorecord/pkg/notify"
	"github.com/entrhq/autorecord/pkg/telemetry"
	"github.com/entrhq/autorecord/pkg/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch Chromium and automate Calendar and Meet",
	RunE:  runAutomation,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("headless", false, "Run the browser without a window")
	runCmd.Flags().String("profile", "", "Chromium user data directory to keep the Google sign-in")
	runCmd.Flags().Bool("install", false, "Install the Playwright driver and Chromium before starting")
	runCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	runCmd.Flags().Bool("trace", false, "Write workflow spans to stderr")
	runCmd.Flags().Bool("watch", true, "Reload the config file when it changes")
}

// engineOptions builds the engine options from the loaded configuration.
func engineOptions(m *config.Manager, notifier notify.Notifier, logger *logging.Logger, metrics *telemetry.Metrics) autorecord.Options {
	opts := autorecord.DefaultOptions()
	config.GetAutomation(m).ApplyTo(&opts)
	opts.Notifier = notifier
	opts.Flags = &notify.MemoryFlags{}
	opts.Logger = logger
	opts.Metrics = metrics
	return opts
}

func runAutomation(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logging.NewLogger("autorecord")
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging to stderr: %v\n", err)
	}
	defer logger.Close()

	metrics := telemetry.NewMetrics("autorecord")
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr); err != nil {
				logger.Errorf("metrics: %v", err)
			}
		}()
		logger.Infof("serving metrics on %s/metrics", addr)
	}

	if traced, _ := cmd.Flags().GetBool("trace"); traced {
		shutdown, err := telemetry.SetupTracing(os.Stderr, version)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warnf("trace flush: %v", err)
			}
		}()
	}

	notifier := notify.Multi{notify.NewTerminal(cmd.OutOrStdout()), notify.NewLog(logger.With("notify"))}
	attacher := browser.NewAttacher(engineOptions(config.Global(), notifier, logger, metrics))
	attacher.OnAttach(func(att *browser.Attachment) {
		if r, ok := att.Orchestrator.(interface{ OnFinish(func(workflow.Report)) }); ok {
			r.OnFinish(func(rep workflow.Report) {
				logger.Infof("%s finished: %s in %s", rep.Workflow, rep.Outcome, rep.Duration)
			})
		}
	})

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		err := config.Watch(ctx, config.Global(), state.configPath, config.DefaultReloadDelay, logger.With("config"), func(err error) {
			if err == nil {
				attacher.Reload(engineOptions(config.Global(), notifier, logger, metrics))
			}
		})
		if err != nil {
			logger.Warnf("config watch disabled: %v", err)
		}
	}

	settings := config.GetBrowser(config.Global()).Settings()
	if cmd.Flags().Changed("headless") {
		settings.Headless, _ = cmd.Flags().GetBool("headless")
	}
	if p, _ := cmd.Flags().GetString("profile"); p != "" {
		settings.ProfileDir = p
	}

	manager := browser.NewSessionManager(logger.With("browser"))
	install, _ := cmd.Flags().GetBool("install")
	if err := manager.Initialize(install); err != nil {
		return err
	}
	defer func() {
		if err := manager.Shutdown(); err != nil {
			logger.Warnf("browser shutdown: %v", err)
		}
	}()

	session, err := manager.StartSession("main", browser.SessionOptions{
		Headless:   settings.Headless,
		Channel:    settings.Channel,
		ProfileDir: settings.ProfileDir,
		SlowMo:     settings.SlowMo,
		Timeout:    settings.ActionTimeout,
		Viewport:   &browser.Viewport{Width: settings.ViewportWidth, Height: settings.ViewportHeight},
	})
	if err != nil {
		return err
	}

	if err := attacher.Install(ctx, session.Context); err != nil {
		return err
	}

	for _, url := range settings.StartURLs {
		if _, err := session.Open(url); err != nil {
			logger.Warnf("%v", err)
		}
	}

	notifier.ShowNotice(notify.Notice{
		Kind:    notify.Info,
		Title:   notify.DefaultTitle,
		Message: "Watching Calendar and Meet. Press Ctrl+C to stop.",
	})
	<-ctx.Done()
	attacher.Close()
	return nil
}
