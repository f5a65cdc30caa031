package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/entrhq/autorecord/pkg/config"
	"github.com/entrhq/autorecord/pkg/logging"
)

// app carries what the persistent pre-run resolved for the subcommands.
type app struct {
	overrides  config.Overrides
	configPath string
}

var state app

var rootCmd = &cobra.Command{
	Use:   "autorecord",
	Short: "Automatic recording for Google Meet",
	Long: `autorecord attaches to Google Calendar and Google Meet pages in a Chromium it
controls. Adding a video call to an event configures its recording settings,
and joining a call starts the recording.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}

		overrides, err := config.ParseOverrides()
		if err != nil {
			return err
		}
		state.overrides = overrides

		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			logging.EnableConsole(os.Stderr)
		}

		level, _ := cmd.Flags().GetString("log-level")
		if !cmd.Flags().Changed("log-level") && overrides.LogLevel != nil {
			level = *overrides.LogLevel
		}
		if err := logging.SetLevel(level); err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = overrides.ConfigPath
		}
		if path == "" {
			if path, err = config.DefaultPath(); err != nil {
				return err
			}
		}
		state.configPath = path

		if err := config.Initialize(path, overrides); err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.autorecord/config.yaml, env AUTORECORD_CONFIG)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Mirror logs to stderr")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
}
