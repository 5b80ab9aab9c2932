// Package cmd provides the command-line interface for heartbeat.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/heartbeat/config"
)

// NewRootCommand creates the heartbeat command with all its subcommands.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "heartbeat",
		Short: "Heartbeat runs a frame loop and manages its preferences and data.",
		Long: `Heartbeat runs a frame loop with timers, state machines and an optional ` +
			`monitoring server. Settings are read from HEARTBEAT_* environment variables ` +
			`and from the env files given with --env.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringSlice("env", nil, "env files to load before reading the environment")

	root.AddCommand(
		newRunCommand(),
		newPrefsCommand(),
		newCryptCommand(),
	)

	return root
}

// Execute runs the root command and exits the process with a non-zero code
// on failure. Exit handlers registered with atexit run in both cases.
func Execute() {
	err := NewRootCommand().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFiles, err := cmd.Flags().GetStringSlice("env")
	if err != nil {
		return config.Config{}, err
	}

	return config.Load(envFiles...)
}
