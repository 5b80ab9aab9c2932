package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sarchlab/heartbeat/app"
	"github.com/sarchlab/heartbeat/gamestate"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the frame loop until interrupted.",
		Args:  cobra.NoArgs,
		RunE:  runLoop,
	}

	cmd.Flags().Duration("duration", 0, "stop after this long; 0 runs until interrupted")
	cmd.Flags().Bool("monitor", false, "start the monitoring server")
	cmd.Flags().Int("port", 0, "port of the monitoring server; 0 picks a random port")

	return cmd
}

func runLoop(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	builder := app.MakeBuilder().
		WithConfig(cfg).
		WithLogOutput(cmd.ErrOrStderr()).
		WithExitHandler()

	if monitor, _ := cmd.Flags().GetBool("monitor"); monitor {
		builder = builder.WithMonitor()
	}

	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		builder = builder.WithMonitorPort(port)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if d, _ := cmd.Flags().GetDuration("duration"); d > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	a, err := builder.Build(ctx)
	if err != nil {
		return err
	}
	defer a.Terminate()

	a.GameState().Update(gamestate.Running)

	err = a.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}

	a.GameState().Update(gamestate.Stopped)

	return err
}
