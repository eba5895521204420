package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/whalefeed/whalefeed/internal/feedproc"

	"github.com/urfave/cli/v3"
)

// startFeedCommand returns a CLI command that starts the live feed pipeline:
// the initial page fetch, the live event subscription and the filter state
// controller.
//
// Usage example:
//
//	whalefeed start
//
// The process runs indefinitely until it receives an interrupt (SIGINT or SIGTERM).
func startFeedCommand(fp feedproc.Service) *cli.Command {
	return &cli.Command{
		Name:        "start",
		Description: "Starts the whale-transaction feed pipeline with live event reconciliation.",
		Usage:       "Initializes and runs the feed. Terminates gracefully on Ctrl+C or termination signals.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			defer close(quit)

			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			if err := fp.Start(ctx); err != nil {
				return err
			}
			defer fp.Close()

			<-quit
			return nil
		},
	}
}
