// Package cli wires the application services to the command-line surface.
package cli

import (
	"context"
	"os"

	"github.com/whalefeed/whalefeed/internal/feedproc"
	"github.com/whalefeed/whalefeed/internal/filterregistry"

	"github.com/urfave/cli/v3"
)

// Run initializes and executes the whalefeed CLI application.
//
// It registers all available commands, including:
//
//   - `start`: Starts the live feed reconciliation pipeline.
//   - `filters set`: Sets and persists the active filter predicate.
//   - `filters show`: Prints the active filter predicate.
//   - `filters reset`: Clears the persisted predicate.
//
// Parameters:
//   - ctx: Context used to control the lifecycle of the CLI application.
//   - fp: The feedproc service implementation used by the start command.
//   - fr: The filterregistry service implementation used by filter commands.
func Run(ctx context.Context, fp feedproc.Service, fr filterregistry.Service) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "whalefeed",
		Description:           "Command-line interface for running and configuring the whale-transaction feed.",
		Usage:                 "whalefeed [command] [flags]",
		Commands: []*cli.Command{
			startFeedCommand(fp),
			filtersCommand(fr),
		},
	}

	return app.Run(ctx, os.Args)
}
