package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/whalefeed/whalefeed/internal/filter"
	"github.com/whalefeed/whalefeed/internal/filterregistry"

	"github.com/urfave/cli/v3"
)

// filtersCommand groups the filter predicate management commands.
func filtersCommand(fr filterregistry.Service) *cli.Command {
	return &cli.Command{
		Name:        "filters",
		Description: "Manage the persisted filter predicate applied to the transaction feed.",
		Usage:       "whalefeed filters [set|show|reset] [flags]",
		Commands: []*cli.Command{
			setFiltersCommand(fr),
			showFiltersCommand(fr),
			resetFiltersCommand(fr),
		},
	}
}

// setFiltersCommand returns a CLI command that validates and persists a filter
// predicate. Flags left unset leave the corresponding filter inactive.
//
// Usage example:
//
//	whalefeed filters set --type buy --hotness high --min-amount '>$1,000'
func setFiltersCommand(fr filterregistry.Service) *cli.Command {
	return &cli.Command{
		Name:        "set",
		Description: "Set and persist the active filter predicate.",
		Usage:       "Persists the given filters. Unset flags leave their filter inactive.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "search",
				Usage: "Substring matched against token symbols and addresses",
			},
			&cli.StringFlag{
				Name:  "search-scope",
				Usage: "Narrows the server-side search (e.g. symbol, address)",
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "Transaction type: all, buy or sell",
			},
			&cli.StringFlag{
				Name:  "hotness",
				Usage: "Hotness bucket: high, medium or low",
			},
			&cli.StringSliceFlag{
				Name:  "tag",
				Usage: "Whale label tag; repeat for multiple tags",
			},
			&cli.StringFlag{
				Name:  "min-amount",
				Usage: "Minimum transaction amount in USD (accepts >, $ and , characters)",
			},
			&cli.FloatFlag{
				Name:  "age-min",
				Usage: "Minimum transaction age in minutes",
			},
			&cli.FloatFlag{
				Name:  "age-max",
				Usage: "Maximum transaction age in minutes",
			},
			&cli.FloatFlag{
				Name:  "market-cap-min",
				Usage: "Minimum token market cap in USD",
			},
			&cli.FloatFlag{
				Name:  "market-cap-max",
				Usage: "Maximum token market cap in USD",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			pred := filter.Predicate{
				Search:      c.String("search"),
				SearchScope: c.String("search-scope"),
				Type:        c.String("type"),
				Hotness:     c.String("hotness"),
				Tags:        c.StringSlice("tag"),
				MinAmount:   c.String("min-amount"),
			}

			for flag, target := range map[string]**float64{
				"age-min":        &pred.AgeMin,
				"age-max":        &pred.AgeMax,
				"market-cap-min": &pred.MarketCapMin,
				"market-cap-max": &pred.MarketCapMax,
			} {
				if c.IsSet(flag) {
					v := c.Float(flag)
					*target = &v
				}
			}

			return fr.Apply(ctx, pred)
		},
	}
}

// showFiltersCommand returns a CLI command that prints the active predicate as JSON.
//
// Usage example:
//
//	whalefeed filters show
func showFiltersCommand(fr filterregistry.Service) *cli.Command {
	return &cli.Command{
		Name:        "show",
		Description: "Print the active filter predicate as JSON.",
		Usage:       "Shows the persisted predicate, or the default when nothing is persisted.",
		Action: func(ctx context.Context, c *cli.Command) error {
			out, err := json.MarshalIndent(fr.Current(ctx), "", "  ")
			if err != nil {
				return err
			}

			fmt.Fprintln(c.Writer, string(out))
			return nil
		},
	}
}

// resetFiltersCommand returns a CLI command that clears the persisted predicate.
//
// Usage example:
//
//	whalefeed filters reset
func resetFiltersCommand(fr filterregistry.Service) *cli.Command {
	return &cli.Command{
		Name:        "reset",
		Description: "Clear the persisted filter predicate, restoring defaults.",
		Usage:       "Removes all persisted filters.",
		Action: func(ctx context.Context, c *cli.Command) error {
			return fr.Reset(ctx)
		},
	}
}
