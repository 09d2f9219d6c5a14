// submodule cmd contains command definitions
package main

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cinesync/internal/shared"
	"github.com/urfave/cli/v3"
)

// register returns the top-level commands in help order.
func (r *Runner) register() []*cli.Command {
	return []*cli.Command{
		setupCommand(r),
		configCommand(r),
		bannerCommand(r),
		apiCommand(r),
		tuiCommand(r),
	}
}

// rootCommand wires the runner's commands under the cinesync binary.
func rootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "cinesync",
		Usage:   "Edit CineSync configuration and browse media banners",
		Version: "0.3.0",
		Writer:  r.output,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				shared.SetLogLevel(r.logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: r.register(),
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "pretty",
		Usage: "Pretty-print JSON output",
		Value: true,
	}
}

func limitFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of entries to show",
		Value:   20,
	}
}
