package main

import (
	"context"
	"fmt"

	"github.com/samcharles93/twix/internal/convert"
	"github.com/samcharles93/twix/internal/logger"
	"github.com/urfave/cli/v3"
)

const convertUsage = "usage: twix convert [-x R] [-y P1] [-z P2] [-s S] [-c C] [-a A] <dat file> <output>"

func convertCmd() *cli.Command {
	var (
		extents = convert.DefaultExtents
		adcs    int
	)

	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a twix .dat file into a CFL array",
		ArgsUsage: "<dat file> <output>",
		Flags: append(extentFlags(&extents),
			&cli.IntFlag{
				Name:        "adcs",
				Aliases:     []string{"a"},
				Usage:       "number of ADC records to read (default phase1*phase2*slices)",
				Destination: &adcs,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			if cmd.Args().Len() != 2 {
				return cli.Exit(convertUsage, 1)
			}
			input, output := cmd.Args().Get(0), cmd.Args().Get(1)

			applyExtentConfig(cmd, configFrom(ctx), &extents)
			opts := convert.Options{Dims: extents.Dims(), ADCs: adcs}
			if err := opts.Validate(); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			log.Debug("output dimensions", "dims", opts.Dims.String(), "adcs", opts.RecordCount())

			stats, err := convert.File(ctx, input, output, opts)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: convert %s: %v", input, err), 1)
			}

			_, _ = fmt.Fprintf(outWriter(cmd), "wrote %s (%s layout, %d records, dims %s)\n",
				stats.Output, stats.Layout, stats.Records, opts.Dims)
			return nil
		},
	}
}
