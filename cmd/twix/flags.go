package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/samcharles93/twix/internal/convert"
	"github.com/samcharles93/twix/internal/logger"
	"github.com/urfave/cli/v3"
)

type globalOptions struct {
	configFile string
	logLevel   string
	logFormat  string
	debug      bool
}

func (o *globalOptions) flags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &o.configFile,
		},
	}, o.loggingFlags()...)
}

func (o *globalOptions) loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &o.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &o.logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &o.debug,
		},
	}
}

// setup loads the config file and installs the logger and config in ctx.
func (o *globalOptions) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := LoadConfig(o.configFile)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	applyLoggingConfig(cmd, cfg, &o.logLevel, &o.logFormat)

	level := o.logLevel
	if o.debug {
		level = "debug"
	}
	log, err := logger.NewFormat(errWriter(cmd), o.logFormat, level)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}

	ctx = logger.WithContext(ctx, log)
	return withConfig(ctx, cfg), nil
}

func extentFlags(e *convert.Extents) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "read",
			Aliases:     []string{"x"},
			Usage:       "number of samples per readout",
			Value:       1,
			Destination: &e.Read,
		},
		&cli.IntFlag{
			Name:        "phase1",
			Aliases:     []string{"y"},
			Usage:       "phase encoding steps (first dimension)",
			Value:       1,
			Destination: &e.Phase1,
		},
		&cli.IntFlag{
			Name:        "phase2",
			Aliases:     []string{"z"},
			Usage:       "phase encoding steps (second dimension)",
			Value:       1,
			Destination: &e.Phase2,
		},
		&cli.IntFlag{
			Name:        "slices",
			Aliases:     []string{"s"},
			Usage:       "number of slices",
			Value:       1,
			Destination: &e.Slices,
		},
		&cli.IntFlag{
			Name:        "coils",
			Aliases:     []string{"c"},
			Usage:       "number of receive channels",
			Value:       1,
			Destination: &e.Coils,
		},
	}
}

func outWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
