package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/samcharles93/twix/internal/convert"
	"github.com/urfave/cli/v3"
)

func inspectCmd() *cli.Command {
	var (
		limit   int
		asJSON  bool
		showAll bool
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show the layout, header and records of a twix .dat file",
		ArgsUsage: "<dat file>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "probe at most this many records (0 = all)", Value: 0, Destination: &limit},
			&cli.BoolFlag{Name: "json", Usage: "print the report as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "records", Usage: "list every probed record", Destination: &showAll},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.Exit("usage: twix inspect [--limit N] [--json] <dat file>", 1)
			}
			path := cmd.Args().First()

			rep, err := convert.Inspect(ctx, path, limit)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: inspect %s: %v", path, err), 1)
			}

			w := outWriter(cmd)
			if asJSON {
				b, err := json.MarshalIndent(rep, "", "  ")
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: encode report: %v", err), 1)
				}
				_, _ = fmt.Fprintln(w, string(b))
				return nil
			}
			printReport(w, rep, showAll)
			return nil
		},
	}
}

func printReport(w io.Writer, rep convert.Report, showRecords bool) {
	_, _ = fmt.Fprintf(w, "Twix Inspect: %s\n", rep.Name)
	_, _ = fmt.Fprintf(w, "File: %s\n", formatBytes(uint64(rep.Size)))
	_, _ = fmt.Fprintf(w, "Layout: %s meas_id=%d file_id=%d scans=%d first_scan=%d\n",
		rep.Layout, rep.MeasurementID, rep.FileID, rep.ScanCount, rep.FirstScan)
	_, _ = fmt.Fprintf(w, "Records: %d\n", len(rep.Records))

	if showRecords {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "%-6s %-12s %-8s %-8s %-8s %s\n", "#", "OFFSET", "BYTES", "SAMPLES", "COILS", "COUNTERS")
		for i, rec := range rep.Records {
			_, _ = fmt.Fprintf(w, "%-6d %-12d %-8d %-8d %-8d %s\n", i, rec.Offset, rec.Bytes, rec.Samples, rec.Channels, formatCounters(rec.Counters))
		}
		_, _ = fmt.Fprintln(w)
	}

	s := rep.Suggested
	_, _ = fmt.Fprintf(w, "Suggested: twix convert -x %d -y %d -z %d -s %d -c %d -a %d %s <output>\n",
		s.Read, s.Phase1, s.Phase2, s.Slices, s.Coils, len(rep.Records), rep.Name)
}

// formatCounters renders the non-zero loop counters as index=value pairs.
func formatCounters(counters []int) string {
	var parts []string
	for i, v := range counters {
		if v != 0 {
			parts = append(parts, fmt.Sprintf("%d=%d", i, v))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GiB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
