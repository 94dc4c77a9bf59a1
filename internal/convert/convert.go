// Package convert places twix records into a CFL output array.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/samcharles93/twix/internal/logger"
	"github.com/samcharles93/twix/internal/md"
	"github.com/samcharles93/twix/pkg/cfl"
	"github.com/samcharles93/twix/pkg/twix"
)

var ErrDimsMismatch = errors.New("convert: output array does not match configured dimensions")

// Options configure a conversion. The output shape is entirely caller
// supplied; nothing beyond per-record sample counts is taken from the file.
type Options struct {
	Dims md.Dims

	// ADCs is the number of records to read. Zero means one record per
	// phase1 x phase2 x slice combination.
	ADCs int
}

// RecordCount returns the number of records a conversion reads.
func (o Options) RecordCount() int {
	if o.ADCs > 0 {
		return o.ADCs
	}
	return o.Dims[md.Phs1Dim] * o.Dims[md.Phs2Dim] * o.Dims[md.SliceDim]
}

func (o Options) Validate() error {
	if err := o.Dims.Validate(); err != nil {
		return err
	}
	if o.ADCs < 0 {
		return fmt.Errorf("convert: negative ADC count %d", o.ADCs)
	}
	return nil
}

type Stats struct {
	Layout  twix.Layout
	Header  twix.FileHeader
	Records int
	Output  string
}

// Place copies a read x coil block into dst at pos. pos must already have
// been checked against dst.Dims.
func Place(dst *md.Array, pos md.Dims, block []complex64) {
	blockDims := dst.Dims.Select(md.ReadFlag | md.CoilFlag)
	md.CopyBlock(pos, dst.Dims, dst.Data, blockDims, block)
}

// Run reads opts.RecordCount() records from r and places each one into dst.
// It stops at the first error; the failing record is never placed.
func Run(ctx context.Context, r *twix.Reader, dst *md.Array, opts Options) (Stats, error) {
	log := logger.FromContext(ctx)

	stats := Stats{Layout: r.Layout(), Header: r.Header()}
	if err := opts.Validate(); err != nil {
		return stats, err
	}
	if dst.Dims != opts.Dims {
		return stats, fmt.Errorf("%w: array %v, options %v", ErrDimsMismatch, dst.Dims, opts.Dims)
	}

	block := make([]complex64, opts.Dims.Select(md.ReadFlag|md.CoilFlag).Size())
	n := opts.RecordCount()
	log.Debug("converting", "records", n, "dims", opts.Dims.String())

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		pos, err := r.ReadRecord(opts.Dims, block)
		if err != nil {
			return stats, fmt.Errorf("record %d of %d: %w", i, n, err)
		}
		log.Debug("record", "index", i, "pos", pos.String())
		Place(dst, pos, block)
		stats.Records++
	}
	return stats, nil
}

// File converts the twix file at input into a CFL container named output.
// The container is finalized only if every record converts; on any error
// both output files are removed.
func File(ctx context.Context, input, output string, opts Options) (Stats, error) {
	log := logger.FromContext(ctx)

	if err := opts.Validate(); err != nil {
		return Stats{}, err
	}

	in, err := os.Open(input)
	if err != nil {
		return Stats{}, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = in.Close() }()

	r, err := twix.Open(in)
	if err != nil {
		return Stats{}, err
	}
	hdr := r.Header()
	log.Info("detected layout",
		"layout", r.Layout().String(),
		"meas_id", hdr.MeasurementID,
		"file_id", hdr.FileID,
		"scans", hdr.ScanCount,
		"first_scan", r.Offset(),
	)

	out, err := cfl.Create(output, opts.Dims)
	if err != nil {
		return Stats{}, fmt.Errorf("create output: %w", err)
	}

	mapped := out.Mapped()
	stats, err := Run(ctx, r, out.Array, opts)
	stats.Output = out.Name()
	if err != nil {
		if aerr := out.Abort(); aerr != nil {
			log.Warn("discard partial output", "output", stats.Output, "error", aerr)
		}
		return stats, err
	}
	if err := out.Close(); err != nil {
		return stats, fmt.Errorf("finalize output: %w", err)
	}

	log.Info("converted", "records", stats.Records, "output", stats.Output, "mapped", mapped)
	return stats, nil
}
