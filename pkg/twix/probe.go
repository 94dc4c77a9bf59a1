package twix

import (
	"errors"
	"fmt"
	"io"

	"github.com/samcharles93/twix/internal/md"
)

// RecordInfo describes one record found by Probe.
type RecordInfo struct {
	Offset   int64
	Meta     MeasurementMetadata
	Position md.Dims
}

// Probe walks up to limit records (all of them if limit <= 0) sizing each
// one from its own metadata instead of caller-supplied dimensions. Sample
// payloads are skipped. It stops early at an ACQEND record or at end of
// file on a record boundary.
//
// Probe is a diagnostic aid; a reader that has been probed is positioned
// after the probed records.
func (r *Reader) Probe(limit int) ([]RecordInfo, error) {
	var out []RecordInfo
	for limit <= 0 || len(out) < limit {
		if _, err := r.br.Peek(1); errors.Is(err, io.EOF) {
			return out, nil
		} else if err != nil {
			return out, err
		}

		start := r.off
		if err := r.readFull(r.scanHdr); err != nil {
			return out, fmt.Errorf("twix: probe scan header at %d: %w", start, err)
		}

		var first MeasurementMetadata
		channels := 1
		for c := 0; c < channels; c++ {
			if err := r.readFull(r.chanHdr); err != nil {
				return out, fmt.Errorf("twix: probe channel %d header at %d: %w", c, start, err)
			}
			meta := DecodeMDH(r.mdh())
			if c == 0 {
				if meta.AcqEnd() {
					return out, nil
				}
				first = meta
				channels = max(int(meta.Channels), 1)
			}
			if err := r.skip(int64(meta.Samples) * SampleSize); err != nil {
				return out, fmt.Errorf("twix: probe channel %d samples at %d: %w", c, start, err)
			}
		}

		out = append(out, RecordInfo{
			Offset:   start,
			Meta:     first,
			Position: Position(first),
		})
	}
	return out, nil
}

// SuggestDims returns the smallest output shape that holds every probed
// record.
func SuggestDims(records []RecordInfo) md.Dims {
	dims := md.Singleton()
	for _, rec := range records {
		dims[md.ReadDim] = max(dims[md.ReadDim], int(rec.Meta.Samples))
		dims[md.CoilDim] = max(dims[md.CoilDim], int(rec.Meta.Channels))
		for i, p := range rec.Position {
			if i == md.ReadDim || i == md.CoilDim {
				continue
			}
			dims[i] = max(dims[i], p+1)
		}
	}
	return dims
}
