package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samcharles93/twix/internal/md"
	"github.com/samcharles93/twix/pkg/twix"
)

// Extents names the axes a twix conversion normally uses.
type Extents struct {
	Read   int `json:"read" yaml:"read"`
	Phase1 int `json:"phase1" yaml:"phase1"`
	Phase2 int `json:"phase2" yaml:"phase2"`
	Slices int `json:"slices" yaml:"slices"`
	Coils  int `json:"coils" yaml:"coils"`
}

// DefaultExtents is the shape used when nothing else is configured.
var DefaultExtents = Extents{Read: 1, Phase1: 1, Phase2: 1, Slices: 1, Coils: 1}

// Dims returns singleton dims carrying e.
func (e Extents) Dims() md.Dims {
	d := md.Singleton()
	d[md.ReadDim] = e.Read
	d[md.Phs1Dim] = e.Phase1
	d[md.Phs2Dim] = e.Phase2
	d[md.SliceDim] = e.Slices
	d[md.CoilDim] = e.Coils
	return d
}

// ExtentsOf picks the named axes back out of d.
func ExtentsOf(d md.Dims) Extents {
	return Extents{
		Read:   d[md.ReadDim],
		Phase1: d[md.Phs1Dim],
		Phase2: d[md.Phs2Dim],
		Slices: d[md.SliceDim],
		Coils:  d[md.CoilDim],
	}
}

type RecordSummary struct {
	Offset   int64  `json:"offset"`
	Samples  int    `json:"samples"`
	Channels int    `json:"channels"`
	Bytes    int64  `json:"bytes"`
	Position []int  `json:"position"`
	Counters []int  `json:"loop_counters"`
	EvalInfo uint32 `json:"eval_info"`
}

// Report is what inspecting a twix file reveals without any configured shape.
type Report struct {
	Name          string          `json:"name"`
	Size          int64           `json:"size"`
	Layout        string          `json:"layout"`
	MeasurementID uint32          `json:"meas_id"`
	FileID        uint32          `json:"file_id"`
	ScanCount     uint32          `json:"scan_count"`
	FirstScan     int64           `json:"first_scan"`
	Records       []RecordSummary `json:"records"`
	Suggested     Extents         `json:"suggested"`
	SuggestedDims []int           `json:"suggested_dims"`
}

// Inspect detects the layout of the file at path and probes up to limit
// records (all of them if limit <= 0).
func Inspect(ctx context.Context, path string, limit int) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return Report{}, err
	}
	r, err := twix.Open(f)
	if err != nil {
		return Report{}, err
	}

	hdr := r.Header()
	rep := Report{
		Name:          filepath.Base(path),
		Size:          st.Size(),
		Layout:        r.Layout().String(),
		MeasurementID: hdr.MeasurementID,
		FileID:        hdr.FileID,
		ScanCount:     hdr.ScanCount,
		FirstScan:     r.Offset(),
	}

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	records, err := r.Probe(limit)
	if err != nil {
		return rep, err
	}

	rep.Records = make([]RecordSummary, 0, len(records))
	for _, rec := range records {
		counters := make([]int, len(rec.Meta.LoopCounters))
		for i, v := range rec.Meta.LoopCounters {
			counters[i] = int(v)
		}
		rep.Records = append(rep.Records, RecordSummary{
			Offset:   rec.Offset,
			Samples:  int(rec.Meta.Samples),
			Channels: int(rec.Meta.Channels),
			Bytes:    r.Layout().RecordSize(int(rec.Meta.Samples), int(rec.Meta.Channels)),
			Position: rec.Position[:],
			Counters: counters,
			EvalInfo: rec.Meta.EvalInfo[0],
		})
	}
	dims := twix.SuggestDims(records)
	rep.Suggested = ExtentsOf(dims)
	rep.SuggestedDims = dims[:]
	return rep, nil
}
