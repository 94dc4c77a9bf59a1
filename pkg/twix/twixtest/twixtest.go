// Package twixtest builds synthetic twix files for tests.
package twixtest

import (
	"encoding/binary"
	"math"

	"github.com/samcharles93/twix/internal/md"
	"github.com/samcharles93/twix/pkg/twix"
)

const (
	// DefaultVBHeaderLen is large enough to fail the VD heuristic.
	DefaultVBHeaderLen = 10240

	DefaultVDDataOffset = 10240
	DefaultVDHeaderLen  = 512
)

// Channel is one receive channel of a record. Meta overrides the record's
// metadata in VB channel headers; VD ignores it.
type Channel struct {
	Meta    *twix.MeasurementMetadata
	Samples []complex64
}

type Record struct {
	Meta     twix.MeasurementMetadata
	Channels []Channel
}

// File describes a synthetic twix file. Zero header fields take defaults.
type File struct {
	Version       twix.Version
	MeasurementID uint32
	FileID        uint32

	// ScanCount overrides the scan count in the leading header.
	ScanCount uint32

	// HeaderLen is the VB leading header length or the VD measurement
	// header length.
	HeaderLen uint32

	// DataOffset locates the VD measurement header.
	DataOffset uint64

	Records []Record

	// AcqEnd appends a terminating ACQEND record.
	AcqEnd bool
}

func (f File) headerLen() uint32 {
	if f.HeaderLen != 0 {
		return f.HeaderLen
	}
	if f.Version == twix.VD {
		return DefaultVDHeaderLen
	}
	return DefaultVBHeaderLen
}

func (f File) dataOffset() uint64 {
	if f.DataOffset != 0 {
		return f.DataOffset
	}
	return DefaultVDDataOffset
}

func (f File) layout() twix.Layout {
	if f.Version == twix.VD {
		return twix.LayoutVD
	}
	return twix.LayoutVB
}

// FirstRecordOffset is where the first record starts in Bytes().
func (f File) FirstRecordOffset() int64 {
	if f.Version == twix.VD {
		return int64(f.dataOffset()) + int64(f.headerLen())
	}
	return int64(f.headerLen())
}

// Bytes encodes the file.
func (f File) Bytes() []byte {
	layout := f.layout()
	out := make([]byte, f.FirstRecordOffset())

	hdr := twix.FileHeader{
		ScanCount:     max(f.ScanCount, 1),
		MeasurementID: f.MeasurementID,
		FileID:        f.FileID,
	}
	if f.Version == twix.VD {
		hdr.DataOffset = f.dataOffset()
		binary.LittleEndian.PutUint32(out[f.dataOffset():], f.headerLen())
	} else {
		hdr.Offset = f.headerLen()
	}
	twix.EncodeFileHeader(out, hdr)

	records := f.Records
	if f.AcqEnd {
		end := twix.MeasurementMetadata{Samples: 16, Channels: 1}
		end.EvalInfo[0] = twix.EvalAcqEnd
		records = append(records[:len(records):len(records)], Record{
			Meta:     end,
			Channels: []Channel{{Samples: make([]complex64, 16)}},
		})
	}
	for _, rec := range records {
		out = appendRecord(out, layout, rec)
	}
	return out
}

func appendRecord(out []byte, layout twix.Layout, rec Record) []byte {
	scan := make([]byte, layout.ScanHeaderSize)
	if layout.MDHInScanHeader {
		twix.EncodeMDH(scan[layout.MDHOffset:], rec.Meta)
	}
	out = append(out, scan...)

	for _, ch := range rec.Channels {
		hdr := make([]byte, layout.ChannelHeaderSize)
		if !layout.MDHInScanHeader {
			meta := rec.Meta
			if ch.Meta != nil {
				meta = *ch.Meta
			}
			twix.EncodeMDH(hdr[layout.MDHOffset:], meta)
		}
		out = append(out, hdr...)

		for _, v := range ch.Samples {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(real(v)))
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(imag(v)))
		}
	}
	return out
}

// SampleValue is the deterministic sample NewRecord stores for record id,
// channel coil and sample i.
func SampleValue(id, coil, i int) complex64 {
	return complex(float32(id*1000+coil*100+i+1), -float32(id+1)/4)
}

// NewRecord returns a record with coils channels of read samples each and the
// given loop counters.
func NewRecord(id, read, coils int, counters map[int]uint16) Record {
	meta := twix.MeasurementMetadata{
		Samples:  uint16(read),
		Channels: uint16(coils),
	}
	for k, v := range counters {
		meta.LoopCounters[k] = v
	}

	rec := Record{Meta: meta, Channels: make([]Channel, coils)}
	for c := range rec.Channels {
		samples := make([]complex64, read)
		for i := range samples {
			samples[i] = SampleValue(id, c, i)
		}
		rec.Channels[c].Samples = samples
	}
	return rec
}

// Dims returns singleton dims with the given read, phase1, phase2, slice and
// coil extents.
func Dims(read, phase1, phase2, slices, coils int) md.Dims {
	d := md.Singleton()
	d[md.ReadDim] = read
	d[md.Phs1Dim] = phase1
	d[md.Phs2Dim] = phase2
	d[md.SliceDim] = slices
	d[md.CoilDim] = coils
	return d
}
