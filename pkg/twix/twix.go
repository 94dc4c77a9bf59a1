// Package twix decodes Siemens raw measurement data (.dat "twix" files).
//
// A file starts with a fixed leading header, followed by a sequence of ADC
// records. Each record carries one block of complex samples per receive
// channel, preceded by measurement data headers (MDH) that place the record
// on the acquisition loops. Two generations of the container exist, VB and
// VD, which differ only in header sizes and in where the MDH lives.
package twix

import "fmt"

// Version identifies the container generation.
type Version uint8

const (
	VB Version = iota + 1
	VD
)

func (v Version) String() string {
	switch v {
	case VB:
		return "VB"
	case VD:
		return "VD"
	default:
		return fmt.Sprintf("Version(%d)", uint8(v))
	}
}

// Layout carries the byte layout of one container generation. It is resolved
// once by DetectLayout and used for every record that follows.
type Layout struct {
	Version Version

	// ScanHeaderSize is the size of the per-record header. VB has none.
	ScanHeaderSize int

	// ChannelHeaderSize precedes every channel's samples.
	ChannelHeaderSize int

	// MDHInScanHeader selects where the measurement metadata is decoded
	// from: the record's scan header (shared by all channels) or each
	// channel header.
	MDHInScanHeader bool

	// MDHOffset is the byte offset of the metadata inside its header.
	MDHOffset int
}

var (
	LayoutVB = Layout{
		Version:           VB,
		ScanHeaderSize:    0,
		ChannelHeaderSize: 128,
		MDHInScanHeader:   false,
		MDHOffset:         20,
	}
	LayoutVD = Layout{
		Version:           VD,
		ScanHeaderSize:    192,
		ChannelHeaderSize: 32,
		MDHInScanHeader:   true,
		MDHOffset:         40,
	}
)

func (l Layout) String() string { return l.Version.String() }

// ChannelSize returns the number of bytes one channel occupies in a record
// with the given number of samples.
func (l Layout) ChannelSize(samples int) int64 {
	return int64(l.ChannelHeaderSize) + int64(samples)*SampleSize
}

// RecordSize returns the size of a full record.
func (l Layout) RecordSize(samples, channels int) int64 {
	return int64(l.ScanHeaderSize) + int64(channels)*l.ChannelSize(samples)
}

// SampleSize is the size of one complex sample: float32 real then imaginary.
const SampleSize = 8
