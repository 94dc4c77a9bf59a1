package twix

import (
	"encoding/binary"

	"github.com/samcharles93/twix/internal/md"
)

// MDHSize is the size of the decoded metadata block.
//
//	off  size  field
//	  0     8  eval info mask (2 x u32)
//	  8     2  samples in this ADC
//	 10     2  used channels
//	 12    28  loop counters (14 x u16)
//	 40     4  reserved
//	 44     2  k-space centre column
//	 46    10  reserved
//	 56     2  k-space centre line
//	 58     2  k-space centre partition
const MDHSize = 60

// Loop counter indices.
const (
	LCLine = iota
	LCAcquisition
	LCSlice
	LCPartition
	LCEcho
	LCPhase
	LCRepetition
	LCSet
	LCSegment
	LCIda
	LCIdb
	LCIdc
	LCIdd
	LCIde

	NumLoopCounters
)

// EvalAcqEnd marks the terminating ADC of a measurement.
const EvalAcqEnd uint32 = 1 << 0

// MeasurementMetadata is the part of a measurement data header needed to
// size and place a record.
type MeasurementMetadata struct {
	EvalInfo        [2]uint32
	Samples         uint16
	Channels        uint16
	LoopCounters    [NumLoopCounters]uint16
	ColumnCenter    uint16
	LineCenter      uint16
	PartitionCenter uint16
}

func (m MeasurementMetadata) AcqEnd() bool {
	return m.EvalInfo[0]&EvalAcqEnd != 0
}

// DecodeMDH decodes metadata from the first MDHSize bytes of b.
func DecodeMDH(b []byte) MeasurementMetadata {
	_ = b[MDHSize-1]
	var m MeasurementMetadata
	m.EvalInfo[0] = binary.LittleEndian.Uint32(b[0:])
	m.EvalInfo[1] = binary.LittleEndian.Uint32(b[4:])
	m.Samples = binary.LittleEndian.Uint16(b[8:])
	m.Channels = binary.LittleEndian.Uint16(b[10:])
	for i := range m.LoopCounters {
		m.LoopCounters[i] = binary.LittleEndian.Uint16(b[12+2*i:])
	}
	m.ColumnCenter = binary.LittleEndian.Uint16(b[44:])
	m.LineCenter = binary.LittleEndian.Uint16(b[56:])
	m.PartitionCenter = binary.LittleEndian.Uint16(b[58:])
	return m
}

// EncodeMDH writes m into the first MDHSize bytes of b. Reserved bytes are
// left untouched.
func EncodeMDH(b []byte, m MeasurementMetadata) {
	_ = b[MDHSize-1]
	binary.LittleEndian.PutUint32(b[0:], m.EvalInfo[0])
	binary.LittleEndian.PutUint32(b[4:], m.EvalInfo[1])
	binary.LittleEndian.PutUint16(b[8:], m.Samples)
	binary.LittleEndian.PutUint16(b[10:], m.Channels)
	for i, v := range m.LoopCounters {
		binary.LittleEndian.PutUint16(b[12+2*i:], v)
	}
	binary.LittleEndian.PutUint16(b[44:], m.ColumnCenter)
	binary.LittleEndian.PutUint16(b[56:], m.LineCenter)
	binary.LittleEndian.PutUint16(b[58:], m.PartitionCenter)
}

// Position maps loop counters onto output axes. Read and coil stay 0; they
// are spanned by the record's sample block.
//
// The line and partition centre counters are not subtracted.
func Position(m MeasurementMetadata) md.Dims {
	var pos md.Dims
	pos[md.Phs1Dim] = int(m.LoopCounters[LCLine])
	pos[md.SliceDim] = int(m.LoopCounters[LCSlice])
	pos[md.Phs2Dim] = int(m.LoopCounters[LCPartition])
	pos[md.TEDim] = int(m.LoopCounters[LCEcho])
	pos[md.TimeDim] = int(m.LoopCounters[LCRepetition])
	pos[md.Time2Dim] = int(m.LoopCounters[LCSet])
	return pos
}
