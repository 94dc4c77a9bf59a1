package twix

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// FileHeaderSize is the size of the leading file header:
//
//	off  size  field
//	  0     4  offset to first scan (VB) or measurement header length (VD)
//	  4     4  number of measurements
//	  8     4  measurement id
//	 12     4  file id
//	 16     8  offset of the first measurement (VD)
const FileHeaderSize = 24

// A leading header whose offset and scan count are both this small can
// only be a VD multi-measurement header.
const (
	vdMaxOffset    = 10000
	vdMaxScanCount = 64
)

type FileHeader struct {
	Offset        uint32
	ScanCount     uint32
	MeasurementID uint32
	FileID        uint32
	DataOffset    uint64
}

func decodeFileHeader(b []byte) FileHeader {
	_ = b[FileHeaderSize-1]
	return FileHeader{
		Offset:        binary.LittleEndian.Uint32(b[0:]),
		ScanCount:     binary.LittleEndian.Uint32(b[4:]),
		MeasurementID: binary.LittleEndian.Uint32(b[8:]),
		FileID:        binary.LittleEndian.Uint32(b[12:]),
		DataOffset:    binary.LittleEndian.Uint64(b[16:]),
	}
}

// EncodeFileHeader writes h into the first FileHeaderSize bytes of b.
func EncodeFileHeader(b []byte, h FileHeader) {
	_ = b[FileHeaderSize-1]
	binary.LittleEndian.PutUint32(b[0:], h.Offset)
	binary.LittleEndian.PutUint32(b[4:], h.ScanCount)
	binary.LittleEndian.PutUint32(b[8:], h.MeasurementID)
	binary.LittleEndian.PutUint32(b[12:], h.FileID)
	binary.LittleEndian.PutUint64(b[16:], h.DataOffset)
}

func isVD(h FileHeader) bool {
	return h.Offset < vdMaxOffset && h.ScanCount < vdMaxScanCount
}

// DetectLayout reads the leading header, classifies the file as VB or VD and
// leaves rs positioned at the first record, whose absolute offset is
// returned.
//
// For VD the offset in the leading header is superseded by the one stored at
// the start of the measurement (DataOffset). VB files always hold a single
// measurement.
func DetectLayout(rs io.ReadSeeker) (FileHeader, Layout, int64, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return FileHeader{}, Layout{}, 0, fmt.Errorf("twix: seek file header: %w", err)
	}
	var buf [FileHeaderSize]byte
	if err := readFull(rs, buf[:]); err != nil {
		return FileHeader{}, Layout{}, 0, fmt.Errorf("twix: read file header: %w", err)
	}
	hdr := decodeFileHeader(buf[:])

	var (
		layout Layout
		start  int64
	)
	if isVD(hdr) {
		layout = LayoutVD
		if hdr.DataOffset > math.MaxInt64-math.MaxUint32 {
			return FileHeader{}, Layout{}, 0, fmt.Errorf("twix: measurement offset %d out of range", hdr.DataOffset)
		}
		start = int64(hdr.DataOffset)
		if _, err := rs.Seek(start, io.SeekStart); err != nil {
			return FileHeader{}, Layout{}, 0, fmt.Errorf("twix: seek measurement header: %w", err)
		}
		if err := readFull(rs, buf[:4]); err != nil {
			return FileHeader{}, Layout{}, 0, fmt.Errorf("twix: read measurement header: %w", err)
		}
		hdr.Offset = binary.LittleEndian.Uint32(buf[:4])
	} else {
		layout = LayoutVB
		hdr.ScanCount = 1
	}

	pos := start + int64(hdr.Offset)
	if _, err := rs.Seek(pos, io.SeekStart); err != nil {
		return FileHeader{}, Layout{}, 0, fmt.Errorf("twix: seek first scan: %w", err)
	}
	return hdr, layout, pos, nil
}

func readFull(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
