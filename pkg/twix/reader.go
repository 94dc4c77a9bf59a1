package twix

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/samcharles93/twix/internal/md"
)

const readBufSize = 1 << 20

// Reader walks the records of a twix file in order. It is not safe for
// concurrent use: every record's position depends on the previous one having
// been fully consumed.
type Reader struct {
	br     *bufio.Reader
	off    int64
	header FileHeader
	layout Layout

	scanHdr []byte
	chanHdr []byte
	raw     []byte
}

// Open detects the file layout and positions the reader at the first record.
func Open(rs io.ReadSeeker) (*Reader, error) {
	hdr, layout, pos, err := DetectLayout(rs)
	if err != nil {
		return nil, err
	}
	return &Reader{
		br:      bufio.NewReaderSize(rs, readBufSize),
		off:     pos,
		header:  hdr,
		layout:  layout,
		scanHdr: make([]byte, layout.ScanHeaderSize),
		chanHdr: make([]byte, layout.ChannelHeaderSize),
	}, nil
}

func (r *Reader) Header() FileHeader { return r.header }
func (r *Reader) Layout() Layout     { return r.layout }

// Offset returns the absolute file offset of the next unread byte.
func (r *Reader) Offset() int64 { return r.off }

// ReadRecord reads one ADC record into block and returns its position in the
// output array. dims is the full output shape; block holds
// dims[ReadDim]*dims[CoilDim] samples, channel-major.
//
// The position comes from the first channel's loop counters. Its read and
// coil axes are 0. A sample count that differs from dims[ReadDim], or a
// position outside dims, is reported as an ErrFormat error before the
// offending channel's samples are read.
func (r *Reader) ReadRecord(dims md.Dims, block []complex64) (md.Dims, error) {
	read, coils := dims[md.ReadDim], dims[md.CoilDim]
	if len(block) != read*coils {
		return md.Dims{}, fmt.Errorf("%w: have %d samples, want %d", ErrBlockSize, len(block), read*coils)
	}

	start := r.off
	if err := r.readFull(r.scanHdr); err != nil {
		return md.Dims{}, fmt.Errorf("twix: read scan header at %d: %w", start, err)
	}

	var pos md.Dims
	for c := 0; c < coils; c++ {
		if err := r.readFull(r.chanHdr); err != nil {
			return md.Dims{}, fmt.Errorf("twix: read channel %d header at %d: %w", c, start, err)
		}
		meta := DecodeMDH(r.mdh())

		if c == 0 {
			pos = Position(meta)
		}
		pos[md.CoilDim] = c

		if int(meta.Samples) != read {
			return md.Dims{}, newFormatError(ErrSampleCount,
				"record at %d channel %d has %d, want %d", start, c, meta.Samples, read)
		}
		if !dims.Contains(pos) {
			return md.Dims{}, newFormatError(ErrOutOfBounds,
				"record at %d: position %v, dims %v", start, pos, dims)
		}

		if err := r.readSamples(block[c*read : (c+1)*read]); err != nil {
			return md.Dims{}, fmt.Errorf("twix: read channel %d samples at %d: %w", c, start, err)
		}
	}

	pos[md.CoilDim] = 0
	return pos, nil
}

// mdh returns the bytes holding the measurement metadata for the channel
// header that was just read.
func (r *Reader) mdh() []byte {
	off := r.layout.MDHOffset
	if r.layout.MDHInScanHeader {
		return r.scanHdr[off : off+MDHSize]
	}
	return r.chanHdr[off : off+MDHSize]
}

func (r *Reader) readSamples(dst []complex64) error {
	n := len(dst) * SampleSize
	if cap(r.raw) < n {
		r.raw = make([]byte, n)
	}
	raw := r.raw[:n]
	if err := r.readFull(raw); err != nil {
		return err
	}
	for i := range dst {
		re := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*SampleSize:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*SampleSize+4:]))
		dst[i] = complex(re, im)
	}
	return nil
}

func (r *Reader) readFull(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	n, err := io.ReadFull(r.br, buf)
	r.off += int64(n)
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

func (r *Reader) skip(n int64) error {
	for n > 0 {
		step := int(min(n, readBufSize))
		d, err := r.br.Discard(step)
		r.off += int64(d)
		n -= int64(d)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
	return nil
}
