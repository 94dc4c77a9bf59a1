package cfl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/samcharles93/twix/internal/md"
)

const flushBufSize = 1 << 20

// The mapped data file is viewed directly as []complex64, which only matches
// the on-disk byte order on little-endian hosts.
var hostLittleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// File is a CFL container opened for writing. The embedded array is the
// output buffer; on most hosts it is a shared mapping of the data file.
//
// A File must be finished with exactly one of Close (keep the result) or
// Abort (discard it).
type File struct {
	*md.Array

	base    string
	f       *os.File
	raw     []byte
	mmapped bool
}

// Create writes the header for dims and returns a zero-filled, writable data
// buffer backed by <name>.cfl. If mmap is unavailable the buffer lives on the
// heap and is written out by Close.
func Create(name string, dims md.Dims) (*File, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	base := BaseName(name)

	if err := writeHeaderFile(base+HeaderExt, dims); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(base+DataExt, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		_ = os.Remove(base + HeaderExt)
		return nil, err
	}

	cleanup := func(err error) (*File, error) {
		_ = f.Close()
		removePair(base)
		return nil, err
	}

	n := dims.Size()
	size := int64(n) * ElemSize
	if size/ElemSize != int64(n) || size > int64(math.MaxInt) {
		return cleanup(fmt.Errorf("cfl: array of %d elements too large", n))
	}
	if err := f.Truncate(size); err != nil {
		return cleanup(err)
	}

	out := &File{base: base, f: f}

	if hostLittleEndian {
		raw, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err == nil {
			out.raw = raw
			out.mmapped = true
			out.Array = &md.Array{
				Dims: dims,
				Data: unsafe.Slice((*complex64)(unsafe.Pointer(&raw[0])), n),
			}
			return out, nil
		}
	}

	out.Array = md.NewArray(dims)
	return out, nil
}

// Name returns the base path shared by the header and data files.
func (f *File) Name() string { return f.base }

// Mapped reports whether the data buffer is a shared file mapping.
func (f *File) Mapped() bool { return f.mmapped }

// Close flushes the data buffer to disk and releases the file.
func (f *File) Close() error {
	if f == nil || f.f == nil {
		return nil
	}

	var err error
	if f.mmapped {
		err = unix.Msync(f.raw, unix.MS_SYNC)
		if uerr := unix.Munmap(f.raw); err == nil {
			err = uerr
		}
	} else {
		err = f.flush()
	}
	if cerr := f.f.Close(); err == nil {
		err = cerr
	}
	f.release()
	return err
}

// Abort releases the file without finalizing it and removes both halves of
// the container.
func (f *File) Abort() error {
	if f == nil || f.f == nil {
		return nil
	}

	var err error
	if f.mmapped {
		err = unix.Munmap(f.raw)
	}
	if cerr := f.f.Close(); err == nil {
		err = cerr
	}
	removePair(f.base)
	f.release()
	return err
}

func (f *File) release() {
	f.f = nil
	f.raw = nil
	f.mmapped = false
	f.Array = nil
}

func (f *File) flush() error {
	bw := bufio.NewWriterSize(io.NewOffsetWriter(f.f, 0), flushBufSize)
	var buf [ElemSize]byte
	for _, v := range f.Data {
		binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(real(v)))
		binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(imag(v)))
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.f.Sync()
}

// Load reads a CFL container fully into memory.
func Load(name string) (*md.Array, error) {
	base := BaseName(name)

	hf, err := os.Open(base + HeaderExt)
	if err != nil {
		return nil, err
	}
	dims, err := ReadHeader(hf)
	_ = hf.Close()
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(base + DataExt)
	if err != nil {
		return nil, err
	}
	n := dims.Size()
	if len(raw) != n*ElemSize {
		return nil, fmt.Errorf("%w: have %d bytes, want %d", ErrSizeMismatch, len(raw), n*ElemSize)
	}

	arr := md.NewArray(dims)
	for i := range arr.Data {
		re := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*ElemSize:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*ElemSize+4:]))
		arr.Data[i] = complex(re, im)
	}
	return arr, nil
}

func writeHeaderFile(path string, dims md.Dims) error {
	hf, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteHeader(hf, dims); err != nil {
		_ = hf.Close()
		_ = os.Remove(path)
		return err
	}
	return hf.Close()
}

func removePair(base string) {
	for _, p := range []string{base + HeaderExt, base + DataExt} {
		_ = os.Remove(p)
	}
}
