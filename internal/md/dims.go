// Package md implements the dense multidimensional complex arrays that back
// CFL output: dimension algebra, bounds checks and strided block copies.
package md

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
	"unsafe"
)

// Axis order follows the CFL convention used by MRI reconstruction tools.
const (
	ReadDim = iota
	Phs1Dim
	Phs2Dim
	CoilDim
	MapsDim
	TEDim
	Coeff1Dim
	Coeff2Dim
	IterDim
	CShiftDim
	TimeDim
	Time2Dim
	LevelDim
	SliceDim
	AvgDim
	BatchDim

	NumDims
)

var ErrInvalidDims = errors.New("md: invalid dimensions")

// Dims holds one extent (or one index, when used as a position) per axis.
type Dims [NumDims]int

// Flags is a bit set of axes.
type Flags uint32

func Flag(dim int) Flags { return 1 << uint(dim) }

const (
	ReadFlag = Flags(1 << ReadDim)
	CoilFlag = Flags(1 << CoilDim)
)

// Singleton returns dims with every extent set to 1.
func Singleton() Dims {
	var d Dims
	for i := range d {
		d[i] = 1
	}
	return d
}

// Select keeps the extents of the axes in flags and collapses the rest to 1.
func (d Dims) Select(flags Flags) Dims {
	out := Singleton()
	for i := range d {
		if flags&Flag(i) != 0 {
			out[i] = d[i]
		}
	}
	return out
}

// Size returns the number of elements described by d.
func (d Dims) Size() int {
	n := 1
	for _, v := range d {
		n *= v
	}
	return n
}

// Strides returns element strides for a dense array with the first axis fastest.
func (d Dims) Strides() Dims {
	var s Dims
	acc := 1
	for i := range d {
		s[i] = acc
		acc *= d[i]
	}
	return s
}

// Offset returns the linear element offset of pos inside an array shaped d.
func (d Dims) Offset(pos Dims) int {
	str := d.Strides()
	off := 0
	for i := range pos {
		off += pos[i] * str[i]
	}
	return off
}

// Contains reports whether pos is a valid index into an array shaped d.
func (d Dims) Contains(pos Dims) bool {
	for i := range d {
		if pos[i] < 0 || pos[i] >= d[i] {
			return false
		}
	}
	return true
}

// maxElems is the largest element count whose []complex64 byte size still
// fits in an int.
const maxElems = math.MaxInt / int(unsafe.Sizeof(complex64(0)))

// Validate rejects non-positive extents and shapes too large to address.
// Size is only meaningful for dims that pass.
func (d Dims) Validate() error {
	n := uint64(1)
	for i, v := range d {
		if v < 1 {
			return fmt.Errorf("%w: axis %d has extent %d", ErrInvalidDims, i, v)
		}
		hi, lo := bits.Mul64(n, uint64(v))
		if hi != 0 || lo > uint64(maxElems) {
			return fmt.Errorf("%w: %v holds more than %d elements", ErrInvalidDims, d, maxElems)
		}
		n = lo
	}
	return nil
}

func (d Dims) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range d {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte(']')
	return b.String()
}
