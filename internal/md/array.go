package md

// Array is a dense complex64 buffer with the first axis varying fastest.
type Array struct {
	Dims Dims
	Data []complex64
}

// NewArray allocates a zeroed array. dims must already be valid.
func NewArray(dims Dims) *Array {
	return &Array{
		Dims: dims,
		Data: make([]complex64, dims.Size()),
	}
}

func (a *Array) At(pos Dims) complex64 {
	return a.Data[a.Dims.Offset(pos)]
}

// CopyBlock copies src, shaped srcDims, into dst, shaped dstDims, with the
// block's origin at pos. The block must lie entirely inside dst; callers
// check this before copying. Both buffers are dense, so each run along the
// first axis is contiguous and copied in one step.
func CopyBlock(pos, dstDims Dims, dst []complex64, srcDims Dims, src []complex64) {
	str := dstDims.Strides()
	base := dstDims.Offset(pos)
	row := srcDims[0]
	rows := srcDims.Size() / row

	var idx Dims
	for r := 0; r < rows; r++ {
		off := base
		for i := 1; i < NumDims; i++ {
			off += idx[i] * str[i]
		}
		copy(dst[off:off+row], src[r*row:(r+1)*row])

		for i := 1; i < NumDims; i++ {
			idx[i]++
			if idx[i] < srcDims[i] {
				break
			}
			idx[i] = 0
		}
	}
}
