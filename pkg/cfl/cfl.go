// Package cfl reads and writes CFL array containers.
//
// A CFL container is a pair of files sharing a base name: a small text
// header (<name>.hdr) listing the extents of every axis, and a raw data file
// (<name>.cfl) holding interleaved float32 real/imaginary pairs with the
// first axis varying fastest.
package cfl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samcharles93/twix/internal/md"
)

const (
	HeaderExt = ".hdr"
	DataExt   = ".cfl"

	// ElemSize is the on-disk size of one complex sample.
	ElemSize = 8
)

var (
	ErrBadHeader    = errors.New("cfl: malformed header")
	ErrSizeMismatch = errors.New("cfl: data size does not match header")
)

// BaseName strips a trailing .cfl or .hdr so either file of a pair can be
// used to name it.
func BaseName(name string) string {
	for _, ext := range []string{DataExt, HeaderExt} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

func WriteHeader(w io.Writer, dims md.Dims) error {
	var b strings.Builder
	b.WriteString("# Dimensions\n")
	for i, v := range dims {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// ReadHeader parses the Dimensions section of a .hdr file. Other sections
// are ignored. Missing trailing axes default to 1.
func ReadHeader(r io.Reader) (md.Dims, error) {
	sc := bufio.NewScanner(r)
	section := ""
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			section = strings.TrimSpace(strings.TrimPrefix(line, "#"))
			continue
		}
		if section != "Dimensions" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) > md.NumDims {
			return md.Dims{}, fmt.Errorf("%w: %d dimensions", ErrBadHeader, len(fields))
		}
		dims := md.Singleton()
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return md.Dims{}, fmt.Errorf("%w: %v", ErrBadHeader, err)
			}
			dims[i] = v
		}
		if err := dims.Validate(); err != nil {
			return md.Dims{}, fmt.Errorf("%w: %v", ErrBadHeader, err)
		}
		return dims, nil
	}
	if err := sc.Err(); err != nil {
		return md.Dims{}, err
	}
	return md.Dims{}, fmt.Errorf("%w: missing dimensions", ErrBadHeader)
}
