package twix

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches every malformed-data error returned by this package.
	ErrFormat = errors.New("twix: malformed measurement data")

	ErrSampleCount = errors.New("wrong number of samples")
	ErrOutOfBounds = errors.New("record position outside output dimensions")
	ErrBlockSize   = errors.New("twix: sample block does not match read x coil")
)

type formatError struct {
	kind error
	msg  string
}

func (e formatError) Error() string {
	return "twix: " + e.kind.Error() + ": " + e.msg
}

func (e formatError) Unwrap() []error {
	return []error{ErrFormat, e.kind}
}

func newFormatError(kind error, format string, args ...any) error {
	return formatError{kind: kind, msg: fmt.Sprintf(format, args...)}
}
