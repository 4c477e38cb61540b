// Package byterange parses the single byte range of a Range request header.
package byterange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalid       = errors.New("invalid range")
	ErrStartAfterEnd = errors.New("start is greater than end")
	ErrEndExceedsLen = errors.New("end exceeds file length")
)

// Range is the inclusive window [Start, End] of a resource of Size bytes.
type Range struct {
	Start int64
	End   int64
	Size  int64
}

// Length returns the number of bytes in the window.
func (r Range) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange returns the value of the Content-Range header.
func (r Range) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, r.Size)
}

// Parse parses a header of the form "bytes=start-end" for a resource of size
// bytes. A missing end defaults to the last byte. A range where start is not
// less than end is rejected, as is an end beyond size. An end equal to size
// is accepted.
func Parse(header string, size int64) (Range, error) {
	window, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok {
		return Range{}, ErrInvalid
	}

	first, last, ok := strings.Cut(window, "-")
	if !ok {
		return Range{}, ErrInvalid
	}

	start, err := strconv.ParseInt(strings.TrimSpace(first), 10, 64)
	if err != nil || start < 0 {
		return Range{}, ErrInvalid
	}

	end := size - 1

	if last = strings.TrimSpace(last); len(last) != 0 {
		end, err = strconv.ParseInt(last, 10, 64)
		if err != nil {
			return Range{}, ErrInvalid
		}
	}

	if start >= end {
		return Range{}, ErrStartAfterEnd
	}

	if end > size {
		return Range{}, ErrEndExceedsLen
	}

	return Range{
		Start: start,
		End:   end,
		Size:  size,
	}, nil
}
