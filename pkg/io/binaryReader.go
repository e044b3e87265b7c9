package io

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	// MaxFieldSize is the default limit for a single field (string or header
	// chunk) that can be requested from a BinReader. Raw blocks read with
	// ReadBytes are streamed and are not subject to this limit.
	MaxFieldSize = 1 << 24

	// defaultBufSize is the initial internal buffer size for readers backed
	// by an io.Reader.
	defaultBufSize = 4096
)

// ErrFieldTooLarge is returned when a field larger than the configured limit
// is requested. It means the stream is malformed (or hostile) rather than
// truncated.
var ErrFieldTooLarge = errors.New("field is too large")

// BinReader is a convenient wrapper around a io.Reader and err object.
// Used to simplify error handling when reading into a struct with many fields.
// All multi-byte values are big-endian.
type BinReader struct {
	r   io.Reader
	buf []byte
	pos int
	end int
	max int
	Err error
}

// NewBinReaderFromIO makes a BinReader from io.Reader.
func NewBinReaderFromIO(ior io.Reader) *BinReader {
	return &BinReader{
		r:   ior,
		buf: make([]byte, defaultBufSize),
		max: MaxFieldSize,
	}
}

// NewBinReaderFromBuf makes a BinReader from byte buffer. The buffer is used
// as is, without copying.
func NewBinReaderFromBuf(b []byte) *BinReader {
	return &BinReader{
		buf: b,
		end: len(b),
		max: MaxFieldSize,
	}
}

// SetMaxFieldSize changes the maximum size of a single field. Non-positive
// values restore the default.
func (r *BinReader) SetMaxFieldSize(n int) {
	if n <= 0 {
		n = MaxFieldSize
	}
	r.max = n
}

// MaxFieldSize returns the current field size limit.
func (r *BinReader) MaxFieldSize() int {
	return r.max
}

// fill makes sure at least n bytes are buffered. It returns false (with Err
// set) if that's not possible.
func (r *BinReader) fill(n int) bool {
	if r.Err != nil {
		return false
	}
	if n > r.max {
		r.Err = fmt.Errorf("%w: %d bytes requested, limit is %d", ErrFieldTooLarge, n, r.max)
		return false
	}
	if r.end-r.pos >= n {
		return true
	}
	if r.r == nil {
		r.eof()
		return false
	}
	if r.pos > 0 {
		copy(r.buf, r.buf[r.pos:r.end])
		r.end -= r.pos
		r.pos = 0
	}
	if n > len(r.buf) {
		size := 2 * len(r.buf)
		for size < n {
			size *= 2
		}
		if size > r.max {
			size = r.max
		}
		nb := make([]byte, size)
		copy(nb, r.buf[:r.end])
		r.buf = nb
	}
	for r.end < n {
		m, err := r.r.Read(r.buf[r.end:])
		r.end += m
		if err != nil {
			if r.end >= n {
				break
			}
			if errors.Is(err, io.EOF) {
				r.eof()
			} else {
				r.Err = err
			}
			return false
		}
	}
	return true
}

// eof sets an appropriate EOF error depending on whether there are some
// unread bytes left.
func (r *BinReader) eof() {
	if r.end > r.pos {
		r.Err = io.ErrUnexpectedEOF
	} else {
		r.Err = io.EOF
	}
}

// ReadU32BE reads a big-endian encoded uint32 value from the underlying
// io.Reader.
func (r *BinReader) ReadU32BE() uint32 {
	if !r.fill(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

// ReadI32BE reads a big-endian two's complement int32 value.
func (r *BinReader) ReadI32BE() int32 {
	return int32(r.ReadU32BE())
}

// ReadU64BE reads a big-endian encoded uint64 value from the underlying
// io.Reader.
func (r *BinReader) ReadU64BE() uint64 {
	if !r.fill(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

// ReadF64BE reads a big-endian IEEE-754 double. The bit pattern is kept
// intact, NaN payloads included.
func (r *BinReader) ReadF64BE() float64 {
	return math.Float64frombits(r.ReadU64BE())
}

// ReadField returns the next n bytes as a slice that is only valid until the
// next read operation. n is limited by MaxFieldSize.
func (r *BinReader) ReadField(n int) []byte {
	if n < 0 {
		if r.Err == nil {
			r.Err = fmt.Errorf("negative field length %d", n)
		}
		return nil
	}
	if !r.fill(n) {
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

// ReadString reads n bytes and returns them as a string.
func (r *BinReader) ReadString(n int) string {
	b := r.ReadField(n)
	if b == nil {
		return ""
	}
	return string(b)
}

// ReadBytes fills the given slice from the underlying reader. It's not
// limited by MaxFieldSize, data is copied in chunks.
func (r *BinReader) ReadBytes(p []byte) {
	for len(p) > 0 && r.Err == nil {
		if r.end == r.pos && !r.fill(1) {
			break
		}
		n := copy(p, r.buf[r.pos:r.end])
		r.pos += n
		p = p[n:]
	}
	if len(p) > 0 && errors.Is(r.Err, io.EOF) {
		r.Err = io.ErrUnexpectedEOF
	}
}
