package io

import (
	"encoding/binary"
	"io"
	"math"
)

// BinWriter is a convenient wrapper around an io.Writer and err object.
// Used to simplify error handling when writing into an io.Writer
// from a struct with many fields. All multi-byte values are big-endian.
type BinWriter struct {
	w   io.Writer
	Err error
	uv  [8]byte
}

// NewBinWriterFromIO makes a BinWriter from io.Writer.
func NewBinWriterFromIO(iow io.Writer) *BinWriter {
	return &BinWriter{w: iow}
}

// WriteU64BE writes a uint64 value into the underlying io.Writer in
// big-endian format.
func (w *BinWriter) WriteU64BE(u64 uint64) {
	binary.BigEndian.PutUint64(w.uv[:8], u64)
	w.WriteBytes(w.uv[:8])
}

// WriteU32BE writes a uint32 value into the underlying io.Writer in
// big-endian format.
func (w *BinWriter) WriteU32BE(u32 uint32) {
	binary.BigEndian.PutUint32(w.uv[:4], u32)
	w.WriteBytes(w.uv[:4])
}

// WriteI32BE writes an int32 value in big-endian two's complement format.
func (w *BinWriter) WriteI32BE(i32 int32) {
	w.WriteU32BE(uint32(i32))
}

// WriteF64BE writes a float64 value as big-endian IEEE-754 bits, NaN payloads
// are kept as is.
func (w *BinWriter) WriteF64BE(f float64) {
	w.WriteU64BE(math.Float64bits(f))
}

// WriteBytes writes a variable byte into the underlying io.Writer without prefix.
func (w *BinWriter) WriteBytes(b []byte) {
	if w.Err != nil {
		return
	}
	_, w.Err = w.w.Write(b)
}

// WriteString writes a string into the underlying io.Writer without length
// prefix, callers are expected to write the length themselves.
func (w *BinWriter) WriteString(s string) {
	if w.Err != nil {
		return
	}
	_, w.Err = io.WriteString(w.w, s)
}
