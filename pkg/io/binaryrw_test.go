package io

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// mocks io.Reader and io.Writer, always fails to Write() or Read().
type badRW struct{}

func (w *badRW) Write(p []byte) (int, error) {
	return 0, errors.New("it always fails")
}

func (w *badRW) Read(p []byte) (int, error) {
	return w.Write(p)
}

// oneByteReader returns data one byte per Read() call to exercise buffer
// refilling.
type oneByteReader struct {
	data []byte
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

func TestWriteI32BE(t *testing.T) {
	var (
		val = int32(-2)
		bin = []byte{0xff, 0xff, 0xff, 0xfe}
	)
	bw := NewBufBinWriter()
	bw.WriteI32BE(val)
	require.NoError(t, bw.Err)
	require.Equal(t, bin, bw.Bytes())

	br := NewBinReaderFromBuf(bin)
	require.Equal(t, val, br.ReadI32BE())
	require.NoError(t, br.Err)
}

func TestWriteF64BEKeepsNaNPayload(t *testing.T) {
	const naBits = 0x7FF00000000007A2
	bw := NewBufBinWriter()
	bw.WriteF64BE(math.Float64frombits(naBits))
	bw.WriteF64BE(-0.5)
	require.NoError(t, bw.Err)
	bin := bw.Bytes()
	require.Equal(t, []byte{0x7f, 0xf0, 0, 0, 0, 0, 0x07, 0xa2}, bin[:8])

	br := NewBinReaderFromBuf(bin)
	require.Equal(t, uint64(naBits), math.Float64bits(br.ReadF64BE()))
	require.Equal(t, -0.5, br.ReadF64BE())
	require.NoError(t, br.Err)
}

func TestWriteString(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteI32BE(5)
	bw.WriteString("hello")
	require.NoError(t, bw.Err)
	br := NewBinReaderFromBuf(bw.Bytes())
	n := br.ReadI32BE()
	require.Equal(t, "hello", br.ReadString(int(n)))
	require.NoError(t, br.Err)
}

func TestReaderFromIORefills(t *testing.T) {
	var payload = bytes.Repeat([]byte{0xab}, 3*defaultBufSize)

	bw := NewBufBinWriter()
	bw.WriteU32BE(0xdeadbeef)
	bw.WriteBytes(payload)
	bw.WriteString("tail")
	data := bw.Bytes()

	br := NewBinReaderFromIO(&oneByteReader{data: data})
	require.Equal(t, uint32(0xdeadbeef), br.ReadU32BE())
	got := make([]byte, len(payload))
	br.ReadBytes(got)
	require.Equal(t, payload, got)
	require.Equal(t, "tail", br.ReadString(4))
	require.NoError(t, br.Err)

	br.ReadI32BE()
	require.True(t, errors.Is(br.Err, io.EOF))
}

func TestReaderLargeFieldFromIO(t *testing.T) {
	var s = string(bytes.Repeat([]byte{'x'}, 2*defaultBufSize+3))
	br := NewBinReaderFromIO(bytes.NewReader([]byte(s)))
	require.Equal(t, s, br.ReadString(len(s)))
	require.NoError(t, br.Err)
}

func TestReaderTruncated(t *testing.T) {
	t.Run("buffer", func(t *testing.T) {
		br := NewBinReaderFromBuf([]byte{1, 2})
		br.ReadU32BE()
		require.True(t, errors.Is(br.Err, io.ErrUnexpectedEOF))
	})
	t.Run("io", func(t *testing.T) {
		br := NewBinReaderFromIO(bytes.NewReader([]byte{1, 2, 3}))
		br.ReadF64BE()
		require.True(t, errors.Is(br.Err, io.ErrUnexpectedEOF))
	})
	t.Run("raw block", func(t *testing.T) {
		br := NewBinReaderFromBuf([]byte{1, 2, 3})
		br.ReadBytes(make([]byte, 10))
		require.True(t, errors.Is(br.Err, io.ErrUnexpectedEOF))
	})
	t.Run("empty", func(t *testing.T) {
		br := NewBinReaderFromBuf(nil)
		br.ReadI32BE()
		require.True(t, errors.Is(br.Err, io.EOF))
	})
}

func TestReaderFieldLimit(t *testing.T) {
	data := make([]byte, 64)
	br := NewBinReaderFromBuf(data)
	br.SetMaxFieldSize(16)
	require.Equal(t, 16, br.MaxFieldSize())
	require.Len(t, br.ReadField(16), 16)
	require.NoError(t, br.Err)
	br.ReadField(17)
	require.True(t, errors.Is(br.Err, ErrFieldTooLarge))

	// Raw blocks are streamed and not affected by the limit.
	br = NewBinReaderFromIO(bytes.NewReader(data))
	br.SetMaxFieldSize(16)
	got := make([]byte, 64)
	br.ReadBytes(got)
	require.NoError(t, br.Err)

	br = NewBinReaderFromBuf(data)
	br.ReadField(-1)
	require.Error(t, br.Err)
}

func TestStickyErrors(t *testing.T) {
	w := NewBinWriterFromIO(&badRW{})
	w.WriteI32BE(1)
	require.Error(t, w.Err)
	w.WriteString("x")
	w.WriteBytes([]byte{1})
	w.WriteF64BE(1)
	require.Error(t, w.Err)

	r := NewBinReaderFromIO(&badRW{})
	r.ReadI32BE()
	require.Error(t, r.Err)
	require.Equal(t, "", r.ReadString(3))
	require.Equal(t, uint64(0), r.ReadU64BE())
	require.Error(t, r.Err)
}

func TestBufBinWriterDrained(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteI32BE(1)
	require.Equal(t, []byte{0, 0, 0, 1}, bw.Bytes())
	bw.WriteI32BE(2)
	require.Error(t, bw.Err)
	require.Nil(t, bw.Bytes())
}
