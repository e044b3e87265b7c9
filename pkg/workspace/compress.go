package workspace

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4"
)

// Compression is a workspace image compression method.
type Compression string

// Supported compression methods.
const (
	None Compression = "none"
	Gzip Compression = "gzip"
	LZ4  Compression = "lz4"
)

const (
	lz4Magic     = "RLZ4"
	lz4HeaderLen = len(lz4Magic) + 8
	// maxRatio is the maximum lz4 block compression ratio.
	maxRatio = 255
)

// ErrCorrupted is returned for compressed images that can't be decompressed.
var ErrCorrupted = errors.New("corrupted compressed image")

// ParseCompression converts a string into Compression, empty string means
// None.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(s); c {
	case "":
		return None, nil
	case None, Gzip, LZ4:
		return c, nil
	default:
		return "", fmt.Errorf("unknown compression: %s", s)
	}
}

// Compress writes data into w using the given method.
func Compress(w io.Writer, c Compression, data []byte) error {
	switch c {
	case None, "":
		_, err := w.Write(data)
		return err
	case Gzip:
		gz := gzip.NewWriter(w)
		if _, err := gz.Write(data); err != nil {
			return err
		}
		return gz.Close()
	case LZ4:
		return writeLZ4(w, data)
	default:
		return fmt.Errorf("unknown compression: %s", c)
	}
}

// writeLZ4 writes a single lz4 block prefixed with magic, uncompressed and
// compressed lengths. Zero compressed length means the data is stored as is.
func writeLZ4(w io.Writer, data []byte) error {
	dest := make([]byte, lz4HeaderLen+lz4.CompressBlockBound(len(data)))
	size, err := lz4.CompressBlock(data, dest[lz4HeaderLen:], nil)
	if err != nil {
		return err
	}
	payload := dest[lz4HeaderLen : lz4HeaderLen+size]
	if size == 0 || size >= len(data) {
		payload = data
		size = 0
	}
	copy(dest, lz4Magic)
	binary.BigEndian.PutUint32(dest[len(lz4Magic):], uint32(len(data)))
	binary.BigEndian.PutUint32(dest[len(lz4Magic)+4:], uint32(size))
	if _, err := w.Write(dest[:lz4HeaderLen]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// readLZ4 reads an image written by writeLZ4.
func readLZ4(r io.Reader) ([]byte, error) {
	var hdr [lz4HeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	if string(hdr[:len(lz4Magic)]) != lz4Magic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupted)
	}
	ulen := binary.BigEndian.Uint32(hdr[len(lz4Magic):])
	clen := binary.BigEndian.Uint32(hdr[len(lz4Magic)+4:])
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if clen == 0 {
		if uint32(len(body)) != ulen {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorrupted, ulen, len(body))
		}
		return body, nil
	}
	if uint32(len(body)) != clen || uint64(ulen) > uint64(clen)*maxRatio {
		return nil, fmt.Errorf("%w: bad block length", ErrCorrupted)
	}
	dest := make([]byte, ulen)
	size, err := lz4.UncompressBlock(body, dest)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	if size != int(ulen) {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorrupted, ulen, size)
	}
	return dest, nil
}
