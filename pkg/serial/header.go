package serial

import (
	"fmt"

	"github.com/nspcc-dev/rds-go/pkg/io"
)

// Format versions.
const (
	// VersionTwo is the default format understood by all readers since 2.3.0.
	VersionTwo = 2
	// VersionThree adds native encoding to the header and ALTREP values.
	VersionThree = 3
)

const (
	// Magic is the prefix of XDR binary streams.
	Magic = "X\n"

	// WriterVersion is the runtime version recorded in written streams
	// (4.3.1 packed as major*65536+minor*256+patch).
	WriterVersion = 0x040301

	minReaderVersionTwo   = 0x020300
	minReaderVersionThree = 0x030500

	// NativeEncoding is the native encoding recorded in version 3 streams.
	NativeEncoding = "UTF-8"
)

// Header is the stream header following the magic.
type Header struct {
	Version          int32
	WriterVersion    int32
	MinReaderVersion int32
	// NativeEncoding is only present in version 3 streams.
	NativeEncoding string
}

// NewHeader creates a header for the given format version.
func NewHeader(version int) Header {
	h := Header{
		Version:          int32(version),
		WriterVersion:    WriterVersion,
		MinReaderVersion: minReaderVersionTwo,
	}
	if version == VersionThree {
		h.MinReaderVersion = minReaderVersionThree
		h.NativeEncoding = NativeEncoding
	}
	return h
}

// EncodeBinary implements io.Serializable interface.
func (h *Header) EncodeBinary(w *io.BinWriter) {
	w.WriteString(Magic)
	w.WriteI32BE(h.Version)
	w.WriteI32BE(h.WriterVersion)
	w.WriteI32BE(h.MinReaderVersion)
	if h.Version == VersionThree {
		w.WriteI32BE(int32(len(h.NativeEncoding)))
		w.WriteString(h.NativeEncoding)
	}
}

// DecodeBinary implements io.Serializable interface.
func (h *Header) DecodeBinary(r *io.BinReader) {
	magic := r.ReadField(len(Magic))
	if r.Err != nil {
		return
	}
	if string(magic) != Magic {
		switch magic[0] {
		case 'A', 'B':
			r.Err = fmt.Errorf("%w: %q format is not supported", ErrMalformedHeader, magic[0])
		default:
			r.Err = fmt.Errorf("%w: bad magic %x", ErrMalformedHeader, magic)
		}
		return
	}
	h.Version = r.ReadI32BE()
	h.WriterVersion = r.ReadI32BE()
	h.MinReaderVersion = r.ReadI32BE()
	if r.Err != nil {
		return
	}
	switch h.Version {
	case VersionTwo:
	case VersionThree:
		n := r.ReadI32BE()
		h.NativeEncoding = r.ReadString(int(n))
	default:
		r.Err = fmt.Errorf("%w: unsupported version %d", ErrMalformedHeader, h.Version)
	}
}

// String implements fmt.Stringer interface.
func (h Header) String() string {
	s := fmt.Sprintf("version %d, written by %s, readable by %s", h.Version,
		formatVersion(h.WriterVersion), formatVersion(h.MinReaderVersion))
	if h.NativeEncoding != "" {
		s += ", native encoding " + h.NativeEncoding
	}
	return s
}

func formatVersion(v int32) string {
	return fmt.Sprintf("%d.%d.%d", v>>16, (v>>8)&0xFF, v&0xFF)
}
