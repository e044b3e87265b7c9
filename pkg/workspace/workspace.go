/*
Package workspace implements workspace images: a set of named values saved as
a tagged pairlist after an "RDX2\n" or "RDX3\n" magic, optionally compressed
with gzip or lz4.
*/
package workspace

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/nspcc-dev/rds-go/pkg/serial"
	"github.com/nspcc-dev/rds-go/pkg/sexp"
	"go.uber.org/zap"
)

const magicLen = 5

var (
	// ErrBadMagic is returned for data that is not a workspace image.
	ErrBadMagic = errors.New("not a workspace image")
	// ErrBadBindings is returned for images that don't contain a tagged
	// pairlist.
	ErrBadBindings = errors.New("bad workspace bindings")
)

func magic(version int) string {
	if version == serial.VersionThree {
		return "RDX3\n"
	}
	return "RDX2\n"
}

// Save writes all bindings of env (except active ones) into w as a workspace
// image. Format version is taken from opts.
func Save(w io.Writer, env *sexp.Environment, c Compression, opts *serial.Options) error {
	var (
		b   sexp.ChainBuilder
		log = zap.NewNop()
	)
	if opts != nil && opts.Logger != nil {
		log = opts.Logger
	}
	for _, bnd := range env.Bindings() {
		if bnd.Active {
			log.Warn("active binding is not saved", zap.String("name", bnd.Name))
			continue
		}
		b.Append(sexp.NewSymbol(bnd.Name), bnd.Value)
	}
	var version int
	if opts != nil {
		version = opts.Version
	}
	buf := bytes.NewBufferString(magic(version))
	if err := serial.NewEncoder(buf, opts).Encode(b.Head()); err != nil {
		return err
	}
	return Compress(w, c, buf.Bytes())
}

// Load reads a workspace image (compressed or not) from r and binds its values
// in env. It returns the names of values loaded.
func Load(r io.Reader, env *sexp.Environment, opts *serial.Options) ([]string, error) {
	src, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	var m [magicLen]byte
	if _, err := io.ReadFull(src, m[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMagic, err)
	}
	if !IsImage(m[:]) {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, m[:])
	}
	v, err := serial.NewDecoder(src, opts).Decode()
	if err != nil {
		return nil, err
	}
	if sexp.IsNil(v) {
		return nil, nil
	}
	head, ok := v.(*sexp.Cell)
	if !ok || head.Type() != sexp.ListT {
		return nil, fmt.Errorf("%w: %s", ErrBadBindings, v.Type())
	}
	var names []string
	for c := head; c != nil; c = c.Next() {
		sym, ok := c.Tag.(*sexp.Symbol)
		if !ok {
			return names, fmt.Errorf("%w: untagged value", ErrBadBindings)
		}
		if err := env.Bind(sym.Name, c.Car); err != nil {
			return names, err
		}
		names = append(names, sym.Name)
	}
	return names, nil
}

// Sniff returns the compression method of the image by its first bytes.
func Sniff(head []byte) Compression {
	switch {
	case len(head) >= 2 && head[0] == 0x1f && head[1] == 0x8b:
		return Gzip
	case bytes.HasPrefix(head, []byte(lz4Magic)):
		return LZ4
	default:
		return None
	}
}

// NewReader returns a reader of r contents decompressed according to the
// method detected by Sniff.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(lz4Magic))
	switch Sniff(head) {
	case Gzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
		}
		return gz, nil
	case LZ4:
		data, err := readLZ4(br)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	default:
		return io.NopCloser(br), nil
	}
}

// IsImage checks whether the (decompressed) data starts with a workspace
// image magic.
func IsImage(head []byte) bool {
	return bytes.HasPrefix(head, []byte(magic(serial.VersionTwo))) ||
		bytes.HasPrefix(head, []byte(magic(serial.VersionThree)))
}
