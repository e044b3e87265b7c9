package serial

import (
	"fmt"

	"github.com/nspcc-dev/rds-go/pkg/sexp"
	"golang.org/x/text/encoding/charmap"
)

func encodingFromLevels(levels int) sexp.Encoding {
	switch {
	case levels&sexp.BytesLevel != 0:
		return sexp.BytesEncoding
	case levels&sexp.Latin1Level != 0:
		return sexp.Latin1Encoding
	case levels&sexp.UTF8Level != 0:
		return sexp.UTF8Encoding
	case levels&sexp.ASCIILevel != 0:
		return sexp.ASCIIEncoding
	default:
		return sexp.NativeEncoding
	}
}

func levelsFromEncoding(e sexp.Encoding) int {
	switch e {
	case sexp.BytesEncoding:
		return sexp.BytesLevel
	case sexp.Latin1Encoding:
		return sexp.Latin1Level
	case sexp.UTF8Encoding:
		return sexp.UTF8Level
	case sexp.ASCIIEncoding:
		return sexp.ASCIILevel
	default:
		return 0
	}
}

// readCharData reads CHARSXP payload (after the flags).
func (d *Decoder) readCharData(levels int) sexp.String {
	n := d.r.ReadI32BE()
	if d.r.Err != nil {
		return sexp.NAString
	}
	if n == -1 {
		return sexp.NAString
	}
	b := d.r.ReadField(int(n))
	if d.r.Err != nil {
		return sexp.NAString
	}
	enc := encodingFromLevels(levels)
	var s string
	switch enc {
	case sexp.Latin1Encoding:
		u, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
		if err != nil {
			d.fail(fmt.Errorf("%w: bad latin1 string: %v", ErrMalformed, err))
			return sexp.NAString
		}
		s = string(u)
	case sexp.BytesEncoding:
		s = string(b)
	default:
		if d.opts.StringPool != nil {
			s = d.opts.StringPool.Intern(b)
		} else {
			s = string(b)
		}
	}
	return sexp.String{Value: s, Encoding: enc}
}

// readChar reads a complete CHARSXP item (flags included).
func (d *Decoder) readChar() sexp.String {
	f := UnpackFlags(d.r.ReadI32BE())
	if d.r.Err != nil {
		return sexp.NAString
	}
	if f.Type != sexp.CharT {
		d.fail(fmt.Errorf("%w: expected %s, got %s", ErrMalformed, sexp.CharT, f.Type))
		return sexp.NAString
	}
	s := d.readCharData(f.Levels)
	if f.HasAttr {
		// Attributes of strings are never used, but old writers may have
		// emitted them.
		d.readAttributes()
	}
	return s
}

// writeChar writes a complete CHARSXP item.
func (e *Encoder) writeChar(s sexp.String) {
	if s.NA {
		e.w.WriteI32BE(PackFlags(sexp.CharT, 0, false, false, false))
		e.w.WriteI32BE(-1)
		return
	}
	data := s.Value
	if s.Encoding == sexp.Latin1Encoding {
		l, err := charmap.ISO8859_1.NewEncoder().String(s.Value)
		if err != nil {
			e.fail(fmt.Errorf("%w: string %q can't be represented in latin1", ErrMalformed, s.Value))
			return
		}
		data = l
	}
	e.w.WriteI32BE(PackFlags(sexp.CharT, levelsFromEncoding(s.Encoding), false, false, false))
	e.w.WriteI32BE(int32(len(data)))
	e.w.WriteString(data)
}

func (d *Decoder) readStringVec() []string {
	if n := d.r.ReadI32BE(); n != 0 && d.r.Err == nil {
		d.fail(fmt.Errorf("%w: names in persistent strings", ErrUnsupported))
		return nil
	}
	n := d.readLength()
	var res = make([]string, 0, min(n, 16))
	for i := 0; i < n && d.r.Err == nil; i++ {
		res = append(res, d.readChar().Value)
	}
	return res
}

func (e *Encoder) writeStringVec(ss []string) {
	e.w.WriteI32BE(0)
	e.w.WriteI32BE(int32(len(ss)))
	for _, s := range ss {
		e.writeChar(sexp.Str(s))
	}
}
