package serial

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nspcc-dev/rds-go/pkg/sexp"
)

// ALTREP classes that can be expanded into ordinary vectors.
const (
	compactIntSeq  = "compact_intseq"
	compactRealSeq = "compact_realseq"
	deferredString = "deferred_string"
	wrapperPrefix  = "wrap_"
)

// readAltrep reads an alternative representation value (info, state and
// attributes) and expands it into an ordinary one.
func (d *Decoder) readAltrep(f Flags) sexp.Value {
	var info, state, attr sexp.Value
	d.depth++
	info = d.readItem()
	state = d.readItem()
	attr = d.readItem()
	d.depth--
	if d.r.Err != nil {
		return nil
	}
	class, err := altrepClass(info)
	if err != nil {
		d.fail(err)
		return nil
	}
	var v sexp.Value
	switch {
	case class == compactIntSeq:
		v, err = expandIntSeq(state, d.opts.MaxExpandedLength)
	case class == compactRealSeq:
		v, err = expandRealSeq(state, d.opts.MaxExpandedLength)
	case class == deferredString:
		v, err = expandDeferredString(state)
	case strings.HasPrefix(class, wrapperPrefix):
		v, err = unwrap(state)
	default:
		err = fmt.Errorf("%w: ALTREP class %q", ErrUnsupported, class)
	}
	if err != nil {
		d.fail(err)
		return nil
	}
	a, ok := v.(sexp.Attributed)
	if !ok {
		return v
	}
	a.SetLevels(f.Levels)
	if attrs := d.toAttributes(attr); attrs != nil {
		a.SetAttributes(attrs)
	}
	return v
}

// altrepClass returns the class name from (class package type) info list.
func altrepClass(info sexp.Value) (string, error) {
	c, ok := info.(*sexp.Cell)
	if !ok {
		return "", fmt.Errorf("%w: ALTREP info is %s", ErrMalformed, info.Type())
	}
	sym, ok := c.Car.(*sexp.Symbol)
	if !ok {
		return "", fmt.Errorf("%w: ALTREP class is %s", ErrMalformed, c.Car.Type())
	}
	return sym.Name, nil
}

// seqState returns (length, start, step) of a compact sequence. Sequences
// longer than limit are rejected, the stream doesn't contain their elements.
func seqState(state sexp.Value, limit int) (int, float64, float64, error) {
	var s []float64
	switch x := state.(type) {
	case *sexp.DoubleVector:
		s = x.Slice()
	case *sexp.IntegerVector:
		for _, i := range x.Slice() {
			s = append(s, float64(i))
		}
	}
	if len(s) != 3 || s[0] < 0 || s[0] > math.MaxInt32 || s[0] != math.Trunc(s[0]) {
		return 0, 0, 0, fmt.Errorf("%w: bad compact sequence state %s", ErrMalformed, state)
	}
	if n := int(s[0]); n > limit {
		return 0, 0, 0, fmt.Errorf("%w: compact sequence of length %d exceeds %d", ErrUnsupported, n, limit)
	}
	return int(s[0]), s[1], s[2], nil
}

func expandIntSeq(state sexp.Value, limit int) (sexp.Value, error) {
	n, start, step, err := seqState(state, limit)
	if err != nil {
		return nil, err
	}
	data := make([]int32, n)
	for i := range data {
		data[i] = int32(start + float64(i)*step)
	}
	return sexp.NewIntegerVector(data), nil
}

func expandRealSeq(state sexp.Value, limit int) (sexp.Value, error) {
	n, start, step, err := seqState(state, limit)
	if err != nil {
		return nil, err
	}
	data := make([]float64, n)
	for i := range data {
		data[i] = start + float64(i)*step
	}
	return sexp.NewDoubleVector(data), nil
}

// expandDeferredString converts integer vectors that were lazily coerced to
// character. Doubles need the runtime number formatting and aren't supported.
func expandDeferredString(state sexp.Value) (sexp.Value, error) {
	c, ok := state.(*sexp.Cell)
	if !ok {
		return nil, fmt.Errorf("%w: deferred string state is %s", ErrMalformed, state.Type())
	}
	iv, ok := c.Car.(*sexp.IntegerVector)
	if !ok {
		return nil, fmt.Errorf("%w: deferred string of %s", ErrUnsupported, c.Car.Type())
	}
	data := make([]sexp.String, iv.Len())
	for i, x := range iv.Slice() {
		if x == sexp.NAInteger {
			data[i] = sexp.NAString
		} else {
			data[i] = sexp.Str(strconv.Itoa(int(x)))
		}
	}
	return sexp.NewCharacterVector(data), nil
}

// unwrap returns the wrapped vector of list(x, meta) state.
func unwrap(state sexp.Value) (sexp.Value, error) {
	l, ok := state.(*sexp.List)
	if !ok || l.Len() != 2 {
		return nil, fmt.Errorf("%w: bad wrapper state %s", ErrMalformed, state)
	}
	return l.At(0), nil
}
