package sexp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Logical is an element of a logical vector: False, True or NALogical.
type Logical int32

// Logical values.
const (
	False     Logical = 0
	True      Logical = 1
	NALogical Logical = math.MinInt32
)

// NAInteger is the integer NA sentinel.
const NAInteger int32 = math.MinInt32

// naRealLow is the low word of the double NA bit pattern.
const naRealLow = 1954

// NARealBits is the exact bit pattern of the double NA sentinel.
const NARealBits = 0x7FF00000000007A2

// NAReal is the double NA sentinel value. It's a NaN, so it must be checked
// with IsNAReal, never with ==.
var NAReal = math.Float64frombits(NARealBits)

// IsNAReal checks whether f is a double NA (a NaN with the reserved payload).
func IsNAReal(f float64) bool {
	return math.IsNaN(f) && uint32(math.Float64bits(f)) == naRealLow
}

// IsNAComplex checks whether either part of c is a double NA.
func IsNAComplex(c complex128) bool {
	return IsNAReal(real(c)) || IsNAReal(imag(c))
}

// Encoding is a character encoding of a string element.
type Encoding byte

// Known string encodings.
const (
	NativeEncoding Encoding = iota
	UTF8Encoding
	Latin1Encoding
	BytesEncoding
	ASCIIEncoding
)

// String is an element of a character vector. The Value is always stored
// as UTF-8 except for BytesEncoding strings that keep raw bytes.
type String struct {
	Value    string
	NA       bool
	Encoding Encoding
}

// NAString is the character NA sentinel.
var NAString = String{NA: true}

// Str creates a non-NA string element, choosing ASCII or UTF-8 encoding.
func Str(s string) String {
	enc := ASCIIEncoding
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			enc = UTF8Encoding
			break
		}
	}
	return String{Value: s, Encoding: enc}
}

func (s String) format() string {
	if s.NA {
		return "NA"
	}
	return strconv.Quote(s.Value)
}

// atomic is embedded into all atomic vectors, it tracks completeness (the
// absence of NA elements).
type atomic struct {
	header
	complete bool
}

// IsComplete returns true if the vector has no NA elements.
func (a *atomic) IsComplete() bool {
	return a.complete
}

// LogicalVector is a vector of logicals.
type LogicalVector struct {
	atomic
	data []Logical
}

// IntegerVector is a vector of 32-bit integers.
type IntegerVector struct {
	atomic
	data []int32
}

// DoubleVector is a vector of doubles.
type DoubleVector struct {
	atomic
	data []float64
}

// ComplexVector is a vector of complex numbers.
type ComplexVector struct {
	atomic
	data []complex128
}

// CharacterVector is a vector of strings.
type CharacterVector struct {
	atomic
	data []String
}

// RawVector is a vector of bytes, it can't contain NA.
type RawVector struct {
	atomic
	data []byte
}

// NewLogicalVector creates a logical vector using the given slice.
func NewLogicalVector(data []Logical) *LogicalVector {
	v := &LogicalVector{data: data}
	v.complete = true
	for _, e := range data {
		if e == NALogical {
			v.complete = false
			break
		}
	}
	return v
}

// NewIntegerVector creates an integer vector using the given slice.
func NewIntegerVector(data []int32) *IntegerVector {
	v := &IntegerVector{data: data}
	v.complete = true
	for _, e := range data {
		if e == NAInteger {
			v.complete = false
			break
		}
	}
	return v
}

// NewDoubleVector creates a double vector using the given slice.
func NewDoubleVector(data []float64) *DoubleVector {
	v := &DoubleVector{data: data}
	v.complete = true
	for _, e := range data {
		if IsNAReal(e) {
			v.complete = false
			break
		}
	}
	return v
}

// NewComplexVector creates a complex vector using the given slice.
func NewComplexVector(data []complex128) *ComplexVector {
	v := &ComplexVector{data: data}
	v.complete = true
	for _, e := range data {
		if IsNAComplex(e) {
			v.complete = false
			break
		}
	}
	return v
}

// NewCharacterVector creates a character vector using the given slice.
func NewCharacterVector(data []String) *CharacterVector {
	v := &CharacterVector{data: data}
	v.complete = true
	for _, e := range data {
		if e.NA {
			v.complete = false
			break
		}
	}
	return v
}

// NewStrings creates a character vector from Go strings.
func NewStrings(ss ...string) *CharacterVector {
	data := make([]String, len(ss))
	for i := range ss {
		data[i] = Str(ss[i])
	}
	return NewCharacterVector(data)
}

// NewRawVector creates a raw vector using the given slice.
func NewRawVector(data []byte) *RawVector {
	v := &RawVector{data: data}
	v.complete = true
	return v
}

// Bool creates a logical scalar.
func Bool(b bool) *LogicalVector {
	if b {
		return NewLogicalVector([]Logical{True})
	}
	return NewLogicalVector([]Logical{False})
}

// Int creates an integer scalar.
func Int(i int32) *IntegerVector {
	return NewIntegerVector([]int32{i})
}

// Double creates a double scalar.
func Double(f float64) *DoubleVector {
	return NewDoubleVector([]float64{f})
}

// Complex creates a complex scalar.
func Complex(c complex128) *ComplexVector {
	return NewComplexVector([]complex128{c})
}

// Text creates a character scalar.
func Text(s string) *CharacterVector {
	return NewStrings(s)
}

// Type implements Value interface.
func (v *LogicalVector) Type() Type { return LogicalT }

// Type implements Value interface.
func (v *IntegerVector) Type() Type { return IntegerT }

// Type implements Value interface.
func (v *DoubleVector) Type() Type { return DoubleT }

// Type implements Value interface.
func (v *ComplexVector) Type() Type { return ComplexT }

// Type implements Value interface.
func (v *CharacterVector) Type() Type { return CharacterT }

// Type implements Value interface.
func (v *RawVector) Type() Type { return RawT }

// Len returns vector length.
func (v *LogicalVector) Len() int { return len(v.data) }

// Len returns vector length.
func (v *IntegerVector) Len() int { return len(v.data) }

// Len returns vector length.
func (v *DoubleVector) Len() int { return len(v.data) }

// Len returns vector length.
func (v *ComplexVector) Len() int { return len(v.data) }

// Len returns vector length.
func (v *CharacterVector) Len() int { return len(v.data) }

// Len returns vector length.
func (v *RawVector) Len() int { return len(v.data) }

// At returns i-th element.
func (v *LogicalVector) At(i int) Logical { return v.data[i] }

// At returns i-th element.
func (v *IntegerVector) At(i int) int32 { return v.data[i] }

// At returns i-th element.
func (v *DoubleVector) At(i int) float64 { return v.data[i] }

// At returns i-th element.
func (v *ComplexVector) At(i int) complex128 { return v.data[i] }

// At returns i-th element.
func (v *CharacterVector) At(i int) String { return v.data[i] }

// At returns i-th element.
func (v *RawVector) At(i int) byte { return v.data[i] }

// Slice returns underlying data, it must not be modified.
func (v *LogicalVector) Slice() []Logical { return v.data }

// Slice returns underlying data, it must not be modified.
func (v *IntegerVector) Slice() []int32 { return v.data }

// Slice returns underlying data, it must not be modified.
func (v *DoubleVector) Slice() []float64 { return v.data }

// Slice returns underlying data, it must not be modified.
func (v *ComplexVector) Slice() []complex128 { return v.data }

// Slice returns underlying data, it must not be modified.
func (v *CharacterVector) Slice() []String { return v.data }

// Slice returns underlying data, it must not be modified.
func (v *RawVector) Slice() []byte { return v.data }

// maxShown is the number of elements shown by String methods.
const maxShown = 6

func formatVector[E any](typ Type, data []E, f func(E) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]", typ, len(data))
	for i, e := range data {
		if i == maxShown {
			b.WriteString(" ...")
			break
		}
		b.WriteByte(' ')
		b.WriteString(f(e))
	}
	return b.String()
}

func formatLogical(l Logical) string {
	switch l {
	case NALogical:
		return "NA"
	case False:
		return "FALSE"
	default:
		return "TRUE"
	}
}

func formatInteger(i int32) string {
	if i == NAInteger {
		return "NA"
	}
	return strconv.Itoa(int(i))
}

func formatDouble(f float64) string {
	if IsNAReal(f) {
		return "NA"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatComplex(c complex128) string {
	if IsNAComplex(c) {
		return "NA"
	}
	return strconv.FormatComplex(c, 'g', -1, 128)
}

func formatRaw(b byte) string {
	return fmt.Sprintf("%02x", b)
}

// String implements fmt.Stringer interface.
func (v *LogicalVector) String() string { return formatVector(LogicalT, v.data, formatLogical) }

// String implements fmt.Stringer interface.
func (v *IntegerVector) String() string { return formatVector(IntegerT, v.data, formatInteger) }

// String implements fmt.Stringer interface.
func (v *DoubleVector) String() string { return formatVector(DoubleT, v.data, formatDouble) }

// String implements fmt.Stringer interface.
func (v *ComplexVector) String() string { return formatVector(ComplexT, v.data, formatComplex) }

// String implements fmt.Stringer interface.
func (v *CharacterVector) String() string { return formatVector(CharacterT, v.data, String.format) }

// String implements fmt.Stringer interface.
func (v *RawVector) String() string { return formatVector(RawT, v.data, formatRaw) }
