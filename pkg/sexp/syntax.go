package sexp

import (
	"strconv"
	"strings"
)

// Node is an element of an executable syntax tree. The set of node kinds is
// closed: *Ident, *Constant, *Call, *Function and *Qualified.
type Node interface {
	String() string
	node()
}

// Ident is a reference to a variable.
type Ident struct {
	Name string
}

// Constant is a literal. Value is either a bare Go scalar (int32, float64,
// complex128, string or Logical) for single-element attribute-free atomic
// vectors or a Value for everything else, MissingArg included.
type Constant struct {
	Value any
}

// Arg is a call argument, Name is empty for positional ones.
type Arg struct {
	Name  string
	Value Node
}

// Call is a function call.
type Call struct {
	Fn    Node
	Args  []Arg
	Attrs *Attributes
}

// Param is a formal parameter of a function, Default is nil if there is no
// default value.
type Param struct {
	Name    string
	Default Node
}

// Function is a function literal.
type Function struct {
	Params []Param
	Body   Node
	// SrcRef is the source reference recorded for the literal or nil.
	SrcRef Value
}

// Qualified is a pkg::name (or pkg:::name) reference. Each part may have been
// written as a symbol or as a string.
type Qualified struct {
	Op         string
	Pkg        string
	Name       string
	PkgString  bool
	NameString bool
}

func (*Ident) node()     {}
func (*Constant) node()  {}
func (*Call) node()      {}
func (*Function) node()  {}
func (*Qualified) node() {}

// NewIdent creates an identifier node.
func NewIdent(name string) *Ident {
	return &Ident{Name: name}
}

// NewConstant creates a constant node unwrapping scalar vectors.
func NewConstant(v Value) *Constant {
	if s, ok := Scalar(v); ok {
		return &Constant{Value: s}
	}
	return &Constant{Value: v}
}

// Missing returns an empty argument node.
func Missing() *Constant {
	return &Constant{Value: MissingArg}
}

// NewCall creates a call node.
func NewCall(fn Node, args ...Arg) *Call {
	return &Call{Fn: fn, Args: args}
}

// IsMissing checks whether the constant is an empty argument.
func (c *Constant) IsMissing() bool {
	return c.Value == MissingArg
}

// Scalar returns a bare Go value for single-element atomic vectors without
// attributes.
func Scalar(v Value) (any, bool) {
	a, ok := v.(Attributed)
	if !ok || a.Attributes().Len() != 0 || a.Levels() != 0 {
		return nil, false
	}
	switch t := v.(type) {
	case *LogicalVector:
		if t.Len() == 1 {
			return t.At(0), true
		}
	case *IntegerVector:
		if t.Len() == 1 {
			return t.At(0), true
		}
	case *DoubleVector:
		if t.Len() == 1 {
			return t.At(0), true
		}
	case *ComplexVector:
		if t.Len() == 1 {
			return t.At(0), true
		}
	case *CharacterVector:
		if t.Len() == 1 && t.At(0) == Str(t.At(0).Value) {
			return t.At(0).Value, true
		}
	}
	return nil, false
}

// ConstantValue returns the value represented by the constant wrapping bare
// scalars into single-element vectors.
func ConstantValue(c *Constant) Value {
	switch v := c.Value.(type) {
	case Value:
		return v
	case int32:
		return Int(v)
	case int:
		return Int(int32(v))
	case float64:
		return Double(v)
	case complex128:
		return Complex(v)
	case string:
		return Text(v)
	case Logical:
		return NewLogicalVector([]Logical{v})
	case bool:
		return Bool(v)
	case nil:
		return Nil
	default:
		panic("unsupported constant type")
	}
}

// String implements fmt.Stringer interface.
func (i *Ident) String() string {
	return i.Name
}

// String implements fmt.Stringer interface.
func (c *Constant) String() string {
	switch v := c.Value.(type) {
	case Value:
		if v == MissingArg {
			return ""
		}
		return v.String()
	case int32:
		return formatInteger(v) + "L"
	case float64:
		return formatDouble(v)
	case complex128:
		return formatComplex(v)
	case string:
		return strconv.Quote(v)
	case Logical:
		return formatLogical(v)
	default:
		return "<?>"
	}
}

// String implements fmt.Stringer interface.
func (c *Call) String() string {
	var b strings.Builder
	b.WriteString(c.Fn.String())
	b.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		if a.Name != "" {
			b.WriteString(a.Name)
			b.WriteString(" = ")
		}
		b.WriteString(a.Value.String())
	}
	b.WriteByte(')')
	return b.String()
}

// String implements fmt.Stringer interface.
func (f *Function) String() string {
	return "function(" + formatParams(f.Params) + ") " + f.Body.String()
}

// String implements fmt.Stringer interface.
func (q *Qualified) String() string {
	part := func(s string, quoted bool) string {
		if quoted {
			return strconv.Quote(s)
		}
		return s
	}
	return part(q.Pkg, q.PkgString) + q.Op + part(q.Name, q.NameString)
}

func formatParams(params []Param) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		if p.Default != nil {
			b.WriteString(" = ")
			b.WriteString(p.Default.String())
		}
	}
	return b.String()
}
