package sexp

import (
	"strconv"
	"strings"
)

// List is a generic vector of values. It's also used for expression vectors
// which only differ in the type tag.
type List struct {
	header
	typ   Type
	elems []Value
}

// NewList creates a generic vector holding the given values.
func NewList(elems ...Value) *List {
	return &List{typ: GenericT, elems: elems}
}

// NewExpression creates an expression vector holding the given values.
func NewExpression(elems ...Value) *List {
	return &List{typ: ExpressionT, elems: elems}
}

// Type implements Value interface.
func (l *List) Type() Type {
	return l.typ
}

// Len returns the number of elements.
func (l *List) Len() int {
	return len(l.elems)
}

// At returns i-th element.
func (l *List) At(i int) Value {
	return l.elems[i]
}

// Set replaces i-th element.
func (l *List) Set(i int, v Value) {
	l.elems[i] = v
}

// Slice returns underlying elements, it must not be modified.
func (l *List) Slice() []Value {
	return l.elems
}

// String implements fmt.Stringer interface.
func (l *List) String() string {
	var b strings.Builder
	b.WriteString(l.typ.String())
	b.WriteByte('[')
	b.WriteString(strconv.Itoa(len(l.elems)))
	b.WriteByte(']')
	return b.String()
}

// Symbol is a name.
type Symbol struct {
	Name string
}

// NewSymbol creates a new symbol.
func NewSymbol(name string) *Symbol {
	return &Symbol{Name: name}
}

// Type implements Value interface.
func (s *Symbol) Type() Type {
	return SymbolT
}

// String implements fmt.Stringer interface.
func (s *Symbol) String() string {
	return "`" + s.Name + "`"
}

// CharSXP is a standalone string element. It normally only exists inside
// character vectors and symbols, but can be serialized on its own.
type CharSXP struct {
	Elem String
}

// Type implements Value interface.
func (c *CharSXP) Type() Type {
	return CharT
}

// String implements fmt.Stringer interface.
func (c *CharSXP) String() string {
	return "char " + c.Elem.format()
}
