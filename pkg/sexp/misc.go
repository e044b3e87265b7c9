package sexp

import "fmt"

// ExternalPtr is an opaque handle to a host resource. The address itself
// never survives serialization, only the protected value and the tag do.
type ExternalPtr struct {
	header
	Prot Value
	Tag  Value
}

// NewExternalPtr creates an external pointer with the given protected value
// and tag.
func NewExternalPtr(prot, tag Value) *ExternalPtr {
	return &ExternalPtr{Prot: orNil(prot), Tag: orNil(tag)}
}

// Type implements Value interface.
func (p *ExternalPtr) Type() Type {
	return ExternalPtrT
}

// String implements fmt.Stringer interface.
func (p *ExternalPtr) String() string {
	return fmt.Sprintf("<pointer: %p>", p)
}

// WeakRef is a weak reference. Key and value are not serialized, so a
// deserialized reference is always empty.
type WeakRef struct {
	header
}

// Type implements Value interface.
func (w *WeakRef) Type() Type {
	return WeakRefT
}

// String implements fmt.Stringer interface.
func (w *WeakRef) String() string {
	return "<weak reference>"
}

// S4Object is an S4 object without a data part, all of its state is in the
// attributes.
type S4Object struct {
	header
}

// NewS4Object creates an S4 object of the given class.
func NewS4Object(class string) *S4Object {
	o := new(S4Object)
	o.levels = S4Level
	o.attrs = NewAttributes(Attribute{Name: ClassAttr, Value: Text(class)})
	return o
}

// Type implements Value interface.
func (o *S4Object) Type() Type {
	return S4T
}

// String implements fmt.Stringer interface.
func (o *S4Object) String() string {
	if c := o.attrs.ClassNames(); len(c) > 0 {
		return "<S4 object of class \"" + c[0] + "\">"
	}
	return "<S4 object>"
}

// Bytecode is a compiled code block. It's kept as an opaque structure: code
// words and a constant pool where the first element is the source
// expression. Language constants are kept as inert cells.
type Bytecode struct {
	header
	Code   *IntegerVector
	Consts []Value
}

// Type implements Value interface.
func (b *Bytecode) Type() Type {
	return BytecodeT
}

// String implements fmt.Stringer interface.
func (b *Bytecode) String() string {
	return fmt.Sprintf("<bytecode: %d words, %d consts>", b.Code.Len(), len(b.Consts))
}

// Source returns the expression the code was compiled from.
func (b *Bytecode) Source() Value {
	if len(b.Consts) == 0 {
		return Nil
	}
	return b.Consts[0]
}
