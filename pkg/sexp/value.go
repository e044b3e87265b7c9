/*
Package sexp contains the in-memory model of the runtime values handled by the
serializer: vectors, symbols, dotted pair cells, environments, closures,
promises, syntax trees and a few opaque kinds.
*/
package sexp

import (
	"errors"
	"fmt"
)

// Value is the interface every runtime value implements.
type Value interface {
	fmt.Stringer
	// Type returns the type tag of the value.
	Type() Type
}

// Attributed is a Value that can carry attributes and general purpose level
// bits (the 16 bits that travel in the upper part of the serialized flags).
type Attributed interface {
	Value
	Attributes() *Attributes
	SetAttributes(*Attributes)
	Levels() int
	SetLevels(int)
}

// Level bits with a known meaning.
const (
	// BytesLevel marks a string as raw bytes.
	BytesLevel = 1 << 1
	// Latin1Level marks a string as latin1-encoded.
	Latin1Level = 1 << 2
	// UTF8Level marks a string as UTF-8-encoded.
	UTF8Level = 1 << 3
	// S4Level marks an S4 object.
	S4Level = 1 << 4
	// ASCIILevel marks a string as pure ASCII.
	ASCIILevel = 1 << 6
	// BindingLockLevel marks a locked environment binding cell.
	BindingLockLevel = 1 << 14
	// ActiveBindingLevel marks an active environment binding cell.
	ActiveBindingLevel = 1 << 15
)

// ErrLocked is returned on attempt to modify a locked environment or binding.
var ErrLocked = errors.New("locked")

// header is embedded into all values that may have attributes.
type header struct {
	attrs  *Attributes
	levels int
}

// Attributes implements Attributed interface. It may return nil which is a
// valid empty attribute set.
func (h *header) Attributes() *Attributes {
	return h.attrs
}

// SetAttributes implements Attributed interface.
func (h *header) SetAttributes(a *Attributes) {
	if a.Len() == 0 {
		a = nil
	}
	h.attrs = a
}

// Levels implements Attributed interface.
func (h *header) Levels() int {
	return h.levels
}

// SetLevels implements Attributed interface.
func (h *header) SetLevels(l int) {
	h.levels = l
}

// singleton is a process-wide marker value.
type singleton struct {
	typ  Type
	name string
}

// Type implements Value interface.
func (s *singleton) Type() Type {
	return s.typ
}

// String implements fmt.Stringer interface.
func (s *singleton) String() string {
	return s.name
}

// Process-wide marker values. They're compared by identity.
var (
	// Nil is the NULL value, also used as a list terminator and an absent tag.
	Nil Value = &singleton{typ: NilT, name: "NULL"}
	// MissingArg marks an empty argument or a formal without default.
	MissingArg Value = &singleton{typ: MissingArgT, name: "<missing>"}
	// Unbound marks a promise that was not forced yet.
	Unbound Value = &singleton{typ: UnboundValueT, name: "<unbound>"}
)

// IsNil checks whether v is nil or Nil.
func IsNil(v Value) bool {
	return v == nil || v == Nil
}

// IsObject checks whether v has a class attribute.
func IsObject(v Value) bool {
	a, ok := v.(Attributed)
	return ok && a.Attributes().Class() != nil
}

// AttributesOf returns attributes of v or nil for values without them.
func AttributesOf(v Value) *Attributes {
	if a, ok := v.(Attributed); ok {
		return a.Attributes()
	}
	return nil
}
