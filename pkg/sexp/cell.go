package sexp

import "strconv"

// Cell is a dotted pair node: {tag, car, cdr}. Chains of cells form pairlists,
// the argument part of calls, dot-dot-dot bundles and attribute lists. Absent
// tag and list terminator are represented by Nil, never by an empty cell.
type Cell struct {
	header
	kind Type
	Tag  Value
	Car  Value
	Cdr  Value
}

func orNil(v Value) Value {
	if v == nil {
		return Nil
	}
	return v
}

// NewCell creates a cell of the given kind (ListT, LangT, DotsT, ClosureT or
// PromiseT). nil arguments are replaced with Nil.
func NewCell(kind Type, tag, car, cdr Value) *Cell {
	if !kind.IsCell() {
		panic("not a cell type: " + kind.String())
	}
	return &Cell{kind: kind, Tag: orNil(tag), Car: orNil(car), Cdr: orNil(cdr)}
}

// Cons creates a pairlist cell.
func Cons(car, cdr Value) *Cell {
	return NewCell(ListT, Nil, car, cdr)
}

// NewPairList creates a pairlist of untagged values. It returns Nil for an
// empty list.
func NewPairList(elems ...Value) Value {
	var b ChainBuilder
	for _, e := range elems {
		b.Append(Nil, e)
	}
	return b.Head()
}

// NewLang creates a call cell chain: fn(args...).
func NewLang(fn Value, args ...Value) *Cell {
	c := NewCell(LangT, Nil, fn, Nil)
	c.Cdr = NewPairList(args...)
	return c
}

// Type implements Value interface.
func (c *Cell) Type() Type {
	return c.kind
}

// HasTag checks whether the cell has a tag.
func (c *Cell) HasTag() bool {
	return !IsNil(c.Tag)
}

// TagName returns the name of the tag symbol or an empty string.
func (c *Cell) TagName() string {
	if s, ok := c.Tag.(*Symbol); ok {
		return s.Name
	}
	return ""
}

// Next returns the next cell in the chain or nil if Cdr is not a cell.
func (c *Cell) Next() *Cell {
	n, _ := c.Cdr.(*Cell)
	return n
}

// Len returns the number of cells in the chain starting at c.
func (c *Cell) Len() int {
	var n int
	for cur := c; cur != nil; cur = cur.Next() {
		n++
	}
	return n
}

// Each calls f for every cell in the chain starting at c until f returns
// false.
func (c *Cell) Each(f func(*Cell) bool) {
	for cur := c; cur != nil; cur = cur.Next() {
		if !f(cur) {
			return
		}
	}
}

// String implements fmt.Stringer interface.
func (c *Cell) String() string {
	return c.kind.String() + "[" + strconv.Itoa(c.Len()) + "]"
}

// ChainBuilder appends cells to the end of a chain without recursion. The
// zero value builds a pairlist, Kind may be set to start with another head
// cell kind (the rest of the chain is always ListT).
type ChainBuilder struct {
	Kind Type
	head *Cell
	tail *Cell
}

// Append adds a new cell with the given tag and car and returns it.
func (b *ChainBuilder) Append(tag, car Value) *Cell {
	kind := ListT
	if b.head == nil && b.Kind != 0 {
		kind = b.Kind
	}
	c := NewCell(kind, tag, car, Nil)
	if b.head == nil {
		b.head = c
	} else {
		b.tail.Cdr = c
	}
	b.tail = c
	return c
}

// Head returns the first cell or Nil for an empty chain.
func (b *ChainBuilder) Head() Value {
	if b.head == nil {
		return Nil
	}
	return b.head
}

// Tail returns the last cell or nil.
func (b *ChainBuilder) Tail() *Cell {
	return b.tail
}
