package sexp

// ClassAttr is the name of the attribute that defines the class of an object.
const ClassAttr = "class"

// NamesAttr is the name of the attribute holding element names.
const NamesAttr = "names"

// Attribute is a single named attribute.
type Attribute struct {
	Name  string
	Value Value
}

// Attributes is an ordered set of named attributes attached to a value. The
// class attribute is kept separately and always goes first, it changes the
// way the value is represented (an object) and is applied before anything
// else. A nil *Attributes is a valid empty set.
type Attributes struct {
	class Value
	list  []Attribute
}

// NewAttributes creates an attribute set from the given attributes, later
// duplicates override earlier ones.
func NewAttributes(attrs ...Attribute) *Attributes {
	a := new(Attributes)
	for _, at := range attrs {
		a.Set(at.Name, at.Value)
	}
	return a
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	n := len(a.list)
	if a.class != nil {
		n++
	}
	return n
}

// Get returns the attribute value or nil if there is no such attribute.
func (a *Attributes) Get(name string) Value {
	if a == nil {
		return nil
	}
	if name == ClassAttr {
		return a.class
	}
	for i := range a.list {
		if a.list[i].Name == name {
			return a.list[i].Value
		}
	}
	return nil
}

// Set sets (or replaces) the named attribute, nil or Nil value removes it.
func (a *Attributes) Set(name string, v Value) {
	if IsNil(v) {
		a.Remove(name)
		return
	}
	if name == ClassAttr {
		a.class = v
		return
	}
	for i := range a.list {
		if a.list[i].Name == name {
			a.list[i].Value = v
			return
		}
	}
	a.list = append(a.list, Attribute{Name: name, Value: v})
}

// Remove deletes the named attribute.
func (a *Attributes) Remove(name string) {
	if a == nil {
		return
	}
	if name == ClassAttr {
		a.class = nil
		return
	}
	for i := range a.list {
		if a.list[i].Name == name {
			a.list = append(a.list[:i], a.list[i+1:]...)
			return
		}
	}
}

// Class returns the class attribute value (nil if not set).
func (a *Attributes) Class() Value {
	if a == nil {
		return nil
	}
	return a.class
}

// ClassNames returns class names if the class attribute is a character
// vector.
func (a *Attributes) ClassNames() []string {
	c, ok := a.Class().(*CharacterVector)
	if !ok {
		return nil
	}
	res := make([]string, 0, c.Len())
	for _, s := range c.Slice() {
		if !s.NA {
			res = append(res, s.Value)
		}
	}
	return res
}

// All returns all attributes in their serialization order: class first, then
// everything else in the order of addition.
func (a *Attributes) All() []Attribute {
	if a.Len() == 0 {
		return nil
	}
	res := make([]Attribute, 0, a.Len())
	if a.class != nil {
		res = append(res, Attribute{Name: ClassAttr, Value: a.class})
	}
	return append(res, a.list...)
}

// SetAttr sets a named attribute on v creating the attribute set if needed.
func SetAttr(v Attributed, name string, value Value) {
	a := v.Attributes()
	if a == nil {
		a = new(Attributes)
	}
	a.Set(name, value)
	v.SetAttributes(a)
}
