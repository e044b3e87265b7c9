package sexp

import "math"

// Equal checks whether two value graphs are structurally equal. Doubles are
// compared bit by bit, so NA equals NA while NA and NaN differ. Well-known
// environments and singletons are compared by identity, other environments by
// contents (cycles are handled).
func Equal(a, b Value) bool {
	c := comparer{envs: make(map[[2]*Environment]struct{})}
	return c.value(a, b)
}

// EqualNodes checks whether two syntax trees are structurally equal.
func EqualNodes(a, b Node) bool {
	c := comparer{envs: make(map[[2]*Environment]struct{})}
	return c.node(a, b)
}

type comparer struct {
	envs map[[2]*Environment]struct{}
}

func sameBits(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}

func sameComplex(a, b complex128) bool {
	return sameBits(real(a), real(b)) && sameBits(imag(a), imag(b))
}

func sameSlice[E any](a, b []E, eq func(E, E) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !eq(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameString(a, b String) bool {
	if a.NA || b.NA {
		return a.NA == b.NA
	}
	return a == b
}

func (c *comparer) attrs(a, b Value) bool {
	aa, aok := a.(Attributed)
	ba, bok := b.(Attributed)
	if aok != bok {
		return false
	}
	if !aok {
		return true
	}
	if aa.Levels() != ba.Levels() {
		return false
	}
	return c.attrSets(aa.Attributes(), ba.Attributes())
}

func (c *comparer) value(a, b Value) bool {
	for {
		if a == b {
			return true
		}
		if a == nil || b == nil || a.Type() != b.Type() || !c.attrs(a, b) {
			return false
		}
		ac, aok := a.(*Cell)
		bc, bok := b.(*Cell)
		if aok != bok {
			// Closures, promises and language values have the same type
			// tags as their cell forms.
			return false
		}
		if !aok {
			return c.nonCell(a, b)
		}
		if !c.value(ac.Tag, bc.Tag) || !c.value(ac.Car, bc.Car) {
			return false
		}
		a, b = ac.Cdr, bc.Cdr
	}
}

func (c *comparer) nonCell(a, b Value) bool {
	switch x := a.(type) {
	case *LogicalVector:
		y, ok := b.(*LogicalVector)
		return ok && sameSlice(x.data, y.data, func(p, q Logical) bool { return p == q })
	case *IntegerVector:
		y, ok := b.(*IntegerVector)
		return ok && sameSlice(x.data, y.data, func(p, q int32) bool { return p == q })
	case *DoubleVector:
		y, ok := b.(*DoubleVector)
		return ok && sameSlice(x.data, y.data, sameBits)
	case *ComplexVector:
		y, ok := b.(*ComplexVector)
		return ok && sameSlice(x.data, y.data, sameComplex)
	case *CharacterVector:
		y, ok := b.(*CharacterVector)
		return ok && sameSlice(x.data, y.data, sameString)
	case *RawVector:
		y, ok := b.(*RawVector)
		return ok && string(x.data) == string(y.data)
	case *List:
		y, ok := b.(*List)
		return ok && sameSlice(x.elems, y.elems, c.value)
	case *Symbol:
		y, ok := b.(*Symbol)
		return ok && x.Name == y.Name
	case *CharSXP:
		y, ok := b.(*CharSXP)
		return ok && sameString(x.Elem, y.Elem)
	case *Builtin:
		y, ok := b.(*Builtin)
		return ok && x.Name == y.Name && x.Special == y.Special
	case *Environment:
		y, ok := b.(*Environment)
		return ok && c.env(x, y)
	case *Closure:
		y, ok := b.(*Closure)
		return ok && c.params(x.Params, y.Params) && c.node(x.Body, y.Body) && c.value(x.Env, y.Env)
	case *Promise:
		y, ok := b.(*Promise)
		return ok && c.node(x.Expr, y.Expr) && c.optEnv(x.Env, y.Env) && c.value(x.Value(), y.Value())
	case *Language:
		y, ok := b.(*Language)
		return ok && c.node(x.Expr, y.Expr)
	case *ExternalPtr:
		y, ok := b.(*ExternalPtr)
		return ok && c.value(x.Prot, y.Prot) && c.value(x.Tag, y.Tag)
	case *WeakRef:
		_, ok := b.(*WeakRef)
		return ok
	case *S4Object:
		_, ok := b.(*S4Object)
		return ok
	case *Bytecode:
		y, ok := b.(*Bytecode)
		return ok && c.value(x.Code, y.Code) && sameSlice(x.Consts, y.Consts, c.value)
	default:
		// Singletons are only equal to themselves.
		return false
	}
}

func (c *comparer) optEnv(a, b *Environment) bool {
	if a == nil || b == nil {
		return a == b
	}
	return c.value(a, b)
}

func (c *comparer) env(a, b *Environment) bool {
	if a.kind != b.kind || a.IsSpecial() || a.locked != b.locked ||
		!sameSlice(a.spec, b.spec, func(p, q string) bool { return p == q }) ||
		len(a.names) != len(b.names) {
		return false
	}
	key := [2]*Environment{a, b}
	if _, ok := c.envs[key]; ok {
		return true
	}
	c.envs[key] = struct{}{}
	for i, n := range a.names {
		if b.names[i] != n {
			return false
		}
		ab, bb := a.frame[n], b.frame[n]
		if ab.Active != bb.Active || ab.Locked != bb.Locked || !c.value(ab.Value, bb.Value) {
			return false
		}
	}
	return c.optEnv(a.enclos, b.enclos)
}

func (c *comparer) params(a, b []Param) bool {
	return sameSlice(a, b, func(p, q Param) bool {
		return p.Name == q.Name && c.node(p.Default, q.Default)
	})
}

func (c *comparer) node(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *Ident:
		y, ok := b.(*Ident)
		return ok && x.Name == y.Name
	case *Constant:
		y, ok := b.(*Constant)
		return ok && c.constant(x.Value, y.Value)
	case *Call:
		y, ok := b.(*Call)
		if !ok || !c.node(x.Fn, y.Fn) || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if x.Args[i].Name != y.Args[i].Name || !c.node(x.Args[i].Value, y.Args[i].Value) {
				return false
			}
		}
		return c.attrSets(x.Attrs, y.Attrs)
	case *Function:
		y, ok := b.(*Function)
		if !ok || !c.params(x.Params, y.Params) || !c.node(x.Body, y.Body) {
			return false
		}
		if IsNil(x.SrcRef) || IsNil(y.SrcRef) {
			return IsNil(x.SrcRef) == IsNil(y.SrcRef)
		}
		return c.value(x.SrcRef, y.SrcRef)
	case *Qualified:
		y, ok := b.(*Qualified)
		return ok && *x == *y
	default:
		return false
	}
}

func (c *comparer) attrSets(a, b *Attributes) bool {
	al, bl := a.All(), b.All()
	if len(al) != len(bl) {
		return false
	}
	for i := range al {
		if al[i].Name != bl[i].Name || !c.value(al[i].Value, bl[i].Value) {
			return false
		}
	}
	return true
}

func (c *comparer) constant(a, b any) bool {
	switch x := a.(type) {
	case Value:
		y, ok := b.(Value)
		return ok && c.value(x, y)
	case float64:
		y, ok := b.(float64)
		return ok && sameBits(x, y)
	case complex128:
		y, ok := b.(complex128)
		return ok && sameComplex(x, y)
	default:
		return a == b
	}
}
