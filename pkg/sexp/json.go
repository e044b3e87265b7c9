package sexp

import (
	"math"

	json "github.com/nspcc-dev/go-ordered-json"
)

// ToJSON returns a JSON-friendly view of the value graph. Objects keep field
// order (type first, then attributes and contents). NA elements become null,
// non-finite doubles become strings. Environments are described once, later
// occurrences are printed as references.
func ToJSON(v Value) any {
	j := jsonizer{envs: make(map[*Environment]int)}
	return j.value(v)
}

// MarshalJSON returns an indented JSON representation of the value graph.
func MarshalJSON(v Value) ([]byte, error) {
	return json.MarshalIndent(ToJSON(v), "", "  ")
}

type jsonizer struct {
	envs map[*Environment]int
}

func jsonDouble(f float64) any {
	switch {
	case IsNAReal(f):
		return nil
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	default:
		return f
	}
}

func jsonSlice[E any](data []E, f func(E) any) []any {
	res := make([]any, len(data))
	for i := range data {
		res[i] = f(data[i])
	}
	return res
}

func (j *jsonizer) value(v Value) any {
	if IsNil(v) {
		return nil
	}
	obj := json.OrderedObject{{Key: "type", Value: v.Type().String()}}
	if a := AttributesOf(v); a.Len() != 0 {
		attrs := make(json.OrderedObject, 0, a.Len())
		for _, at := range a.All() {
			attrs = append(attrs, json.Member{Key: at.Name, Value: j.value(at.Value)})
		}
		obj = append(obj, json.Member{Key: "attributes", Value: attrs})
	}
	add := func(k string, val any) {
		obj = append(obj, json.Member{Key: k, Value: val})
	}
	switch x := v.(type) {
	case *LogicalVector:
		add("value", jsonSlice(x.data, func(l Logical) any {
			if l == NALogical {
				return nil
			}
			return l != False
		}))
	case *IntegerVector:
		add("value", jsonSlice(x.data, func(i int32) any {
			if i == NAInteger {
				return nil
			}
			return i
		}))
	case *DoubleVector:
		add("value", jsonSlice(x.data, jsonDouble))
	case *ComplexVector:
		add("value", jsonSlice(x.data, func(c complex128) any {
			return []any{jsonDouble(real(c)), jsonDouble(imag(c))}
		}))
	case *CharacterVector:
		add("value", jsonSlice(x.data, func(s String) any {
			if s.NA {
				return nil
			}
			return s.Value
		}))
	case *RawVector:
		add("value", jsonSlice(x.data, func(b byte) any { return b }))
	case *List:
		add("value", jsonSlice(x.elems, j.value))
	case *Symbol:
		add("name", x.Name)
	case *CharSXP:
		if x.Elem.NA {
			add("value", nil)
		} else {
			add("value", x.Elem.Value)
		}
	case *Cell:
		var cells []any
		for cur := Value(x); ; {
			c, ok := cur.(*Cell)
			if !ok {
				if !IsNil(cur) {
					cells = append(cells, json.OrderedObject{{Key: "tail", Value: j.value(cur)}})
				}
				break
			}
			m := json.OrderedObject{}
			if c.HasTag() {
				m = append(m, json.Member{Key: "tag", Value: j.value(c.Tag)})
			}
			m = append(m, json.Member{Key: "value", Value: j.value(c.Car)})
			cells = append(cells, m)
			cur = c.Cdr
		}
		add("value", cells)
	case *Environment:
		if x.IsSpecial() {
			add("name", x.String())
			break
		}
		if id, ok := j.envs[x]; ok {
			add("ref", id)
			break
		}
		id := len(j.envs) + 1
		j.envs[x] = id
		add("id", id)
		if x.IsNamespace() || x.IsPackage() {
			add("spec", x.spec)
		}
		add("locked", x.locked)
		frame := make(json.OrderedObject, 0, len(x.names))
		for _, b := range x.Bindings() {
			frame = append(frame, json.Member{Key: b.Name, Value: j.value(b.Value)})
		}
		add("frame", frame)
		add("enclos", j.value(x.enclos))
	case *Closure:
		add("value", x.String())
		add("env", j.value(x.Env))
	case *Promise:
		add("expr", x.Expr.String())
		if val := x.Value(); val != Unbound {
			add("value", j.value(val))
		}
	case *Language:
		add("value", x.Expr.String())
	case *Builtin:
		add("name", x.Name)
	case *ExternalPtr:
		add("prot", j.value(x.Prot))
		add("tag", j.value(x.Tag))
	case *Bytecode:
		add("source", j.value(x.Source()))
	case *WeakRef, *S4Object:
	default:
		add("value", v.String())
	}
	return obj
}
