package sexp

// Builtin is a primitive function provided by the runtime. Special builtins
// get their arguments unevaluated.
type Builtin struct {
	header
	Name    string
	Special bool
}

// BuiltinTable resolves primitive functions by name.
type BuiltinTable interface {
	LookupBuiltin(name string) (*Builtin, bool)
}

// Builtins is a simple map-based BuiltinTable.
type Builtins map[string]*Builtin

// Type implements Value interface.
func (b *Builtin) Type() Type {
	if b.Special {
		return SpecialT
	}
	return BuiltinT
}

// String implements fmt.Stringer interface.
func (b *Builtin) String() string {
	return ".Primitive(\"" + b.Name + "\")"
}

// LookupBuiltin implements BuiltinTable interface.
func (t Builtins) LookupBuiltin(name string) (*Builtin, bool) {
	b, ok := t[name]
	return b, ok
}

// Add registers a new builtin in the table.
func (t Builtins) Add(name string, special bool) *Builtin {
	b := &Builtin{Name: name, Special: special}
	t[name] = b
	return b
}

var (
	defaultSpecials = []string{
		"if", "for", "while", "repeat", "break", "next", "return", "function",
		"quote", "switch", "{", "(", "<-", "=", "<<-", "&&", "||", "on.exit",
		"missing", "substitute", "UseMethod", "$", "@", "[", "[[", "$<-",
		"[<-", "[[<-", "@<-", "~", "call", "expression", "interactive",
	}
	defaultBuiltins = []string{
		"+", "-", "*", "/", "^", "%%", "%/%", "%*%", "==", "!=", "<", ">",
		"<=", ">=", "!", "&", "|", ":", "c", "list", "length", "length<-",
		"names", "names<-", "attr", "attr<-", "attributes", "attributes<-",
		"class", "class<-", "oldClass", "oldClass<-", "is.null", "is.na",
		"invisible", "environment<-", "sum", "prod", "max", "min", "range",
		"rep", "seq_len", "seq_along", "unclass", "as.character",
		"as.integer", "as.double", "as.numeric", "as.call", "levels<-",
		"dim", "dim<-", "dimnames", "dimnames<-", "exp", "log", "sqrt",
		"abs", "floor", "ceiling", "standardGeneric", "nargs", "forceAndCall",
	}
)

// DefaultBuiltins returns a new table with a set of commonly used primitive
// functions.
func DefaultBuiltins() Builtins {
	t := make(Builtins, len(defaultSpecials)+len(defaultBuiltins))
	for _, n := range defaultSpecials {
		t.Add(n, true)
	}
	for _, n := range defaultBuiltins {
		t.Add(n, false)
	}
	return t
}
