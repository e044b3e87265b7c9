package sexp

import (
	"fmt"
	"strings"
)

type envKind byte

const (
	regularEnv envKind = iota
	emptyEnv
	baseEnv
	globalEnv
	baseNamespaceEnv
	namespaceEnv
	packageEnv
)

// Binding is a single variable binding of an environment.
type Binding struct {
	Name  string
	Value Value
	// Active bindings hold a function that is called on every access.
	Active bool
	Locked bool
}

// Environment is a variable binding store with an enclosing environment. It
// keeps bindings in their definition order.
type Environment struct {
	header
	kind   envKind
	enclos *Environment
	names  []string
	frame  map[string]*Binding
	locked bool
	spec   []string
}

// Well-known process-wide environments. They're never serialized by content.
var (
	EmptyEnv      = &Environment{kind: emptyEnv, frame: make(map[string]*Binding)}
	BaseEnv       = newEnvironment(baseEnv, EmptyEnv, nil)
	GlobalEnv     = newEnvironment(globalEnv, BaseEnv, nil)
	BaseNamespace = newEnvironment(baseNamespaceEnv, GlobalEnv, []string{"base"})
)

func newEnvironment(kind envKind, enclos *Environment, spec []string) *Environment {
	if enclos == nil {
		enclos = EmptyEnv
	}
	return &Environment{
		kind:   kind,
		enclos: enclos,
		frame:  make(map[string]*Binding),
		spec:   spec,
	}
}

// NewEnvironment creates an empty environment enclosed by the given one,
// nil enclosing environment means EmptyEnv.
func NewEnvironment(enclos *Environment) *Environment {
	return newEnvironment(regularEnv, enclos, nil)
}

// NewNamespace creates a namespace environment with the given specification
// (name and version).
func NewNamespace(spec []string, enclos *Environment) *Environment {
	if enclos == nil {
		enclos = GlobalEnv
	}
	return newEnvironment(namespaceEnv, enclos, spec)
}

// NewPackageEnv creates a package environment (attached package) with the
// given name, like "package:stats".
func NewPackageEnv(name []string, enclos *Environment) *Environment {
	if enclos == nil {
		enclos = GlobalEnv
	}
	return newEnvironment(packageEnv, enclos, name)
}

// Type implements Value interface.
func (e *Environment) Type() Type {
	return EnvT
}

// String implements fmt.Stringer interface.
func (e *Environment) String() string {
	switch e.kind {
	case emptyEnv:
		return "<environment: R_EmptyEnv>"
	case baseEnv:
		return "<environment: base>"
	case globalEnv:
		return "<environment: R_GlobalEnv>"
	case baseNamespaceEnv:
		return "<environment: namespace:base>"
	case namespaceEnv:
		return "<environment: namespace:" + strings.Join(e.spec, "@") + ">"
	case packageEnv:
		return "<environment: " + strings.Join(e.spec, ",") + ">"
	default:
		return fmt.Sprintf("<environment: %p>", e)
	}
}

// IsSpecial checks whether e is one of the well-known process-wide
// environments.
func (e *Environment) IsSpecial() bool {
	switch e.kind {
	case emptyEnv, baseEnv, globalEnv, baseNamespaceEnv:
		return true
	default:
		return false
	}
}

// IsNamespace checks whether e is a (non-base) namespace.
func (e *Environment) IsNamespace() bool {
	return e.kind == namespaceEnv
}

// IsPackage checks whether e is an attached package environment.
func (e *Environment) IsPackage() bool {
	return e.kind == packageEnv
}

// Spec returns namespace specification or package name.
func (e *Environment) Spec() []string {
	return e.spec
}

// Enclosing returns the enclosing environment, it's nil only for EmptyEnv.
func (e *Environment) Enclosing() *Environment {
	return e.enclos
}

// SetEnclosing changes the enclosing environment.
func (e *Environment) SetEnclosing(enclos *Environment) {
	if e.kind == emptyEnv {
		return
	}
	if enclos == nil {
		enclos = EmptyEnv
	}
	e.enclos = enclos
}

// Len returns the number of bindings.
func (e *Environment) Len() int {
	return len(e.names)
}

func (e *Environment) bind(name string, v Value, active bool) error {
	if e.kind == emptyEnv {
		return fmt.Errorf("%w: can't bind %q in the empty environment", ErrLocked, name)
	}
	b, ok := e.frame[name]
	if !ok {
		if e.locked {
			return fmt.Errorf("%w: can't add binding %q to a locked environment", ErrLocked, name)
		}
		b = &Binding{Name: name}
		e.frame[name] = b
		e.names = append(e.names, name)
	} else if b.Locked {
		return fmt.Errorf("%w: can't change locked binding %q", ErrLocked, name)
	}
	b.Value = v
	b.Active = active
	return nil
}

// Bind sets the value of the named variable creating it if needed.
func (e *Environment) Bind(name string, v Value) error {
	return e.bind(name, v, false)
}

// BindActive makes an active binding with the given function.
func (e *Environment) BindActive(name string, fn Value) error {
	return e.bind(name, fn, true)
}

// LockBinding locks the named binding if it exists.
func (e *Environment) LockBinding(name string) {
	if b, ok := e.frame[name]; ok {
		b.Locked = true
	}
}

// Get returns the value bound to name in this environment only.
func (e *Environment) Get(name string) (Value, bool) {
	b, ok := e.frame[name]
	if !ok {
		return nil, false
	}
	return b.Value, true
}

// Binding returns a copy of the named binding.
func (e *Environment) Binding(name string) (Binding, bool) {
	b, ok := e.frame[name]
	if !ok {
		return Binding{}, false
	}
	return *b, true
}

// Lookup searches name in e and its enclosing environments.
func (e *Environment) Lookup(name string) (Value, *Environment, bool) {
	for cur := e; cur != nil; cur = cur.enclos {
		if v, ok := cur.Get(name); ok {
			return v, cur, true
		}
	}
	return nil, nil, false
}

// Bindings returns all bindings in definition order.
func (e *Environment) Bindings() []Binding {
	res := make([]Binding, 0, len(e.names))
	for _, n := range e.names {
		res = append(res, *e.frame[n])
	}
	return res
}

// Lock locks the environment so that no new bindings can be added, if
// bindings is true all existing bindings are locked too.
func (e *Environment) Lock(bindings bool) {
	e.locked = true
	if bindings {
		for _, b := range e.frame {
			b.Locked = true
		}
	}
}

// IsLocked checks whether the environment is locked.
func (e *Environment) IsLocked() bool {
	return e.locked
}
