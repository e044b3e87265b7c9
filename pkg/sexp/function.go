package sexp

import (
	"errors"
	"sync"
)

// Closure is a function value: formal parameters, a body and the environment
// it was defined in.
type Closure struct {
	header
	Params []Param
	Body   Node
	Env    *Environment
}

// NewClosure creates a closure, nil env means GlobalEnv.
func NewClosure(params []Param, body Node, env *Environment) *Closure {
	if env == nil {
		env = GlobalEnv
	}
	return &Closure{Params: params, Body: body, Env: env}
}

// Type implements Value interface.
func (c *Closure) Type() Type {
	return ClosureT
}

// String implements fmt.Stringer interface.
func (c *Closure) String() string {
	return "function(" + formatParams(c.Params) + ") " + c.Body.String()
}

// ErrNotForced is returned on attempt to get a value of a promise that was
// not forced and can't be forced without evaluation.
var ErrNotForced = errors.New("promise is not forced")

// Promise is a lazily evaluated binding. Env is nil once the promise is
// forced. A delayed promise carries a thunk that produces the value without
// evaluating Expr, it's used to fault values in from external storage.
type Promise struct {
	header
	Expr Node
	Env  *Environment

	lock  sync.Mutex
	value Value
	thunk func() (Value, error)
}

// NewPromise creates a promise that is not forced yet.
func NewPromise(expr Node, env *Environment) *Promise {
	return &Promise{Expr: expr, Env: env, value: Unbound}
}

// NewForcedPromise creates a promise with a known value.
func NewForcedPromise(expr Node, value Value) *Promise {
	return &Promise{Expr: expr, value: value}
}

// NewDelayedPromise creates a promise which value is produced by fetch on the
// first Force call. Expr is kept to describe the promise.
func NewDelayedPromise(expr Node, env *Environment, fetch func() (Value, error)) *Promise {
	return &Promise{Expr: expr, Env: env, value: Unbound, thunk: fetch}
}

// Type implements Value interface.
func (p *Promise) Type() Type {
	return PromiseT
}

// String implements fmt.Stringer interface.
func (p *Promise) String() string {
	return "<promise: " + p.Expr.String() + ">"
}

// Forced checks whether the promise value is known.
func (p *Promise) Forced() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.value != Unbound
}

// Value returns the promise value or Unbound.
func (p *Promise) Value() Value {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.value
}

// IsDelayed checks whether the promise value can be obtained with Force.
func (p *Promise) IsDelayed() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.value == Unbound && p.thunk != nil
}

// Force returns the promise value fetching it if needed. Promises that
// require evaluation of Expr return ErrNotForced.
func (p *Promise) Force() (Value, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.value != Unbound {
		return p.value, nil
	}
	if p.thunk == nil {
		return nil, ErrNotForced
	}
	v, err := p.thunk()
	if err != nil {
		return nil, err
	}
	p.value = v
	p.Env = nil
	p.thunk = nil
	return v, nil
}

// Language is an unevaluated top-level call (a "quoted" expression).
type Language struct {
	header
	Expr Node
}

// NewLanguage creates a language value for the given expression.
func NewLanguage(expr Node) *Language {
	return &Language{Expr: expr}
}

// Type implements Value interface.
func (l *Language) Type() Type {
	return LangT
}

// String implements fmt.Stringer interface.
func (l *Language) String() string {
	return l.Expr.String()
}
