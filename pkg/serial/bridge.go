package serial

import (
	"fmt"

	"github.com/nspcc-dev/rds-go/pkg/sexp"
)

// Names of calls that get dedicated syntax nodes.
const (
	functionName     = "function"
	doubleColonName  = "::"
	tripleColonName  = ":::"
	functionArgCount = 3
)

// cellToClosure converts a closure cell (env . formals . body) into a
// closure.
func cellToClosure(c *sexp.Cell) (*sexp.Closure, error) {
	env, ok := c.Tag.(*sexp.Environment)
	if !ok {
		return nil, fmt.Errorf("%w: closure environment is %s", ErrMalformed, c.Tag.Type())
	}
	params, err := formalsToParams(c.Car)
	if err != nil {
		return nil, err
	}
	body, err := valueToNode(bodySource(c.Cdr))
	if err != nil {
		return nil, err
	}
	cl := sexp.NewClosure(params, body, env)
	cl.SetAttributes(c.Attributes())
	cl.SetLevels(c.Levels())
	return cl, nil
}

// bodySource returns the source expression of a compiled body, compiled
// code itself is dropped.
func bodySource(v sexp.Value) sexp.Value {
	if bc, ok := v.(*sexp.Bytecode); ok {
		return bc.Source()
	}
	return v
}

// cellToPromise converts a promise cell (env . value . expr) into a promise.
func cellToPromise(c *sexp.Cell) (*sexp.Promise, error) {
	expr, err := valueToNode(bodySource(c.Cdr))
	if err != nil {
		return nil, err
	}
	var p *sexp.Promise
	switch env := c.Tag.(type) {
	case *sexp.Environment:
		p = sexp.NewPromise(expr, env)
	default:
		if !sexp.IsNil(c.Tag) {
			return nil, fmt.Errorf("%w: promise environment is %s", ErrMalformed, c.Tag.Type())
		}
		val := c.Car
		if lc, ok := val.(*sexp.Cell); ok && lc.Type() == sexp.LangT {
			if val, err = cellToLanguage(lc); err != nil {
				return nil, err
			}
		}
		p = sexp.NewForcedPromise(expr, val)
	}
	p.SetAttributes(c.Attributes())
	p.SetLevels(c.Levels())
	return p, nil
}

// cellToLanguage converts a call cell into a language value.
func cellToLanguage(c *sexp.Cell) (*sexp.Language, error) {
	expr, err := callToNode(c)
	if err != nil {
		return nil, err
	}
	if call, ok := expr.(*sexp.Call); ok {
		// Attributes of the top-level call belong to the value.
		call.Attrs = nil
	}
	l := sexp.NewLanguage(expr)
	l.SetAttributes(c.Attributes())
	l.SetLevels(c.Levels())
	return l, nil
}

func formalsToParams(v sexp.Value) ([]sexp.Param, error) {
	if sexp.IsNil(v) {
		return nil, nil
	}
	c, ok := v.(*sexp.Cell)
	if !ok {
		return nil, fmt.Errorf("%w: formals are %s", ErrMalformed, v.Type())
	}
	params := make([]sexp.Param, 0, c.Len())
	for ; c != nil; c = c.Next() {
		p := sexp.Param{Name: c.TagName()}
		if c.Car != sexp.MissingArg {
			def, err := valueToNode(c.Car)
			if err != nil {
				return nil, err
			}
			p.Default = def
		}
		params = append(params, p)
	}
	return params, nil
}

// valueToNode converts code read from the stream into a syntax tree.
func valueToNode(v sexp.Value) (sexp.Node, error) {
	switch x := v.(type) {
	case *sexp.Symbol:
		return sexp.NewIdent(x.Name), nil
	case *sexp.Cell:
		if x.Type() == sexp.LangT {
			return callToNode(x)
		}
	case *sexp.Language:
		if sexp.AttributesOf(x).Len() == 0 {
			return x.Expr, nil
		}
	}
	if v == sexp.MissingArg {
		return sexp.Missing(), nil
	}
	v, err := dataValue(v)
	if err != nil {
		return nil, err
	}
	return sexp.NewConstant(v), nil
}

// dataValue converts calls of a pairlist read as a part of code into
// language values, the pairlist itself is data.
func dataValue(v sexp.Value) (sexp.Value, error) {
	c, ok := v.(*sexp.Cell)
	if !ok {
		return v, nil
	}
	switch c.Type() {
	case sexp.LangT:
		return cellToLanguage(c)
	case sexp.ListT, sexp.DotsT:
		for cur := c; cur != nil; cur = cur.Next() {
			car, err := dataValue(cur.Car)
			if err != nil {
				return nil, err
			}
			cur.Car = car
		}
	}
	return v, nil
}

// qualifierPart returns a name of a symbol or a single string.
func qualifierPart(v sexp.Value) (string, bool, bool) {
	switch x := v.(type) {
	case *sexp.Symbol:
		return x.Name, false, true
	case *sexp.CharacterVector:
		if s, ok := sexp.Scalar(x); ok {
			return s.(string), true, true
		}
	}
	return "", false, false
}

// callToNode converts a call cell chain into a call node. Arguments are
// processed in a loop.
func callToNode(c *sexp.Cell) (sexp.Node, error) {
	args := c.Next()
	if c.Attributes().Len() == 0 && c.Levels() == 0 && args.Len() > 0 {
		if fn, ok := c.Car.(*sexp.Symbol); ok {
			switch fn.Name {
			case functionName:
				if f, ok, err := callToFunction(args); ok || err != nil {
					return f, err
				}
			case doubleColonName, tripleColonName:
				if q, ok := callToQualified(fn.Name, args); ok {
					return q, nil
				}
			}
		}
	}
	fn, err := valueToNode(c.Car)
	if err != nil {
		return nil, err
	}
	call := &sexp.Call{Fn: fn, Attrs: c.Attributes(), Args: make([]sexp.Arg, 0, args.Len())}
	var cur sexp.Value = c.Cdr
	for {
		a, ok := cur.(*sexp.Cell)
		if !ok {
			break
		}
		val, err := valueToNode(a.Car)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, sexp.Arg{Name: a.TagName(), Value: val})
		cur = a.Cdr
	}
	if !sexp.IsNil(cur) {
		return nil, fmt.Errorf("%w: call arguments end with %s", ErrMalformed, cur.Type())
	}
	return call, nil
}

// callToFunction converts arguments of a function(formals, body, srcref)
// call. It returns false if the call doesn't have this shape.
func callToFunction(args *sexp.Cell) (*sexp.Function, bool, error) {
	var parts []sexp.Value
	for c := args; c != nil; c = c.Next() {
		if c.HasTag() || len(parts) == functionArgCount {
			return nil, false, nil
		}
		parts = append(parts, c.Car)
	}
	if len(parts) < 2 {
		return nil, false, nil
	}
	if !sexp.IsNil(parts[0]) {
		if fc, ok := parts[0].(*sexp.Cell); !ok || fc.Type() != sexp.ListT {
			return nil, false, nil
		}
	}
	params, err := formalsToParams(parts[0])
	if err != nil {
		return nil, false, err
	}
	body, err := valueToNode(parts[1])
	if err != nil {
		return nil, false, err
	}
	f := &sexp.Function{Params: params, Body: body}
	if len(parts) == functionArgCount && !sexp.IsNil(parts[2]) {
		f.SrcRef = parts[2]
	}
	return f, true, nil
}

func callToQualified(op string, args *sexp.Cell) (*sexp.Qualified, bool) {
	second := args.Next()
	if second == nil || second.Next() != nil || !sexp.IsNil(second.Cdr) ||
		args.HasTag() || second.HasTag() {
		return nil, false
	}
	pkg, pkgStr, ok := qualifierPart(args.Car)
	if !ok {
		return nil, false
	}
	name, nameStr, ok := qualifierPart(second.Car)
	if !ok {
		return nil, false
	}
	return &sexp.Qualified{Op: op, Pkg: pkg, Name: name, PkgString: pkgStr, NameString: nameStr}, true
}

// nodeToValue converts a syntax tree into its serializable form: symbols,
// constants and call cell chains.
func nodeToValue(n sexp.Node) sexp.Value {
	switch x := n.(type) {
	case nil:
		return sexp.Nil
	case *sexp.Ident:
		return sexp.NewSymbol(x.Name)
	case *sexp.Constant:
		return sexp.ConstantValue(x)
	case *sexp.Call:
		head := sexp.NewCell(sexp.LangT, nil, nodeToValue(x.Fn), nil)
		head.SetAttributes(x.Attrs)
		tail := head
		for _, a := range x.Args {
			var tag sexp.Value = sexp.Nil
			if a.Name != "" {
				tag = sexp.NewSymbol(a.Name)
			}
			c := sexp.NewCell(sexp.ListT, tag, nodeToValue(a.Value), nil)
			tail.Cdr = c
			tail = c
		}
		return head
	case *sexp.Function:
		var srcref sexp.Value = sexp.Nil
		if x.SrcRef != nil {
			srcref = x.SrcRef
		}
		return sexp.NewLang(sexp.NewSymbol(functionName), paramsToFormals(x.Params), nodeToValue(x.Body), srcref)
	case *sexp.Qualified:
		part := func(s string, str bool) sexp.Value {
			if str {
				return sexp.Text(s)
			}
			return sexp.NewSymbol(s)
		}
		return sexp.NewLang(sexp.NewSymbol(x.Op), part(x.Pkg, x.PkgString), part(x.Name, x.NameString))
	default:
		panic(fmt.Sprintf("unknown node %T", n))
	}
}

func paramsToFormals(params []sexp.Param) sexp.Value {
	var b sexp.ChainBuilder
	for _, p := range params {
		var def = sexp.MissingArg
		if p.Default != nil {
			def = nodeToValue(p.Default)
		}
		b.Append(sexp.NewSymbol(p.Name), def)
	}
	return b.Head()
}

// closureToCell returns wire representation of a closure.
func closureToCell(cl *sexp.Closure) *sexp.Cell {
	env := cl.Env
	if env == nil {
		env = sexp.GlobalEnv
	}
	c := sexp.NewCell(sexp.ClosureT, env, paramsToFormals(cl.Params), nodeToValue(cl.Body))
	c.SetAttributes(cl.Attributes())
	c.SetLevels(cl.Levels())
	return c
}

// promiseToCell returns wire representation of a promise. Delayed promises
// are forced first, their value is written instead of the fetching code.
func promiseToCell(p *sexp.Promise) (*sexp.Cell, error) {
	if p.IsDelayed() {
		if _, err := p.Force(); err != nil {
			return nil, fmt.Errorf("can't force delayed promise %s: %w", p.Expr, err)
		}
	}
	var env sexp.Value = sexp.Nil
	if p.Env != nil {
		env = p.Env
	}
	c := sexp.NewCell(sexp.PromiseT, env, p.Value(), nodeToValue(p.Expr))
	c.SetAttributes(p.Attributes())
	c.SetLevels(p.Levels())
	return c, nil
}

// languageToValue returns wire representation of a language value.
func languageToValue(l *sexp.Language) sexp.Value {
	v := nodeToValue(l.Expr)
	if c, ok := v.(*sexp.Cell); ok {
		c.SetAttributes(l.Attributes())
		c.SetLevels(l.Levels())
	}
	return v
}
