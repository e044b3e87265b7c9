package sexp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqualVectors(t *testing.T) {
	require.True(t, Equal(Double(NAReal), Double(NAReal)))
	require.False(t, Equal(Double(NAReal), Double(math.NaN())))
	require.False(t, Equal(Int(1), Double(1)))
	require.True(t, Equal(NewStrings("a", "b"), NewStrings("a", "b")))
	require.False(t, Equal(NewStrings("a"), NewCharacterVector([]String{{Value: "a"}})))

	a, b := Int(1), Int(1)
	SetAttr(a, NamesAttr, Text("x"))
	require.False(t, Equal(a, b))
	SetAttr(b, NamesAttr, Text("x"))
	require.True(t, Equal(a, b))
}

func TestEqualCells(t *testing.T) {
	mk := func(n int) Value {
		var b ChainBuilder
		for i := 0; i < n; i++ {
			b.Append(Nil, Int(int32(i)))
		}
		return b.Head()
	}
	require.True(t, Equal(mk(100000), mk(100000)))
	require.False(t, Equal(mk(10), mk(11)))

	l1 := NewLang(NewSymbol("f"), Int(1))
	l2 := NewLang(NewSymbol("f"), Int(1))
	require.True(t, Equal(l1, l2))
	require.False(t, Equal(l1, NewPairList(NewSymbol("f"), Int(1))))
}

func TestEqualCellForms(t *testing.T) {
	call := NewCall(NewIdent("f"), Arg{Value: NewIdent("x")})
	pairs := map[string][2]Value{
		"language": {NewLanguage(call), NewLang(NewSymbol("f"), NewSymbol("x"))},
		"closure":  {NewClosure(nil, NewIdent("x"), GlobalEnv), NewCell(ClosureT, GlobalEnv, Nil, NewSymbol("x"))},
		"promise":  {NewPromise(NewIdent("x"), GlobalEnv), NewCell(PromiseT, GlobalEnv, Unbound, NewSymbol("x"))},
	}
	for name, p := range pairs {
		t.Run(name, func(t *testing.T) {
			require.False(t, Equal(p[0], p[1]))
			require.False(t, Equal(p[1], p[0]))
		})
	}
	require.False(t, Equal(NewList(NewLanguage(call)), NewList(NewLang(NewSymbol("f"), NewSymbol("x")))))
}

func TestEqualCyclicEnvironments(t *testing.T) {
	mk := func() *Environment {
		e := NewEnvironment(GlobalEnv)
		require.NoError(t, e.Bind("self", e))
		require.NoError(t, e.Bind("x", Int(1)))
		return e
	}
	require.True(t, Equal(mk(), mk()))

	other := mk()
	require.NoError(t, other.Bind("x", Int(2)))
	require.False(t, Equal(mk(), other))
	require.False(t, Equal(GlobalEnv, BaseEnv))
}

func TestEqualNodes(t *testing.T) {
	mk := func() Node {
		return NewCall(NewIdent("f"),
			Arg{Value: &Constant{Value: 1.5}},
			Arg{Name: "x", Value: Missing()},
			Arg{Value: &Qualified{Op: "::", Pkg: "base", Name: "c"}},
		)
	}
	require.True(t, EqualNodes(mk(), mk()))
	require.False(t, EqualNodes(mk(), NewCall(NewIdent("f"))))
	require.True(t, EqualNodes(&Constant{Value: NAReal}, &Constant{Value: NAReal}))
	require.False(t, EqualNodes(&Constant{Value: int32(1)}, &Constant{Value: 1.0}))
}
