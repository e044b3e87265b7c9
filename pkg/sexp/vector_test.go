package sexp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNAReal(t *testing.T) {
	require.True(t, IsNAReal(NAReal))
	require.False(t, IsNAReal(math.NaN()))
	require.False(t, IsNAReal(1.5))
	require.Equal(t, uint64(NARealBits), math.Float64bits(NAReal))
	require.True(t, IsNAComplex(complex(1, NAReal)))
	require.False(t, IsNAComplex(complex(1, math.NaN())))
}

func TestCompleteness(t *testing.T) {
	testCases := []struct {
		name     string
		v        interface{ IsComplete() bool }
		complete bool
	}{
		{"logical", NewLogicalVector([]Logical{True, False}), true},
		{"logical NA", NewLogicalVector([]Logical{True, NALogical}), false},
		{"integer", NewIntegerVector([]int32{1, 2, 3}), true},
		{"integer NA", NewIntegerVector([]int32{1, NAInteger}), false},
		{"double NaN", NewDoubleVector([]float64{1, math.NaN()}), true},
		{"double NA", NewDoubleVector([]float64{NAReal}), false},
		{"complex NA", NewComplexVector([]complex128{complex(NAReal, 0)}), false},
		{"character", NewStrings("a", "b"), true},
		{"character NA", NewCharacterVector([]String{Str("a"), NAString}), false},
		{"raw", NewRawVector([]byte{0, 1}), true},
		{"empty", NewIntegerVector(nil), true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.complete, tc.v.IsComplete())
		})
	}
}

func TestStr(t *testing.T) {
	require.Equal(t, ASCIIEncoding, Str("abc").Encoding)
	require.Equal(t, UTF8Encoding, Str("абв").Encoding)
	require.False(t, Str("").NA)
}

func TestVectorString(t *testing.T) {
	require.Equal(t, "integer[3] 1 NA 3", NewIntegerVector([]int32{1, NAInteger, 3}).String())
	require.Equal(t, `character[2] "a" NA`, NewCharacterVector([]String{Str("a"), NAString}).String())
	require.Equal(t, "logical[8] TRUE TRUE TRUE TRUE TRUE TRUE ...",
		NewLogicalVector([]Logical{1, 1, 1, 1, 1, 1, 1, 1}).String())
}

func TestAttributes(t *testing.T) {
	v := NewIntegerVector([]int32{1, 2})
	require.Nil(t, v.Attributes())
	require.Equal(t, 0, v.Attributes().Len())

	SetAttr(v, NamesAttr, NewStrings("a", "b"))
	SetAttr(v, ClassAttr, Text("foo"))
	SetAttr(v, "dim", Int(2))
	require.True(t, IsObject(v))
	require.Equal(t, []string{"foo"}, v.Attributes().ClassNames())

	all := v.Attributes().All()
	require.Len(t, all, 3)
	require.Equal(t, ClassAttr, all[0].Name)
	require.Equal(t, NamesAttr, all[1].Name)
	require.Equal(t, "dim", all[2].Name)

	SetAttr(v, ClassAttr, Nil)
	require.False(t, IsObject(v))
	v.Attributes().Remove("dim")
	require.Equal(t, 1, v.Attributes().Len())
	require.Nil(t, v.Attributes().Get("dim"))
}
