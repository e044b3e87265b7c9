package serial

import (
	"math"

	"github.com/nspcc-dev/rds-go/pkg/sexp"
)

const (
	typeMask    = 0xFF
	objectBit   = 1 << 8
	attrBit     = 1 << 9
	tagBit      = 1 << 10
	levelsShift = 12
	// MaxLevels is the maximum value of level bits that fit into flags.
	MaxLevels = 0xFFFF
	// MaxPackedIndex is the maximum reference index that is packed into the
	// flags word, bigger ones are written as a separate integer.
	MaxPackedIndex = math.MaxInt32 >> 8
)

// Flags is an unpacked flags word preceding every serialized value.
type Flags struct {
	Type     sexp.Type
	Levels   int
	IsObject bool
	HasAttr  bool
	HasTag   bool
}

// PackFlags packs value header into a flags word. It panics if type or levels
// don't fit into their bit ranges.
func PackFlags(t sexp.Type, levels int, isObject, hasAttr, hasTag bool) int32 {
	if t < 0 || t > typeMask {
		panic("type out of range")
	}
	if levels < 0 || levels > MaxLevels {
		panic("levels out of range")
	}
	flags := uint32(t) | uint32(levels)<<levelsShift
	if isObject {
		flags |= objectBit
	}
	if hasAttr {
		flags |= attrBit
	}
	if hasTag {
		flags |= tagBit
	}
	return int32(flags)
}

// Pack returns packed representation of f.
func (f Flags) Pack() int32 {
	return PackFlags(f.Type, f.Levels, f.IsObject, f.HasAttr, f.HasTag)
}

// UnpackFlags decodes a flags word.
func UnpackFlags(flags int32) Flags {
	u := uint32(flags)
	return Flags{
		Type:     sexp.Type(u & typeMask),
		Levels:   int(u >> levelsShift),
		IsObject: u&objectBit != 0,
		HasAttr:  u&attrBit != 0,
		HasTag:   u&tagBit != 0,
	}
}

// PackRefIndex packs a back-reference to the given (1-based) reference table
// index. Zero index in the result means the index doesn't fit and is to be
// written separately.
func PackRefIndex(i int) int32 {
	if i > MaxPackedIndex {
		return int32(sexp.RefT)
	}
	return int32(uint32(i)<<8 | uint32(sexp.RefT))
}

// UnpackRefIndex returns the reference index packed into flags, zero means
// it follows as a separate integer.
func UnpackRefIndex(flags int32) int {
	return int(uint32(flags) >> 8)
}
