package serial

import (
	"fmt"

	"github.com/nspcc-dev/rds-go/pkg/sexp"
)

// readRefs is a decoding side reference table, it's append-only.
type readRefs struct {
	refs []sexp.Value
}

// add registers a new object and returns its (1-based) index.
func (t *readRefs) add(v sexp.Value) int {
	t.refs = append(t.refs, v)
	return len(t.refs)
}

func (t *readRefs) get(i int) (sexp.Value, error) {
	if i < 1 || i > len(t.refs) {
		return nil, fmt.Errorf("%w: index %d, table size %d", ErrBadReference, i, len(t.refs))
	}
	return t.refs[i-1], nil
}

// writeRefs is an encoding side reference table. Symbols are keyed by name,
// everything else by identity.
type writeRefs struct {
	objs map[sexp.Value]int
	syms map[string]int
	n    int
}

func newWriteRefs() *writeRefs {
	return &writeRefs{
		objs: make(map[sexp.Value]int),
		syms: make(map[string]int),
	}
}

func (t *writeRefs) lookup(v sexp.Value) (int, bool) {
	if s, ok := v.(*sexp.Symbol); ok {
		i, ok := t.syms[s.Name]
		return i, ok
	}
	i, ok := t.objs[v]
	return i, ok
}

func (t *writeRefs) add(v sexp.Value) int {
	t.n++
	if s, ok := v.(*sexp.Symbol); ok {
		t.syms[s.Name] = t.n
	} else {
		t.objs[v] = t.n
	}
	return t.n
}
