package serial

import (
	"fmt"

	"github.com/nspcc-dev/rds-go/pkg/sexp"
)

// padType marks a bytecode constant cell written as an ordinary item.
const padType = 0

func (d *Decoder) readBytecode() *sexp.Bytecode {
	n := d.readLength()
	if d.r.Err != nil {
		return nil
	}
	return d.readBC(&bcReps{size: n, cells: make(map[int]*sexp.Cell)})
}

// bcReps holds shared cells of compiled code constants.
type bcReps struct {
	size  int
	cells map[int]*sexp.Cell
}

func (d *Decoder) readBC(reps *bcReps) *sexp.Bytecode {
	code, ok := d.readItem().(*sexp.IntegerVector)
	if d.r.Err != nil {
		return nil
	}
	if !ok {
		d.fail(fmt.Errorf("%w: bytecode is not an integer vector", ErrMalformed))
		return nil
	}
	n := d.readLength()
	consts := make([]sexp.Value, 0, min(n, chunkSize))
	for i := 0; i < n && d.r.Err == nil; i++ {
		t := sexp.Type(d.r.ReadI32BE())
		if d.r.Err != nil {
			break
		}
		switch t {
		case sexp.BytecodeT:
			consts = append(consts, d.readBC(reps))
		case sexp.LangT, sexp.ListT, sexp.BCRepDefT, sexp.BCRepRefT, sexp.AttrLangT, sexp.AttrListT:
			consts = append(consts, d.readBCLang(t, reps))
		default:
			consts = append(consts, d.readItem())
		}
	}
	if d.r.Err != nil {
		return nil
	}
	return &sexp.Bytecode{Code: code, Consts: consts}
}

// readBCLang reads a language constant of the compiled code. Cells may be
// shared (including cyclic references) via the reps table. The cdr chain is
// read in a loop.
func (d *Decoder) readBCLang(t sexp.Type, reps *bcReps) sexp.Value {
	var (
		head sexp.Value
		tail *sexp.Cell
	)
	link := func(v sexp.Value) {
		if tail == nil {
			head = v
		} else {
			tail.Cdr = v
		}
	}
	for d.r.Err == nil {
		switch t {
		case sexp.BCRepRefT:
			i := int(d.r.ReadI32BE())
			if d.r.Err != nil {
				return nil
			}
			c, ok := reps.cells[i]
			if !ok {
				d.fail(fmt.Errorf("%w: bytecode cell reference %d", ErrBadReference, i))
				return nil
			}
			link(c)
			return head
		case sexp.BCRepDefT, sexp.LangT, sexp.ListT, sexp.AttrLangT, sexp.AttrListT:
			pos := -1
			if t == sexp.BCRepDefT {
				pos = int(d.r.ReadI32BE())
				t = sexp.Type(d.r.ReadI32BE())
			}
			hasAttr := false
			switch t {
			case sexp.AttrLangT:
				t, hasAttr = sexp.LangT, true
			case sexp.AttrListT:
				t, hasAttr = sexp.ListT, true
			case sexp.LangT, sexp.ListT:
			default:
				d.fail(fmt.Errorf("%w: bytecode cell of type %s", ErrMalformed, t))
				return nil
			}
			c := sexp.NewCell(t, nil, nil, nil)
			if pos >= 0 {
				if pos >= reps.size {
					d.fail(fmt.Errorf("%w: bytecode cell definition %d", ErrBadReference, pos))
					return nil
				}
				reps.cells[pos] = c
			}
			d.depth++
			if hasAttr {
				c.SetAttributes(d.readAttributes())
			}
			c.Tag = d.readItem()
			d.depth--
			c.Car = d.readBCLang(sexp.Type(d.r.ReadI32BE()), reps)
			link(c)
			tail = c
			t = sexp.Type(d.r.ReadI32BE())
		default:
			link(d.readItem())
			return head
		}
	}
	return nil
}

// bcWriter keeps track of cells shared between bytecode constants.
type bcWriter struct {
	shared map[*sexp.Cell]int
	next   int
}

// scanShared finds language cells of the constant pools that are reachable
// more than once.
func scanShared(bc *sexp.Bytecode) map[*sexp.Cell]int {
	var (
		seen   = make(map[*sexp.Cell]bool)
		shared = make(map[*sexp.Cell]int)
		stack  []sexp.Value
		pools  = []*sexp.Bytecode{bc}
	)
	for len(pools) > 0 {
		b := pools[len(pools)-1]
		pools = pools[:len(pools)-1]
		for _, c := range b.Consts {
			switch x := c.(type) {
			case *sexp.Bytecode:
				pools = append(pools, x)
			case *sexp.Cell:
				if isBCLangCell(x) {
					stack = append(stack, x)
				}
			}
		}
	}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for {
			c, ok := v.(*sexp.Cell)
			if !ok || !isBCLangCell(c) {
				break
			}
			if seen[c] {
				shared[c] = -1
				break
			}
			seen[c] = true
			stack = append(stack, c.Car)
			v = c.Cdr
		}
	}
	return shared
}

func isBCLangCell(c *sexp.Cell) bool {
	return c.Type() == sexp.LangT || c.Type() == sexp.ListT
}

func (e *Encoder) writeBytecode(bc *sexp.Bytecode) {
	bw := &bcWriter{shared: scanShared(bc)}
	e.w.WriteI32BE(int32(len(bw.shared) + 1))
	e.writeBC(bc, bw)
}

func (e *Encoder) writeBC(bc *sexp.Bytecode, bw *bcWriter) {
	code := bc.Code
	if code == nil {
		code = sexp.NewIntegerVector(nil)
	}
	e.writeItem(code)
	e.w.WriteI32BE(int32(len(bc.Consts)))
	for _, c := range bc.Consts {
		switch x := c.(type) {
		case *sexp.Bytecode:
			e.w.WriteI32BE(int32(sexp.BytecodeT))
			e.writeBC(x, bw)
		case *sexp.Cell:
			if isBCLangCell(x) {
				e.writeBCLang(x, bw)
				continue
			}
			e.w.WriteI32BE(int32(x.Type()))
			e.writeItem(x)
		case *sexp.Language:
			if lc, ok := languageToValue(x).(*sexp.Cell); ok {
				e.writeBCLang(lc, bw)
				continue
			}
			e.w.WriteI32BE(int32(sexp.SymbolT))
			e.writeItem(languageToValue(x))
		default:
			e.w.WriteI32BE(int32(c.Type()))
			e.writeItem(c)
		}
	}
}

func (e *Encoder) writeBCLang(v sexp.Value, bw *bcWriter) {
	for e.w.Err == nil {
		c, ok := v.(*sexp.Cell)
		if !ok || !isBCLangCell(c) {
			e.w.WriteI32BE(padType)
			e.writeItem(v)
			return
		}
		if i, ok := bw.shared[c]; ok {
			if i >= 0 {
				e.w.WriteI32BE(int32(sexp.BCRepRefT))
				e.w.WriteI32BE(int32(i))
				return
			}
			bw.shared[c] = bw.next
			e.w.WriteI32BE(int32(sexp.BCRepDefT))
			e.w.WriteI32BE(int32(bw.next))
			bw.next++
		}
		t := c.Type()
		hasAttr := c.Attributes().Len() != 0
		if hasAttr {
			if t == sexp.LangT {
				t = sexp.AttrLangT
			} else {
				t = sexp.AttrListT
			}
		}
		e.w.WriteI32BE(int32(t))
		if hasAttr {
			e.writeAttributes(c.Attributes())
		}
		e.writeItem(c.Tag)
		e.writeBCLang(c.Car, bw)
		v = c.Cdr
	}
}
