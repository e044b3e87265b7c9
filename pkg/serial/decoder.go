package serial

import (
	"encoding/binary"
	"errors"
	"fmt"
	gio "io"
	"math"

	"github.com/nspcc-dev/rds-go/pkg/io"
	"github.com/nspcc-dev/rds-go/pkg/sexp"
	"go.uber.org/zap"
)

// chunkSize is the maximum number of bytes of vector data read at once.
const chunkSize = 64 * 1024

// Decoder reads value graphs from a binary stream. It's not safe for
// concurrent use.
type Decoder struct {
	r      *io.BinReader
	opts   Options
	log    *zap.Logger
	header Header

	// Per-stream state.
	refs    readRefs
	symbols map[string]*sexp.Symbol
	// depth counts code cells (closures, calls, promises) being read.
	depth int
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r gio.Reader, opts *Options) *Decoder {
	return newDecoder(io.NewBinReaderFromIO(r), opts)
}

func newDecoder(r *io.BinReader, opts *Options) *Decoder {
	o := opts.withDefaults()
	if o.MaxFieldSize > 0 {
		r.SetMaxFieldSize(o.MaxFieldSize)
	}
	return &Decoder{
		r:    r,
		opts: o,
		log:  o.Logger,
	}
}

// Deserialize decodes a value graph from the given byte slice.
func Deserialize(data []byte, opts *Options) (sexp.Value, error) {
	v, err := newDecoder(io.NewBinReaderFromBuf(data), opts).Decode()
	if err == nil {
		deserializedBytes.Add(float64(len(data)))
	}
	return v, err
}

// Decode reads a complete stream (header and a single value). It can be
// called repeatedly for concatenated streams, but the decoder is unusable
// after the first error.
func (d *Decoder) Decode() (sexp.Value, error) {
	d.refs = readRefs{}
	d.symbols = make(map[string]*sexp.Symbol)
	d.depth = 0
	d.header = Header{}

	d.header.DecodeBinary(d.r)
	v := d.readItem()
	if err := d.r.Err; err != nil {
		deserializeCalls.WithLabelValues("error").Inc()
		if errors.Is(err, gio.EOF) || errors.Is(err, gio.ErrUnexpectedEOF) {
			err = fmt.Errorf("%w: %w", ErrTruncated, err)
		}
		return nil, err
	}
	deserializeCalls.WithLabelValues("ok").Inc()
	return v, nil
}

// Header returns the header of the last decoded stream.
func (d *Decoder) Header() Header {
	return d.header
}

// fail records the first error.
func (d *Decoder) fail(err error) {
	if d.r.Err == nil {
		d.r.Err = err
	}
}

func (d *Decoder) readLength() int {
	n := d.r.ReadI32BE()
	if d.r.Err != nil {
		return 0
	}
	if n == -1 {
		hi, lo := d.r.ReadU32BE(), d.r.ReadU32BE()
		d.fail(fmt.Errorf("%w: long vector of length %d", ErrUnsupported, uint64(hi)<<32|uint64(lo)))
		return 0
	}
	if n < 0 {
		d.fail(fmt.Errorf("%w: negative length %d", ErrMalformed, n))
		return 0
	}
	return int(n)
}

// readElems reads n fixed-size elements in chunks, so that a bogus length
// can't make the decoder allocate more memory than the stream has.
func readElems[E any](r *io.BinReader, n, size int, conv func([]byte) E) []E {
	per := max(1, min(chunkSize, r.MaxFieldSize())/size)
	res := make([]E, 0, min(n, per))
	for n > 0 && r.Err == nil {
		k := min(n, per)
		b := r.ReadField(k * size)
		if r.Err != nil {
			break
		}
		for i := 0; i < k; i++ {
			res = append(res, conv(b[i*size:]))
		}
		n -= k
	}
	return res
}

func beInt32(b []byte) int32 {
	return int32(binary.BigEndian.Uint32(b))
}

func beFloat64(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

func beComplex(b []byte) complex128 {
	return complex(beFloat64(b), beFloat64(b[8:]))
}

func (d *Decoder) readRaw(n int) []byte {
	res := make([]byte, 0, min(n, chunkSize))
	for n > 0 && d.r.Err == nil {
		k := min(n, chunkSize)
		res = append(res, make([]byte, k)...)
		d.r.ReadBytes(res[len(res)-k:])
		n -= k
	}
	return res
}

func (d *Decoder) readItem() sexp.Value {
	flags := d.r.ReadI32BE()
	if d.r.Err != nil {
		return nil
	}
	return d.readItemFlags(flags)
}

// readItemFlags reads the rest of the item which flags are already read.
func (d *Decoder) readItemFlags(flags int32) sexp.Value {
	f := UnpackFlags(flags)
	switch f.Type {
	case sexp.NilValueT:
		return sexp.Nil
	case sexp.EmptyEnvT:
		return sexp.EmptyEnv
	case sexp.BaseEnvT:
		return sexp.BaseEnv
	case sexp.GlobalEnvT:
		return sexp.GlobalEnv
	case sexp.UnboundValueT:
		return sexp.Unbound
	case sexp.MissingArgT:
		return sexp.MissingArg
	case sexp.BaseNamespaceT:
		return sexp.BaseNamespace
	case sexp.RefT:
		return d.readRef(flags)
	case sexp.PersistT:
		return d.readPersistent()
	case sexp.SymbolT:
		return d.readSymbol()
	case sexp.PackageT, sexp.NamespaceT:
		return d.readNamespace(f.Type)
	case sexp.EnvT:
		return d.readEnv()
	case sexp.ListT, sexp.LangT, sexp.ClosureT, sexp.PromiseT, sexp.DotsT:
		return d.readChain(f)
	case sexp.AltrepT:
		return d.readAltrep(f)
	case sexp.ClassRefT, sexp.GenericRefT:
		d.fail(fmt.Errorf("%w: %s", ErrUnsupported, f.Type))
		return nil
	case sexp.CharT:
		s := d.readCharData(f.Levels)
		if f.HasAttr {
			d.readAttributes()
		}
		return &sexp.CharSXP{Elem: s}
	}

	var v sexp.Value
	switch f.Type {
	case sexp.NilT:
		// Never written, but harmless.
		return sexp.Nil
	case sexp.SpecialT, sexp.BuiltinT:
		n := d.r.ReadI32BE()
		name := d.r.ReadString(int(n))
		if d.r.Err != nil {
			return nil
		}
		b, ok := d.opts.Builtins.LookupBuiltin(name)
		if !ok {
			d.fail(fmt.Errorf("%w: %q", ErrUnresolvedBuiltin, name))
			return nil
		}
		if f.HasAttr {
			// Builtins are shared, so their attributes are dropped.
			d.readAttributes()
		}
		return b
	case sexp.LogicalT:
		data := readElems(d.r, d.readLength(), 4, func(b []byte) sexp.Logical {
			return sexp.Logical(beInt32(b))
		})
		v = sexp.NewLogicalVector(data)
	case sexp.IntegerT:
		v = sexp.NewIntegerVector(readElems(d.r, d.readLength(), 4, beInt32))
	case sexp.DoubleT:
		v = sexp.NewDoubleVector(readElems(d.r, d.readLength(), 8, beFloat64))
	case sexp.ComplexT:
		v = sexp.NewComplexVector(readElems(d.r, d.readLength(), 16, beComplex))
	case sexp.CharacterT:
		n := d.readLength()
		data := make([]sexp.String, 0, min(n, chunkSize))
		for i := 0; i < n && d.r.Err == nil; i++ {
			data = append(data, d.readChar())
		}
		v = sexp.NewCharacterVector(data)
	case sexp.RawT:
		v = sexp.NewRawVector(d.readRaw(d.readLength()))
	case sexp.GenericT, sexp.ExpressionT:
		n := d.readLength()
		elems := make([]sexp.Value, 0, min(n, chunkSize))
		// Elements are data even inside code, calls in them are
		// language values.
		d.withDepth(0, func() {
			for i := 0; i < n && d.r.Err == nil; i++ {
				elems = append(elems, d.readItem())
			}
		})
		if f.Type == sexp.GenericT {
			v = sexp.NewList(elems...)
		} else {
			v = sexp.NewExpression(elems...)
		}
	case sexp.BytecodeT:
		v = d.readBytecode()
	case sexp.ExternalPtrT:
		p := new(sexp.ExternalPtr)
		d.refs.add(p)
		d.withDepth(0, func() {
			p.Prot = d.readItem()
			p.Tag = d.readItem()
		})
		v = p
	case sexp.WeakRefT:
		w := new(sexp.WeakRef)
		d.refs.add(w)
		v = w
	case sexp.S4T:
		v = new(sexp.S4Object)
	default:
		d.fail(fmt.Errorf("%w: %d", ErrUnknownType, int32(f.Type)))
		return nil
	}
	if d.r.Err != nil {
		return nil
	}
	a := v.(sexp.Attributed)
	a.SetLevels(f.Levels)
	if f.HasAttr {
		a.SetAttributes(d.readAttributes())
	}
	return v
}

// withDepth runs f with the code depth temporarily set to depth.
func (d *Decoder) withDepth(depth int, f func()) {
	saved := d.depth
	d.depth = depth
	f()
	d.depth = saved
}

func (d *Decoder) readRef(flags int32) sexp.Value {
	i := UnpackRefIndex(flags)
	if i == 0 {
		i = int(d.r.ReadI32BE())
		if d.r.Err != nil {
			return nil
		}
	}
	v, err := d.refs.get(i)
	if err != nil {
		d.fail(err)
		return nil
	}
	return v
}

func (d *Decoder) readPersistent() sexp.Value {
	names := d.readStringVec()
	if d.r.Err != nil {
		return nil
	}
	if d.opts.Hook == nil {
		d.fail(fmt.Errorf("%w: can't restore %q", ErrNoPersistentHook, names))
		return nil
	}
	if len(names) != 1 {
		d.fail(fmt.Errorf("%w: persistent name of length %d", ErrUnsupported, len(names)))
		return nil
	}
	v, err := d.opts.Hook.Resolve(names[0])
	if err != nil {
		d.fail(fmt.Errorf("can't restore persistent object %q: %w", names[0], err))
		return nil
	}
	d.refs.add(v)
	return v
}

func (d *Decoder) readSymbol() sexp.Value {
	name := d.readChar()
	if d.r.Err != nil {
		return nil
	}
	s, ok := d.symbols[name.Value]
	if !ok {
		s = sexp.NewSymbol(name.Value)
		d.symbols[name.Value] = s
	}
	d.refs.add(s)
	return s
}

func (d *Decoder) readNamespace(t sexp.Type) sexp.Value {
	spec := d.readStringVec()
	if d.r.Err != nil {
		return nil
	}
	var (
		e   *sexp.Environment
		err error
	)
	if t == sexp.NamespaceT {
		e, err = d.opts.Namespaces.FindNamespace(spec)
	} else {
		e, err = d.opts.Namespaces.FindPackage(spec)
		d.log.Debug("restoring package environment reference", zap.Strings("name", spec))
	}
	if err != nil {
		d.fail(fmt.Errorf("can't find %s %q: %w", t, spec, err))
		return nil
	}
	d.refs.add(e)
	return e
}

func (d *Decoder) readEnv() sexp.Value {
	locked := d.r.ReadI32BE()
	if d.r.Err != nil {
		return nil
	}
	e := sexp.NewEnvironment(nil)
	d.refs.add(e)

	var enclos, frame, hashtab sexp.Value
	var attrs *sexp.Attributes
	d.withDepth(0, func() {
		enclos = d.readItem()
		frame = d.readItem()
		hashtab = d.readItem()
		attrs = d.toAttributes(d.readItem())
	})
	if d.r.Err != nil {
		return nil
	}
	switch x := enclos.(type) {
	case *sexp.Environment:
		e.SetEnclosing(x)
	default:
		if !sexp.IsNil(enclos) {
			d.fail(fmt.Errorf("%w: enclosing environment is %s", ErrMalformed, enclos.Type()))
			return nil
		}
		e.SetEnclosing(sexp.BaseEnv)
	}
	d.bindFrame(e, frame)
	switch x := hashtab.(type) {
	case *sexp.List:
		for _, chain := range x.Slice() {
			d.bindFrame(e, chain)
		}
	default:
		if !sexp.IsNil(hashtab) {
			d.fail(fmt.Errorf("%w: environment hash table is %s", ErrMalformed, hashtab.Type()))
		}
	}
	if d.r.Err != nil {
		return nil
	}
	e.SetAttributes(attrs)
	if locked != 0 {
		e.Lock(false)
	}
	return e
}

func (d *Decoder) bindFrame(e *sexp.Environment, frame sexp.Value) {
	if sexp.IsNil(frame) || d.r.Err != nil {
		return
	}
	c, ok := frame.(*sexp.Cell)
	if !ok {
		d.fail(fmt.Errorf("%w: environment frame is %s", ErrMalformed, frame.Type()))
		return
	}
	for ; c != nil; c = c.Next() {
		name := c.TagName()
		if name == "" {
			d.fail(fmt.Errorf("%w: untagged environment binding", ErrMalformed))
			return
		}
		var err error
		if c.Levels()&sexp.ActiveBindingLevel != 0 {
			err = e.BindActive(name, c.Car)
		} else {
			err = e.Bind(name, c.Car)
		}
		if err != nil {
			d.fail(err)
			return
		}
		if c.Levels()&sexp.BindingLockLevel != 0 {
			e.LockBinding(name)
		}
	}
}

// readAttributes reads an attribute pairlist. Code depth doesn't apply to
// attributes.
func (d *Decoder) readAttributes() *sexp.Attributes {
	var v sexp.Value
	d.withDepth(0, func() {
		v = d.readItem()
	})
	return d.toAttributes(v)
}

func (d *Decoder) toAttributes(v sexp.Value) *sexp.Attributes {
	if d.r.Err != nil || sexp.IsNil(v) {
		return nil
	}
	c, ok := v.(*sexp.Cell)
	if !ok || c.Type() != sexp.ListT {
		d.fail(fmt.Errorf("%w: attributes are %s", ErrMalformed, v.Type()))
		return nil
	}
	a := new(sexp.Attributes)
	for ; c != nil; c = c.Next() {
		name := c.TagName()
		if name == "" {
			d.fail(fmt.Errorf("%w: untagged attribute", ErrMalformed))
			return nil
		}
		a.Set(name, c.Car)
	}
	return a
}

// continuesChain checks whether a value of type t read as a cdr is to be
// added to the chain being read instead of being read recursively. Only
// argument cells continue a chain, a cdr of any other type (like a call
// body of a closure) is a separate value.
func continuesChain(t sexp.Type) bool {
	switch t {
	case sexp.ListT, sexp.DotsT:
		return true
	default:
		return false
	}
}

// readChain reads a chain of cells starting with the one described by f.
// Cdrs are read in a loop, so long lists and argument chains don't consume
// stack.
func (d *Decoder) readChain(f Flags) sexp.Value {
	var (
		saved = d.depth
		head  *sexp.Cell
		tail  *sexp.Cell
	)
	defer func() { d.depth = saved }()
	switch f.Type {
	case sexp.ClosureT, sexp.LangT, sexp.PromiseT:
		d.depth++
	}
	for {
		c := sexp.NewCell(f.Type, nil, nil, nil)
		c.SetLevels(f.Levels)
		if f.HasAttr {
			c.SetAttributes(d.readAttributes())
		}
		if f.HasTag {
			c.Tag = d.readItem()
		}
		c.Car = d.readItem()
		if head == nil {
			head = c
		} else {
			tail.Cdr = c
		}
		tail = c

		flags := d.r.ReadI32BE()
		if d.r.Err != nil {
			return nil
		}
		f = UnpackFlags(flags)
		if !continuesChain(f.Type) {
			tail.Cdr = d.readItemFlags(flags)
			break
		}
	}
	if d.r.Err != nil {
		return nil
	}
	var (
		v   sexp.Value = head
		err error
	)
	switch head.Type() {
	case sexp.ClosureT:
		v, err = cellToClosure(head)
	case sexp.PromiseT:
		v, err = cellToPromise(head)
	case sexp.LangT:
		if saved == 0 {
			v, err = cellToLanguage(head)
		}
	}
	if err != nil {
		d.fail(err)
		return nil
	}
	return v
}
