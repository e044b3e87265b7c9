package serial

import (
	"fmt"
	gio "io"

	"github.com/nspcc-dev/rds-go/pkg/io"
	"github.com/nspcc-dev/rds-go/pkg/sexp"
	"go.uber.org/zap"
)

// Encoder writes value graphs into a binary stream. It's not safe for
// concurrent use.
type Encoder struct {
	w    *io.BinWriter
	opts Options
	log  *zap.Logger

	refs *writeRefs
}

// NewEncoder creates an encoder writing into w.
func NewEncoder(w gio.Writer, opts *Options) *Encoder {
	return newEncoder(io.NewBinWriterFromIO(w), opts)
}

func newEncoder(w *io.BinWriter, opts *Options) *Encoder {
	o := opts.withDefaults()
	return &Encoder{
		w:    w,
		opts: o,
		log:  o.Logger,
	}
}

// Serialize encodes the value graph into a byte slice.
func Serialize(v sexp.Value, opts *Options) ([]byte, error) {
	buf := io.NewBufBinWriter()
	if err := newEncoder(buf.BinWriter, opts).Encode(v); err != nil {
		return nil, err
	}
	data := buf.Bytes()
	serializedBytes.Add(float64(len(data)))
	return data, nil
}

// Encode writes a complete stream (header and the value). Nothing is rolled
// back on failure, so the output is to be discarded if an error is returned.
func (e *Encoder) Encode(v sexp.Value) error {
	if e.opts.Version != VersionTwo && e.opts.Version != VersionThree {
		return fmt.Errorf("%w: version %d", ErrUnsupported, e.opts.Version)
	}
	e.refs = newWriteRefs()
	h := NewHeader(e.opts.Version)
	h.EncodeBinary(e.w)
	e.writeItem(v)
	if e.w.Err != nil {
		serializeCalls.WithLabelValues("error").Inc()
		return e.w.Err
	}
	serializeCalls.WithLabelValues("ok").Inc()
	return nil
}

func (e *Encoder) fail(err error) {
	if e.w.Err == nil {
		e.w.Err = err
	}
}

// sentinelType returns the type tag of well-known singletons.
func sentinelType(v sexp.Value) (sexp.Type, bool) {
	switch v {
	case sexp.Nil:
		return sexp.NilValueT, true
	case sexp.EmptyEnv:
		return sexp.EmptyEnvT, true
	case sexp.BaseEnv:
		return sexp.BaseEnvT, true
	case sexp.GlobalEnv:
		return sexp.GlobalEnvT, true
	case sexp.Unbound:
		return sexp.UnboundValueT, true
	case sexp.MissingArg:
		return sexp.MissingArgT, true
	case sexp.BaseNamespace:
		return sexp.BaseNamespaceT, true
	default:
		return 0, false
	}
}

// persistentName asks the hook for a name of the object.
func (e *Encoder) persistentName(v sexp.Value) (string, bool) {
	if e.opts.Hook == nil {
		return "", false
	}
	return e.opts.Hook.PersistentName(v)
}

func (e *Encoder) writeRef(i int) {
	e.w.WriteI32BE(PackRefIndex(i))
	if i > MaxPackedIndex {
		e.w.WriteI32BE(int32(i))
	}
}

func hasAttributes(v sexp.Value) bool {
	return sexp.AttributesOf(v).Len() != 0
}

func levelsOf(v sexp.Value) int {
	if a, ok := v.(sexp.Attributed); ok {
		return a.Levels() & MaxLevels
	}
	return 0
}

func (e *Encoder) writeFlags(v sexp.Value, t sexp.Type, hasTag bool) {
	e.w.WriteI32BE(PackFlags(t, levelsOf(v), sexp.IsObject(v), hasAttributes(v), hasTag))
}

func (e *Encoder) writeItem(v sexp.Value) {
	if e.w.Err != nil {
		return
	}
	if v == nil {
		e.fail(fmt.Errorf("%w: nil value", ErrMalformed))
		return
	}
	if t, ok := sentinelType(v); ok {
		e.w.WriteI32BE(PackFlags(t, 0, false, false, false))
		return
	}
	// Persisted objects are registered too, so the hook is only asked once
	// per object.
	if i, ok := e.refs.lookup(v); ok {
		e.writeRef(i)
		return
	}
	if name, ok := e.persistentName(v); ok {
		e.refs.add(v)
		e.w.WriteI32BE(PackFlags(sexp.PersistT, 0, false, false, false))
		e.writeStringVec([]string{name})
		return
	}
	switch x := v.(type) {
	case *sexp.Symbol:
		e.refs.add(x)
		e.w.WriteI32BE(PackFlags(sexp.SymbolT, 0, false, false, false))
		e.writeChar(sexp.Str(x.Name))
	case *sexp.Environment:
		e.refs.add(x)
		e.writeEnv(x)
	case *sexp.Cell:
		e.writeChain(x)
	case *sexp.Closure:
		e.writeChain(closureToCell(x))
	case *sexp.Promise:
		c, err := promiseToCell(x)
		if err != nil {
			e.fail(err)
			return
		}
		e.writeChain(c)
	case *sexp.Language:
		e.writeItem(languageToValue(x))
	case *sexp.CharSXP:
		e.writeChar(x.Elem)
	default:
		e.writeVector(v)
	}
}

func (e *Encoder) writeEnv(env *sexp.Environment) {
	switch {
	case env.IsPackage():
		e.log.Warn("package environment may not be available when loading",
			zap.Strings("name", env.Spec()))
		e.w.WriteI32BE(PackFlags(sexp.PackageT, 0, false, false, false))
		e.writeStringVec(env.Spec())
	case env.IsNamespace():
		e.w.WriteI32BE(PackFlags(sexp.NamespaceT, 0, false, false, false))
		e.writeStringVec(env.Spec())
	default:
		e.w.WriteI32BE(int32(sexp.EnvT))
		var locked int32
		if env.IsLocked() {
			locked = 1
		}
		e.w.WriteI32BE(locked)
		e.writeItem(env.Enclosing())
		e.writeItem(frameOf(env))
		e.writeItem(sexp.Nil)
		e.writeItem(attributesToList(env.Attributes()))
	}
}

// frameOf returns environment bindings as a pairlist with binding flags in
// cell levels.
func frameOf(env *sexp.Environment) sexp.Value {
	var b sexp.ChainBuilder
	for _, bnd := range env.Bindings() {
		c := b.Append(sexp.NewSymbol(bnd.Name), bnd.Value)
		var levels int
		if bnd.Active {
			levels |= sexp.ActiveBindingLevel
		}
		if bnd.Locked {
			levels |= sexp.BindingLockLevel
		}
		c.SetLevels(levels)
	}
	return b.Head()
}

// attributesToList returns attributes as a tagged pairlist, class first.
func attributesToList(a *sexp.Attributes) sexp.Value {
	var b sexp.ChainBuilder
	for _, at := range a.All() {
		b.Append(sexp.NewSymbol(at.Name), at.Value)
	}
	return b.Head()
}

func (e *Encoder) writeAttributes(a *sexp.Attributes) {
	e.writeItem(attributesToList(a))
}

// writeChain writes a chain of cells looping over cdrs.
func (e *Encoder) writeChain(c *sexp.Cell) {
	for e.w.Err == nil {
		hasTag := c.HasTag() || c.Type() == sexp.ClosureT
		e.writeFlags(c, c.Type(), hasTag)
		if hasAttributes(c) {
			e.writeAttributes(c.Attributes())
		}
		if hasTag {
			e.writeItem(c.Tag)
		}
		e.writeItem(c.Car)
		next, ok := c.Cdr.(*sexp.Cell)
		if !ok || !continuesChain(next.Type()) {
			e.writeItem(c.Cdr)
			return
		}
		c = next
	}
}

func (e *Encoder) writeVector(v sexp.Value) {
	var t = v.Type()
	switch v.(type) {
	case *sexp.Builtin, *sexp.LogicalVector, *sexp.IntegerVector, *sexp.DoubleVector,
		*sexp.ComplexVector, *sexp.CharacterVector, *sexp.RawVector, *sexp.List,
		*sexp.Bytecode, *sexp.ExternalPtr, *sexp.WeakRef, *sexp.S4Object:
	default:
		e.fail(fmt.Errorf("%w: can't serialize %T", ErrUnknownType, v))
		return
	}
	e.writeFlags(v, t, false)
	switch x := v.(type) {
	case *sexp.Builtin:
		e.w.WriteI32BE(int32(len(x.Name)))
		e.w.WriteString(x.Name)
	case *sexp.LogicalVector:
		e.w.WriteI32BE(int32(x.Len()))
		for _, l := range x.Slice() {
			e.w.WriteI32BE(int32(l))
		}
	case *sexp.IntegerVector:
		e.w.WriteI32BE(int32(x.Len()))
		for _, i := range x.Slice() {
			e.w.WriteI32BE(i)
		}
	case *sexp.DoubleVector:
		e.w.WriteI32BE(int32(x.Len()))
		for _, f := range x.Slice() {
			e.w.WriteF64BE(f)
		}
	case *sexp.ComplexVector:
		e.w.WriteI32BE(int32(x.Len()))
		for _, c := range x.Slice() {
			e.w.WriteF64BE(real(c))
			e.w.WriteF64BE(imag(c))
		}
	case *sexp.CharacterVector:
		e.w.WriteI32BE(int32(x.Len()))
		for _, s := range x.Slice() {
			e.writeChar(s)
		}
	case *sexp.RawVector:
		e.w.WriteI32BE(int32(x.Len()))
		e.w.WriteBytes(x.Slice())
	case *sexp.List:
		e.w.WriteI32BE(int32(x.Len()))
		for _, el := range x.Slice() {
			e.writeItem(el)
		}
	case *sexp.Bytecode:
		e.writeBytecode(x)
	case *sexp.ExternalPtr:
		e.refs.add(x)
		e.writeItem(x.Prot)
		e.writeItem(x.Tag)
	case *sexp.WeakRef:
		e.refs.add(x)
	case *sexp.S4Object:
	}
	if hasAttributes(v) {
		e.writeAttributes(sexp.AttributesOf(v))
	}
}
