package serial

import (
	"sync"

	"github.com/nspcc-dev/rds-go/pkg/sexp"
	"github.com/nspcc-dev/rds-go/pkg/strpool"
	"go.uber.org/zap"
)

// PersistentHook allows to serialize objects by name, leaving their
// restoration to the embedding host. It's asked for every value except
// well-known singletons, a value is asked about once per stream.
type PersistentHook interface {
	// PersistentName returns a name for the object if it's to be persisted
	// by name.
	PersistentName(v sexp.Value) (string, bool)
	// Resolve returns an object for the name previously returned by
	// PersistentName.
	Resolve(name string) (sexp.Value, error)
}

// NamespaceResolver finds namespaces and attached package environments
// referenced by streams.
type NamespaceResolver interface {
	// FindNamespace returns a namespace by its specification (name and
	// version).
	FindNamespace(spec []string) (*sexp.Environment, error)
	// FindPackage returns an attached package environment by its name
	// ("package:name").
	FindPackage(name []string) (*sexp.Environment, error)
}

// Options are serialization parameters. The zero value is usable, it means
// version 2 format, default builtin table, no persistent hook, placeholder
// namespaces and no string pooling.
type Options struct {
	// Version is the format version used by encoders (2 or 3).
	Version int
	// Builtins resolves builtin functions by name.
	Builtins sexp.BuiltinTable
	// Hook is an optional persistent object hook.
	Hook PersistentHook
	// Namespaces resolves namespace and package references.
	Namespaces NamespaceResolver
	// StringPool is an optional string pool for decoded strings.
	StringPool *strpool.Pool
	// MaxFieldSize limits a single string, zero means io.MaxFieldSize.
	MaxFieldSize int
	// MaxExpandedLength limits the length of compact sequences expanded
	// by decoders, zero means DefaultMaxExpandedLength.
	MaxExpandedLength int
	// Logger is used for warnings, nil means no logging.
	Logger *zap.Logger
}

// DefaultMaxExpandedLength is the default limit for the length of expanded
// compact sequences.
const DefaultMaxExpandedLength = 1 << 24

var defaultBuiltins = sexp.DefaultBuiltins()

func (o *Options) withDefaults() Options {
	var res Options
	if o != nil {
		res = *o
	}
	if res.Version == 0 {
		res.Version = VersionTwo
	}
	if res.Builtins == nil {
		res.Builtins = defaultBuiltins
	}
	if res.Namespaces == nil {
		res.Namespaces = NewPlaceholderNamespaces()
	}
	if res.MaxExpandedLength <= 0 {
		res.MaxExpandedLength = DefaultMaxExpandedLength
	}
	if res.Logger == nil {
		res.Logger = zap.NewNop()
	}
	return res
}

// PlaceholderNamespaces is a NamespaceResolver that creates empty namespace
// and package environments on first request and returns the same ones for
// subsequent requests. It's safe to use as long as nothing is evaluated in
// the restored environments.
type PlaceholderNamespaces struct {
	lock       sync.Mutex
	namespaces map[string]*sexp.Environment
	packages   map[string]*sexp.Environment
}

// NewPlaceholderNamespaces creates a new placeholder resolver.
func NewPlaceholderNamespaces() *PlaceholderNamespaces {
	return &PlaceholderNamespaces{
		namespaces: make(map[string]*sexp.Environment),
		packages:   make(map[string]*sexp.Environment),
	}
}

// FindNamespace implements NamespaceResolver interface.
func (p *PlaceholderNamespaces) FindNamespace(spec []string) (*sexp.Environment, error) {
	if len(spec) == 0 {
		return sexp.BaseNamespace, nil
	}
	if spec[0] == "base" {
		return sexp.BaseNamespace, nil
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	e, ok := p.namespaces[spec[0]]
	if !ok {
		e = sexp.NewNamespace(spec, sexp.GlobalEnv)
		p.namespaces[spec[0]] = e
	}
	return e, nil
}

// FindPackage implements NamespaceResolver interface.
func (p *PlaceholderNamespaces) FindPackage(name []string) (*sexp.Environment, error) {
	if len(name) == 0 {
		return sexp.GlobalEnv, nil
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	e, ok := p.packages[name[0]]
	if !ok {
		e = sexp.NewPackageEnv(name, sexp.GlobalEnv)
		p.packages[name[0]] = e
	}
	return e, nil
}
