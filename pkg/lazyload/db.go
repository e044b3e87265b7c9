/*
Package lazyload implements lazy-load databases. A database keeps every
top-level definition serialized separately under its name, so that they can
be faulted in on first use. Environments reachable from the definitions are
persisted by name through the serializer's persistent object hook and are
shared between all values that reference them.
*/
package lazyload

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/rds-go/pkg/serial"
	"github.com/nspcc-dev/rds-go/pkg/sexp"
	"github.com/nspcc-dev/rds-go/pkg/storage"
	"go.uber.org/zap"
)

// Version is the database format version stored under storage.SYSVersion.
const Version = "1"

// DefaultCacheSize is the default number of decoded values kept by DB.
const DefaultCacheSize = 256

// envPrefix starts the names of persisted environments.
const envPrefix = "env::"

var (
	// ErrNotFound is returned for names that are not in the database.
	ErrNotFound = errors.New("not found")
	// ErrVersionMismatch is returned when opening a store that is not a
	// lazy-load database or has an incompatible format version.
	ErrVersionMismatch = errors.New("version mismatch")
	// ErrMalformedEntry is returned for environment entries of a wrong shape.
	ErrMalformedEntry = errors.New("malformed environment entry")
)

// DB is a read-only view of a lazy-load database. It's safe for concurrent
// use.
type DB struct {
	store storage.Store
	opts  serial.Options
	log   *zap.Logger
	cache *lru.Cache

	lock sync.Mutex
	envs map[string]*sexp.Environment
}

// envHook restores persisted environments, it's only used by DB with the lock
// held.
type envHook struct {
	db *DB
}

// Open opens the lazy-load database kept in the store. Values decoded are
// cached (up to cacheSize of them, non-positive means DefaultCacheSize),
// environments are never evicted to keep them shared.
func Open(store storage.Store, cacheSize int, opts *serial.Options) (*DB, error) {
	ver, err := store.Get(storage.SYSVersion.Bytes())
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: no version found", ErrVersionMismatch)
		}
		return nil, err
	}
	if string(ver) != Version {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrVersionMismatch, Version, ver)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	db := &DB{
		store: store,
		cache: cache,
		envs:  make(map[string]*sexp.Environment),
	}
	if opts != nil {
		db.opts = *opts
	}
	db.opts.Hook = envHook{db}
	db.log = db.opts.Logger
	if db.log == nil {
		db.log = zap.NewNop()
	}
	return db, nil
}

// Names returns the names of all values stored, sorted.
func (db *DB) Names() []string {
	var res []string
	db.store.Seek(storage.SeekRange{Prefix: storage.DataValue.Bytes()}, func(k, _ []byte) bool {
		res = append(res, string(k[1:]))
		return true
	})
	return res
}

// Fetch returns the value stored under the name.
func (db *DB) Fetch(name string) (sexp.Value, error) {
	if v, ok := db.cache.Get(name); ok {
		fetches.WithLabelValues("cache").Inc()
		return v.(sexp.Value), nil
	}
	db.lock.Lock()
	defer db.lock.Unlock()
	// Another caller could have loaded it while we were waiting.
	if v, ok := db.cache.Get(name); ok {
		fetches.WithLabelValues("cache").Inc()
		return v.(sexp.Value), nil
	}
	data, err := db.store.Get(storage.DataValue.Key(name))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, err
	}
	v, err := serial.Deserialize(data, &db.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", name, err)
	}
	db.cache.Add(name, v)
	fetches.WithLabelValues("store").Inc()
	db.log.Debug("value loaded", zap.String("name", name), zap.Int("size", len(data)))
	return v, nil
}

// Install binds every value of the database in env as a delayed promise
// fetching the value when forced.
func (db *DB) Install(env *sexp.Environment) error {
	for _, name := range db.Names() {
		name := name
		p := sexp.NewDelayedPromise(sexp.NewIdent(name), env, func() (sexp.Value, error) {
			return db.Fetch(name)
		})
		if err := env.Bind(name, p); err != nil {
			return err
		}
	}
	return nil
}

// PersistentName implements serial.PersistentHook, nothing is persisted when
// reading.
func (h envHook) PersistentName(sexp.Value) (string, bool) {
	return "", false
}

// Resolve implements serial.PersistentHook. Environments are registered
// before their contents are read, so cycles resolve to the same object.
func (h envHook) Resolve(name string) (sexp.Value, error) {
	db := h.db
	if env, ok := db.envs[name]; ok {
		return env, nil
	}
	data, err := db.store.Get(storage.DataEnv.Key(name))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: environment %q", ErrNotFound, name)
		}
		return nil, err
	}
	env := sexp.NewEnvironment(nil)
	db.envs[name] = env
	entry, err := serial.Deserialize(data, &db.opts)
	if err == nil {
		err = fillEnv(env, entry)
	}
	if err != nil {
		delete(db.envs, name)
		return nil, fmt.Errorf("failed to load environment %q: %w", name, err)
	}
	environments.Inc()
	return env, nil
}

// Binding flags of environment entries.
const (
	activeFlag = 1 << iota
	lockedFlag
)

// envEntry represents environment contents as a list of enclosing
// environment, binding names, values, binding flags and environment lock.
// Environment attributes are the list attributes.
func envEntry(env *sexp.Environment) *sexp.List {
	var (
		bnds   = env.Bindings()
		names  = make([]string, len(bnds))
		values = make([]sexp.Value, len(bnds))
		flags  = make([]int32, len(bnds))
	)
	for i, b := range bnds {
		names[i] = b.Name
		values[i] = b.Value
		if b.Active {
			flags[i] |= activeFlag
		}
		if b.Locked {
			flags[i] |= lockedFlag
		}
	}
	var enclos sexp.Value = sexp.EmptyEnv
	if e := env.Enclosing(); e != nil {
		enclos = e
	}
	l := sexp.NewList(enclos, sexp.NewStrings(names...), sexp.NewList(values...),
		sexp.NewIntegerVector(flags), sexp.Bool(env.IsLocked()))
	if a := env.Attributes(); a.Len() != 0 {
		l.SetAttributes(a)
	}
	return l
}

func fillEnv(env *sexp.Environment, v sexp.Value) error {
	l, ok := v.(*sexp.List)
	if !ok || l.Len() != 5 {
		return fmt.Errorf("%w: %s", ErrMalformedEntry, v.Type())
	}
	enclos, ok1 := l.At(0).(*sexp.Environment)
	names, ok2 := l.At(1).(*sexp.CharacterVector)
	values, ok3 := l.At(2).(*sexp.List)
	flags, ok4 := l.At(3).(*sexp.IntegerVector)
	locked, ok5 := l.At(4).(*sexp.LogicalVector)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 ||
		names.Len() != values.Len() || names.Len() != flags.Len() || locked.Len() != 1 {
		return ErrMalformedEntry
	}
	env.SetEnclosing(enclos)
	for i, n := range names.Slice() {
		var (
			name = n.Value
			err  error
		)
		if flags.At(i)&activeFlag != 0 {
			err = env.BindActive(name, values.At(i))
		} else {
			err = env.Bind(name, values.At(i))
		}
		if err != nil {
			return err
		}
		if flags.At(i)&lockedFlag != 0 {
			env.LockBinding(name)
		}
	}
	if a := sexp.AttributesOf(l); a.Len() != 0 {
		env.SetAttributes(a)
	}
	if locked.At(0) == sexp.True {
		env.Lock(false)
	}
	return nil
}
