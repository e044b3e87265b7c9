package lazyload

import (
	"fmt"
	"strconv"

	"github.com/nspcc-dev/rds-go/pkg/serial"
	"github.com/nspcc-dev/rds-go/pkg/sexp"
	"github.com/nspcc-dev/rds-go/pkg/storage"
	"go.uber.org/zap"
)

// Writer builds a lazy-load database. Values are accumulated in memory and
// written to the store by Commit. It's not safe for concurrent use.
type Writer struct {
	store storage.Store
	opts  serial.Options
	log   *zap.Logger

	envs   map[*sexp.Environment]string
	queue  []*sexp.Environment
	puts   map[string][]byte
	values int
}

// NewWriter creates a writer for the store. opts.Hook is replaced by the
// writer itself.
func NewWriter(store storage.Store, opts *serial.Options) *Writer {
	w := &Writer{
		store: store,
		envs:  make(map[*sexp.Environment]string),
		puts:  make(map[string][]byte),
	}
	if opts != nil {
		w.opts = *opts
	}
	w.opts.Hook = w
	w.log = w.opts.Logger
	if w.log == nil {
		w.log = zap.NewNop()
	}
	return w
}

// PersistentName implements serial.PersistentHook. Every regular environment
// gets a name and is queued to be stored separately.
func (w *Writer) PersistentName(v sexp.Value) (string, bool) {
	env, ok := v.(*sexp.Environment)
	if !ok || env.IsSpecial() || env.IsNamespace() || env.IsPackage() {
		return "", false
	}
	name, ok := w.envs[env]
	if !ok {
		name = envPrefix + strconv.Itoa(len(w.envs)+1)
		w.envs[env] = name
		w.queue = append(w.queue, env)
	}
	return name, true
}

// Resolve implements serial.PersistentHook, writer never reads anything.
func (w *Writer) Resolve(name string) (sexp.Value, error) {
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Add adds the value under the name replacing any previous one.
func (w *Writer) Add(name string, v sexp.Value) error {
	data, err := serial.Serialize(v, &w.opts)
	if err != nil {
		return fmt.Errorf("failed to serialize %q: %w", name, err)
	}
	w.puts[string(storage.DataValue.Key(name))] = data
	w.values++
	return w.flushEnvs()
}

// AddEnvironment adds all bindings of env. Active bindings are skipped.
func (w *Writer) AddEnvironment(env *sexp.Environment) error {
	for _, b := range env.Bindings() {
		if b.Active {
			w.log.Warn("active binding skipped", zap.String("name", b.Name))
			continue
		}
		if err := w.Add(b.Name, b.Value); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the value from the database on Commit.
func (w *Writer) Remove(name string) {
	w.puts[string(storage.DataValue.Key(name))] = nil
}

// flushEnvs serializes queued environments, it may discover more of them.
func (w *Writer) flushEnvs() error {
	for len(w.queue) > 0 {
		env := w.queue[0]
		w.queue = w.queue[1:]
		name := w.envs[env]
		data, err := serial.Serialize(envEntry(env), &w.opts)
		if err != nil {
			return fmt.Errorf("failed to serialize environment %q: %w", name, err)
		}
		w.puts[string(storage.DataEnv.Key(name))] = data
	}
	return nil
}

// Commit writes accumulated changes to the store.
func (w *Writer) Commit() error {
	w.puts[string(storage.SYSVersion.Bytes())] = []byte(Version)
	if err := w.store.PutChangeSet(w.puts); err != nil {
		return fmt.Errorf("failed to store lazy-load database: %w", err)
	}
	w.log.Info("lazy-load database written",
		zap.Int("values", w.values),
		zap.Int("environments", len(w.envs)))
	w.puts = make(map[string][]byte)
	w.values = 0
	return nil
}
