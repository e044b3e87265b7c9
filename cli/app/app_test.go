package app_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nspcc-dev/rds-go/cli/app"
	"github.com/nspcc-dev/rds-go/pkg/serial"
	"github.com/nspcc-dev/rds-go/pkg/sexp"
	"github.com/nspcc-dev/rds-go/pkg/workspace"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

type executor struct {
	out *bytes.Buffer
}

func (e *executor) run(args ...string) error {
	ctl := app.New()
	e.out.Reset()
	ctl.Writer = e.out
	ctl.ErrWriter = e.out
	ctl.ExitErrHandler = func(*cli.Context, error) {}
	return ctl.Run(append([]string{"rds"}, args...))
}

func newExecutor() *executor {
	return &executor{out: new(bytes.Buffer)}
}

func writeValue(t *testing.T, dir string, v sexp.Value) string {
	data, err := serial.Serialize(v, nil)
	require.NoError(t, err)
	p := filepath.Join(dir, "value.rds")
	require.NoError(t, os.WriteFile(p, data, 0644))
	return p
}

func writeImage(t *testing.T, dir string) string {
	env := sexp.NewEnvironment(sexp.GlobalEnv)
	require.NoError(t, env.Bind("x", sexp.NewIntegerVector([]int32{1, 2})))
	require.NoError(t, env.Bind("f", sexp.NewClosure([]sexp.Param{{Name: "a"}}, sexp.NewIdent("a"), env)))
	p := filepath.Join(dir, "image.RData")
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, workspace.Save(f, env, workspace.LZ4, nil))
	require.NoError(t, f.Close())
	return p
}

func TestInspect(t *testing.T) {
	d := t.TempDir()
	e := newExecutor()
	v := sexp.NewStrings("a", "b")

	p := writeValue(t, d, v)
	require.NoError(t, e.run("inspect", p))
	require.Equal(t, v.String()+"\n", e.out.String())

	require.NoError(t, e.run("inspect", "--json", p))
	require.True(t, strings.HasPrefix(e.out.String(), "{"))

	require.NoError(t, e.run("inspect", writeImage(t, d)))
	lines := strings.Split(strings.TrimSpace(e.out.String()), "\n")
	require.Equal(t, "x:", lines[0])
	require.Equal(t, sexp.NewIntegerVector([]int32{1, 2}).String(), lines[1])
	require.Equal(t, "f:", lines[2])

	require.Error(t, e.run("inspect"))
	require.Error(t, e.run("inspect", filepath.Join(d, "absent")))
	require.NoError(t, os.WriteFile(filepath.Join(d, "garbage"), []byte("garbage"), 0644))
	require.Error(t, e.run("inspect", filepath.Join(d, "garbage")))
}

func TestConvert(t *testing.T) {
	d := t.TempDir()
	e := newExecutor()
	v := sexp.NewDoubleVector([]float64{1.5, 2.5})
	in := writeValue(t, d, v)

	out := filepath.Join(d, "value.gz")
	require.NoError(t, e.run("convert", "--compress", "gzip", in, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, workspace.Gzip, workspace.Sniff(data))
	require.NoError(t, e.run("inspect", out))
	require.Equal(t, v.String()+"\n", e.out.String())

	image := filepath.Join(d, "image3.RData")
	require.NoError(t, e.run("convert", "--version", "3", "--compress", "none", writeImage(t, d), image))
	data, err = os.ReadFile(image)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("RDX3\nX\n")))

	require.NoError(t, e.run("convert", "--compress", "none", in, "-"))
	actual, err := serial.Deserialize(e.out.Bytes(), nil)
	require.NoError(t, err)
	require.True(t, sexp.Equal(v, actual))

	require.Error(t, e.run("convert", in))
	require.Error(t, e.run("convert", "--compress", "xz", in, out))
	require.Error(t, e.run("convert", "--version", "4", in, out))
}

func TestDiff(t *testing.T) {
	d := t.TempDir()
	e := newExecutor()
	a := writeValue(t, d, sexp.NewStrings("a", "b"))
	b := filepath.Join(d, "b.rds")
	require.NoError(t, e.run("convert", "--compress", "lz4", a, b))

	require.NoError(t, e.run("diff", a, b))
	require.Empty(t, e.out.String())

	data, err := serial.Serialize(sexp.NewStrings("a", "c"), nil)
	require.NoError(t, err)
	c := filepath.Join(d, "c.rds")
	require.NoError(t, os.WriteFile(c, data, 0644))
	require.Error(t, e.run("diff", a, c))
	require.Contains(t, e.out.String(), "--- "+a)
	require.Contains(t, e.out.String(), "+++ "+c)

	require.Error(t, e.run("diff", a))
	require.Error(t, e.run("diff", a, filepath.Join(d, "absent")))
}

func TestDB(t *testing.T) {
	d := t.TempDir()
	e := newExecutor()
	cfg := filepath.Join(d, "rds.yml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
ApplicationConfiguration:
  LogLevel: warn
  LazyLoad:
    DBConfiguration:
      Type: boltdb
      BoltDBOptions:
        FilePath: `+filepath.Join(d, "db", "lazy.db")+`
`), 0644))

	v := sexp.NewStrings("value")
	single := writeValue(t, d, v)
	require.Error(t, e.run("db", "put", "--config-file", cfg, single))
	require.NoError(t, e.run("db", "put", "--config-file", cfg, "--name", "s", single))
	require.NoError(t, e.run("db", "put", "--config-file", cfg, writeImage(t, d)))

	require.NoError(t, e.run("db", "ls", "--config-file", cfg))
	require.Equal(t, "f\ns\nx\n", e.out.String())

	require.NoError(t, e.run("db", "get", "--config-file", cfg, "s"))
	require.Equal(t, v.String()+"\n", e.out.String())

	require.Error(t, e.run("db", "get", "--config-file", cfg, "absent"))
	require.Error(t, e.run("db", "get", "--config-file", cfg))
	require.Error(t, e.run("db", "ls", "--config-file", filepath.Join(d, "absent.yml")))
}
