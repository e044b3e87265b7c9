package workspace

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/nspcc-dev/rds-go/pkg/serial"
	"github.com/nspcc-dev/rds-go/pkg/sexp"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T) *sexp.Environment {
	env := sexp.NewEnvironment(sexp.GlobalEnv)
	shared := sexp.NewEnvironment(sexp.GlobalEnv)
	require.NoError(t, shared.Bind("n", sexp.Int(10)))
	require.NoError(t, env.Bind("x", sexp.NewDoubleVector([]float64{1, 2, 3})))
	require.NoError(t, env.Bind("s", sexp.NewStrings("a", "b", "a")))
	require.NoError(t, env.Bind("f", sexp.NewClosure([]sexp.Param{{Name: "y"}}, sexp.NewIdent("y"), shared)))
	require.NoError(t, env.Bind("g", sexp.NewClosure(nil, sexp.NewIdent("n"), shared)))
	require.NoError(t, env.BindActive("now", sexp.NewClosure(nil, sexp.NewConstant(sexp.Int(0)), sexp.GlobalEnv)))
	return env
}

func TestSaveLoad(t *testing.T) {
	for _, c := range []Compression{None, Gzip, LZ4} {
		for _, v := range []int{serial.VersionTwo, serial.VersionThree} {
			t.Run(string(c), func(t *testing.T) {
				env := testEnv(t)
				var buf bytes.Buffer
				require.NoError(t, Save(&buf, env, c, &serial.Options{Version: v}))
				require.Equal(t, c, Sniff(buf.Bytes()))

				loaded := sexp.NewEnvironment(sexp.GlobalEnv)
				names, err := Load(&buf, loaded, nil)
				require.NoError(t, err)
				require.Equal(t, []string{"x", "s", "f", "g"}, names)
				for _, n := range names {
					expected, _ := env.Get(n)
					actual, ok := loaded.Get(n)
					require.True(t, ok)
					require.True(t, sexp.Equal(expected, actual), n)
				}
				f, _ := loaded.Get("f")
				g, _ := loaded.Get("g")
				require.True(t, f.(*sexp.Closure).Env == g.(*sexp.Closure).Env)
			})
		}
	}
}

func TestMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, sexp.NewEnvironment(nil), None, &serial.Options{Version: serial.VersionThree}))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("RDX3\nX\n")))

	buf.Reset()
	require.NoError(t, Save(&buf, sexp.NewEnvironment(nil), None, nil))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("RDX2\nX\n")))

	names, err := Load(&buf, sexp.NewEnvironment(nil), nil)
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestLoadErrors(t *testing.T) {
	env := sexp.NewEnvironment(nil)
	_, err := Load(bytes.NewReader([]byte("RDX")), env, nil)
	require.ErrorIs(t, err, ErrBadMagic)

	_, err = Load(bytes.NewReader([]byte("RDA2\nA\n")), env, nil)
	require.ErrorIs(t, err, ErrBadMagic)

	_, err = Load(bytes.NewReader([]byte("RLZ4\x00\x00")), env, nil)
	require.ErrorIs(t, err, ErrCorrupted)

	_, err = Load(bytes.NewReader([]byte{0x1f, 0x8b, 0}), env, nil)
	require.Error(t, err)

	data, err := serial.Serialize(sexp.Int(1), nil)
	require.NoError(t, err)
	_, err = Load(bytes.NewReader(append([]byte("RDX2\n"), data...)), env, nil)
	require.ErrorIs(t, err, ErrBadBindings)

	data, err = serial.Serialize(sexp.NewPairList(sexp.Int(1)), nil)
	require.NoError(t, err)
	_, err = Load(bytes.NewReader(append([]byte("RDX2\n"), data...)), env, nil)
	require.ErrorIs(t, err, ErrBadBindings)

	data, err = serial.Serialize(sexp.Int(1), nil)
	require.NoError(t, err)
	_, err = Load(bytes.NewReader(append([]byte("RDX2\n"), data[:len(data)-2]...)), env, nil)
	require.ErrorIs(t, err, serial.ErrTruncated)
}

func TestLZ4(t *testing.T) {
	t.Run("compressible", func(t *testing.T) {
		data := bytes.Repeat([]byte("abcdefgh"), 1000)
		var buf bytes.Buffer
		require.NoError(t, writeLZ4(&buf, data))
		require.Less(t, buf.Len(), len(data))
		actual, err := readLZ4(&buf)
		require.NoError(t, err)
		require.Equal(t, data, actual)
	})
	t.Run("incompressible", func(t *testing.T) {
		data := make([]byte, 1000)
		_, err := rand.Read(data)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, writeLZ4(&buf, data))
		require.Equal(t, lz4HeaderLen+len(data), buf.Len())
		actual, err := readLZ4(&buf)
		require.NoError(t, err)
		require.Equal(t, data, actual)
	})
	t.Run("bad length", func(t *testing.T) {
		data := bytes.Repeat([]byte("abcdefgh"), 1000)
		var buf bytes.Buffer
		require.NoError(t, writeLZ4(&buf, data))
		raw := buf.Bytes()
		_, err := readLZ4(bytes.NewReader(raw[:len(raw)-1]))
		require.ErrorIs(t, err, ErrCorrupted)
	})
}

func TestParseCompression(t *testing.T) {
	for s, c := range map[string]Compression{"": None, "none": None, "gzip": Gzip, "lz4": LZ4} {
		actual, err := ParseCompression(s)
		require.NoError(t, err)
		require.Equal(t, c, actual)
	}
	_, err := ParseCompression("xz")
	require.Error(t, err)
}

func TestNewReader(t *testing.T) {
	data, err := serial.Serialize(sexp.NewStrings("z"), nil)
	require.NoError(t, err)
	for _, c := range []Compression{None, Gzip, LZ4} {
		t.Run(string(c), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Compress(&buf, c, data))
			r, err := NewReader(&buf)
			require.NoError(t, err)
			v, err := serial.NewDecoder(r, nil).Decode()
			require.NoError(t, err)
			require.NoError(t, r.Close())
			require.True(t, sexp.Equal(sexp.NewStrings("z"), v))
		})
	}
	require.Error(t, Compress(new(bytes.Buffer), Compression("xz"), data))
	require.False(t, IsImage(data))
	require.True(t, IsImage([]byte("RDX3\n")))
}
