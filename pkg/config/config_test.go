package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/rds-go/pkg/serial"
	"github.com/nspcc-dev/rds-go/pkg/storage/dbconfig"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, data string) string {
	p := filepath.Join(t.TempDir(), "rds.yml")
	require.NoError(t, os.WriteFile(p, []byte(data), 0644))
	return p
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplicationConfiguration.Validate())
	require.Equal(t, dbconfig.BoltDB, cfg.ApplicationConfiguration.LazyLoad.DBConfiguration.Type)
}

func TestLoadFile(t *testing.T) {
	p := writeConfig(t, `
ApplicationConfiguration:
  LogLevel: debug
  Serialization:
    Version: 3
  LazyLoad:
    DBConfiguration:
      Type: leveldb
      LevelDBOptions:
        DataDirectoryPath: /tmp/lazy
  Workspace:
    Compression: gzip
`)
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	a := cfg.ApplicationConfiguration
	require.Equal(t, "debug", a.LogLevel)
	require.Equal(t, 3, a.Serialization.Version)
	require.Equal(t, 4096, a.Serialization.StringPoolSize)
	require.Equal(t, 16*1024*1024, a.Serialization.MaxFieldSize)
	require.Equal(t, serial.DefaultMaxExpandedLength, a.Serialization.MaxExpandedLength)
	require.Equal(t, 256, a.LazyLoad.CacheSize)
	require.Equal(t, dbconfig.LevelDB, a.LazyLoad.DBConfiguration.Type)
	require.Equal(t, "/tmp/lazy", a.LazyLoad.DBConfiguration.LevelDBOptions.DataDirectoryPath)
	require.Equal(t, "./lazyload.db", a.LazyLoad.DBConfiguration.BoltDBOptions.FilePath)
	require.Equal(t, "gzip", a.Workspace.Compression)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)

	testCases := map[string]string{
		"unknown field": "ApplicationConfiguration:\n  Unknown: 1\n",
		"bad yaml":      "ApplicationConfiguration: [\n",
		"bad version":   "ApplicationConfiguration:\n  Serialization:\n    Version: 4\n",
		"bad pool":      "ApplicationConfiguration:\n  Serialization:\n    StringPoolSize: -1\n",
		"bad expansion": "ApplicationConfiguration:\n  Serialization:\n    MaxExpandedLength: -1\n",
		"bad db":        "ApplicationConfiguration:\n  LazyLoad:\n    DBConfiguration:\n      Type: redis\n",
		"bad cache":     "ApplicationConfiguration:\n  LazyLoad:\n    CacheSize: -5\n",
		"bad codec":     "ApplicationConfiguration:\n  Workspace:\n    Compression: xz\n",
	}
	for name, data := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, data))
			require.Error(t, err)
		})
	}
}

func TestSerializationOptions(t *testing.T) {
	s := Default().ApplicationConfiguration.Serialization
	opts := s.Options(zap.NewNop())
	require.Equal(t, 2, opts.Version)
	require.Equal(t, serial.DefaultMaxExpandedLength, opts.MaxExpandedLength)
	require.NotNil(t, opts.StringPool)

	s.StringPoolSize = 0
	require.Nil(t, s.Options(nil).StringPool)
}
