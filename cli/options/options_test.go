package options

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/rds-go/pkg/config"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
	"go.uber.org/zap/zapcore"
)

func TestGetConfigFromContext(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		set := flag.NewFlagSet("flagSet", flag.ExitOnError)
		ctx := cli.NewContext(cli.NewApp(), set, nil)
		cfg, err := GetConfigFromContext(ctx)
		require.NoError(t, err)
		require.Equal(t, config.Default(), cfg)
	})

	t.Run("file", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "rds.yml")
		require.NoError(t, os.WriteFile(p, []byte("ApplicationConfiguration:\n  LogLevel: error\n"), 0644))
		set := flag.NewFlagSet("flagSet", flag.ExitOnError)
		set.String("config-file", p, "")
		ctx := cli.NewContext(cli.NewApp(), set, nil)
		cfg, err := GetConfigFromContext(ctx)
		require.NoError(t, err)
		require.Equal(t, "error", cfg.ApplicationConfiguration.LogLevel)
	})
}

func TestHandleLoggingParams(t *testing.T) {
	t.Run("bad level", func(t *testing.T) {
		_, _, err := HandleLoggingParams(false, config.ApplicationConfiguration{LogLevel: "loud"})
		require.Error(t, err)
	})

	t.Run("debug", func(t *testing.T) {
		logger, level, err := HandleLoggingParams(true, config.ApplicationConfiguration{LogLevel: "warn"})
		require.NoError(t, err)
		require.NotNil(t, logger)
		require.Equal(t, zapcore.DebugLevel, level.Level())
	})

	t.Run("file", func(t *testing.T) {
		logfile := filepath.Join(t.TempDir(), "logs", "rds.log")
		logger, level, err := HandleLoggingParams(false, config.ApplicationConfiguration{LogPath: logfile})
		require.NoError(t, err)
		require.Equal(t, zapcore.InfoLevel, level.Level())
		logger.Info("test")
		_ = logger.Sync()
		data, err := os.ReadFile(logfile)
		require.NoError(t, err)
		require.Contains(t, string(data), "INFO")
	})
}

func TestCheckBinaryOutput(t *testing.T) {
	require.NoError(t, CheckBinaryOutput(new(bytes.Buffer)))

	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, CheckBinaryOutput(f))
}
