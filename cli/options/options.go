/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nspcc-dev/rds-go/pkg/config"
	rio "github.com/nspcc-dev/rds-go/pkg/io"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// ConfigFile is a flag for commands that use configuration and provide
// path to the specific config file.
var ConfigFile = cli.StringFlag{
	Name:  "config-file",
	Usage: "path to the configuration file (defaults are used if not given)",
}

// Debug is a flag for commands that allow debug logging.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (overrides configuration)",
}

// JSON is a flag for commands printing values.
var JSON = cli.BoolFlag{
	Name:  "json, j",
	Usage: "print values as JSON",
}

// Common is the set of flags every command accepts.
var Common = []cli.Flag{ConfigFile, Debug}

// ErrTerminal is returned when binary output is to be written to a terminal.
var ErrTerminal = errors.New("refusing to write binary data to a terminal, redirect the output")

// GetConfigFromContext looks at the path and the mode flags in the given
// config and returns an appropriate config.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	if configFile := ctx.String("config-file"); len(configFile) != 0 {
		return config.LoadFile(configFile)
	}
	return config.Default(), nil
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.ApplicationConfiguration) (*zap.Logger, *zap.AtomicLevel, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	if logPath := cfg.LogPath; logPath != "" {
		if err := rio.MakeDirForFile(logPath, "logger"); err != nil {
			return nil, nil, err
		}
		cc.OutputPaths = []string{logPath}
	}

	log, err := cc.Build()
	return log, &cc.Level, err
}

// Setup reads configuration and creates a logger for the command.
func Setup(ctx *cli.Context) (config.ApplicationConfiguration, *zap.Logger, error) {
	cfg, err := GetConfigFromContext(ctx)
	if err != nil {
		return config.ApplicationConfiguration{}, nil, cli.NewExitError(err, 1)
	}
	log, _, err := HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return config.ApplicationConfiguration{}, nil, cli.NewExitError(err, 1)
	}
	return cfg.ApplicationConfiguration, log, nil
}

// CheckBinaryOutput returns ErrTerminal if w is a terminal.
func CheckBinaryOutput(w io.Writer) error {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return ErrTerminal
	}
	return nil
}
