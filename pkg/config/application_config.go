package config

import (
	"fmt"

	"github.com/nspcc-dev/rds-go/pkg/serial"
	"github.com/nspcc-dev/rds-go/pkg/storage/dbconfig"
	"github.com/nspcc-dev/rds-go/pkg/strpool"
	"github.com/nspcc-dev/rds-go/pkg/workspace"
	"go.uber.org/zap"
)

// ApplicationConfiguration config specific to the application.
type ApplicationConfiguration struct {
	LogLevel      string        `yaml:"LogLevel"`
	LogPath       string        `yaml:"LogPath"`
	Serialization Serialization `yaml:"Serialization"`
	LazyLoad      LazyLoad      `yaml:"LazyLoad"`
	Workspace     Workspace     `yaml:"Workspace"`
}

// Serialization contains codec settings.
type Serialization struct {
	// Version is the format version of the streams written (2 or 3).
	Version int `yaml:"Version"`
	// StringPoolSize is the number of decoded strings pooled, zero
	// disables pooling.
	StringPoolSize int `yaml:"StringPoolSize"`
	// MaxFieldSize limits a single string read.
	MaxFieldSize int `yaml:"MaxFieldSize"`
	// MaxExpandedLength limits compact sequences expanded when reading.
	MaxExpandedLength int `yaml:"MaxExpandedLength"`
}

// LazyLoad contains lazy-load database settings.
type LazyLoad struct {
	CacheSize       int                      `yaml:"CacheSize"`
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`
}

// Workspace contains workspace image settings.
type Workspace struct {
	Compression string `yaml:"Compression"`
}

// Validate checks ApplicationConfiguration for internal consistency and returns
// an error if any invalid settings are found.
func (a *ApplicationConfiguration) Validate() error {
	s := a.Serialization
	if s.Version != serial.VersionTwo && s.Version != serial.VersionThree {
		return fmt.Errorf("invalid Serialization.Version: %d", s.Version)
	}
	if s.StringPoolSize < 0 {
		return fmt.Errorf("invalid Serialization.StringPoolSize: %d", s.StringPoolSize)
	}
	if s.MaxFieldSize < 0 {
		return fmt.Errorf("invalid Serialization.MaxFieldSize: %d", s.MaxFieldSize)
	}
	if s.MaxExpandedLength < 0 {
		return fmt.Errorf("invalid Serialization.MaxExpandedLength: %d", s.MaxExpandedLength)
	}
	if a.LazyLoad.CacheSize < 0 {
		return fmt.Errorf("invalid LazyLoad.CacheSize: %d", a.LazyLoad.CacheSize)
	}
	switch a.LazyLoad.DBConfiguration.Type {
	case dbconfig.InMemoryDB, dbconfig.BoltDB, dbconfig.LevelDB:
	default:
		return fmt.Errorf("invalid LazyLoad.DBConfiguration.Type: %q", a.LazyLoad.DBConfiguration.Type)
	}
	if _, err := workspace.ParseCompression(a.Workspace.Compression); err != nil {
		return fmt.Errorf("invalid Workspace.Compression: %w", err)
	}
	return nil
}

// Options returns serialization options for the settings.
func (s Serialization) Options(log *zap.Logger) *serial.Options {
	opts := &serial.Options{
		Version:           s.Version,
		MaxFieldSize:      s.MaxFieldSize,
		MaxExpandedLength: s.MaxExpandedLength,
		Logger:            log,
	}
	if s.StringPoolSize > 0 {
		opts.StringPool = strpool.New(s.StringPoolSize)
	}
	return opts
}
