package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/nspcc-dev/rds-go/pkg/serial"
	"github.com/nspcc-dev/rds-go/pkg/storage/dbconfig"
	"gopkg.in/yaml.v3"
)

// Version is the version of the application, it's set at build time.
var Version string

// DefaultConfigPath is the default path to the configuration file.
const DefaultConfigPath = "./rds.yml"

// Config top level struct representing the config
// for the application.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ApplicationConfiguration: ApplicationConfiguration{
			LogLevel: "info",
			Serialization: Serialization{
				Version:           2,
				StringPoolSize:    4096,
				MaxFieldSize:      16 * 1024 * 1024,
				MaxExpandedLength: serial.DefaultMaxExpandedLength,
			},
			LazyLoad: LazyLoad{
				CacheSize: 256,
				DBConfiguration: dbconfig.DBConfiguration{
					Type: dbconfig.BoltDB,
					BoltDBOptions: dbconfig.BoltDBOptions{
						FilePath: "./lazyload.db",
					},
					LevelDBOptions: dbconfig.LevelDBOptions{
						DataDirectoryPath: "./lazyload",
					},
				},
			},
			Workspace: Workspace{
				Compression: "lz4",
			},
		},
	}
}

// LoadFile loads config from the provided path. Missing settings keep their
// default values.
func LoadFile(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", configPath)
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}

	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err = decoder.Decode(&config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.ApplicationConfiguration.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}
