/*
Package config manages the server's options: built-in defaults, an optional
TOML config file, and command-line flags, applied in that order.
*/
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Index   IndexConfig   `toml:"index"`
	Dataset DatasetConfig `toml:"dataset"`
}

// ServerConfig has HTTP related options.
type ServerConfig struct {
	Port int `toml:"port"`
}

// IndexConfig holds the database construction options.
type IndexConfig struct {
	NgramSize   int   `toml:"ngram_size"`
	FirstLetter bool  `toml:"first_letter"`
	BucketCap   int64 `toml:"bucket_cap"`
	ResultLimit int   `toml:"result_limit"`
}

// DatasetConfig holds dataset loading options.
type DatasetConfig struct {
	NameField      string `toml:"name_field"`
	Disk           bool   `toml:"disk"`
	DuplicateCheck bool   `toml:"duplicate_check"`
	Cache          bool   `toml:"cache"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Index: IndexConfig{
			NgramSize:   2,
			FirstLetter: false,
			BucketCap:   0,
			ResultLimit: 100,
		},
		Dataset: DatasetConfig{
			NameField:      "name",
			Disk:           false,
			DuplicateCheck: false,
			Cache:          false,
		},
	}
}

// InitConfig loads config from file or creates the file with defaults if
// it is missing. A file that cannot be created or parsed falls back to the
// builtin defaults with a warning rather than failing startup.
func InitConfig(configPath string) *Config {
	if _, err := os.Stat(configPath); err != nil {
		cfg := DefaultConfig()
		if err := SaveConfig(cfg, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using builtin defaults...", configPath, err)
			return cfg
		}
		log.Debugf("Created default config file at: %s", configPath)
		return cfg
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using builtin defaults...", configPath, err)
		return DefaultConfig()
	}
	log.Debugf("Loaded config from: %s", configPath)
	return cfg
}

// LoadConfig loads from a TOML file, layered over the defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves into a TOML file.
func SaveConfig(cfg *Config, configPath string) error {
	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}
