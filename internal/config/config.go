// Package config loads reqtree settings from config.yaml, REQTREE_*
// environment variables and command-line flags.
// Files are searched for in ~/.reqtree/ and the current directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config keys.
const (
	KeyDataDir    = "data_dir"
	KeyUser       = "user"
	KeyStorage    = "storage"
	KeyLogLevel   = "log_level"
	KeyExportFile = "export_file"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. REQTREE_USER.
	EnvPrefix = "REQTREE"

	dirName      = ".reqtree"
	treesDirName = "trees"
	databaseName = "reqtree.db"
)

// LogLevels lists the accepted log_level values.
var LogLevels = []string{"trace", "debug", "info", "warn", "error", "off"}

var userPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Config is the resolved configuration.
type Config struct {
	DataDir    string `json:"data_dir" mapstructure:"data_dir"`
	User       string `json:"user" mapstructure:"user"`
	Storage    string `json:"storage" mapstructure:"storage"`
	LogLevel   string `json:"log_level" mapstructure:"log_level"`
	ExportFile string `json:"export_file" mapstructure:"export_file"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		DataDir:    filepath.Join(homeDir(), dirName),
		User:       "local",
		Storage:    StorageFile,
		LogLevel:   "warn",
		ExportFile: "collections-export.json",
	}
}

// SetDefaults registers the defaults with v so environment variables for
// every key are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyDataDir, d.DataDir)
	v.SetDefault(KeyUser, d.User)
	v.SetDefault(KeyStorage, d.Storage)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyExportFile, d.ExportFile)
}

// Load reads configuration into a Config. An explicit file must exist; when
// file is empty a missing config.yaml is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(homeDir(), dirName))
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.Storage = strings.ToLower(cfg.Storage)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.User, validation.Required, validation.Match(userPattern)),
		validation.Field(&c.Storage, validation.Required, validation.In(StorageFile, StorageSQLite)),
		validation.Field(&c.LogLevel, validation.In(anySlice(LogLevels)...)),
		validation.Field(&c.ExportFile, validation.Required),
	)
}

// TreeDir is where the file backend keeps per-user trees.
func (c Config) TreeDir() string {
	return filepath.Join(c.DataDir, treesDirName)
}

// DatabasePath is the SQLite backend's database file.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, databaseName)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func expandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

func anySlice(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
