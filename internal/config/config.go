// Package config loads shipfin configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"shipfin/internal/blob"
	"shipfin/internal/logger"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers for session state.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config represents the complete shipfin configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Blob    BlobConfig    `yaml:"blob"`
}

// StorageConfig selects where the session subset is persisted.
type StorageConfig struct {
	// Driver is memory, sqlite or postgres (default sqlite).
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// LogConfig configures the audit logger.
type LogConfig struct {
	Level         string        `yaml:"level"`
	Console       bool          `yaml:"console"`
	File          bool          `yaml:"file"`
	Database      bool          `yaml:"database"`
	FilePrefix    string        `yaml:"file_prefix"`
	MaxFileSize   int64         `yaml:"max_file_size"`
	MaxFiles      int           `yaml:"max_files"`
	FlushSize     int           `yaml:"flush_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// BlobConfig selects the blob store behind the file sink.
type BlobConfig struct {
	Driver string       `yaml:"driver"`
	FSRoot string       `yaml:"fs_root"`
	S3     S3BlobConfig `yaml:"s3"`
}

// S3BlobConfig configures the S3 blob driver.
type S3BlobConfig struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	PathStyle       bool   `yaml:"path_style"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:     StorageSQLite,
			SQLitePath: "./shipfin.db",
		},
		Log: LogConfig{
			Level:         "info",
			Console:       true,
			FilePrefix:    "audit/shipfin",
			MaxFileSize:   logger.DefaultMaxFileSize,
			MaxFiles:      logger.DefaultMaxFiles,
			FlushSize:     logger.DefaultFlushSize,
			FlushInterval: logger.DefaultFlushInterval,
		},
		Blob: BlobConfig{
			Driver: string(blob.DriverFilesystem),
			FSRoot: "./logs",
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.MaxFileSize < 0 || c.Log.MaxFiles < 0 || c.Log.FlushSize < 0 || c.Log.FlushInterval < 0 {
		return fmt.Errorf("log limits must not be negative")
	}
	if c.Log.Database && c.Storage.Driver == StorageMemory {
		return fmt.Errorf("log.database requires the sqlite or postgres storage driver")
	}
	switch blob.Driver(c.Blob.Driver) {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("blob.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	return nil
}

// LoggerConfig converts the log section into a logger.Config.
func (c *Config) LoggerConfig() (logger.Config, error) {
	level, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		return logger.Config{}, err
	}
	return logger.Config{
		Level:          level,
		DisableConsole: !c.Log.Console,
		EnableFile:     c.Log.File,
		EnableDatabase: c.Log.Database,
		MaxFileSize:    c.Log.MaxFileSize,
		MaxFiles:       c.Log.MaxFiles,
		FlushSize:      c.Log.FlushSize,
		FlushInterval:  c.Log.FlushInterval,
	}, nil
}

// BlobStoreConfig converts the blob section into a blob.Config.
func (c *Config) BlobStoreConfig() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.Blob.Driver),
		FSRoot: c.Blob.FSRoot,
		S3: blob.S3Config{
			Region:          c.Blob.S3.Region,
			Bucket:          c.Blob.S3.Bucket,
			Endpoint:        c.Blob.S3.Endpoint,
			AccessKeyID:     c.Blob.S3.AccessKeyID,
			SecretAccessKey: c.Blob.S3.SecretAccessKey,
			SessionToken:    c.Blob.S3.SessionToken,
			PathStyle:       c.Blob.S3.PathStyle,
		},
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load reads path (when non-empty), applies SHIPFIN_* environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables:
//
//	SHIPFIN_STORAGE_DRIVER: memory|sqlite|postgres
//	SHIPFIN_SQLITE_PATH: path to the sqlite file
//	SHIPFIN_POSTGRES_DSN: postgres DSN when driver=postgres
//	SHIPFIN_LOG_LEVEL: debug|info|warn|error|critical
//	SHIPFIN_LOG_FILE, SHIPFIN_LOG_DATABASE: enable sinks (true/false)
//	SHIPFIN_BLOB_DRIVER: fs|s3|memory
//	SHIPFIN_BLOB_FS_ROOT: root directory for the fs driver
//	SHIPFIN_BLOB_S3_BUCKET, _REGION, _ENDPOINT, _ACCESS_KEY_ID,
//	_SECRET_ACCESS_KEY, _SESSION_TOKEN, _PATH_STYLE: s3 driver settings
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("SHIPFIN_STORAGE_DRIVER", &c.Storage.Driver)
	str("SHIPFIN_SQLITE_PATH", &c.Storage.SQLitePath)
	str("SHIPFIN_POSTGRES_DSN", &c.Storage.PostgresDSN)
	str("SHIPFIN_LOG_LEVEL", &c.Log.Level)
	str("SHIPFIN_BLOB_DRIVER", &c.Blob.Driver)
	str("SHIPFIN_BLOB_FS_ROOT", &c.Blob.FSRoot)
	str("SHIPFIN_BLOB_S3_BUCKET", &c.Blob.S3.Bucket)
	str("SHIPFIN_BLOB_S3_REGION", &c.Blob.S3.Region)
	str("SHIPFIN_BLOB_S3_ENDPOINT", &c.Blob.S3.Endpoint)
	str("SHIPFIN_BLOB_S3_ACCESS_KEY_ID", &c.Blob.S3.AccessKeyID)
	str("SHIPFIN_BLOB_S3_SECRET_ACCESS_KEY", &c.Blob.S3.SecretAccessKey)
	str("SHIPFIN_BLOB_S3_SESSION_TOKEN", &c.Blob.S3.SessionToken)
	for key, dst := range map[string]*bool{
		"SHIPFIN_LOG_FILE":           &c.Log.File,
		"SHIPFIN_LOG_DATABASE":       &c.Log.Database,
		"SHIPFIN_BLOB_S3_PATH_STYLE": &c.Blob.S3.PathStyle,
	} {
		if err := boolean(key, dst); err != nil {
			return err
		}
	}
	return nil
}
