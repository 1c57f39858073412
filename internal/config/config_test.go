package config

import (
	"os"
	"path/filepath"
	"shipfin/internal/logger"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Storage.Driver != StorageSQLite {
		t.Errorf("expected sqlite storage by default, got %s", cfg.Storage.Driver)
	}
	if cfg.Log.Level != "info" || !cfg.Log.Console {
		t.Errorf("expected info level console logging, got %+v", cfg.Log)
	}
	if cfg.Log.FlushSize != 100 || cfg.Log.FlushInterval != 5*time.Second {
		t.Errorf("unexpected flush defaults: %+v", cfg.Log)
	}
	if cfg.Blob.Driver != "fs" {
		t.Errorf("expected fs blob driver, got %s", cfg.Blob.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid default config", modify: func(*Config) {}},
		{name: "unknown storage driver", modify: func(c *Config) { c.Storage.Driver = "mongo" }, wantErr: true},
		{name: "postgres without dsn", modify: func(c *Config) { c.Storage.Driver = StoragePostgres }, wantErr: true},
		{name: "postgres with dsn", modify: func(c *Config) {
			c.Storage.Driver = StoragePostgres
			c.Storage.PostgresDSN = "postgres://localhost/shipfin"
		}},
		{name: "bad level", modify: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
		{name: "negative flush size", modify: func(c *Config) { c.Log.FlushSize = -1 }, wantErr: true},
		{name: "database sink on memory storage", modify: func(c *Config) {
			c.Storage.Driver = StorageMemory
			c.Log.Database = true
		}, wantErr: true},
		{name: "s3 without bucket", modify: func(c *Config) { c.Blob.Driver = "s3" }, wantErr: true},
		{name: "unknown blob driver", modify: func(c *Config) { c.Blob.Driver = "gcs" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shipfin.yaml")
	content := `
storage:
  driver: memory
log:
  level: warn
  flush_interval: 250ms
blob:
  driver: memory
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != StorageMemory || cfg.Log.Level != "warn" || cfg.Blob.Driver != "memory" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Log.FlushInterval != 250*time.Millisecond {
		t.Fatalf("expected 250ms flush interval, got %s", cfg.Log.FlushInterval)
	}
	if cfg.Log.FlushSize != 100 || !cfg.Log.Console {
		t.Fatalf("expected defaults to survive partial file: %+v", cfg.Log)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("storage: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shipfin.yaml")
	cfg := DefaultConfig()
	cfg.Log.File = true
	cfg.Blob.S3.Bucket = "audit"
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !loaded.Log.File || loaded.Blob.S3.Bucket != "audit" {
		t.Fatalf("round trip lost fields: %+v", loaded)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SHIPFIN_STORAGE_DRIVER":     "postgres",
		"SHIPFIN_POSTGRES_DSN":       "postgres://db/shipfin",
		"SHIPFIN_LOG_LEVEL":          "debug",
		"SHIPFIN_LOG_DATABASE":       "true",
		"SHIPFIN_BLOB_DRIVER":        "s3",
		"SHIPFIN_BLOB_S3_BUCKET":     "audit-logs",
		"SHIPFIN_BLOB_S3_PATH_STYLE": "1",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Storage.Driver != StoragePostgres || cfg.Storage.PostgresDSN != "postgres://db/shipfin" {
		t.Fatalf("storage override failed: %+v", cfg.Storage)
	}
	if !cfg.Log.Database || cfg.Log.Level != "debug" {
		t.Fatalf("log override failed: %+v", cfg.Log)
	}
	if cfg.Blob.Driver != "s3" || cfg.Blob.S3.Bucket != "audit-logs" || !cfg.Blob.S3.PathStyle {
		t.Fatalf("blob override failed: %+v", cfg.Blob)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	env["SHIPFIN_LOG_FILE"] = "maybe"
	if err := DefaultConfig().ApplyEnv(lookup); err == nil {
		t.Fatalf("expected bool parse error")
	}
}

func TestLoadUsesEnvironment(t *testing.T) {
	t.Setenv("SHIPFIN_STORAGE_DRIVER", "memory")
	t.Setenv("SHIPFIN_LOG_LEVEL", "error")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != StorageMemory || cfg.Log.Level != "error" {
		t.Fatalf("env not applied: %+v", cfg)
	}

	t.Setenv("SHIPFIN_STORAGE_DRIVER", "etcd")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "critical"
	cfg.Log.Console = false
	cfg.Log.File = true
	lc, err := cfg.LoggerConfig()
	if err != nil {
		t.Fatalf("logger config: %v", err)
	}
	if lc.Level != logger.LevelCritical || !lc.DisableConsole || !lc.EnableFile {
		t.Fatalf("unexpected logger config: %+v", lc)
	}
	cfg.Blob.S3.Region = "eu-west-1"
	bc := cfg.BlobStoreConfig()
	if bc.Driver != "fs" || bc.FSRoot != "./logs" || bc.S3.Region != "eu-west-1" {
		t.Fatalf("unexpected blob config: %+v", bc)
	}
}
