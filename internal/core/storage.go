package core

import (
	"context"
	"database/sql"
	"fmt"
	"shipfin/internal/blob"
	"shipfin/internal/config"
	"shipfin/internal/infra/persistence/memory"
	"shipfin/internal/infra/persistence/postgres"
	"shipfin/internal/infra/persistence/sqlite"
	"shipfin/internal/logger"
	"shipfin/pkg/domain"
)

// StorageDriver identifies a concrete session storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = config.StorageMemory   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = config.StorageSQLite   // embedded sqlite file
	StoragePostgres StorageDriver = config.StoragePostgres // PostgreSQL server
)

// Backend bundles the session storage with the database it lives in, so the
// logger's database sink can share the connection.
type Backend struct {
	Driver   StorageDriver
	Sessions domain.SessionStorage
	db       *sql.DB
	close    func() error
}

// OpenBackend opens the configured session storage. Domain collections are
// never persisted; only the session subset goes through Sessions.
func OpenBackend(ctx context.Context, cfg config.StorageConfig) (*Backend, error) {
	driver := StorageDriver(cfg.Driver)
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return &Backend{Driver: driver, Sessions: memory.NewSessionStorage(), close: func() error { return nil }}, nil
	case StorageSQLite:
		st, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Backend{Driver: driver, Sessions: st, db: st.DB(), close: st.Close}, nil
	case StoragePostgres:
		st, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return &Backend{Driver: driver, Sessions: st, db: st.DB(), close: st.Close}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// DatabaseSink returns a log sink writing to the backend's database with
// its schema in place. The memory backend has no database.
func (b *Backend) DatabaseSink(ctx context.Context) (*logger.SQLSink, error) {
	if b.db == nil {
		return nil, fmt.Errorf("storage driver %s has no database for the log sink", b.Driver)
	}
	dialect := logger.DialectSQLite
	if b.Driver == StoragePostgres {
		dialect = logger.DialectPostgres
	}
	sink := logger.NewSQLSink(b.db, dialect)
	if err := sink.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return sink, nil
}

// Close releases the underlying database.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenLogger builds the audit logger from cfg, wiring the blob file sink and
// the database sink when they are enabled.
func OpenLogger(ctx context.Context, cfg *config.Config, backend *Backend, opts ...logger.Option) (*logger.Logger, error) {
	lc, err := cfg.LoggerConfig()
	if err != nil {
		return nil, err
	}
	if lc.EnableFile {
		store, err := blob.Open(ctx, cfg.BlobStoreConfig())
		if err != nil {
			return nil, fmt.Errorf("open log blob store: %w", err)
		}
		opts = append(opts, logger.WithFileSink(logger.NewBlobSink(store, cfg.Log.FilePrefix, lc.MaxFileSize, lc.MaxFiles)))
	}
	if lc.EnableDatabase {
		if backend == nil {
			return nil, fmt.Errorf("database log sink requires a storage backend")
		}
		sink, err := backend.DatabaseSink(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, logger.WithDatabaseSink(sink))
	}
	return logger.New(lc, opts...)
}
