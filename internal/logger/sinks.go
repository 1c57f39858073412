package logger

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"shipfin/internal/blob"
	"strconv"
	"strings"
	"sync"
)

// Sink names used in metrics and failure reports.
const (
	SinkFile     = "file"
	SinkDatabase = "database"
)

// BlobSink writes entries as JSON lines into segment objects of a blob
// store. The open segment is rewritten on every flush until adding a line
// would exceed maxSize, then a new segment is started; only the newest
// maxFiles segments are kept.
type BlobSink struct {
	store    blob.Store
	prefix   string
	maxSize  int64
	maxFiles int

	mu          sync.Mutex
	initialized bool
	seq         int
	current     []byte
	lines       int
}

// NewBlobSink returns a sink writing segments named "<prefix>-NNNNNN.jsonl".
func NewBlobSink(store blob.Store, prefix string, maxSize int64, maxFiles int) *BlobSink {
	if prefix == "" {
		prefix = "audit/shipfin"
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	return &BlobSink{store: store, prefix: prefix, maxSize: maxSize, maxFiles: maxFiles}
}

// Name identifies the sink.
func (s *BlobSink) Name() string { return SinkFile }

// SegmentKey returns the key of segment seq.
func (s *BlobSink) SegmentKey(seq int) string {
	return fmt.Sprintf("%s-%06d.jsonl", s.prefix, seq)
}

// Write appends the batch to the open segment, rolling over as needed.
func (s *BlobSink) Write(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		if err := s.resume(ctx); err != nil {
			return err
		}
	}
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode entry: %w", err)
		}
		line = append(line, '\n')
		if len(s.current) > 0 && int64(len(s.current)+len(line)) > s.maxSize {
			if err := s.persist(ctx); err != nil {
				return err
			}
			s.seq++
			s.current = nil
			s.lines = 0
		}
		s.current = append(s.current, line...)
		s.lines++
	}
	if err := s.persist(ctx); err != nil {
		return err
	}
	return s.prune(ctx)
}

// resume starts after the newest existing segment so earlier runs are kept.
func (s *BlobSink) resume(ctx context.Context) error {
	infos, err := s.store.List(ctx, s.prefix+"-")
	if err != nil {
		return fmt.Errorf("list segments: %w", err)
	}
	s.seq = 1
	for _, info := range infos {
		if n, ok := s.parseSeq(info.Key); ok && n >= s.seq {
			s.seq = n + 1
		}
	}
	s.initialized = true
	return nil
}

func (s *BlobSink) parseSeq(key string) (int, bool) {
	rest := strings.TrimPrefix(key, s.prefix+"-")
	rest = strings.TrimSuffix(rest, ".jsonl")
	n, err := strconv.Atoi(rest)
	return n, err == nil
}

func (s *BlobSink) persist(ctx context.Context) error {
	if len(s.current) == 0 {
		return nil
	}
	key := s.SegmentKey(s.seq)
	if _, err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("replace segment %s: %w", key, err)
	}
	_, err := s.store.Put(ctx, key, bytes.NewReader(s.current), blob.PutOptions{
		ContentType: "application/x-ndjson",
		Metadata:    map[string]string{"entries": strconv.Itoa(s.lines)},
	})
	if err != nil {
		return fmt.Errorf("write segment %s: %w", key, err)
	}
	return nil
}

func (s *BlobSink) prune(ctx context.Context) error {
	infos, err := s.store.List(ctx, s.prefix+"-")
	if err != nil {
		return fmt.Errorf("list segments: %w", err)
	}
	for len(infos) > s.maxFiles {
		if _, err := s.store.Delete(ctx, infos[0].Key); err != nil {
			return fmt.Errorf("prune segment %s: %w", infos[0].Key, err)
		}
		infos = infos[1:]
	}
	return nil
}

// Dialect selects SQL placeholder and DDL flavor.
type Dialect string

// Supported SQL dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLSink inserts entries into a log_entries table.
type SQLSink struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLSink wraps db. Call EnsureSchema before the first write.
func NewSQLSink(db *sql.DB, dialect Dialect) *SQLSink {
	return &SQLSink{db: db, dialect: dialect}
}

// Name identifies the sink.
func (s *SQLSink) Name() string { return SinkDatabase }

// EnsureSchema creates the log_entries table.
func (s *SQLSink) EnsureSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS log_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		context TEXT,
		error TEXT,
		user_id TEXT,
		session_id TEXT,
		request_id TEXT
	)`
	if s.dialect == DialectPostgres {
		ddl = `CREATE TABLE IF NOT EXISTS log_entries (
		id BIGSERIAL PRIMARY KEY,
		ts TIMESTAMPTZ NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		context JSONB,
		error TEXT,
		user_id TEXT,
		session_id TEXT,
		request_id TEXT
	)`
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure log_entries table: %w", err)
	}
	return nil
}

func (s *SQLSink) insertStatement() string {
	if s.dialect == DialectPostgres {
		return `INSERT INTO log_entries(ts,level,message,context,error,user_id,session_id,request_id) VALUES($1,$2,$3,$4,$5,$6,$7,$8)`
	}
	return `INSERT INTO log_entries(ts,level,message,context,error,user_id,session_id,request_id) VALUES(?,?,?,?,?,?,?,?)`
}

// Write inserts the batch in one database transaction.
func (s *SQLSink) Write(ctx context.Context, entries []Entry) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	stmt := s.insertStatement()
	for _, e := range entries {
		var ctxPayload any
		if len(e.Context) > 0 {
			b, err := json.Marshal(e.Context)
			if err != nil {
				return fmt.Errorf("encode context: %w", err)
			}
			ctxPayload = string(b)
		}
		if _, err := tx.ExecContext(ctx, stmt,
			e.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"), e.Level.String(), e.Message, ctxPayload,
			nullable(e.Error), nullable(e.UserID), nullable(e.SessionID), nullable(e.RequestID)); err != nil {
			return fmt.Errorf("insert log entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
