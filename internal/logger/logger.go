// Package logger is the shipfin audit logger: a buffered, level-filtered
// recorder with a console sink (log/slog), a JSON-lines file sink on a blob
// store and a database sink. Logging is best effort and never returns an
// error to the caller.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Defaults applied to zero-valued Config fields.
const (
	DefaultMaxFileSize   int64 = 10 * 1024 * 1024
	DefaultMaxFiles            = 5
	DefaultFlushSize           = 100
	DefaultFlushInterval       = 5 * time.Second
)

// Config controls filtering, sinks and buffering.
type Config struct {
	Level          Level
	DisableConsole bool
	EnableFile     bool
	EnableDatabase bool
	MaxFileSize    int64
	MaxFiles       int
	FlushSize      int
	FlushInterval  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Level == 0 {
		c.Level = LevelInfo
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.MaxFiles <= 0 {
		c.MaxFiles = DefaultMaxFiles
	}
	if c.FlushSize <= 0 {
		c.FlushSize = DefaultFlushSize
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	return c
}

// Fields is the optional structured context of an entry.
type Fields map[string]any

// Entry is one recorded audit event.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Context   Fields    `json:"context,omitempty"`
	Error     string    `json:"error,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
}

// Identity names who triggered an entry.
type Identity struct {
	UserID    string
	SessionID string
}

// IdentityProvider resolves the identity stamped on each entry.
type IdentityProvider func(ctx context.Context) Identity

type requestIDKey struct{}

// WithRequestID attaches a request id to ctx. An empty id is replaced by a
// fresh uuid.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored by WithRequestID.
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Sink receives flushed batches.
type Sink interface {
	Name() string
	Write(ctx context.Context, entries []Entry) error
}

// SinkFailure describes a batch a sink failed to write. The batch is dropped.
type SinkFailure struct {
	Sink    string
	Entries int
	Err     error
}

// Option customizes a Logger.
type Option func(*Logger)

// WithConsoleWriter redirects console output (default os.Stderr).
func WithConsoleWriter(w io.Writer) Option {
	return func(l *Logger) { l.consoleOut = w }
}

// WithFileSink supplies the sink used when Config.EnableFile is set.
func WithFileSink(s Sink) Option {
	return func(l *Logger) { l.fileSink = s }
}

// WithDatabaseSink supplies the sink used when Config.EnableDatabase is set.
func WithDatabaseSink(s Sink) Option {
	return func(l *Logger) { l.dbSink = s }
}

// WithIdentity installs the identity provider.
func WithIdentity(p IdentityProvider) Option {
	return func(l *Logger) { l.identity = p }
}

// WithMetrics installs Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(l *Logger) { l.metrics = m }
}

// WithFailureHandler receives every sink failure.
func WithFailureHandler(fn func(SinkFailure)) Option {
	return func(l *Logger) { l.onFailure = fn }
}

// WithClock overrides the entry timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(l *Logger) { l.now = fn }
}

// Logger buffers entries and hands them to the enabled sinks.
type Logger struct {
	cfg        Config
	consoleOut io.Writer
	console    *slog.Logger
	fileSink   Sink
	dbSink     Sink
	identity   IdentityProvider
	metrics    *Metrics
	onFailure  func(SinkFailure)
	now        func() time.Time

	mu     sync.Mutex
	buffer []Entry

	// flushMu keeps batches ordered across concurrent flushes.
	flushMu sync.Mutex

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// New builds a Logger. When the file or database sink is enabled an interval
// flush goroutine is started; Close stops it.
func New(cfg Config, opts ...Option) (*Logger, error) {
	l := &Logger{
		cfg:        cfg.withDefaults(),
		consoleOut: os.Stderr,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.cfg.EnableFile && l.fileSink == nil {
		return nil, fmt.Errorf("file sink enabled without a sink")
	}
	if l.cfg.EnableDatabase && l.dbSink == nil {
		return nil, fmt.Errorf("database sink enabled without a sink")
	}
	if l.metrics == nil {
		l.metrics = NewMetrics(nil)
	}
	l.console = slog.New(slog.NewTextHandler(l.consoleOut, &slog.HandlerOptions{
		Level:       slog.LevelDebug,
		ReplaceAttr: replaceLevelAttr,
	}))
	if l.cfg.EnableFile || l.cfg.EnableDatabase {
		ctx, cancel := context.WithCancel(context.Background())
		l.cancel = cancel
		l.done = make(chan struct{})
		go l.runScheduler(ctx)
	}
	return l, nil
}

// Config returns the effective configuration.
func (l *Logger) Config() Config { return l.cfg }

// Metrics returns the collectors the logger reports to.
func (l *Logger) Metrics() *Metrics { return l.metrics }

func (l *Logger) runScheduler(ctx context.Context) {
	defer close(l.done)
	ticker := time.NewTicker(l.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.flush(ctx, TriggerInterval)
		}
	}
}

// Debug records a DEBUG entry.
func (l *Logger) Debug(ctx context.Context, msg string, fields Fields) {
	l.Log(ctx, LevelDebug, msg, fields, nil)
}

// Info records an INFO entry.
func (l *Logger) Info(ctx context.Context, msg string, fields Fields) {
	l.Log(ctx, LevelInfo, msg, fields, nil)
}

// Warn records a WARN entry.
func (l *Logger) Warn(ctx context.Context, msg string, fields Fields) {
	l.Log(ctx, LevelWarn, msg, fields, nil)
}

// Error records an ERROR entry.
func (l *Logger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.Log(ctx, LevelError, msg, fields, err)
}

// Critical records a CRITICAL entry.
func (l *Logger) Critical(ctx context.Context, msg string, err error, fields Fields) {
	l.Log(ctx, LevelCritical, msg, fields, err)
}

// Log records an entry at level. Entries below the configured level are
// dropped without touching the buffer or the console.
func (l *Logger) Log(ctx context.Context, level Level, msg string, fields Fields, err error) {
	if level < l.cfg.Level {
		return
	}
	entry := Entry{
		Timestamp: l.now(),
		Level:     level,
		Message:   msg,
		Context:   copyFields(fields),
		RequestID: RequestIDFrom(ctx),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if l.identity != nil {
		id := l.identity(ctx)
		entry.UserID = id.UserID
		entry.SessionID = id.SessionID
	}
	l.metrics.entries.WithLabelValues(level.String()).Inc()
	if !l.cfg.DisableConsole {
		l.writeConsole(entry)
	}

	l.mu.Lock()
	l.buffer = append(l.buffer, entry)
	full := len(l.buffer) >= l.cfg.FlushSize
	l.mu.Unlock()

	if full {
		l.flush(ctx, TriggerSize)
	}
}

func (l *Logger) writeConsole(e Entry) {
	attrs := make([]slog.Attr, 0, len(e.Context)+4)
	for k, v := range e.Context {
		attrs = append(attrs, slog.Any(k, v))
	}
	if e.Error != "" {
		attrs = append(attrs, slog.String("error", e.Error))
	}
	if e.UserID != "" {
		attrs = append(attrs, slog.String("user_id", e.UserID))
	}
	if e.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", e.SessionID))
	}
	if e.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", e.RequestID))
	}
	l.console.LogAttrs(context.Background(), e.Level.slogLevel(), e.Message, attrs...)
}

// Flush drains the buffer into the enabled sinks.
func (l *Logger) Flush(ctx context.Context) {
	l.flush(ctx, TriggerManual)
}

func (l *Logger) flush(ctx context.Context, trigger string) {
	l.flushMu.Lock()
	defer l.flushMu.Unlock()

	l.mu.Lock()
	batch := l.buffer
	l.buffer = nil
	l.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	l.metrics.flushes.WithLabelValues(trigger).Inc()
	if l.cfg.EnableFile {
		l.writeSink(ctx, l.fileSink, batch)
	}
	if l.cfg.EnableDatabase {
		l.writeSink(ctx, l.dbSink, batch)
	}
}

func (l *Logger) writeSink(ctx context.Context, sink Sink, batch []Entry) {
	err := sink.Write(ctx, batch)
	if err == nil {
		return
	}
	l.metrics.failures.WithLabelValues(sink.Name()).Inc()
	l.console.LogAttrs(context.Background(), slog.LevelError, "log sink write failed",
		slog.String("sink", sink.Name()), slog.Int("entries", len(batch)), slog.String("error", err.Error()))
	if l.onFailure != nil {
		l.onFailure(SinkFailure{Sink: sink.Name(), Entries: len(batch), Err: err})
	}
}

// Buffered reports how many entries wait for the next flush.
func (l *Logger) Buffered() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buffer)
}

// Close stops the interval flush and runs a final flush. Calling it again is
// a no-op.
func (l *Logger) Close(ctx context.Context) error {
	l.closeOnce.Do(func() {
		if l.cancel != nil {
			l.cancel()
			<-l.done
		}
		l.flush(ctx, TriggerClose)
	})
	return nil
}

func copyFields(in Fields) Fields {
	if len(in) == 0 {
		return nil
	}
	out := make(Fields, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
