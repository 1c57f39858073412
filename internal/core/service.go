package core

import (
	"context"
	"errors"
	"shipfin/internal/infra/persistence/memory"
	"shipfin/internal/logger"
	"shipfin/pkg/domain"
	"time"
)

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the audit logger. Without it the service logs to a
// console-less logger that keeps nothing.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithSessionStorage sets where the session subset is persisted.
func WithSessionStorage(st domain.SessionStorage) Option {
	return func(s *Service) { s.sessions = st }
}

// WithMetricsRecorder sets the per-operation metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the clock used for due dates and session ids.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

// Service exposes the typed commands, workflows and selectors of the shipfin
// state store. Every command runs in exactly one store transaction.
type Service struct {
	store    domain.PersistentStore
	log      *logger.Logger
	sessions domain.SessionStorage
	metrics  MetricsRecorder
	now      func() time.Time
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		metrics: noopMetricsRecorder{},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log, _ = logger.New(logger.Config{DisableConsole: true})
	}
	if s.metrics == nil {
		s.metrics = noopMetricsRecorder{}
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying state container.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// Logger returns the audit logger.
func (s *Service) Logger() *logger.Logger {
	return s.log
}

// Subscribe registers fn to receive the committed state after every change.
func (s *Service) Subscribe(fn func(domain.TransactionView)) (unsubscribe func()) {
	return s.store.Subscribe(fn)
}

// run executes fn in one transaction, records metrics and non-blocking
// violations, and persists the session subset when it changed.
func (s *Service) run(ctx context.Context, operation string, fn func(tx domain.Transaction) error) (Result, error) {
	start := time.Now()
	var before, after Session
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		before = tx.Session()
		if err := fn(tx); err != nil {
			return err
		}
		after = tx.Session()
		return nil
	})
	s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	if err != nil {
		return res, err
	}
	for _, v := range res.Violations {
		s.log.Warn(ctx, "Rule violation", logger.Fields{
			"operation": operation,
			"rule":      v.Rule,
			"severity":  string(v.Severity),
			"entity":    string(v.Entity),
			"entityId":  v.EntityID,
			"detail":    v.Message,
		})
	}
	if !before.Equal(after) {
		s.persistSession(ctx, after)
	}
	return res, nil
}

// logOutcome records the attempt of a command. Missing records log at WARN,
// other failures at ERROR.
func (s *Service) logOutcome(ctx context.Context, msg string, err error, fields logger.Fields) {
	if err == nil {
		s.log.Info(ctx, msg, fields)
		return
	}
	var notFound domain.ErrNotFound
	if errors.As(err, &notFound) {
		withErr := logger.Fields{"error": err.Error()}
		for k, v := range fields {
			withErr[k] = v
		}
		s.log.Warn(ctx, msg+" skipped: record not found", withErr)
		return
	}
	s.log.Error(ctx, msg+" failed", err, fields)
}
