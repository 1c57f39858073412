package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SecuritySeverity grades security events.
type SecuritySeverity string

// Security severities and the level each maps to.
const (
	SecurityLow      SecuritySeverity = "low"
	SecurityMedium   SecuritySeverity = "medium"
	SecurityHigh     SecuritySeverity = "high"
	SecurityCritical SecuritySeverity = "critical"
)

var securityLevels = map[SecuritySeverity]Level{
	SecurityLow:      LevelInfo,
	SecurityMedium:   LevelWarn,
	SecurityHigh:     LevelError,
	SecurityCritical: LevelCritical,
}

// Level returns the log level for the severity; unknown values log at WARN.
func (s SecuritySeverity) Level() Level {
	if lvl, ok := securityLevels[s]; ok {
		return lvl
	}
	return LevelWarn
}

// SlowOperationThreshold is the duration above which LogPerformance warns.
const SlowOperationThreshold = time.Second

func merge(base Fields, extra Fields) Fields {
	out := make(Fields, len(base)+len(extra))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range base {
		out[k] = v
	}
	return out
}

// LogFinancialOperation records a money movement at INFO.
func (l *Logger) LogFinancialOperation(ctx context.Context, operation string, amount decimal.Decimal, currency string, fields Fields) {
	l.Info(ctx, "Financial operation: "+operation, merge(Fields{
		"category":  "financial",
		"operation": operation,
		"amount":    amount.String(),
		"currency":  currency,
	}, fields))
}

// LogUserAction records something a user did at INFO.
func (l *Logger) LogUserAction(ctx context.Context, action string, fields Fields) {
	l.Info(ctx, "User action: "+action, merge(Fields{"category": "user_action", "action": action}, fields))
}

// LogSystemEvent records a lifecycle event at INFO.
func (l *Logger) LogSystemEvent(ctx context.Context, event string, fields Fields) {
	l.Info(ctx, "System event: "+event, merge(Fields{"category": "system", "event": event}, fields))
}

// LogSecurityEvent records a security event at the level its severity maps to.
func (l *Logger) LogSecurityEvent(ctx context.Context, event string, severity SecuritySeverity, fields Fields) {
	l.Log(ctx, severity.Level(), "Security event: "+event, merge(Fields{
		"category": "security",
		"event":    event,
		"severity": string(severity),
	}, fields), nil)
}

// LogPerformance records an operation duration, at WARN when it exceeds
// SlowOperationThreshold and at DEBUG otherwise.
func (l *Logger) LogPerformance(ctx context.Context, operation string, d time.Duration, fields Fields) {
	level := LevelDebug
	if d > SlowOperationThreshold {
		level = LevelWarn
	}
	l.Log(ctx, level, fmt.Sprintf("Performance: %s took %dms", operation, d.Milliseconds()), merge(Fields{
		"category":    "performance",
		"operation":   operation,
		"duration_ms": d.Milliseconds(),
	}, fields), nil)
}
