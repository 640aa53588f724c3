package core

import (
	"context"
	"log/slog"
	"time"

	"oystercult/pkg/domain"
)

// Logger is the minimal structured logging surface used by the service.
// Arguments are alternating key/value pairs, slog style.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// SlogLogger adapts a *slog.Logger to the service Logger interface.
type SlogLogger struct {
	L *slog.Logger
}

// Debug forwards to the underlying slog logger.
func (s SlogLogger) Debug(msg string, args ...any) { s.L.Debug(msg, args...) }

// Info forwards to the underlying slog logger.
func (s SlogLogger) Info(msg string, args ...any) { s.L.Info(msg, args...) }

// Warn forwards to the underlying slog logger.
func (s SlogLogger) Warn(msg string, args ...any) { s.L.Warn(msg, args...) }

// Error forwards to the underlying slog logger.
func (s SlogLogger) Error(msg string, args ...any) { s.L.Error(msg, args...) }

// AuditStatus marks the outcome recorded for an audited operation.
type AuditStatus string

// Audit outcomes.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry captures one audited service operation.
type AuditEntry struct {
	Operation string            `json:"operation"`
	Entity    domain.EntityType `json:"entity"`
	Action    domain.Action     `json:"action"`
	EntityID  string            `json:"entity_id,omitempty"`
	Status    AuditStatus       `json:"status"`
	Error     string            `json:"error,omitempty"`
	Duration  time.Duration     `json:"duration"`
	Timestamp time.Time         `json:"timestamp"`
}

// AuditRecorder receives audit entries for durable or in-memory retention.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

// MetricsRecorder observes operation outcomes for metrics export.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// Tracer opens spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan ends a span, recording the operation error if any.
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}
