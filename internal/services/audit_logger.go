package services

import (
	"context"

	"github.com/you/buzoku/domain"
	"go.uber.org/zap"
)

// ZapAuditLogger writes audit events as structured log entries
type ZapAuditLogger struct {
	logger *zap.Logger
}

// NewAuditLogger creates an audit logger on a named child of logger
func NewAuditLogger(logger *zap.Logger) domain.AuditLogger {
	return &ZapAuditLogger{logger: logger.Named("audit")}
}

// LogEvent implements domain.AuditLogger. Client details are taken from ctx
// when the event does not carry them yet.
func (a *ZapAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	if event.IPAddress == "" && event.RequestID == "" {
		event.WithClientContext(domain.ClientContextFrom(ctx))
	}

	fields := []zap.Field{
		zap.String("event_type", string(event.EventType)),
		zap.Uint("user_id", event.UserID),
		zap.Time("timestamp", event.Timestamp),
		zap.Bool("success", event.Success),
	}
	if event.Phone != "" {
		fields = append(fields, zap.String("phone", event.Phone))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.IPAddress != "" {
		fields = append(fields, zap.String("ip", event.IPAddress))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}

	if !event.Success {
		fields = append(fields, zap.String("error", event.ErrorMsg))
		a.logger.Warn("audit", fields...)
		return nil
	}
	a.logger.Info("audit", fields...)
	return nil
}
