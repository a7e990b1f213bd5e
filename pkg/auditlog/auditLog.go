package auditlog

import (
	"context"
	"fmt"

	"depot/internal/metrics"
	"depot/internal/realtime"
	"depot/internal/session"

	"go.uber.org/zap"
)

// Writer is the part of realtime.Store the audit log needs.
type Writer interface {
	Update(ctx context.Context, updates map[string]interface{}) error
	Set(ctx context.Context, path string, value interface{}) error
	PushKey() string
}

// Auditlog is the only write path: every change is submitted together with its log entry.
type Auditlog struct {
	w      Writer
	logger *zap.Logger
}

func NewAuditLog(w Writer, logger *zap.Logger) *Auditlog {
	return &Auditlog{w: w, logger: logger}
}

func logRecord(s session.Session, action string) map[string]interface{} {
	return map[string]interface{}{
		"time":   realtime.ServerTimestamp,
		"user":   s.User,
		"action": action,
	}
}

// PerformUpdates writes updates and one new log entry describing them in a single atomic
// update. Failures are logged and returned; nothing is retried.
func (a *Auditlog) PerformUpdates(ctx context.Context, s session.Session, updates map[string]interface{}, action string) error {
	batch := make(map[string]interface{}, len(updates)+1)
	for path, value := range updates {
		batch[path] = value
	}

	key := a.w.PushKey()
	batch[realtime.JoinPath(realtime.PathLogs, key)] = logRecord(s, action)

	err := a.w.Update(ctx, batch)
	metrics.RecordMutation(err)
	if err != nil {
		a.logger.Error("Error performing updates", zap.String("action", action), zap.Int("paths", len(updates)), zap.Error(err))
		return fmt.Errorf("perform updates: %w", err)
	}

	a.logger.Info("Created log entry", zap.String("key", key), zap.String("user", s.User), zap.String("action", action))
	return nil
}

// AddLog appends a single log entry without touching any other path.
func (a *Auditlog) AddLog(ctx context.Context, s session.Session, action string) error {
	key := a.w.PushKey()
	if err := a.w.Set(ctx, realtime.JoinPath(realtime.PathLogs, key), logRecord(s, action)); err != nil {
		a.logger.Error("Error adding log", zap.String("action", action), zap.Error(err))
		return fmt.Errorf("add log: %w", err)
	}

	a.logger.Info("Created log entry", zap.String("key", key), zap.String("user", s.User), zap.String("action", action))
	return nil
}
