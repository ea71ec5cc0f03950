// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"

	"github.com/dalemusser/govhub/internal/domain/models"
	"go.uber.org/zap"
)

// Config controls the structured-log mirror of project history.
type Config struct {
	// Ledger controls mirroring of reviewer transitions and lifecycle events.
	// Values: "all" or "log" (mirror to zap), "off" (disabled).
	// The ledger collection itself is always written.
	Ledger string
}

// Logger mirrors project history to structured logs.
type Logger struct {
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(zapLog *zap.Logger, config Config) *Logger {
	return &Logger{zapLog: zapLog, config: config}
}

func (l *Logger) enabled() bool {
	if l == nil || l.zapLog == nil {
		return false
	}
	return l.config.Ledger != "off"
}

// Transition logs a committed ledger row.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Transition(ctx context.Context, e models.LedgerEntry) {
	if !l.enabled() {
		return
	}
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("project_id", e.ProjectID.Hex()),
		zap.String("action", string(e.Action)),
		zap.String("from_status", string(e.FromStatus)),
		zap.String("to_status", string(e.ToStatus)),
		zap.String("operator", e.Operator),
	}
	if e.OrgTier != "" {
		fields = append(fields, zap.String("org_tier", string(e.OrgTier)))
	}
	if e.Comment != "" {
		fields = append(fields, zap.String("comment", e.Comment))
	}
	l.zapLog.Info("project transition", fields...)
}

// LifecycleEvent logs a status change that has no ledger row (execution,
// conclusion and selection steps).
func (l *Logger) LifecycleEvent(ctx context.Context, projectID string, event string, from, to models.ProjectStatus, operator string) {
	if !l.enabled() {
		return
	}
	l.zapLog.Info("project lifecycle event",
		zap.Bool("audit", true),
		zap.String("project_id", projectID),
		zap.String("event", event),
		zap.String("from_status", string(from)),
		zap.String("to_status", string(to)),
		zap.String("operator", operator),
	)
}

// NodeToggled logs a process node completion change.
func (l *Logger) NodeToggled(ctx context.Context, kind models.ProcessKind, instanceID, stageID, nodeID string, completed bool) {
	if !l.enabled() {
		return
	}
	l.zapLog.Info("process node toggled",
		zap.Bool("audit", true),
		zap.String("kind", string(kind)),
		zap.String("instance_id", instanceID),
		zap.String("stage_id", stageID),
		zap.String("node_id", nodeID),
		zap.Bool("completed", completed),
	)
}
