package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/userdeck/userdeck/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRecord persists one audit entry.
	TaskAuditRecord = "audit:record"
	// TaskAuditPrune trims audit entries past the retention window.
	TaskAuditPrune = "audit:prune"
)

// AuditRecordPayload describes one mutation to persist in the trail.
type AuditRecordPayload struct {
	Actor    string    `json:"actor"`
	Action   string    `json:"action"`
	EntityID string    `json:"entity_id"`
	At       time.Time `json:"at"`
}

// NewAuditRecordTask constructs an Asynq task for one audit entry.
func NewAuditRecordTask(payload AuditRecordPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, data), nil
}

// NewAuditPruneTask constructs the retention-prune task.
func NewAuditPruneTask() *asynq.Task {
	return asynq.NewTask(TaskAuditPrune, nil)
}

// AuditHandlers processes audit tasks on the worker.
type AuditHandlers struct {
	Writer    *audit.Logger
	Retention time.Duration
	Logger    *slog.Logger
}

// HandleRecord processes TaskAuditRecord tasks.
func (h AuditHandlers) HandleRecord(ctx context.Context, t *asynq.Task) error {
	var payload AuditRecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	actor, err := parseActor(payload.Actor)
	if err != nil {
		return asynq.SkipRetry
	}
	return h.Writer.Record(ctx, audit.Entry{
		Actor:    actor,
		Action:   payload.Action,
		EntityID: payload.EntityID,
		At:       payload.At,
	})
}

// HandlePrune processes TaskAuditPrune tasks.
func (h AuditHandlers) HandlePrune(ctx context.Context, t *asynq.Task) error {
	removed, err := h.Writer.Prune(ctx, h.Retention)
	if err != nil {
		return err
	}
	if h.Logger != nil {
		h.Logger.Info("audit prune", slog.Int64("removed", removed))
	}
	return nil
}
