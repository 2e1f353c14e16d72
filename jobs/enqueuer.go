package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

func parseActor(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("jobs: bad actor id %q: %w", raw, err)
	}
	return id, nil
}

// Enqueuer submits audit entries to the queue. It satisfies the users
// handler's Auditor interface: enqueue failures are logged, never
// surfaced to the request.
type Enqueuer struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewEnqueuer constructs an Enqueuer over an Asynq client.
func NewEnqueuer(redisOpts asynq.RedisClientOpt, logger *slog.Logger) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(redisOpts), logger: logger}
}

// Record enqueues one audit entry.
func (e *Enqueuer) Record(ctx context.Context, actor uuid.UUID, action, entityID string) {
	task, err := NewAuditRecordTask(AuditRecordPayload{
		Actor:    actor.String(),
		Action:   action,
		EntityID: entityID,
		At:       time.Now().UTC(),
	})
	if err != nil {
		if e.logger != nil {
			e.logger.Error("build audit task", slog.Any("error", err))
		}
		return
	}
	if _, err := e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3)); err != nil {
		if e.logger != nil {
			e.logger.Error("enqueue audit task", slog.String("action", action), slog.Any("error", err))
		}
	}
}

// Close releases client resources.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}
