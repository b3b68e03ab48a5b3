package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockpilot/stockpilot/internal/shared"
)

// Consumed reconciliation keys only need to outlive any plausible retry
// window.
const idempotencyRetention = 30 * 24 * time.Hour

// IdempotencyCleanup prunes old idempotency keys.
type IdempotencyCleanup struct {
	store  *shared.IdempotencyStore
	logger *slog.Logger
}

func NewIdempotencyCleanup(store *shared.IdempotencyStore, logger *slog.Logger) *IdempotencyCleanup {
	return &IdempotencyCleanup{store: store, logger: logger}
}

// Handle processes TaskTypeIdempotencyCleanup tasks.
func (j *IdempotencyCleanup) Handle(ctx context.Context, _ *asynq.Task) error {
	if err := j.store.Cleanup(ctx, idempotencyRetention); err != nil {
		return fmt.Errorf("jobs: idempotency cleanup: %w", err)
	}
	j.logger.Info("idempotency keys pruned")
	return nil
}
