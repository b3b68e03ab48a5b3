package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/stockpilot/stockpilot/internal/inventory"
)

// ReorderScanner is the slice of the inventory service the scan needs.
type ReorderScanner interface {
	ReorderSuggestions(ctx context.Context) ([]inventory.ReorderSuggestion, error)
}

// ReorderScan walks stock levels and mails purchasing a digest of every SKU
// that has fallen to or below its reorder point.
type ReorderScan struct {
	scanner   ReorderScanner
	client    *Client
	recipient string
	logger    *slog.Logger
}

func NewReorderScan(scanner ReorderScanner, client *Client, recipient string, logger *slog.Logger) *ReorderScan {
	return &ReorderScan{scanner: scanner, client: client, recipient: recipient, logger: logger}
}

// Handle processes TaskTypeReorderScan tasks.
func (j *ReorderScan) Handle(ctx context.Context, _ *asynq.Task) error {
	suggestions, err := j.scanner.ReorderSuggestions(ctx)
	if err != nil {
		return fmt.Errorf("jobs: reorder scan: %w", err)
	}
	if len(suggestions) == 0 {
		j.logger.Info("reorder scan clean")
		return nil
	}

	body := "The following SKUs are at or below their reorder point:\n\n"
	for _, s := range suggestions {
		body += fmt.Sprintf("  - warehouse %d, %s: on hand %d, reorder point %d, suggested order %d\n",
			s.WarehouseID, s.SKU, s.OnHand, s.ReorderPoint, s.SuggestedQty)
	}

	if j.client != nil && j.recipient != "" {
		_, err = j.client.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      j.recipient,
			Subject: fmt.Sprintf("Reorder report: %d SKUs low", len(suggestions)),
			Body:    body,
		})
		if err != nil {
			return err
		}
	}
	j.logger.Info("reorder scan complete", slog.Int("low_skus", len(suggestions)))
	return nil
}
