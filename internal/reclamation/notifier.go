package reclamation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/stockpilot/stockpilot/internal/masterdata/suppliers"
	"github.com/stockpilot/stockpilot/internal/orders"
	"github.com/stockpilot/stockpilot/jobs"
)

// SupplierDirectory resolves the supplier a claim is addressed to.
type SupplierDirectory interface {
	Get(ctx context.Context, id int64) (suppliers.Supplier, error)
}

// DraftStore persists prepared drafts for operator review.
type DraftStore interface {
	Save(ctx context.Context, draft Draft) error
}

// MailEnqueuer submits the outbound mail job. *jobs.Client satisfies it.
type MailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// MetricsPort counts prepared drafts.
type MetricsPort interface {
	ObserveReclamationDraft()
}

// Notifier reacts to finished reconciliations: any result with a discrepancy
// or damage becomes a stored claim draft plus a queued notification mail.
type Notifier struct {
	drafter   *Drafter
	suppliers SupplierDirectory
	store     DraftStore
	mail      MailEnqueuer
	metrics   MetricsPort
	logger    *slog.Logger
}

func NewNotifier(drafter *Drafter, directory SupplierDirectory, store DraftStore, mail MailEnqueuer, metrics MetricsPort, logger *slog.Logger) *Notifier {
	return &Notifier{drafter: drafter, suppliers: directory, store: store, mail: mail, metrics: metrics, logger: logger}
}

// HandleReconciliationCompleted implements the orders notifier port.
func (n *Notifier) HandleReconciliationCompleted(ctx context.Context, evt orders.ReconciliationCompletedEvent) error {
	supplier, err := n.suppliers.Get(ctx, evt.Order.SupplierID)
	if err != nil {
		return fmt.Errorf("reclamation: resolve supplier %d: %w", evt.Order.SupplierID, err)
	}

	draft, err := n.drafter.Draft(evt.Order.Number, supplier, evt.Result)
	if err != nil {
		return err
	}

	if n.store != nil {
		if err := n.store.Save(ctx, draft); err != nil {
			return fmt.Errorf("reclamation: save draft: %w", err)
		}
	}

	if n.mail != nil {
		_, err := n.mail.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
			To:      draft.SupplierEmail,
			Subject: draft.Subject,
			Body:    draft.Body,
		})
		if err != nil {
			// Draft is stored; the mail can be resent from the review screen.
			n.log().Warn("enqueue reclamation mail", slog.Any("error", err), slog.String("order", evt.Order.Number))
		}
	}

	if n.metrics != nil {
		n.metrics.ObserveReclamationDraft()
	}
	n.log().Info("reclamation draft prepared",
		slog.String("order", evt.Order.Number),
		slog.Int64("supplier_id", supplier.ID),
		slog.String("total_loss", draft.TotalLoss.StringFixed(2)))
	return nil
}

func (n *Notifier) log() *slog.Logger {
	if n.logger != nil {
		return n.logger
	}
	return slog.Default()
}
