// Package jobs holds the background task definitions and the Asynq worker
// glue: outbound mail, the scheduled reorder scan and idempotency key
// housekeeping.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeReorderScan walks stock levels and reports SKUs below their
	// reorder point.
	TaskTypeReorderScan = "stock:reorder_scan"
	// TaskTypeIdempotencyCleanup prunes consumed idempotency keys.
	TaskTypeIdempotencyCleanup = "shared:idempotency_cleanup"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewReorderScanTask constructs the scheduled reorder scan task.
func NewReorderScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeReorderScan, nil)
}

// NewIdempotencyCleanupTask constructs the scheduled cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIdempotencyCleanup, nil)
}
