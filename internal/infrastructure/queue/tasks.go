package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/domain"
)

// Task types
const (
	// TaskTypeImportExecute runs the execute phase of a staged import
	// file in the background.
	TaskTypeImportExecute = "import:execute"
)

// ImportExecutePayload identifies a staged upload to execute
type ImportExecutePayload struct {
	Tipo     domain.TipoImportacion `json:"tipo"`
	UploadID uuid.UUID              `json:"upload_id"`
	Filename string                 `json:"filename"`
	Usuario  string                 `json:"usuario"`
}

// NewImportExecuteTask builds the queue task for a staged upload.
// Import tasks are not retried: a partially applied run must be
// inspected through the ledger, not blindly re-executed.
func NewImportExecuteTask(p ImportExecutePayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal import payload: %w", err)
	}
	return asynq.NewTask(TaskTypeImportExecute, payload,
		asynq.Queue("imports"),
		asynq.MaxRetry(0),
	), nil
}

// EnqueueImportExecute builds and enqueues the execute task for a
// staged upload.
func (a *AsynqClient) EnqueueImportExecute(ctx context.Context, p ImportExecutePayload) error {
	task, err := NewImportExecuteTask(p)
	if err != nil {
		return err
	}
	_, err = a.EnqueueContext(ctx, task)
	return err
}

// ParseImportExecutePayload decodes a task payload back into its
// typed form.
func ParseImportExecutePayload(t *asynq.Task) (ImportExecutePayload, error) {
	var p ImportExecutePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("failed to unmarshal import payload: %w", err)
	}
	return p, nil
}
