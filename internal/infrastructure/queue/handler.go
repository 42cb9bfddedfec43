package queue

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/domain"
)

// ImportRunner executes a staged import in the worker process
type ImportRunner interface {
	Run(ctx context.Context, tipo domain.TipoImportacion, uploadID uuid.UUID, usuario string) error
}

// RegisterImportHandlers wires the import task types onto the server mux
func RegisterImportHandlers(server *AsynqServer, runner ImportRunner, logger *slog.Logger) {
	server.HandleFunc(TaskTypeImportExecute, func(ctx context.Context, t *asynq.Task) error {
		p, err := ParseImportExecutePayload(t)
		if err != nil {
			return err
		}

		logger.Info("processing import task",
			slog.String("tipo", string(p.Tipo)),
			slog.String("upload_id", p.UploadID.String()),
			slog.String("archivo", p.Filename))

		return runner.Run(ctx, p.Tipo, p.UploadID, p.Usuario)
	})
}
