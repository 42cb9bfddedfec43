package imports

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/domain"
	"github.com/dfmunozb/cobro-coactivo-service/internal/core/services/importer"
	"github.com/dfmunozb/cobro-coactivo-service/internal/infrastructure/queue"
	"github.com/dfmunozb/cobro-coactivo-service/internal/infrastructure/storage"
	apperrors "github.com/dfmunozb/cobro-coactivo-service/internal/pkg/errors"
)

// Service coordinates the import pipelines
type Service struct {
	procesos Pipeline
	acuerdos Pipeline
	staging  Staging
	lock     Locker
	queue    Enqueuer
	logger   *slog.Logger
}

// NewService creates the import coordinator
func NewService(procesos, acuerdos Pipeline, staging Staging, lock Locker, enqueuer Enqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		procesos: procesos,
		acuerdos: acuerdos,
		staging:  staging,
		lock:     lock,
		queue:    enqueuer,
		logger:   logger,
	}
}

func (s *Service) pipeline(tipo domain.TipoImportacion) (Pipeline, error) {
	switch tipo {
	case domain.TipoImportacionProcesos:
		return s.procesos, nil
	case domain.TipoImportacionAcuerdos:
		return s.acuerdos, nil
	default:
		return nil, apperrors.BadRequest("unknown import type: " + string(tipo))
	}
}

// Upload stages the file so preview and execute read the same bytes
func (s *Service) Upload(ctx context.Context, filename string, reader io.Reader) (*storage.StagedFile, error) {
	staged, err := s.staging.Stage(ctx, filename, reader)
	if err != nil {
		return nil, err
	}
	s.logger.Info("import file staged",
		slog.String("upload_id", staged.ID.String()),
		slog.String("archivo", staged.OriginalName),
		slog.Int64("size", staged.Size))
	return staged, nil
}

// Preview classifies the staged file without writing anything
func (s *Service) Preview(ctx context.Context, tipo domain.TipoImportacion, uploadID uuid.UUID) (*importer.Summary, error) {
	p, err := s.pipeline(tipo)
	if err != nil {
		return nil, err
	}

	reader, staged, err := s.staging.Open(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return p.Preview(ctx, reader, staged.OriginalName)
}

// Enqueue takes the run lock for the import type and hands the staged
// file to the background worker. The lock is released by the worker
// when the run ends, or by the lease expiring if it crashes.
func (s *Service) Enqueue(ctx context.Context, tipo domain.TipoImportacion, uploadID uuid.UUID, usuario string) error {
	if _, err := s.pipeline(tipo); err != nil {
		return err
	}

	// Stat before locking so a missing upload does not leave the type
	// locked with nothing running.
	reader, staged, err := s.staging.Open(ctx, uploadID)
	if err != nil {
		return err
	}
	reader.Close()

	if err := s.lock.Acquire(ctx, tipo, usuario); err != nil {
		return err
	}

	err = s.queue.EnqueueImportExecute(ctx, queue.ImportExecutePayload{
		Tipo:     tipo,
		UploadID: uploadID,
		Filename: staged.OriginalName,
		Usuario:  usuario,
	})
	if err != nil {
		if relErr := s.lock.Release(ctx, tipo); relErr != nil {
			s.logger.Error("failed to release lock after enqueue failure",
				slog.String("tipo", string(tipo)),
				slog.Any("error", relErr))
		}
		return apperrors.RunFailed(err)
	}

	s.logger.Info("import execution enqueued",
		slog.String("tipo", string(tipo)),
		slog.String("upload_id", uploadID.String()),
		slog.String("usuario", usuario))
	return nil
}

// Run executes a staged import. Called from the worker; the run lock
// is already held and is released here regardless of outcome. The
// staged file is removed only after a successful run so a failed one
// can be retried from the same upload.
func (s *Service) Run(ctx context.Context, tipo domain.TipoImportacion, uploadID uuid.UUID, usuario string) error {
	defer func() {
		if err := s.lock.Release(ctx, tipo); err != nil {
			s.logger.Error("failed to release import lock",
				slog.String("tipo", string(tipo)),
				slog.Any("error", err))
		}
	}()

	p, err := s.pipeline(tipo)
	if err != nil {
		return err
	}

	reader, staged, err := s.staging.Open(ctx, uploadID)
	if err != nil {
		return err
	}
	defer reader.Close()

	result, err := p.Execute(ctx, reader, staged.OriginalName, usuario)
	if err != nil {
		return err
	}

	if err := s.staging.Remove(ctx, uploadID); err != nil {
		s.logger.Warn("failed to remove staged file",
			slog.String("upload_id", uploadID.String()),
			slog.Any("error", err))
	}

	s.logger.Info("import run completed",
		slog.String("tipo", string(tipo)),
		slog.String("importacion_id", result.ImportacionID.String()),
		slog.Int("importados", result.Importados),
		slog.Int("omitidos", result.Omitidos),
		slog.Int("fallidos", result.Fallidos))
	return nil
}
