// Package imports coordinates the full lifecycle of a bulk import:
// staging the uploaded file, previewing its classification, and
// executing it in the background under a per-type run lock.
package imports

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/domain"
	"github.com/dfmunozb/cobro-coactivo-service/internal/core/services/importer"
	"github.com/dfmunozb/cobro-coactivo-service/internal/infrastructure/queue"
	"github.com/dfmunozb/cobro-coactivo-service/internal/infrastructure/storage"
)

// Pipeline is what either import type exposes to the coordinator:
// a read-only preview and a mutating execute over the same file.
type Pipeline interface {
	Preview(ctx context.Context, reader io.Reader, filename string) (*importer.Summary, error)
	Execute(ctx context.Context, reader io.Reader, filename, usuario string) (*importer.Result, error)
}

// Staging is the upload store: files live there between the upload
// call and the background execution.
type Staging interface {
	Stage(ctx context.Context, filename string, reader io.Reader) (*storage.StagedFile, error)
	Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *storage.StagedFile, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

// Locker serializes execution per import type
type Locker interface {
	Acquire(ctx context.Context, tipo domain.TipoImportacion, owner string) error
	Release(ctx context.Context, tipo domain.TipoImportacion) error
}

// Enqueuer hands the execute task to the background worker
type Enqueuer interface {
	EnqueueImportExecute(ctx context.Context, p queue.ImportExecutePayload) error
}
