package imports

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/domain"
	"github.com/dfmunozb/cobro-coactivo-service/internal/core/services/importer"
	"github.com/dfmunozb/cobro-coactivo-service/internal/infrastructure/queue"
	"github.com/dfmunozb/cobro-coactivo-service/internal/infrastructure/storage"
	apperrors "github.com/dfmunozb/cobro-coactivo-service/internal/pkg/errors"
)

// The real queue client must keep satisfying the coordinator's
// enqueue contract.
var _ Enqueuer = (*queue.AsynqClient)(nil)

// mockPipeline implements Pipeline for testing
type mockPipeline struct {
	previewed []string
	executed  []string
	execErr   error
}

func (m *mockPipeline) Preview(ctx context.Context, reader io.Reader, filename string) (*importer.Summary, error) {
	m.previewed = append(m.previewed, filename)
	return &importer.Summary{TotalRegistros: 1}, nil
}

func (m *mockPipeline) Execute(ctx context.Context, reader io.Reader, filename, usuario string) (*importer.Result, error) {
	if m.execErr != nil {
		return nil, m.execErr
	}
	m.executed = append(m.executed, filename)
	return &importer.Result{ImportacionID: uuid.New(), NombreArchivo: filename, Importados: 1}, nil
}

// mockStaging implements Staging for testing
type mockStaging struct {
	files   map[uuid.UUID]*storage.StagedFile
	content map[uuid.UUID][]byte
	removed []uuid.UUID
}

func newMockStaging() *mockStaging {
	return &mockStaging{
		files:   make(map[uuid.UUID]*storage.StagedFile),
		content: make(map[uuid.UUID][]byte),
	}
}

func (m *mockStaging) Stage(ctx context.Context, filename string, reader io.Reader) (*storage.StagedFile, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	staged := &storage.StagedFile{ID: uuid.New(), OriginalName: filename, Size: int64(len(data))}
	m.files[staged.ID] = staged
	m.content[staged.ID] = data
	return staged, nil
}

func (m *mockStaging) Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *storage.StagedFile, error) {
	staged, ok := m.files[id]
	if !ok {
		return nil, nil, apperrors.NotFound("staged file")
	}
	return io.NopCloser(bytes.NewReader(m.content[id])), staged, nil
}

func (m *mockStaging) Remove(ctx context.Context, id uuid.UUID) error {
	delete(m.files, id)
	delete(m.content, id)
	m.removed = append(m.removed, id)
	return nil
}

// mockLocker implements Locker for testing
type mockLocker struct {
	held     map[domain.TipoImportacion]bool
	acquired int
	released int
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[domain.TipoImportacion]bool)}
}

func (m *mockLocker) Acquire(ctx context.Context, tipo domain.TipoImportacion, owner string) error {
	if m.held[tipo] {
		return apperrors.RunLocked(string(tipo))
	}
	m.held[tipo] = true
	m.acquired++
	return nil
}

func (m *mockLocker) Release(ctx context.Context, tipo domain.TipoImportacion) error {
	m.held[tipo] = false
	m.released++
	return nil
}

// mockEnqueuer implements Enqueuer for testing
type mockEnqueuer struct {
	enqueued []queue.ImportExecutePayload
	err      error
}

func (m *mockEnqueuer) EnqueueImportExecute(ctx context.Context, p queue.ImportExecutePayload) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, p)
	return nil
}

func newTestService() (*Service, *mockPipeline, *mockPipeline, *mockStaging, *mockLocker, *mockEnqueuer) {
	procesos := &mockPipeline{}
	acuerdos := &mockPipeline{}
	staging := newMockStaging()
	locker := newMockLocker()
	enqueuer := &mockEnqueuer{}
	svc := NewService(procesos, acuerdos, staging, locker, enqueuer, nil)
	return svc, procesos, acuerdos, staging, locker, enqueuer
}

func TestService_UploadAndPreview(t *testing.T) {
	svc, procesos, acuerdos, _, _, _ := newTestService()
	ctx := context.Background()

	staged, err := svc.Upload(ctx, "export.csv", strings.NewReader("A;B\n1;2\n"))
	require.NoError(t, err)
	assert.Equal(t, "export.csv", staged.OriginalName)

	summary, err := svc.Preview(ctx, domain.TipoImportacionProcesos, staged.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalRegistros)

	// Preview routes to the right pipeline.
	assert.Equal(t, []string{"export.csv"}, procesos.previewed)
	assert.Empty(t, acuerdos.previewed)
}

func TestService_Preview_UnknownType(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()

	_, err := svc.Preview(context.Background(), "inventario", uuid.New())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeBadRequest))
}

func TestService_Enqueue(t *testing.T) {
	svc, _, _, _, locker, enqueuer := newTestService()
	ctx := context.Background()

	staged, err := svc.Upload(ctx, "export.csv", strings.NewReader("data"))
	require.NoError(t, err)

	require.NoError(t, svc.Enqueue(ctx, domain.TipoImportacionProcesos, staged.ID, "operador1"))

	require.Len(t, enqueuer.enqueued, 1)
	p := enqueuer.enqueued[0]
	assert.Equal(t, domain.TipoImportacion(domain.TipoImportacionProcesos), p.Tipo)
	assert.Equal(t, staged.ID, p.UploadID)
	assert.Equal(t, "export.csv", p.Filename)
	assert.Equal(t, "operador1", p.Usuario)

	// The lock is now held until the worker runs.
	assert.True(t, locker.held[domain.TipoImportacionProcesos])
}

func TestService_Enqueue_LockedType(t *testing.T) {
	svc, _, _, _, locker, enqueuer := newTestService()
	ctx := context.Background()

	staged, err := svc.Upload(ctx, "export.csv", strings.NewReader("data"))
	require.NoError(t, err)

	locker.held[domain.TipoImportacionProcesos] = true

	err = svc.Enqueue(ctx, domain.TipoImportacionProcesos, staged.ID, "op")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRunLocked))
	assert.Empty(t, enqueuer.enqueued)
}

func TestService_Enqueue_MissingUploadDoesNotLock(t *testing.T) {
	svc, _, _, _, locker, _ := newTestService()

	err := svc.Enqueue(context.Background(), domain.TipoImportacionProcesos, uuid.New(), "op")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	assert.Zero(t, locker.acquired)
}

func TestService_Enqueue_ReleasesLockOnEnqueueFailure(t *testing.T) {
	svc, _, _, _, locker, enqueuer := newTestService()
	ctx := context.Background()

	staged, err := svc.Upload(ctx, "export.csv", strings.NewReader("data"))
	require.NoError(t, err)

	enqueuer.err = errors.New("redis down")

	err = svc.Enqueue(ctx, domain.TipoImportacionProcesos, staged.ID, "op")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRunFailed))
	assert.False(t, locker.held[domain.TipoImportacionProcesos])
}

func TestService_Run(t *testing.T) {
	svc, _, acuerdos, staging, locker, _ := newTestService()
	ctx := context.Background()

	staged, err := svc.Upload(ctx, "acuerdos.csv", strings.NewReader("data"))
	require.NoError(t, err)
	locker.held[domain.TipoImportacionAcuerdos] = true

	require.NoError(t, svc.Run(ctx, domain.TipoImportacionAcuerdos, staged.ID, "op"))

	assert.Equal(t, []string{"acuerdos.csv"}, acuerdos.executed)
	// A finished run frees the lock and the staged file.
	assert.False(t, locker.held[domain.TipoImportacionAcuerdos])
	assert.Equal(t, []uuid.UUID{staged.ID}, staging.removed)
}

func TestService_Run_KeepsFileOnFailure(t *testing.T) {
	svc, procesos, _, staging, locker, _ := newTestService()
	ctx := context.Background()

	staged, err := svc.Upload(ctx, "export.csv", strings.NewReader("data"))
	require.NoError(t, err)
	locker.held[domain.TipoImportacionProcesos] = true
	procesos.execErr = errors.New("db down")

	err = svc.Run(ctx, domain.TipoImportacionProcesos, staged.ID, "op")
	assert.Error(t, err)

	// The lock is released even on failure, but the upload survives for
	// a retry.
	assert.False(t, locker.held[domain.TipoImportacionProcesos])
	assert.Empty(t, staging.removed)
}
