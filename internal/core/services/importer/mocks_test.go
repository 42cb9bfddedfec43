package importer

import (
	"context"

	"github.com/google/uuid"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/domain"
	"github.com/dfmunozb/cobro-coactivo-service/internal/core/services/matching"
)

// mockProcesoStore implements ProcesoStore for testing
type mockProcesoStore struct {
	targets []matching.Target
	hashes  []string

	batches     [][]*domain.Proceso
	failBatches map[int]error
	calls       int
}

func newMockProcesoStore() *mockProcesoStore {
	return &mockProcesoStore{failBatches: make(map[int]error)}
}

func (m *mockProcesoStore) ListTargets(ctx context.Context) ([]matching.Target, error) {
	return m.targets, nil
}

func (m *mockProcesoStore) ListImportHashes(ctx context.Context) ([]string, error) {
	return m.hashes, nil
}

func (m *mockProcesoStore) CreateBatch(ctx context.Context, procesos []*domain.Proceso) error {
	idx := m.calls
	m.calls++
	if err := m.failBatches[idx]; err != nil {
		return err
	}
	m.batches = append(m.batches, procesos)
	return nil
}

func (m *mockProcesoStore) created() []*domain.Proceso {
	var out []*domain.Proceso
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

// mockAcuerdoStore implements AcuerdoStore for testing
type mockAcuerdoStore struct {
	targets []matching.Target
	hashes  []string

	batches     [][]*domain.AcuerdoPago
	failBatches map[int]error
	calls       int
}

func newMockAcuerdoStore() *mockAcuerdoStore {
	return &mockAcuerdoStore{failBatches: make(map[int]error)}
}

func (m *mockAcuerdoStore) ListTargets(ctx context.Context) ([]matching.Target, error) {
	return m.targets, nil
}

func (m *mockAcuerdoStore) ListImportHashes(ctx context.Context) ([]string, error) {
	return m.hashes, nil
}

func (m *mockAcuerdoStore) CreateBatch(ctx context.Context, acuerdos []*domain.AcuerdoPago) error {
	idx := m.calls
	m.calls++
	if err := m.failBatches[idx]; err != nil {
		return err
	}
	m.batches = append(m.batches, acuerdos)
	return nil
}

func (m *mockAcuerdoStore) created() []*domain.AcuerdoPago {
	var out []*domain.AcuerdoPago
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

// mockLedger implements Ledger for testing
type mockLedger struct {
	createdRuns  []*domain.Importacion
	finishedRuns []*domain.Importacion
	createErr    error
}

func (m *mockLedger) Create(ctx context.Context, imp *domain.Importacion) error {
	if m.createErr != nil {
		return m.createErr
	}
	imp.ID = uuid.New()
	m.createdRuns = append(m.createdRuns, imp)
	return nil
}

func (m *mockLedger) Finish(ctx context.Context, imp *domain.Importacion) error {
	m.finishedRuns = append(m.finishedRuns, imp)
	return nil
}

// testRow is a minimal RowInfo for classifier and preview tests
type testRow struct {
	number int
	id     string
	hash   string
	name   string
}

func (r testRow) RowNumber() int         { return r.number }
func (r testRow) NaturalID() string      { return r.id }
func (r testRow) IdempotencyKey() string { return r.hash }
func (r testRow) Counterparty() string   { return r.name }
