package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/domain"
	"github.com/dfmunozb/cobro-coactivo-service/internal/core/services/keys"
	"github.com/dfmunozb/cobro-coactivo-service/internal/core/services/matching"
	"github.com/dfmunozb/cobro-coactivo-service/internal/infrastructure/tabular"
	"github.com/dfmunozb/cobro-coactivo-service/internal/pkg/config"
	apperrors "github.com/dfmunozb/cobro-coactivo-service/internal/pkg/errors"
)

const procesoHeader = "Nº COMPARENDO;FECHA IMPOSICION;VALOR MULTA;NOMBRE INFRACTOR;IDENTIFICACION;ESTADO;Nº RESOLUCION;FECHA RESOLUCION;FECHA INICIO COBRO;ETAPA COBRO"

func testImportConfig() config.ImportConfig {
	return config.ImportConfig{
		BatchSize:         100,
		SampleLimit:       10,
		MaxInstallments:   12,
		PrescriptionYears: 5,
	}
}

func newProcesoImporter(store *mockProcesoStore, ledger *mockLedger) *ProcesoImporter {
	return NewProcesoImporter(tabular.NewFactory(), store, ledger, testImportConfig(), nil)
}

func TestProcesoImporter_Execute(t *testing.T) {
	targetID := uuid.New()
	store := newMockProcesoStore()
	store.targets = []matching.Target{
		{ID: targetID, Identifiers: []string{"D-123"}, Label: "Juan Pérez"},
	}
	ledger := &mockLedger{}

	file := strings.Join([]string{
		procesoHeader,
		"D-123;15/06/2020;$ 64.000,00;Juan Pérez;C-100;EN COBRO COACTIVO;RES-55;20/08/2020;10/09/2020;MANDAMIENTO",
		"X-999;15/06/2020;$ 10.000,00;Ana Gómez;C-200;PENDIENTE;;;;",
	}, "\n")

	im := newProcesoImporter(store, ledger)
	result, err := im.Execute(context.Background(), strings.NewReader(file), "export.csv", "operador1")
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalRegistros)
	assert.Equal(t, 1, result.Importados)
	assert.Equal(t, 1, result.Omitidos)
	assert.Equal(t, 0, result.Fallidos)
	assert.Empty(t, result.Errores)

	created := store.created()
	require.Len(t, created, 1)
	p := created[0]

	assert.Equal(t, targetID, p.ComparendoID)
	assert.Equal(t, "D-123", p.NumeroComparendo)
	assert.Equal(t, "Juan Pérez", p.NombreInfractor)
	assert.True(t, p.ValorMulta.Equal(decimal.NewFromInt(64000)))
	assert.Equal(t, domain.EstadoCobroCoactivo, p.Estado)
	assert.NotEmpty(t, p.HashImportacion)

	require.NotNil(t, p.FechaImposicion)
	assert.Equal(t, time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC), *p.FechaImposicion)

	// Deadline anchored on the enforcement start date.
	require.NotNil(t, p.FechaPrescripcion)
	assert.Equal(t, time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC), *p.FechaPrescripcion)

	// Dependent records: resolution, enforcement stage, audit entry.
	require.NotNil(t, p.Resolucion)
	assert.Equal(t, "RES-55", p.Resolucion.Numero)
	require.Len(t, p.Cobros, 1)
	assert.True(t, p.Cobros[0].Activo)
	assert.Equal(t, "MANDAMIENTO", p.Cobros[0].Etapa)
	require.Len(t, p.Historial, 1)
	assert.Equal(t, domain.EstadoCobroCoactivo, p.Historial[0].EstadoNuevo)
	assert.Equal(t, "operador1", p.Historial[0].Usuario)

	// Ledger: one record created running, finished completed.
	require.Len(t, ledger.createdRuns, 1)
	require.Len(t, ledger.finishedRuns, 1)
	imp := ledger.finishedRuns[0]
	assert.Equal(t, domain.ImportacionCompleted, imp.Estado)
	assert.Equal(t, 1, imp.Exitosos)
	assert.Equal(t, 1, imp.Omitidos)
	assert.NotNil(t, imp.CompletedAt)
	assert.Equal(t, imp.TotalRegistros, imp.Exitosos+imp.Fallidos+imp.Omitidos)
}

func TestProcesoImporter_Execute_SkipsDuplicates(t *testing.T) {
	targetID := uuid.New()
	fecha := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)
	existing := keys.Idempotency("D-123", &fecha, decimal.NewFromInt(64000), "C-100")

	store := newMockProcesoStore()
	store.targets = []matching.Target{{ID: targetID, Identifiers: []string{"D-123"}, Label: "Juan"}}
	store.hashes = []string{existing}
	ledger := &mockLedger{}

	file := strings.Join([]string{
		procesoHeader,
		// Already imported (same identifier, date, amount, counterparty).
		"D-123;15/06/2020;$ 64.000,00;Juan Pérez;C-100;PENDIENTE;;;;",
		// New amount: same comparendo, different idempotency key.
		"D-123;15/06/2020;$ 99.000,00;Juan Pérez;C-100;PENDIENTE;;;;",
		// Within-file repeat of the previous row.
		"D-123;15/06/2020;$ 99.000,00;Juan Pérez;C-100;PENDIENTE;;;;",
	}, "\n")

	im := newProcesoImporter(store, ledger)
	result, err := im.Execute(context.Background(), strings.NewReader(file), "export.csv", "op")
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRegistros)
	assert.Equal(t, 1, result.Importados)
	assert.Equal(t, 2, result.Omitidos)
	require.Len(t, store.created(), 1)
	assert.True(t, store.created()[0].ValorMulta.Equal(decimal.NewFromInt(99000)))
}

func TestProcesoImporter_Execute_InvalidRowsCounted(t *testing.T) {
	store := newMockProcesoStore()
	store.targets = []matching.Target{{ID: uuid.New(), Identifiers: []string{"D-123"}}}
	ledger := &mockLedger{}

	file := strings.Join([]string{
		procesoHeader,
		"D-123;15/06/2020;$ 1.000,00;Juan;C-1;;;;;",
		";15/06/2020;$ 1.000,00;SinComparendo;C-2;;;;;",
		"D-124;15/06/1985;$ 1.000,00;FechaVieja;C-3;;;;;",
	}, "\n")

	im := newProcesoImporter(store, ledger)
	result, err := im.Execute(context.Background(), strings.NewReader(file), "export.csv", "op")
	require.NoError(t, err)

	// The two dropped rows count toward the total and the skips.
	assert.Equal(t, 3, result.TotalRegistros)
	assert.Equal(t, 1, result.Importados)
	assert.Equal(t, 2, result.Omitidos)
}

func TestProcesoImporter_Execute_BatchFailureIsolated(t *testing.T) {
	store := newMockProcesoStore()
	ledger := &mockLedger{}

	var sb strings.Builder
	sb.WriteString(procesoHeader)
	targets := make([]matching.Target, 0, 250)
	for i := 1; i <= 250; i++ {
		numero := fmt.Sprintf("D-%d", i)
		targets = append(targets, matching.Target{ID: uuid.New(), Identifiers: []string{numero}})
		sb.WriteString(fmt.Sprintf("\n%s;15/06/2020;$ %d,00;Persona %d;C-%d;;;;;", numero, 1000+i, i, i))
	}
	store.targets = targets
	store.failBatches[1] = errors.New("deadlock detected")

	im := newProcesoImporter(store, ledger)
	result, err := im.Execute(context.Background(), strings.NewReader(sb.String()), "export.csv", "op")
	require.NoError(t, err)

	// Batch 2 of [100, 100, 50] fails whole; its neighbors commit.
	assert.Equal(t, 250, result.TotalRegistros)
	assert.Equal(t, 150, result.Importados)
	assert.Equal(t, 100, result.Fallidos)
	assert.Equal(t, 0, result.Omitidos)
	require.Len(t, result.Errores, 1)
	assert.Contains(t, result.Errores[0], "batch 2 (100 rows)")

	require.Len(t, ledger.finishedRuns, 1)
	assert.Equal(t, domain.ImportacionCompletedWithErrors, ledger.finishedRuns[0].Estado)
}

func TestProcesoImporter_Execute_NothingImportedIsFailed(t *testing.T) {
	store := newMockProcesoStore()
	ledger := &mockLedger{}

	file := strings.Join([]string{
		procesoHeader,
		"X-1;15/06/2020;$ 1.000,00;Juan;C-1;;;;;",
	}, "\n")

	im := newProcesoImporter(store, ledger)
	result, err := im.Execute(context.Background(), strings.NewReader(file), "export.csv", "op")
	require.NoError(t, err)

	assert.Equal(t, 0, result.Importados)
	require.Len(t, ledger.finishedRuns, 1)
	assert.Equal(t, domain.ImportacionFailed, ledger.finishedRuns[0].Estado)
}

func TestProcesoImporter_Execute_FatalBeforeLedger(t *testing.T) {
	store := newMockProcesoStore()
	ledger := &mockLedger{}

	// Missing required VALOR MULTA column.
	file := "Nº COMPARENDO;FECHA IMPOSICION\nD-123;15/06/2020\n"

	im := newProcesoImporter(store, ledger)
	_, err := im.Execute(context.Background(), strings.NewReader(file), "export.csv", "op")

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingColumn))
	// Pre-write failures leave no ledger record and no store writes.
	assert.Empty(t, ledger.createdRuns)
	assert.Zero(t, store.calls)
}

func TestProcesoImporter_Preview_NeverWrites(t *testing.T) {
	targetID := uuid.New()
	store := newMockProcesoStore()
	store.targets = []matching.Target{{ID: targetID, Identifiers: []string{"D-123"}, Label: "Juan"}}
	ledger := &mockLedger{}

	file := strings.Join([]string{
		procesoHeader,
		"D-123;15/06/2020;$ 64.000,00;Juan;C-1;;;;;",
		"X-999;15/06/2020;$ 10.000,00;Ana;C-2;;;;;",
		";;;;;;;;;",
	}, "\n")

	im := newProcesoImporter(store, ledger)
	summary, err := im.Preview(context.Background(), strings.NewReader(file), "export.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalRegistros)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 1, summary.SinCoincidir)
	assert.Equal(t, 0, summary.Invalidos)

	require.Len(t, summary.Samples[ClassMatched], 1)
	assert.Equal(t, "Juan", summary.Samples[ClassMatched][0].TargetLabel)

	assert.Zero(t, store.calls)
	assert.Empty(t, ledger.createdRuns)
}
