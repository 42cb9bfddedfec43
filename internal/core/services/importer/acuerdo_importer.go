package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/domain"
	"github.com/dfmunozb/cobro-coactivo-service/internal/core/services/keys"
	"github.com/dfmunozb/cobro-coactivo-service/internal/core/services/matching"
	"github.com/dfmunozb/cobro-coactivo-service/internal/core/services/normalize"
	"github.com/dfmunozb/cobro-coactivo-service/internal/infrastructure/tabular"
	"github.com/dfmunozb/cobro-coactivo-service/internal/pkg/config"
	"github.com/dfmunozb/cobro-coactivo-service/internal/pkg/logger"
)

// Logical columns of a payment-agreement export
const (
	colAcuerdoComparendos = "comparendos"
	colDeudor             = "nombre_deudor"
	colDeudorID           = "identificacion_deudor"
	colValorTotal         = "valor_total"
	colCuotaInicial       = "cuota_inicial"
	colPorcentajeInicial  = "porcentaje_inicial"
	colNumeroCuotas       = "numero_cuotas"
	colFechaAcuerdo       = "fecha_acuerdo"
	colNuevaPrescripcion  = "nueva_prescripcion"
)

// acuerdoColumns is the fixed alias table of the agreement export, plus
// the bounded per-installment detail columns appended by
// installmentColumns.
var acuerdoColumns = []tabular.ColumnSpec{
	{Name: colAcuerdoComparendos, Aliases: []string{"N COMPARENDO", "COMPARENDOS", "COMPARENDO"}, Required: true},
	{Name: colDeudor, Aliases: []string{"NOMBRE DEUDOR", "DEUDOR", "NOMBRE"}, Required: false},
	{Name: colDeudorID, Aliases: []string{"IDENTIFICACION", "CEDULA", "DOCUMENTO"}, Required: false},
	{Name: colValorTotal, Aliases: []string{"VALOR TOTAL", "VALOR ACUERDO", "VALOR DEUDA"}, Required: true},
	{Name: colCuotaInicial, Aliases: []string{"CUOTA INICIAL", "PAGO INICIAL"}, Required: false},
	{Name: colPorcentajeInicial, Aliases: []string{"PORCENTAJE INICIAL", "% INICIAL", "PORCENTAJE"}, Required: false},
	{Name: colNumeroCuotas, Aliases: []string{"NUMERO CUOTAS", "N CUOTAS", "CUOTAS"}, Required: true},
	{Name: colFechaAcuerdo, Aliases: []string{"FECHA ACUERDO", "FECHA SUSCRIPCION"}, Required: true},
	{Name: colNuevaPrescripcion, Aliases: []string{"NUEVA PRESCRIPCION", "FECHA PRESCRIPCION"}, Required: false},
}

func colCuotaValor(i int) string { return fmt.Sprintf("cuota_%d_valor", i) }
func colCuotaPago(i int) string  { return fmt.Sprintf("cuota_%d_pago", i) }

// installmentColumns appends the optional per-installment detail
// columns, bounded to maxInstallments.
func installmentColumns(specs []tabular.ColumnSpec, maxInstallments int) []tabular.ColumnSpec {
	for i := 1; i <= maxInstallments; i++ {
		specs = append(specs,
			tabular.ColumnSpec{Name: colCuotaValor(i), Aliases: []string{fmt.Sprintf("VALOR CUOTA %d", i), fmt.Sprintf("CUOTA %d", i)}},
			tabular.ColumnSpec{Name: colCuotaPago(i), Aliases: []string{fmt.Sprintf("FECHA PAGO %d", i), fmt.Sprintf("PAGO CUOTA %d", i)}},
		)
	}
	return specs
}

// AcuerdoRecord is the typed projection of ONE expanded agreement row:
// a source row covering several comparendo references expands to one
// record per reference. Immutable once built.
type AcuerdoRecord struct {
	rowNumber int
	hash      string

	NumeroComparendo     string
	NombreDeudor         string
	Identificacion       string
	ValorTotal           decimal.Decimal
	CuotaInicial         decimal.Decimal
	PorcentajeInicial    float64
	NumeroCuotas         int
	FechaAcuerdo         *time.Time
	Detalles             []CuotaDetalle
	OverridePrescripcion *time.Time
}

// RowNumber implements RowInfo
func (r AcuerdoRecord) RowNumber() int { return r.rowNumber }

// NaturalID implements RowInfo
func (r AcuerdoRecord) NaturalID() string { return r.NumeroComparendo }

// IdempotencyKey implements RowInfo
func (r AcuerdoRecord) IdempotencyKey() string { return r.hash }

// Counterparty implements RowInfo
func (r AcuerdoRecord) Counterparty() string { return r.NombreDeudor }

// AcuerdoImporter is the agreement import pipeline: it ingests payment
// agreement exports and attaches agreements, with generated installment
// schedules, to existing collection cases.
type AcuerdoImporter struct {
	decoders *tabular.Factory
	store    AcuerdoStore
	ledger   Ledger
	cfg      config.ImportConfig
	columns  []tabular.ColumnSpec
	logger   *slog.Logger
}

// NewAcuerdoImporter creates the agreement import pipeline
func NewAcuerdoImporter(decoders *tabular.Factory, store AcuerdoStore, ledger Ledger, cfg config.ImportConfig, log *slog.Logger) *AcuerdoImporter {
	if log == nil {
		log = logger.NewServiceLogger("acuerdo-importer")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxInstallments <= 0 {
		cfg.MaxInstallments = 12
	}
	return &AcuerdoImporter{
		decoders: decoders,
		store:    store,
		ledger:   ledger,
		cfg:      cfg,
		columns:  installmentColumns(acuerdoColumns, cfg.MaxInstallments),
		logger:   log,
	}
}

// parse decodes and normalizes the file, expanding each source row into
// one record per referenced comparendo. Per-position sub-values shorter
// than the expansion fall back to their first element (see
// normalize.PadMulti). Agreement amounts use the plain dot-decimal
// convention; the two source systems never mix conventions in one file.
func (im *AcuerdoImporter) parse(ctx context.Context, reader io.Reader, filename string) ([]AcuerdoRecord, int, error) {
	table, err := im.decoders.Decode(ctx, filename, reader)
	if err != nil {
		return nil, 0, err
	}

	layout, err := tabular.Bind(table.Header, im.columns)
	if err != nil {
		return nil, 0, err
	}

	records := make([]AcuerdoRecord, 0, len(table.Rows))
	invalid := 0

	for _, row := range table.Rows {
		refs := normalize.SplitMulti(layout.Cell(row, colAcuerdoComparendos))
		if len(refs) == 0 {
			invalid++
			continue
		}

		fechaAcuerdo := normalize.DatePtr(layout.Cell(row, colFechaAcuerdo))
		if fechaAcuerdo == nil {
			// the agreement date is the schedule anchor; without it the
			// row cannot produce a usable schedule
			invalid++
			continue
		}

		numCuotas, _ := strconv.Atoi(normalize.Text(layout.Cell(row, colNumeroCuotas)))
		if numCuotas > im.cfg.MaxInstallments {
			numCuotas = im.cfg.MaxInstallments
		}

		detalles := im.parseDetalles(layout, row, numCuotas)
		override := normalize.DatePtr(layout.Cell(row, colNuevaPrescripcion))
		identificacion := normalize.Identifier(layout.Cell(row, colDeudorID))
		deudor := normalize.Text(layout.Cell(row, colDeudor))
		cuotaInicial, _ := normalize.Amount(layout.Cell(row, colCuotaInicial), normalize.ConvencionPlana)
		porcentaje := normalize.Percent(layout.Cell(row, colPorcentajeInicial))

		valores := normalize.PadMulti(normalize.SplitMulti(layout.Cell(row, colValorTotal)), len(refs))

		for i, ref := range refs {
			valor, _ := normalize.Amount(valores[i], normalize.ConvencionPlana)

			rec := AcuerdoRecord{
				rowNumber:            row.Number,
				NumeroComparendo:     normalize.Identifier(ref),
				NombreDeudor:         deudor,
				Identificacion:       identificacion,
				ValorTotal:           valor,
				CuotaInicial:         cuotaInicial,
				PorcentajeInicial:    porcentaje,
				NumeroCuotas:         numCuotas,
				FechaAcuerdo:         fechaAcuerdo,
				Detalles:             detalles,
				OverridePrescripcion: override,
			}
			rec.hash = keys.Idempotency(rec.NumeroComparendo, rec.FechaAcuerdo, rec.ValorTotal, rec.Identificacion)
			records = append(records, rec)
		}
	}

	return records, invalid, nil
}

// parseDetalles reads the optional per-installment detail columns
func (im *AcuerdoImporter) parseDetalles(layout *tabular.Layout, row tabular.Row, numCuotas int) []CuotaDetalle {
	detalles := make([]CuotaDetalle, 0, numCuotas)
	any := false
	for i := 1; i <= numCuotas; i++ {
		valor, _ := normalize.Amount(layout.Cell(row, colCuotaValor(i)), normalize.ConvencionPlana)
		pago := normalize.DatePtr(layout.Cell(row, colCuotaPago(i)))
		if !valor.IsZero() || pago != nil {
			any = true
		}
		detalles = append(detalles, CuotaDetalle{Valor: valor, FechaPago: pago})
	}
	if !any {
		return nil
	}
	return detalles
}

func (im *AcuerdoImporter) buildIndex(ctx context.Context) (*matching.Index, error) {
	targets, err := im.store.ListTargets(ctx)
	if err != nil {
		return nil, err
	}
	hashes, err := im.store.ListImportHashes(ctx)
	if err != nil {
		return nil, err
	}
	return matching.Build(targets, hashes, im.logger), nil
}

func (im *AcuerdoImporter) classify(records []AcuerdoRecord, index *matching.Index) []ClassifiedRow {
	classifier := NewClassifier(index)
	rows := make([]ClassifiedRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, classifier.Classify(rec))
	}
	return rows
}

// Preview parses, expands and classifies the file without writing.
func (im *AcuerdoImporter) Preview(ctx context.Context, reader io.Reader, filename string) (*Summary, error) {
	log := logger.NewRunLogger(domain.TipoImportacionAcuerdos, filename)

	records, invalid, err := im.parse(ctx, reader, filename)
	if err != nil {
		return nil, err
	}

	index, err := im.buildIndex(ctx)
	if err != nil {
		return nil, err
	}

	rows := im.classify(records, index)
	summary := BuildSummary(rows, invalid, im.cfg.SampleLimit)

	log.Info("preview completed",
		slog.Int("total", summary.TotalRegistros),
		slog.Int("matched", summary.Matched),
		slog.Int("duplicados", summary.Duplicados),
		slog.Int("sin_coincidir", summary.SinCoincidir),
		slog.Int("invalidos", summary.Invalidos))

	return summary, nil
}

// Execute re-parses the file and commits matched expanded rows in
// fixed-size atomic batches, each with its generated installment
// schedule and audit entry.
func (im *AcuerdoImporter) Execute(ctx context.Context, reader io.Reader, filename, usuario string) (*Result, error) {
	log := logger.NewRunLogger(domain.TipoImportacionAcuerdos, filename)

	records, invalid, err := im.parse(ctx, reader, filename)
	if err != nil {
		return nil, err
	}

	index, err := im.buildIndex(ctx)
	if err != nil {
		return nil, err
	}

	imp := &domain.Importacion{
		Tipo:           domain.TipoImportacionAcuerdos,
		NombreArchivo:  filename,
		Usuario:        usuario,
		Estado:         domain.ImportacionRunning,
		TotalRegistros: len(records) + invalid,
	}
	if err := im.ledger.Create(ctx, imp); err != nil {
		return nil, err
	}

	rows := im.classify(records, index)

	matched := make([]*domain.AcuerdoPago, 0, len(rows))
	skipped := invalid
	for _, row := range rows {
		if row.Class != ClassMatched {
			skipped++
			continue
		}
		matched = append(matched, im.toAcuerdo(row, usuario))
	}

	results := make([]BatchResult, 0)
	for i, b := range batchBounds(len(matched), im.cfg.BatchSize) {
		batch := matched[b[0]:b[1]]
		res := BatchResult{Index: i, Size: len(batch)}
		if err := im.store.CreateBatch(ctx, batch); err != nil {
			res.Err = err
			log.Error("batch commit failed",
				slog.Int("batch", i+1),
				slog.Int("size", len(batch)),
				"error", err)
		}
		results = append(results, res)
	}

	succeeded, failed, errs := FoldResults(results)
	imp.Finish(succeeded, failed, skipped, errs)
	if err := im.ledger.Finish(ctx, imp); err != nil {
		log.Error("failed to finalize import ledger", "error", err)
		return nil, err
	}

	log.Info("import completed",
		slog.String("importacion_id", imp.ID.String()),
		slog.String("estado", imp.Estado),
		slog.Int("exitosos", succeeded),
		slog.Int("fallidos", failed),
		slog.Int("omitidos", skipped))

	return &Result{
		ImportacionID:  imp.ID,
		NombreArchivo:  filename,
		TotalRegistros: imp.TotalRegistros,
		Importados:     succeeded,
		Omitidos:       skipped,
		Fallidos:       failed,
		Errores:        errs,
	}, nil
}

// toAcuerdo materializes one matched expanded row into the agreement
// aggregate with its derived schedule, deadline and audit entry.
func (im *AcuerdoImporter) toAcuerdo(row ClassifiedRow, usuario string) *domain.AcuerdoPago {
	rec := row.Row.(AcuerdoRecord)
	schedule := BuildSchedule(rec.NumeroCuotas, rec.FechaAcuerdo, rec.Detalles, rec.OverridePrescripcion, im.cfg.PrescriptionYears)

	estado := domain.AcuerdoVigente
	if rec.NumeroCuotas > 0 {
		paid := 0
		for _, c := range schedule.Cuotas {
			if c.Pagada {
				paid++
			}
		}
		if paid == rec.NumeroCuotas {
			estado = domain.AcuerdoCumplido
		}
	}

	a := &domain.AcuerdoPago{
		ProcesoID:         row.TargetID,
		NumeroComparendo:  rec.NumeroComparendo,
		HashImportacion:   rec.hash,
		NombreDeudor:      rec.NombreDeudor,
		ValorTotal:        rec.ValorTotal,
		CuotaInicial:      rec.CuotaInicial,
		PorcentajeInicial: rec.PorcentajeInicial,
		NumeroCuotas:      rec.NumeroCuotas,
		FechaAcuerdo:      rec.FechaAcuerdo,
		Estado:            estado,
		FechaPrescripcion: schedule.FechaPrescripcion,
		Cuotas:            schedule.Cuotas,
	}

	a.Historial = []domain.HistorialEstado{{
		EstadoNuevo: estado,
		Observacion: "creado por importación masiva",
		Usuario:     usuario,
	}}

	return a
}
