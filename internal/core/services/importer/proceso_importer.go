package importer

import (
	"context"
	"io"
	"log/slog"
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

// Logical columns of a comparendo export
const (
	colComparendo       = "numero_comparendo"
	colFechaImposicion  = "fecha_imposicion"
	colValorMulta       = "valor_multa"
	colInfractor        = "nombre_infractor"
	colIdentificacion   = "identificacion"
	colEstadoFuente     = "estado"
	colNumeroResolucion = "numero_resolucion"
	colFechaResolucion  = "fecha_resolucion"
	colFechaInicioCobro = "fecha_inicio_cobro"
	colEtapaCobro       = "etapa_cobro"
)

// procesoColumns is the fixed alias table of the case export. The
// external system renamed headers across versions; aliases are matched
// case- and diacritic-insensitively by substring.
var procesoColumns = []tabular.ColumnSpec{
	{Name: colComparendo, Aliases: []string{"N COMPARENDO", "NUMERO COMPARENDO", "COMPARENDO"}, Required: true},
	{Name: colFechaImposicion, Aliases: []string{"FECHA IMPOSICION", "FECHA COMPARENDO", "FECHA INFRACCION"}, Required: true},
	{Name: colValorMulta, Aliases: []string{"VALOR MULTA", "VALOR SANCION", "VALOR"}, Required: true},
	{Name: colInfractor, Aliases: []string{"NOMBRE INFRACTOR", "INFRACTOR", "NOMBRE"}, Required: false},
	{Name: colIdentificacion, Aliases: []string{"IDENTIFICACION", "CEDULA", "DOCUMENTO"}, Required: false},
	{Name: colEstadoFuente, Aliases: []string{"ESTADO PROCESO", "ESTADO", "ETAPA PROCESAL"}, Required: false},
	{Name: colNumeroResolucion, Aliases: []string{"N RESOLUCION", "NUMERO RESOLUCION", "RESOLUCION"}, Required: false},
	{Name: colFechaResolucion, Aliases: []string{"FECHA RESOLUCION"}, Required: false},
	{Name: colFechaInicioCobro, Aliases: []string{"FECHA COBRO COACTIVO", "FECHA INICIO COBRO", "INICIO COBRO"}, Required: false},
	{Name: colEtapaCobro, Aliases: []string{"ETAPA COBRO", "ETAPA COACTIVO"}, Required: false},
}

// Reference dates outside this window are legacy-system noise and skip
// the row (non-fatal).
const (
	minReferenceYear = 1990
)

// ProcesoRecord is the typed projection of one case export row.
// Immutable once built.
type ProcesoRecord struct {
	rowNumber int
	hash      string

	NumeroComparendo string
	NombreInfractor  string
	Identificacion   string
	FechaImposicion  *time.Time
	ValorMulta       decimal.Decimal
	EstadoFuente     string
	NumeroResolucion string
	FechaResolucion  *time.Time
	FechaInicioCobro *time.Time
	EtapaCobro       string
}

// RowNumber implements RowInfo
func (r ProcesoRecord) RowNumber() int { return r.rowNumber }

// NaturalID implements RowInfo
func (r ProcesoRecord) NaturalID() string { return r.NumeroComparendo }

// IdempotencyKey implements RowInfo
func (r ProcesoRecord) IdempotencyKey() string { return r.hash }

// Counterparty implements RowInfo
func (r ProcesoRecord) Counterparty() string { return r.NombreInfractor }

// ProcesoImporter is the case import pipeline: it ingests comparendo
// exports and creates collection cases for comparendos registered in
// the application.
type ProcesoImporter struct {
	decoders *tabular.Factory
	store    ProcesoStore
	ledger   Ledger
	cfg      config.ImportConfig
	logger   *slog.Logger
}

// NewProcesoImporter creates the case import pipeline
func NewProcesoImporter(decoders *tabular.Factory, store ProcesoStore, ledger Ledger, cfg config.ImportConfig, log *slog.Logger) *ProcesoImporter {
	if log == nil {
		log = logger.NewServiceLogger("proceso-importer")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &ProcesoImporter{
		decoders: decoders,
		store:    store,
		ledger:   ledger,
		cfg:      cfg,
		logger:   log,
	}
}

// parse decodes, binds columns and normalizes each row into a typed
// record. Rows with an empty natural identifier or an out-of-range
// reference date are dropped and counted, never fatal. Fatal failures
// (unreadable file, missing required column, no data rows) abort the
// run before anything is written.
func (im *ProcesoImporter) parse(ctx context.Context, reader io.Reader, filename string) ([]ProcesoRecord, int, error) {
	table, err := im.decoders.Decode(ctx, filename, reader)
	if err != nil {
		return nil, 0, err
	}

	layout, err := tabular.Bind(table.Header, procesoColumns)
	if err != nil {
		return nil, 0, err
	}

	records := make([]ProcesoRecord, 0, len(table.Rows))
	invalid := 0
	maxYear := time.Now().Year() + 1

	for _, row := range table.Rows {
		numero := normalize.Identifier(layout.Cell(row, colComparendo))
		if numero == "" {
			invalid++
			continue
		}

		fechaImposicion := normalize.DatePtr(layout.Cell(row, colFechaImposicion))
		if fechaImposicion != nil && (fechaImposicion.Year() < minReferenceYear || fechaImposicion.Year() > maxYear) {
			invalid++
			continue
		}

		valor, _ := normalize.Amount(layout.Cell(row, colValorMulta), normalize.ConvencionPesos)
		identificacion := normalize.Identifier(layout.Cell(row, colIdentificacion))

		rec := ProcesoRecord{
			rowNumber:        row.Number,
			NumeroComparendo: numero,
			NombreInfractor:  normalize.Text(layout.Cell(row, colInfractor)),
			Identificacion:   identificacion,
			FechaImposicion:  fechaImposicion,
			ValorMulta:       valor,
			EstadoFuente:     normalize.Text(layout.Cell(row, colEstadoFuente)),
			NumeroResolucion: normalize.Identifier(layout.Cell(row, colNumeroResolucion)),
			FechaResolucion:  normalize.DatePtr(layout.Cell(row, colFechaResolucion)),
			FechaInicioCobro: normalize.DatePtr(layout.Cell(row, colFechaInicioCobro)),
			EtapaCobro:       normalize.Text(layout.Cell(row, colEtapaCobro)),
		}
		rec.hash = keys.Idempotency(rec.NumeroComparendo, rec.FechaImposicion, rec.ValorMulta, rec.Identificacion)
		records = append(records, rec)
	}

	return records, invalid, nil
}

// buildIndex does the run's single bulk read of the target collection
func (im *ProcesoImporter) buildIndex(ctx context.Context) (*matching.Index, error) {
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

// classify tags every record in file order
func (im *ProcesoImporter) classify(records []ProcesoRecord, index *matching.Index) []ClassifiedRow {
	classifier := NewClassifier(index)
	rows := make([]ClassifiedRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, classifier.Classify(rec))
	}
	return rows
}

// Preview parses and classifies the file and returns aggregate counts
// plus capped samples for operator review. It never writes.
func (im *ProcesoImporter) Preview(ctx context.Context, reader io.Reader, filename string) (*Summary, error) {
	log := logger.NewRunLogger(domain.TipoImportacionProcesos, filename)

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

// Execute re-parses the file (the preview is not trusted as the source
// of truth for the write), classifies it against fresh store state and
// commits matched rows in fixed-size atomic batches. Batch failures are
// isolated; only pre-write and run-level failures propagate.
func (im *ProcesoImporter) Execute(ctx context.Context, reader io.Reader, filename, usuario string) (*Result, error) {
	log := logger.NewRunLogger(domain.TipoImportacionProcesos, filename)

	records, invalid, err := im.parse(ctx, reader, filename)
	if err != nil {
		return nil, err
	}

	index, err := im.buildIndex(ctx)
	if err != nil {
		return nil, err
	}

	imp := &domain.Importacion{
		Tipo:           domain.TipoImportacionProcesos,
		NombreArchivo:  filename,
		Usuario:        usuario,
		Estado:         domain.ImportacionRunning,
		TotalRegistros: len(records) + invalid,
	}
	if err := im.ledger.Create(ctx, imp); err != nil {
		return nil, err
	}

	rows := im.classify(records, index)

	matched := make([]*domain.Proceso, 0, len(rows))
	skipped := invalid
	for _, row := range rows {
		if row.Class != ClassMatched {
			skipped++
			continue
		}
		matched = append(matched, im.toProceso(row, usuario))
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

// toProceso materializes the domain aggregate of one matched row, with
// its derived state and dependent records, ready for a single-
// transaction commit.
func (im *ProcesoImporter) toProceso(row ClassifiedRow, usuario string) *domain.Proceso {
	rec := row.Row.(ProcesoRecord)
	estado := EstadoFromLabel(rec.EstadoFuente)

	p := &domain.Proceso{
		ComparendoID:      row.TargetID,
		NumeroComparendo:  rec.NumeroComparendo,
		HashImportacion:   rec.hash,
		NombreInfractor:   rec.NombreInfractor,
		ValorMulta:        rec.ValorMulta,
		FechaImposicion:   rec.FechaImposicion,
		Estado:            estado,
		FechaPrescripcion: FechaPrescripcion(rec.FechaInicioCobro, rec.FechaImposicion, im.cfg.PrescriptionYears),
	}

	if rec.NumeroResolucion != "" {
		p.Resolucion = &domain.Resolucion{
			Numero:          rec.NumeroResolucion,
			FechaResolucion: rec.FechaResolucion,
		}
	}

	if estado == domain.EstadoCobroCoactivo {
		p.Cobros = []domain.CobroCoactivo{{
			FechaInicio: rec.FechaInicioCobro,
			Etapa:       rec.EtapaCobro,
			Activo:      true,
		}}
	}

	p.Historial = []domain.HistorialEstado{{
		EstadoNuevo: estado,
		Observacion: "creado por importación masiva",
		Usuario:     usuario,
	}}

	return p
}
