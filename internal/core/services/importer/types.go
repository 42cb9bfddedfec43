// Package importer implements the bulk import and reconciliation engine:
// the preview/execute pipelines that merge external case-management
// exports into the application's store without creating duplicates and
// without losing partially-failed work.
package importer

import (
	"context"

	"github.com/google/uuid"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/domain"
	"github.com/dfmunozb/cobro-coactivo-service/internal/core/services/matching"
)

// Class is the classification of one parsed row
type Class string

const (
	// ClassMatched resolves to an existing target record and has not
	// been imported before.
	ClassMatched Class = "matched"
	// ClassDuplicate carries an idempotency key already present in the
	// store or earlier in the same file.
	ClassDuplicate Class = "duplicate"
	// ClassUnmatched found no target record.
	ClassUnmatched Class = "unmatched"
)

// RowInfo is what the classifier and preview need to know about a
// parsed row, regardless of which pipeline produced it.
type RowInfo interface {
	// RowNumber is the source file line, for error reporting.
	RowNumber() int
	// NaturalID is the human-meaningful reference number.
	NaturalID() string
	// IdempotencyKey is the row's canonical already-imported key.
	IdempotencyKey() string
	// Counterparty is the person the row concerns, for preview labels.
	Counterparty() string
}

// ClassifiedRow is a parsed row plus its classification. TargetID and
// TargetLabel are only set for matched rows; duplicate and unmatched
// rows are read-only in the execute phase.
type ClassifiedRow struct {
	Row         RowInfo
	Class       Class
	TargetID    uuid.UUID
	TargetLabel string
}

// Result is what the execute operation returns to the operator.
type Result struct {
	ImportacionID  uuid.UUID `json:"importacion_id"`
	NombreArchivo  string    `json:"nombre_archivo"`
	TotalRegistros int       `json:"total_registros"`
	Importados     int       `json:"importados"`
	Omitidos       int       `json:"omitidos"`
	Fallidos       int       `json:"fallidos"`
	// Errores holds one human-readable message per failed batch.
	Errores []string `json:"errores,omitempty"`
}

// MatchSource is the read side every pipeline needs at run start: one
// bulk read of the target collection and one of the already-persisted
// idempotency keys.
type MatchSource interface {
	ListTargets(ctx context.Context) ([]matching.Target, error)
	ListImportHashes(ctx context.Context) ([]string, error)
}

// ProcesoStore is the store surface of the case import pipeline.
// CreateBatch must commit the whole slice, dependents and audit entries
// included, as one atomic transaction.
type ProcesoStore interface {
	MatchSource
	CreateBatch(ctx context.Context, procesos []*domain.Proceso) error
}

// AcuerdoStore is the store surface of the agreement import pipeline.
type AcuerdoStore interface {
	MatchSource
	CreateBatch(ctx context.Context, acuerdos []*domain.AcuerdoPago) error
}

// Ledger persists the one summary record per import invocation.
type Ledger interface {
	Create(ctx context.Context, imp *domain.Importacion) error
	Finish(ctx context.Context, imp *domain.Importacion) error
}
