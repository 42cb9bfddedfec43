package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/domain"
	"github.com/dfmunozb/cobro-coactivo-service/internal/core/services/matching"
)

// ProcesoRepository implements the importer.ProcesoStore interface
// using GORM. Targets of the case import are registered comparendos.
type ProcesoRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewProcesoRepository creates a new repository instance
func NewProcesoRepository(db *gorm.DB, logger *slog.Logger) *ProcesoRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcesoRepository{db: db, logger: logger}
}

// ListTargets does the run's single bulk read of the comparendo
// registry: every registered comparendo with its natural identifier and
// preview label.
func (r *ProcesoRepository) ListTargets(ctx context.Context) ([]matching.Target, error) {
	var comparendos []domain.Comparendo

	err := r.db.WithContext(ctx).
		Select("id", "numero", "nombre_infractor").
		Find(&comparendos).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comparendos: %w", err)
	}

	targets := make([]matching.Target, 0, len(comparendos))
	for _, c := range comparendos {
		targets = append(targets, matching.Target{
			ID:          c.ID,
			Identifiers: []string{c.Numero},
			Label:       c.NombreInfractor,
		})
	}
	return targets, nil
}

// ListImportHashes returns the idempotency keys of every persisted
// proceso in one bulk read.
func (r *ProcesoRepository) ListImportHashes(ctx context.Context) ([]string, error) {
	var hashes []string

	err := r.db.WithContext(ctx).
		Model(&domain.Proceso{}).
		Pluck("hash_importacion", &hashes).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list import hashes: %w", err)
	}
	return hashes, nil
}

// CreateBatch commits one batch of procesos, dependents and audit
// entries included, as a single transaction. Any failure rolls back the
// whole batch and leaves previously committed batches untouched.
func (r *ProcesoRepository) CreateBatch(ctx context.Context, procesos []*domain.Proceso) error {
	if len(procesos) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range procesos {
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("proceso batch insert failed",
			slog.Int("batch_size", len(procesos)),
			slog.Any("error", err))
		return fmt.Errorf("failed to insert proceso batch: %w", err)
	}

	r.logger.Debug("proceso batch committed", slog.Int("batch_size", len(procesos)))
	return nil
}
