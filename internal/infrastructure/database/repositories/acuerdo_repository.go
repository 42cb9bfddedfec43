package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/domain"
	"github.com/dfmunozb/cobro-coactivo-service/internal/core/services/matching"
)

// AcuerdoRepository implements the importer.AcuerdoStore interface
// using GORM. Targets of the agreement import are existing procesos,
// addressable by comparendo number or by resolution number.
type AcuerdoRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewAcuerdoRepository creates a new repository instance
func NewAcuerdoRepository(db *gorm.DB, logger *slog.Logger) *AcuerdoRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &AcuerdoRepository{db: db, logger: logger}
}

// ListTargets bulk-reads every proceso with its resolution so an
// agreement row can match on either reference number.
func (r *AcuerdoRepository) ListTargets(ctx context.Context) ([]matching.Target, error) {
	var procesos []domain.Proceso

	err := r.db.WithContext(ctx).
		Preload("Resolucion").
		Select("id", "numero_comparendo", "nombre_infractor").
		Find(&procesos).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list procesos: %w", err)
	}

	targets := make([]matching.Target, 0, len(procesos))
	for _, p := range procesos {
		ids := []string{p.NumeroComparendo}
		if p.Resolucion != nil && p.Resolucion.Numero != "" {
			ids = append(ids, p.Resolucion.Numero)
		}
		targets = append(targets, matching.Target{
			ID:          p.ID,
			Identifiers: ids,
			Label:       p.NombreInfractor,
		})
	}
	return targets, nil
}

// ListImportHashes returns the idempotency keys of every persisted
// payment agreement.
func (r *AcuerdoRepository) ListImportHashes(ctx context.Context) ([]string, error) {
	var hashes []string

	err := r.db.WithContext(ctx).
		Model(&domain.AcuerdoPago{}).
		Pluck("hash_importacion", &hashes).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list import hashes: %w", err)
	}
	return hashes, nil
}

// CreateBatch commits one batch of agreements with their installment
// schedules and audit entries in a single transaction.
func (r *AcuerdoRepository) CreateBatch(ctx context.Context, acuerdos []*domain.AcuerdoPago) error {
	if len(acuerdos) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range acuerdos {
			if err := tx.Create(a).Error; err != nil {
				return err
			}
			// The agreement moves its proceso out of the collection
			// track in the same transaction.
			updates := map[string]interface{}{"estado": domain.EstadoAcuerdoPago}
			if err := tx.Model(&domain.Proceso{}).
				Where("id = ?", a.ProcesoID).
				Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("acuerdo batch insert failed",
			slog.Int("batch_size", len(acuerdos)),
			slog.Any("error", err))
		return fmt.Errorf("failed to insert acuerdo batch: %w", err)
	}

	r.logger.Debug("acuerdo batch committed", slog.Int("batch_size", len(acuerdos)))
	return nil
}
