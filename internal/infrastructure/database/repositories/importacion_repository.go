package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/domain"
	apperrors "github.com/dfmunozb/cobro-coactivo-service/internal/pkg/errors"
)

// ImportacionRepository persists the import-run ledger
type ImportacionRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewImportacionRepository creates a new repository instance
func NewImportacionRepository(db *gorm.DB, logger *slog.Logger) *ImportacionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportacionRepository{db: db, logger: logger}
}

// Create inserts the ledger record in its running state, before any row
// is processed, so a crashed run still leaves a trace.
func (r *ImportacionRepository) Create(ctx context.Context, imp *domain.Importacion) error {
	if err := r.db.WithContext(ctx).Create(imp).Error; err != nil {
		return fmt.Errorf("failed to create importacion: %w", err)
	}
	r.logger.Info("import run started",
		slog.String("importacion_id", imp.ID.String()),
		slog.String("tipo", string(imp.Tipo)),
		slog.String("archivo", imp.NombreArchivo))
	return nil
}

// Finish writes the run's final counters and terminal status
func (r *ImportacionRepository) Finish(ctx context.Context, imp *domain.Importacion) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Importacion{}).
		Where("id = ?", imp.ID).
		Select("estado", "total_registros", "exitosos", "fallidos", "omitidos", "errores", "completed_at").
		Updates(imp).
		Error
	if err != nil {
		return fmt.Errorf("failed to finish importacion: %w", err)
	}
	r.logger.Info("import run finished",
		slog.String("importacion_id", imp.ID.String()),
		slog.String("estado", string(imp.Estado)),
		slog.Int("exitosos", imp.Exitosos),
		slog.Int("fallidos", imp.Fallidos),
		slog.Int("omitidos", imp.Omitidos))
	return nil
}

// GetByID retrieves one ledger record
func (r *ImportacionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Importacion, error) {
	var imp domain.Importacion
	err := r.db.WithContext(ctx).First(&imp, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("importacion")
		}
		return nil, fmt.Errorf("failed to get importacion: %w", err)
	}
	return &imp, nil
}

// List returns ledger records newest first, optionally filtered by
// import type.
func (r *ImportacionRepository) List(ctx context.Context, tipo domain.TipoImportacion, limit, offset int) ([]domain.Importacion, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Importacion{})
	if tipo != "" {
		query = query.Where("tipo = ?", tipo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count importaciones: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}

	var imps []domain.Importacion
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&imps).
		Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list importaciones: %w", err)
	}
	return imps, total, nil
}
