package database

import (
	"fmt"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/domain"
)

// Migrate creates or updates the schema for every persisted aggregate.
// Intended for development and tests; production deploys run SQL
// migrations out of band.
func (db *PostgresDB) Migrate() error {
	err := db.DB.AutoMigrate(
		&domain.Comparendo{},
		&domain.Proceso{},
		&domain.Resolucion{},
		&domain.CobroCoactivo{},
		&domain.AcuerdoPago{},
		&domain.CuotaAcuerdo{},
		&domain.HistorialEstado{},
		&domain.Importacion{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
