package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Import run statuses. A run is created as "running" before any row is
// processed so that an abnormal termination is still observable.
const (
	ImportacionRunning             = "running"
	ImportacionCompleted           = "completed"
	ImportacionCompletedWithErrors = "completed_with_errors"
	ImportacionFailed              = "failed"
)

// TipoImportacion selects which pipeline an import run uses
type TipoImportacion string

// Import types (one per target collection)
const (
	TipoImportacionProcesos = "procesos"
	TipoImportacionAcuerdos = "acuerdos"
)

// Importacion is the persisted ledger record of one import run. It is
// created before row processing starts and updated exactly once at the
// end with final counts and status.
type Importacion struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Tipo           TipoImportacion `gorm:"type:varchar(50);not null;index:idx_importaciones_tipo" json:"tipo"`
	NombreArchivo  string          `gorm:"type:varchar(500);not null" json:"nombre_archivo"`
	Usuario        string          `gorm:"type:varchar(255);not null" json:"usuario"`
	Estado         string          `gorm:"type:varchar(50);not null;default:'running'" json:"estado"`
	TotalRegistros int             `gorm:"default:0" json:"total_registros"`
	Exitosos       int             `gorm:"default:0" json:"exitosos"`
	Fallidos       int             `gorm:"default:0" json:"fallidos"`
	Omitidos       int             `gorm:"default:0" json:"omitidos"`
	// Errores holds one human-readable message per failed batch.
	Errores     []string   `gorm:"type:jsonb;serializer:json" json:"errores,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (Importacion) TableName() string {
	return "importaciones"
}

// BeforeCreate GORM hook
func (i *Importacion) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Finish sets the final counts and derives the terminal status:
// completed when nothing failed, failed when nothing succeeded,
// completed_with_errors otherwise.
func (i *Importacion) Finish(exitosos, fallidos, omitidos int, errores []string) {
	i.Exitosos = exitosos
	i.Fallidos = fallidos
	i.Omitidos = omitidos
	i.Errores = errores

	switch {
	case exitosos == 0:
		i.Estado = ImportacionFailed
	case fallidos == 0:
		i.Estado = ImportacionCompleted
	default:
		i.Estado = ImportacionCompletedWithErrors
	}

	now := time.Now().UTC()
	i.CompletedAt = &now
}
