package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistorialEstado is one audit-trail entry recording a status change or
// creation event on a proceso or agreement. The importer writes one per
// created record inside the same transaction.
type HistorialEstado struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ProcesoID      *uuid.UUID `gorm:"type:uuid;index:idx_historial_proceso" json:"proceso_id,omitempty"`
	AcuerdoID      *uuid.UUID `gorm:"type:uuid;index:idx_historial_acuerdo" json:"acuerdo_id,omitempty"`
	EstadoAnterior string     `gorm:"type:varchar(50)" json:"estado_anterior"`
	EstadoNuevo    string     `gorm:"type:varchar(50);not null" json:"estado_nuevo"`
	Observacion    string     `gorm:"type:text" json:"observacion"`
	Usuario        string     `gorm:"type:varchar(255)" json:"usuario"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (HistorialEstado) TableName() string {
	return "historial_estados"
}

// BeforeCreate GORM hook
func (h *HistorialEstado) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
