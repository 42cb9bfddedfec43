package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Proceso statuses
const (
	EstadoPendiente     = "pendiente"
	EstadoCobroCoactivo = "cobro_coactivo"
	EstadoAcuerdoPago   = "acuerdo_pago"
	EstadoTerminado     = "terminado"
)

// Proceso is a collection case created from an imported external-system
// row, attached to a registered comparendo.
type Proceso struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ComparendoID     uuid.UUID `gorm:"type:uuid;not null;index:idx_procesos_comparendo" json:"comparendo_id"`
	NumeroComparendo string    `gorm:"type:varchar(100);not null;index:idx_procesos_numero" json:"numero_comparendo"`
	// HashImportacion is the idempotency key of the source row that
	// created this proceso. The unique index is the last line of defense
	// against double imports.
	HashImportacion string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_procesos_hash" json:"hash_importacion"`
	NombreInfractor string          `gorm:"type:varchar(255)" json:"nombre_infractor"`
	ValorMulta      decimal.Decimal `gorm:"type:numeric(14,2)" json:"valor_multa"`
	FechaImposicion *time.Time      `json:"fecha_imposicion,omitempty"`
	Estado          string          `gorm:"type:varchar(50);not null;default:'pendiente'" json:"estado"`
	// FechaPrescripcion is the statute-of-limitations deadline derived at
	// import time; nil when no base date was available.
	FechaPrescripcion *time.Time `json:"fecha_prescripcion,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Comparendo *Comparendo       `gorm:"foreignKey:ComparendoID" json:"comparendo,omitempty"`
	Resolucion *Resolucion       `gorm:"foreignKey:ProcesoID;constraint:OnDelete:CASCADE" json:"resolucion,omitempty"`
	Cobros     []CobroCoactivo   `gorm:"foreignKey:ProcesoID;constraint:OnDelete:CASCADE" json:"cobros,omitempty"`
	Historial  []HistorialEstado `gorm:"foreignKey:ProcesoID;constraint:OnDelete:CASCADE" json:"historial,omitempty"`
}

// TableName specifies the table name for GORM
func (Proceso) TableName() string {
	return "procesos"
}

// BeforeCreate GORM hook
func (p *Proceso) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Resolucion is the sanction resolution backing a proceso (one per
// proceso when the source supplied one).
type Resolucion struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ProcesoID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_resoluciones_proceso" json:"proceso_id"`
	Numero          string     `gorm:"type:varchar(100);not null;index:idx_resoluciones_numero" json:"numero"`
	FechaResolucion *time.Time `json:"fecha_resolucion,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Resolucion) TableName() string {
	return "resoluciones"
}

// BeforeCreate GORM hook
func (r *Resolucion) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// CobroCoactivo is an active enforcement-collection sub-record of a
// proceso. Created when the source row carried an enforcement stage.
type CobroCoactivo struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ProcesoID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_cobros_proceso" json:"proceso_id"`
	FechaInicio *time.Time `json:"fecha_inicio,omitempty"`
	Etapa       string     `gorm:"type:varchar(100)" json:"etapa"`
	Activo      bool       `gorm:"default:true" json:"activo"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (CobroCoactivo) TableName() string {
	return "cobros_coactivos"
}

// BeforeCreate GORM hook
func (c *CobroCoactivo) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
