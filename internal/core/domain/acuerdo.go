package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AcuerdoPago statuses
const (
	AcuerdoVigente    = "vigente"
	AcuerdoCumplido   = "cumplido"
	AcuerdoIncumplido = "incumplido"
)

// AcuerdoPago is a payment agreement imported from the external system,
// attached to an existing proceso. One source row covering several case
// references expands to one AcuerdoPago per referenced proceso.
type AcuerdoPago struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ProcesoID        uuid.UUID `gorm:"type:uuid;not null;index:idx_acuerdos_proceso" json:"proceso_id"`
	NumeroComparendo string    `gorm:"type:varchar(100);not null;index:idx_acuerdos_numero" json:"numero_comparendo"`
	// HashImportacion is the idempotency key of the expanded source row
	// that created this agreement.
	HashImportacion   string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_acuerdos_hash" json:"hash_importacion"`
	NombreDeudor      string          `gorm:"type:varchar(255)" json:"nombre_deudor"`
	ValorTotal        decimal.Decimal `gorm:"type:numeric(14,2)" json:"valor_total"`
	CuotaInicial      decimal.Decimal `gorm:"type:numeric(14,2)" json:"cuota_inicial"`
	PorcentajeInicial float64         `gorm:"type:numeric(5,2)" json:"porcentaje_inicial"`
	NumeroCuotas      int             `gorm:"not null;default:0" json:"numero_cuotas"`
	FechaAcuerdo      *time.Time      `json:"fecha_acuerdo,omitempty"`
	Estado            string          `gorm:"type:varchar(50);not null;default:'vigente'" json:"estado"`
	// FechaPrescripcion is the deadline re-derived from the agreement's
	// installment payments (see the deadline derivation rules).
	FechaPrescripcion *time.Time `json:"fecha_prescripcion,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Proceso   *Proceso          `gorm:"foreignKey:ProcesoID" json:"proceso,omitempty"`
	Cuotas    []CuotaAcuerdo    `gorm:"foreignKey:AcuerdoID;constraint:OnDelete:CASCADE" json:"cuotas,omitempty"`
	Historial []HistorialEstado `gorm:"foreignKey:AcuerdoID;constraint:OnDelete:CASCADE" json:"historial,omitempty"`
}

// TableName specifies the table name for GORM
func (AcuerdoPago) TableName() string {
	return "acuerdos_pago"
}

// BeforeCreate GORM hook
func (a *AcuerdoPago) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// CuotaAcuerdo is one installment row of a payment agreement's schedule.
// A paid installment carries FechaPago and no due date; an unpaid one
// carries FechaVencimiento.
type CuotaAcuerdo struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AcuerdoID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_cuotas_acuerdo" json:"acuerdo_id"`
	Numero           int             `gorm:"not null" json:"numero"`
	Valor            decimal.Decimal `gorm:"type:numeric(14,2)" json:"valor"`
	FechaVencimiento *time.Time      `json:"fecha_vencimiento,omitempty"`
	FechaPago        *time.Time      `json:"fecha_pago,omitempty"`
	Pagada           bool            `gorm:"default:false" json:"pagada"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (CuotaAcuerdo) TableName() string {
	return "cuotas_acuerdo"
}

// BeforeCreate GORM hook
func (c *CuotaAcuerdo) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
