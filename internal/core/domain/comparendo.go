package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comparendo is a registered fine/ticket record. Comparendos are created
// by the regular CRUD screens; the bulk importer only reads them to
// resolve which collection case an imported row belongs to.
type Comparendo struct {
	ID                      uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Numero                  string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_comparendos_numero" json:"numero"`
	NombreInfractor         string     `gorm:"type:varchar(255)" json:"nombre_infractor"`
	IdentificacionInfractor string     `gorm:"type:varchar(50);index:idx_comparendos_identificacion" json:"identificacion_infractor"`
	FechaImposicion         *time.Time `json:"fecha_imposicion,omitempty"`
	CreatedAt               time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Comparendo) TableName() string {
	return "comparendos"
}

// BeforeCreate GORM hook
func (c *Comparendo) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
